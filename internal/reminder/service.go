package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/eventbus"
	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

// Service is the notification scheduler. It owns the periodic tick, the
// live-pushed rule lists, the dedup cache, and the outbound rate limiter.
//
// Lifecycle: New() leaves it stopped; Start() arms the tick; Stop() cancels
// the next tick and lets an in-flight one finish. Start/Stop are idempotent.
type Service struct {
	mu  sync.Mutex
	cfg Config

	log    logx.Logger
	bus    eventbus.Bus
	source Source
	sink   Sink

	parser cron.Parser
	c      *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc

	limiter *rate.Limiter
	dedup   *dedupCache

	// Live-pushed records outlive any single connection; they belong to the
	// process, not to the session that pushed them.
	lmu         sync.Mutex
	liveEvents  []Event
	liveNotices []Notice
}

func New(cfg Config, source Source, sink Sink, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:    log,
		bus:    bus,
		source: source,
		sink:   sink,
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	old := s.applyLocked(cfg)
	s.mu.Unlock()

	// Drain the replaced cron without holding s.mu: its in-flight tick may
	// be inside emit, which takes s.mu to read the limiter and sink.
	if old != nil {
		<-old.Stop().Done()
	}
}

// applyLocked installs cfg and, when the tick cadence changed on a running
// service, swaps in a new cron and returns the old one for the caller to
// drain outside the lock.
func (s *Service) applyLocked(cfg Config) *cron.Cron {
	// Defaults
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.DedupCacheSize <= 0 {
		cfg.DedupCacheSize = 100
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 10
	}
	if cfg.MaxLiveRecords <= 0 {
		cfg.MaxLiveRecords = 1000
	}

	restart := s.c != nil && cfg.Interval != s.cfg.Interval
	s.cfg = cfg

	// Token bucket: burst = rate per sec, so a tick that fires several rules
	// at once doesn't immediately drop them.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	if s.dedup == nil {
		s.dedup = newDedupCache(cfg.DedupCacheSize)
	} else {
		s.dedup.Resize(cfg.DedupCacheSize)
	}

	if !restart {
		return nil
	}
	old := s.c
	s.c = cron.New(cron.WithParser(s.parser))
	s.addTickLocked()
	s.c.Start()
	s.log.Info("reminder scheduler restarted", logx.Duration("interval", s.cfg.Interval))
	return old
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	if !s.cfg.Enabled {
		s.log.Info("reminder scheduler disabled")
		return
	}

	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.c = cron.New(cron.WithParser(s.parser))
	s.addTickLocked()
	s.c.Start()
	s.log.Info("reminder scheduler started", logx.Duration("interval", s.cfg.Interval))
}

// Stop cancels the armed tick. An in-flight tick is not interrupted; it
// completes and no further tick is scheduled. Safe to call repeatedly.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	cancel := s.cancel
	s.c = nil
	s.cancel = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	// Wait for a running tick to drain, honoring the caller's deadline.
	done := c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if cancel != nil {
		cancel()
	}
	s.log.Info("reminder scheduler stopped")
}

func (s *Service) addTickLocked() {
	spec := fmt.Sprintf("@every %s", s.cfg.Interval.String())
	runCtx := s.runCtx
	if _, err := s.c.AddFunc(spec, func() {
		s.check(runCtx, time.Now())
	}); err != nil {
		s.log.Error("failed to arm tick", logx.Err(err), logx.String("spec", spec))
	}
}

// ForceCheck runs one evaluation pass outside the normal cadence, typically
// right after a client pushed new rules. It may race a scheduled tick; the
// dedup cache makes the overlap harmless.
func (s *Service) ForceCheck(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.check(ctx, time.Now())
}

// AddNotices appends live-pushed notices, dropping the oldest entries once
// the configured cap is exceeded.
func (s *Service) AddNotices(notices []Notice) {
	if len(notices) == 0 {
		return
	}
	s.mu.Lock()
	maxLive := s.cfg.MaxLiveRecords
	s.mu.Unlock()

	s.lmu.Lock()
	s.liveNotices = append(s.liveNotices, notices...)
	if n := len(s.liveNotices); n > maxLive {
		s.liveNotices = append([]Notice(nil), s.liveNotices[n-maxLive:]...)
	}
	s.lmu.Unlock()
}

// AddEvents appends live-pushed calendar events under the same cap.
func (s *Service) AddEvents(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	maxLive := s.cfg.MaxLiveRecords
	s.mu.Unlock()

	s.lmu.Lock()
	s.liveEvents = append(s.liveEvents, events...)
	if n := len(s.liveEvents); n > maxLive {
		s.liveEvents = append([]Event(nil), s.liveEvents[n-maxLive:]...)
	}
	s.lmu.Unlock()
}

func (s *Service) liveSnapshot() ([]Event, []Notice) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	return append([]Event(nil), s.liveEvents...), append([]Notice(nil), s.liveNotices...)
}
