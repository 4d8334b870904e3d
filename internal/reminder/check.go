package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/eventbus"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/rule"
	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

// check is one evaluation pass: pull, merge, evaluate, emit.
// Order is deterministic: events before notices, source order preserved.
func (s *Service) check(ctx context.Context, now time.Time) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		events  []Event
		notices []Notice
	)
	if s.source != nil {
		var err error
		events, notices, err = s.source.Pull(ctx)
		if err != nil {
			// Fail open: an unreadable store means no pulled rules this
			// tick, not a dead scheduler.
			s.log.Warn("rule pull failed, skipping pulled set this tick", logx.Err(err))
			s.publish("store.error", FireEvent{At: now, Error: err.Error()})
			events, notices = nil, nil
		}
	}

	liveEvents, liveNotices := s.liveSnapshot()
	events = append(events, liveEvents...)
	notices = append(notices, liveNotices...)

	for _, evt := range events {
		if evt.Reminder == "" {
			continue
		}
		eventTime, err := rule.ParseEventTime(evt.Date, evt.Start)
		if err != nil {
			s.log.Debug("skipping event with unusable time",
				logx.String("title", evt.Title), logx.String("date", evt.Date), logx.Err(err))
			continue
		}
		if rule.EventWindow(eventTime, evt.Reminder, now) {
			s.emit(now, Fire{
				Title: "📅 " + evt.Title,
				Body:  fmt.Sprintf("starts in %s", evt.Reminder),
				URL:   fmt.Sprintf("/p/%d", evt.OriginID),
			})
		}
	}

	for _, n := range notices {
		if !rule.Fires(n.Condition, now) {
			continue
		}
		source := n.SourcePage
		if source == "" {
			source = "system"
		}
		s.emit(now, Fire{
			Title: "🔔 " + n.Content,
			Body:  "from: " + source,
			URL:   fmt.Sprintf("/p/%d", n.PageID),
		})
	}
}

// emit filters one fire through the dedup cache and rate limiter, then hands
// the serialized payload to the sink.
func (s *Service) emit(now time.Time, f Fire) {
	// Minute-granular identity: repeat fires of the same rule within one
	// clock minute collapse to a single notification.
	id := fmt.Sprintf("%s_%s_%s", f.Title, f.Body, now.Format("200601021504"))

	if !s.dedup.ShouldSend(id) {
		s.publish("reminder.deduped", FireEvent{Title: f.Title, ID: id, At: now})
		return
	}

	s.mu.Lock()
	lim := s.limiter
	sink := s.sink
	s.mu.Unlock()

	if lim != nil && !lim.Allow() {
		s.log.Warn("notification dropped by rate limit", logx.String("title", f.Title))
		s.publish("reminder.dropped", FireEvent{Title: f.Title, ID: id, At: now})
		return
	}

	payload, err := json.Marshal(notificationMsg{
		Type: "notification",
		Data: notificationData{
			Title:     f.Title,
			Body:      f.Body,
			URL:       f.URL,
			Timestamp: now.Format(time.RFC3339),
			ID:        id,
		},
	})
	if err != nil {
		s.log.Error("notification marshal failed", logx.Err(err))
		return
	}

	delivered := 0
	if sink != nil {
		delivered = sink.Broadcast(payload)
	}
	s.log.Debug("notification fired",
		logx.String("title", f.Title), logx.Int("clients", delivered))
	s.publish("reminder.fired", FireEvent{Title: f.Title, ID: id, At: now})
}

func (s *Service) publish(typ string, data FireEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: data.At, Data: data})
}
