// Package app wires the reminder server together: config, logging, the
// notes store, the scheduler, the client hub, and the HTTP listener.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/config"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/eventbus"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/extract"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/hub"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/reminder"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/store"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/ws"
	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	store store.Store
	hub   *hub.Hub
	rem   *reminder.Service
	pprof *pprofServer

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	stopBg  context.CancelFunc
	bgWG    sync.WaitGroup
	cfgSub  chan *config.Config
	started bool
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(mapLoggingConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(logs.Logger().With(logx.String("comp", "config")))

	bus := eventbus.New()

	storeCfg, err := mapStorageConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(storeCfg, logs.Logger().With(logx.String("comp", "store")))
	if err != nil {
		return nil, err
	}
	if st == nil {
		log.Warn("notes store disabled, running on live-pushed rules only")
	}

	h := hub.New(logs.Logger().With(logx.String("comp", "hub")), bus)

	remCfg, err := mapReminderConfig(cfg.Reminder)
	if err != nil {
		return nil, err
	}
	rem := reminder.New(remCfg,
		extract.PageSource{Pages: st}, h,
		logs.Logger().With(logx.String("comp", "reminder")), bus)

	a := &App{
		cfgm:  cfgm,
		logs:  logs,
		log:   log,
		bus:   bus,
		store: st,
		hub:   h,
		rem:   rem,
		pprof: newPprofServer(logs.Logger()),
	}

	mux := http.NewServeMux()
	mux.Handle(wsPath(cfg), ws.NewHandler(h, rem, logs.Logger().With(logx.String("comp", "ws"))))
	addr := strings.TrimSpace(cfg.Server.Addr)
	if addr == "" {
		addr = ":8080"
	}
	a.srv = &http.Server{Addr: addr, Handler: mux}

	return a, nil
}

func wsPath(cfg *config.Config) string {
	p := strings.TrimSpace(cfg.Server.Path)
	if p == "" {
		p = "/ws"
	}
	return p
}

func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	cfg := a.cfgm.Get()

	a.rem.Start(ctx)
	a.pprof.Apply(ctx, cfg.Pprof)

	ln, err := net.Listen("tcp", a.srv.Addr)
	if err != nil {
		return err
	}
	a.ln = ln
	go func() {
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", logx.Err(err))
		}
	}()

	// Hot reload: watch the config file and re-apply runtime sections.
	bgCtx, cancel := context.WithCancel(context.Background())
	a.stopBg = cancel
	a.cfgSub = a.cfgm.Subscribe(2)

	a.bgWG.Add(2)
	go func() {
		defer a.bgWG.Done()
		if err := a.cfgm.Watch(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()
	go func() {
		defer a.bgWG.Done()
		for {
			select {
			case <-bgCtx.Done():
				return
			case cfg, ok := <-a.cfgSub:
				if !ok {
					return
				}
				a.applyConfig(bgCtx, cfg)
			}
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("server started",
		logx.String("addr", ln.Addr().String()), logx.String("path", wsPath(cfg)))
	a.started = true
	return nil
}

// applyConfig re-applies the sections that support runtime changes. The
// listen address is fixed for the process lifetime; changing it requires a
// restart.
func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(mapLoggingConfig(cfg.Logging))

	remCfg, err := mapReminderConfig(cfg.Reminder)
	if err != nil {
		a.log.Warn("reminder config rejected", logx.Err(err))
	} else {
		a.rem.Apply(remCfg)
	}

	a.pprof.Apply(ctx, cfg.Pprof)
	a.log.Info("runtime config applied")
}

func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.started = false

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.stopBg != nil {
		a.stopBg()
	}
	if a.cfgSub != nil {
		a.cfgm.Unsubscribe(a.cfgSub)
		a.cfgSub = nil
	}
	a.bgWG.Wait()

	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown incomplete", logx.Err(err))
	}

	a.rem.Stop(shutdownCtx)
	a.pprof.Stop(shutdownCtx)

	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("server stopped")
	_ = a.logs.Close()
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}
