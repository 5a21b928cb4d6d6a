package inkbridge

import (
	"context"
	"errors"
	"net"
	"sync"

	"pkt.systems/inkbridge/core"
	"pkt.systems/inkbridge/httpapi"
	"pkt.systems/inkbridge/internal/eventbus"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

// Server composes the bridge loop and the HTTP host.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Loop is the goroutine every Host call must run on.
	Loop() *core.Loop
	Host() *core.Host
	Events() *eventbus.Bus
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Host      schema.HostConfig
	HTTP      httpapi.Config
	LoopDepth int
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	HostDeps core.HostDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	listener   net.Listener
}

// WithHTTP enables the HTTP API and editor page.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithListener serves HTTP on ln instead of listening on the configured address.
func WithListener(ln net.Listener) ServerOption {
	return func(o *serverOptions) {
		o.enableHTTP = true
		o.listener = ln
	}
}

// New constructs a composable inkbridge server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeHostConfig(cfg.Host)
	if err != nil {
		return nil, err
	}
	cfg.Host = normalized
	if cfg.HTTP.DefaultDocument == "" {
		cfg.HTTP.DefaultDocument = cfg.Host.DefaultDocument
	}

	hostDeps := deps.HostDeps
	bus := eventbus.New(hostDeps.Logger)
	if hostDeps.EventSink == nil {
		hostDeps.EventSink = bus
	} else if hostDeps.EventSink != bus {
		hostDeps.EventSink = eventFanout{sinks: []core.EventSink{hostDeps.EventSink, bus}}
	}
	host, err := core.NewHost(cfg.Host, hostDeps)
	if err != nil {
		return nil, err
	}
	loop := core.NewLoop(cfg.LoopDepth, hostDeps.Logger)
	hub := httpapi.NewHub(cfg.HTTP.OutboxHistory, cfg.HTTP.StreamDepth)
	httpSrv := httpapi.NewServer(cfg.HTTP, loop, host, bus, hub)

	return &compositeServer{
		cfg:      cfg,
		options:  options,
		httpSrv:  httpSrv,
		loop:     loop,
		host:     host,
		bus:      bus,
		listener: options.listener,
	}, nil
}

type compositeServer struct {
	cfg      ServerConfig
	options  serverOptions
	httpSrv  *httpapi.Server
	loop     *core.Loop
	host     *core.Host
	bus      *eventbus.Bus
	listener net.Listener
	logger   pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Loop() *core.Loop      { return s.loop }
func (s *compositeServer) Host() *core.Host      { return s.host }
func (s *compositeServer) Events() *eventbus.Bus { return s.bus }

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	addr := s.cfg.HTTP.Addr
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"http_addr", addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"state_dir", s.cfg.Host.StateDir,
	)
	go s.loop.Run(s.ctx)
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			var err error
			if s.listener != nil {
				err = httpapi.Serve(s.ctx, s.listener, s.httpSrv.Handler())
			} else {
				err = httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler())
			}
			if err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	detachCtx := ctx
	if detachCtx == nil {
		detachCtx = context.Background()
	}
	if err := s.loop.Call(detachCtx, s.host.DetachAll); err != nil {
		log.Warn("server surface detach failed", "err", err)
	} else {
		log.Info("server surfaces detached")
	}
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.loop.Done():
		log.Info("server stopped")
		return nil
	}
}
