package termfolio

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/httpapi"
	"pkt.systems/termfolio/internal/cache"
	"pkt.systems/termfolio/internal/command"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/portfolio"
	"pkt.systems/termfolio/sshserver"
)

// Server composes the HTTP and SSH hosts around one content pipeline.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	HTTP    httpapi.Config
	SSH     sshserver.Config
	Content ContentConfig
	// PrefsDir holds per-visitor preferences. Empty keeps them in memory.
	PrefsDir            string
	Profiles            effect.Profiles
	DisableAuditLogging bool
}

// ContentConfig selects the portfolio source. File wins over URL; with neither the
// built-in sample is served.
type ContentConfig struct {
	File          string
	URL           string
	Watch         bool
	WatchDebounce time.Duration
	FetchTimeout  time.Duration
}

// ServerDeps carries optional collaborators. Zero values get production defaults.
type ServerDeps struct {
	Source       portfolio.Source
	Catalog      *i18n.Catalog
	Now          func() time.Time
	Logger       pslog.Logger
	HTTPListener net.Listener
	SSHListener  net.Listener
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	enableSSH  bool
}

// WithHTTP enables the web host.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSSH enables the SSH host.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// NewSource builds the portfolio source described by cfg.
func NewSource(cfg ContentConfig) (portfolio.Source, error) {
	if file := strings.TrimSpace(cfg.File); file != "" {
		return portfolio.NewFileSource(file), nil
	}
	if rawURL := strings.TrimSpace(cfg.URL); rawURL != "" {
		timeout := cfg.FetchTimeout
		if timeout <= 0 {
			timeout = portfolio.DefaultHTTPTimeout
		}
		return portfolio.NewHTTPSource(rawURL, &http.Client{Timeout: timeout})
	}
	content, err := portfolio.ParseYAML(portfolio.SampleYAML())
	if err != nil {
		return nil, err
	}
	return portfolio.Static{Content: content}, nil
}

// Pipeline is what every host shares: the content cache, the command resolver over
// it and the preference store.
type Pipeline struct {
	Content  *cache.Cache
	Resolver *command.Resolver
	Catalog  *i18n.Catalog
	// Store is nil when preferences are kept in memory.
	Store *persist.Store
}

// NewPipeline builds the shared pipeline.
func NewPipeline(cfg ServerConfig, deps ServerDeps) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	src := deps.Source
	if src == nil {
		built, err := NewSource(cfg.Content)
		if err != nil {
			return nil, err
		}
		src = built
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = i18n.MustDefault()
	}
	content := cache.New(src, logger)
	resolver := command.NewResolver(command.ResolverConfig{
		Registry:            command.NewDefaultRegistry(command.Deps{Cache: content, Catalog: catalog, Now: deps.Now}),
		Catalog:             catalog,
		DisableAuditLogging: cfg.DisableAuditLogging,
	})
	pipe := &Pipeline{Content: content, Resolver: resolver, Catalog: catalog}
	if dir := strings.TrimSpace(cfg.PrefsDir); dir != "" {
		store, err := persist.NewStoreWithLogger(dir, logger)
		if err != nil {
			return nil, err
		}
		pipe.Store = store
	}
	return pipe, nil
}

// New constructs a composable termfolio server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableSSH {
		return nil, errors.New("no services enabled")
	}
	pipe, err := NewPipeline(cfg, deps)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, httpapi.Options{
			Resolver: pipe.Resolver,
			Catalog:  pipe.Catalog,
			Store:    pipe.Store,
			Profiles: cfg.Profiles,
			Content:  pipe.Content,
		})
	}
	var sshSrv *sshserver.Server
	if options.enableSSH {
		sshSrv = &sshserver.Server{
			Addr:         cfg.SSH.Addr,
			HostKeyPath:  cfg.SSH.HostKeyPath,
			Listener:     deps.SSHListener,
			Resolver:     pipe.Resolver,
			Catalog:      pipe.Catalog,
			Store:        pipe.Store,
			Profiles:     cfg.Profiles,
			Prompt:       cfg.SSH.Prompt,
			Title:        cfg.SSH.Title,
			BellInterval: cfg.SSH.BellInterval,
		}
	}

	return &compositeServer{
		cfg:          cfg,
		options:      options,
		content:      pipe.Content,
		httpSrv:      httpSrv,
		sshSrv:       sshSrv,
		httpListener: deps.HTTPListener,
	}, nil
}

type compositeServer struct {
	cfg          ServerConfig
	options      serverOptions
	content      *cache.Cache
	httpSrv      *httpapi.Server
	sshSrv       *sshserver.Server
	httpListener net.Listener
	logger       pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

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
	s.errCh = make(chan error, 3)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"ssh", s.options.enableSSH,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"ssh_addr", s.cfg.SSH.Addr,
		"content_file", s.cfg.Content.File,
		"content_url", s.cfg.Content.URL,
	)

	go s.warmContent()
	if s.cfg.Content.Watch && strings.TrimSpace(s.cfg.Content.File) != "" {
		go func() {
			err := portfolio.Watch(s.ctx, s.cfg.Content.File, s.cfg.Content.WatchDebounce, func() {
				s.content.InvalidateAll()
				s.warmContent()
			})
			if err != nil {
				log.Warn("content watch failed", "err", err)
			}
		}()
	}

	if s.options.enableHTTP && s.httpSrv != nil {
		s.httpSrv.SetBaseContext(s.ctx)
		go func() {
			var err error
			if s.httpListener != nil {
				err = httpapi.Serve(s.ctx, s.httpListener, s.httpSrv.Handler())
			} else {
				err = httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler())
			}
			if err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.options.enableSSH && s.sshSrv != nil {
		go func() {
			if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("ssh server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

// warmContent fills the cache so the first visitor does not wait on the source.
func (s *compositeServer) warmContent() {
	log := s.logger
	if err := s.content.EnsureLoaded(s.ctx); err != nil {
		log.Warn("content warm failed", "err", err, "status", s.content.Status())
		return
	}
	log.Debug("content warm ok")
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
	if s.httpSrv != nil {
		s.httpSrv.Close()
		log.Info("server web shells closed")
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
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
