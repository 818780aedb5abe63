package app

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/payram/simple-chat-api/internal/chatapi"
	"github.com/payram/simple-chat-api/internal/completion"
	"github.com/payram/simple-chat-api/internal/config"
	"github.com/payram/simple-chat-api/internal/middleware"
	"github.com/payram/simple-chat-api/internal/version"
)

const (
	banner          = "=================================================="
	timestampLayout = "2006-01-02 15:04:05"
)

// Server is one chat API process: the rule-based variant, or the proxy variant when Proxy is set.
type Server struct {
	cfg       config.Config
	logger    *logrus.Entry
	completer completion.Completer
	proxy     bool
	handler   http.Handler
}

// Options selects the variant and optionally injects a completer.
type Options struct {
	Proxy     bool
	Completer completion.Completer
}

// New wires the router for cfg. Without an injected completer the proxy variant builds one from cfg.
func New(cfg config.Config, logger *logrus.Entry, opts Options) *Server {
	completer := opts.Completer
	if completer == nil {
		completer = NewCompleter(cfg, logger)
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		completer: completer,
		proxy:     opts.Proxy,
	}
	s.handler = NewRouter(cfg, logger, chatapi.NewHandler(logger, chatapi.Options{
		Proxy:     opts.Proxy,
		Completer: completer,
	}))
	return s
}

// NewCompleter returns the OpenAI client when a credential is configured, otherwise completion.Disabled.
func NewCompleter(cfg config.Config, logger *logrus.Entry) completion.Completer {
	if !cfg.ProviderEnabled() {
		return completion.Disabled{}
	}
	return completion.NewClient(logger.WithField("component", "openai"), cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAISystemPrompt, nil)
}

// NewRouter mounts the chat handler behind the request middleware chain.
func NewRouter(cfg config.Config, logger *logrus.Entry, h *chatapi.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PeerAddr)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(logger))

	r.NotFound(chatapi.NotFound)
	r.MethodNotAllowed(chatapi.MethodNotAllowed)

	h.Register(r)
	r.Method(http.MethodGet, "/metrics", middleware.Guard(cfg.MetricsToken, cfg.MetricsAllowlist)(promhttp.Handler()))
	return r
}

// Handler exposes the wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains in-flight
// requests for up to cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logStartup(ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		s.logger.Errorf("server error: %+v", err)
	}
	s.logShutdown()
	return err
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return s.cfg.ShutdownTimeout
}

func (s *Server) logStartup(addr string) {
	s.logger.Info(banner)
	s.logger.Infof("%s is starting up...", version.ServiceName)
	s.logger.Info(version.Description)
	s.logger.Infof("Startup time: %s", time.Now().Format(timestampLayout))
	s.logger.Infof("Version: %s", version.Get())
	if s.proxy {
		status := "disabled"
		if s.completer.Enabled() {
			status = "enabled"
		}
		s.logger.WithField("credential_source", s.cfg.CredentialSource).Infof("OpenAI integration %s", status)
	}
	s.logger.Infof("Listening on http://%s", displayAddr(addr))
	s.logger.Info(banner)
}

func (s *Server) logShutdown() {
	s.logger.Info(banner)
	s.logger.Infof("%s is shutting down...", version.ServiceName)
	s.logger.Infof("Shutdown time: %s", time.Now().Format(timestampLayout))
	s.logger.Info(banner)
}

func displayAddr(addr string) string {
	return strings.Replace(addr, "[::]", "0.0.0.0", 1)
}
