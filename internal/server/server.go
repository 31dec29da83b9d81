package server

import (
	"codetransform/internal/domain"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"mvdan.cc/xurls/v2"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

//go:embed web
var webFS embed.FS

// Transformer runs the transformation pipeline for a single request.
type Transformer interface {
	Generate(ctx context.Context, req domain.TransformRequest) (string, error)
}

type Config struct {
	Addr           string
	AllowedOrigins []string
}

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	transformer Transformer
	index       []byte
	sourceURLRe *regexp.Regexp
	log         *slog.Logger
}

func New(cfg Config, transformer Transformer, log *slog.Logger) (*Server, error) {
	static, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("open web assets: %w", err)
	}

	index, err := fs.ReadFile(static, "index.html")
	if err != nil {
		return nil, fmt.Errorf("read index page: %w", err)
	}

	sourceURLRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return nil, fmt.Errorf("compile source URL regexp: %w", err)
	}

	engine := gin.New()
	engine.Use(recovery(log))
	engine.Use(requestID())
	engine.Use(requestLogger(log))

	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
		corsConfig.ExposeHeaders = []string{requestIDHeader}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		engine:      engine,
		transformer: transformer,
		index:       index,
		sourceURLRe: sourceURLRe,
		log:         log,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.routes(static)

	return s, nil
}

func (s *Server) routes(static fs.FS) {
	s.engine.POST("/transform", s.handleTransform)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.StaticFS("/static", http.FS(static))
	s.engine.GET("/", s.handleIndex)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.InfoContext(ctx, "HTTP server is listening", "addr", ln.Addr().String())

		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	s.log.InfoContext(ctx, "HTTP server is stopped")

	return nil
}
