package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/ziadkadry99/codecopy/internal/config"
	"github.com/ziadkadry99/codecopy/internal/site"
)

// Config holds server configuration.
type Config struct {
	Port           int
	SiteTitle      string
	TrustedProxies []string // addresses or CIDRs allowed to set the client IP headers
	Pages          []config.Page
	AssetsDir      string // served at /assets/ when set
	StylesDir      string // served at /styles/ when set
	ScriptsDir     string // served at /scripts/ when set
	Favicon        string
	AllowAll       bool // allow all CORS origins (dev mode)
}

// FromConfig maps the loaded configuration onto server settings.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Port:           cfg.Port,
		SiteTitle:      cfg.SiteTitle,
		TrustedProxies: cfg.TrustedProxies,
		Pages:          cfg.Pages,
		AssetsDir:      cfg.Static.Assets,
		StylesDir:      cfg.Static.Styles,
		ScriptsDir:     cfg.Static.Scripts,
		Favicon:        cfg.Favicon,
	}
}

// Server serves the configured pages with a copy control on every code block.
type Server struct {
	cfg        Config
	renderer   *site.Renderer
	proxies    []netip.Prefix
	version    string
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. Page content is read and rendered on every request.
func New(cfg Config, renderer *site.Renderer) (*Server, error) {
	if renderer == nil {
		renderer = site.NewRenderer(nil, false)
	}
	s := &Server{
		cfg:      cfg,
		renderer: renderer,
		version:  uuid.NewString(),
	}
	for _, p := range cfg.TrustedProxies {
		prefix, err := config.ParseProxy(p)
		if err != nil {
			return nil, err
		}
		s.proxies = append(s.proxies, prefix)
	}

	checkSkeletons(cfg.Pages)

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(s.realIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "HX-Request", "HX-Current-URL", "HX-Target", "HX-Trigger"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/"+site.AssetDir+"/*", s.builtinAssets())
	mountDir(r, "/assets", s.cfg.AssetsDir)
	mountDir(r, "/styles", s.cfg.StylesDir)
	mountDir(r, "/scripts", s.cfg.ScriptsDir)
	if s.cfg.Favicon != "" {
		favicon := s.cfg.Favicon
		r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, favicon)
		})
	}

	for _, p := range s.cfg.Pages {
		r.Get(p.URL, s.handlePage(p))
	}

	return r
}

// handlePage renders one configured page. HTMX requests get the annotated
// content alone, everything else gets it wrapped in the page skeleton.
func (s *Server) handlePage(p config.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "HX-Request")

		content, _, err := s.renderer.RenderFile(p.ContentPath)
		if err != nil {
			log.Printf("page %s: rendering %s: %v", p.URL, p.ContentPath, err)
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Header.Get("HX-Request") == "true" {
			w.Write(content)
			return
		}

		skel, err := site.LoadSkeleton(p.SkeletonPath)
		if err != nil {
			log.Printf("page %s: %v", p.URL, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		title := p.Title
		if title == "" {
			title = site.TitleOf(p.ContentPath)
		}

		var buf bytes.Buffer
		err = skel.Execute(&buf, site.PageData{
			Title:       title,
			SiteTitle:   s.cfg.SiteTitle,
			Content:     template.HTML(content),
			BasePath:    "/",
			CopyClass:   s.renderer.Annotator().Class(),
			CopyMessage: s.renderer.Annotator().Message(),
			Version:     s.version,
		})
		if err != nil {
			log.Printf("page %s: executing skeleton: %v", p.URL, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Write(buf.Bytes())
	}
}

// checkSkeletons logs skeleton problems once at startup. Skeletons are still
// loaded per request, so a broken one only fails its own page.
func checkSkeletons(pages []config.Page) {
	seen := make(map[string]bool)
	for _, p := range pages {
		if p.SkeletonPath == "" || seen[p.SkeletonPath] {
			continue
		}
		seen[p.SkeletonPath] = true
		skel, err := site.LoadSkeleton(p.SkeletonPath)
		if err != nil {
			log.Printf("warning: page %s: %v", p.URL, err)
			continue
		}
		for _, w := range skel.Warnings() {
			log.Printf("warning: %s", w)
		}
	}
}

// builtinAssets serves the embedded copy script and stylesheet. The ETag is
// the server's build ID, so clients revalidate after a restart.
func (s *Server) builtinAssets() http.Handler {
	etag := `"` + s.version + `"`
	files := http.StripPrefix("/"+site.AssetDir, http.FileServer(http.FS(site.Assets())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func mountDir(r chi.Router, prefix, dir string) {
	if dir == "" {
		return
	}
	r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
}

// realIP applies chi's RealIP only to requests whose peer is a trusted proxy.
func (s *Server) realIP(next http.Handler) http.Handler {
	withRealIP := middleware.RealIP(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.trusted(r.RemoteAddr) {
			withRealIP.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) trusted(remoteAddr string) bool {
	var addr netip.Addr
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		addr = ap.Addr()
	} else if a, err := netip.ParseAddr(remoteAddr); err == nil {
		addr = a
	} else {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Version returns the build ID used to version the built-in assets.
func (s *Server) Version() string { return s.version }

// Start begins listening on the configured port. After Shutdown it returns
// http.ErrServerClosed, even when Shutdown ran first.
func (s *Server) Start() error {
	log.Printf("codecopy server listening on %s (%d pages)", s.httpServer.Addr, len(s.cfg.Pages))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
