package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cvbuilder/backend/internal/middleware"
)

type RouterConfig struct {
	CV       *CVHandler
	Auth     *AuthHandler // nil when sign-in happens in the Firebase client SDK
	Verifier middleware.Verifier
	Logger   *zap.SugaredLogger

	AllowedOrigins []string
	// UploadDir is served under /uploads/ when images are stored locally.
	UploadDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/downloadCV", cfg.CV.Download)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Verifier))

		r.Get("/templates", cfg.CV.ListTemplates)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard())

			r.Route("/auth", func(r chi.Router) {
				if cfg.Auth != nil {
					r.Post("/signup", cfg.Auth.Signup)
					r.Post("/login", cfg.Auth.Login)
				}
				r.Get("/me", Me)
			})

			r.Post("/preview", cfg.CV.PreviewDraft)

			r.Route("/cvs", func(r chi.Router) {
				r.Get("/", cfg.CV.List)
				r.Post("/", cfg.CV.Create)
				r.Get("/new", cfg.CV.New)
				r.Get("/stream", cfg.CV.Stream)
				r.Post("/validate", cfg.CV.Validate)

				r.Route("/{cvId}", func(r chi.Router) {
					r.Get("/", cfg.CV.Get)
					r.Put("/", cfg.CV.Update)
					r.Delete("/", cfg.CV.Delete)
					r.Get("/preview", cfg.CV.Preview)
				})
			})
		})
	})

	if cfg.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	return r
}
