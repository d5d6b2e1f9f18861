package api

import (
	"net/http"
	"net/netip"
	"time"

	"hackathon_portal/internal/api/handler"
	"hackathon_portal/internal/api/middleware"
	"hackathon_portal/internal/app/service"
	"hackathon_portal/internal/common/security"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// UploadsURLPrefix is where stored uploads are served from.
const UploadsURLPrefix = "/uploads"

type Services struct {
	Auth        *service.AuthService
	Selection   *service.SelectionService
	Application *service.ApplicationService
	Upload      *service.UploadService
}

type RouterOptions struct {
	UploadDir      string
	UploadMaxBytes int64
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
}

func NewRouter(services Services, profiles repository.ProfileRepository, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.TrustedRealIP(opts.TrustedProxies))
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	// Verifies a bearer token when present; the per-route guards decide
	// whether one is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", handler.NewAuthHandler(services.Auth).RegisterRoutes)
		v1.Route("/profile", handler.NewProfileHandler(profiles).RegisterRoutes)
		v1.Route("/problem-statements", handler.NewSelectionHandler(services.Selection, profiles).RegisterRoutes)
		v1.Route("/applications", handler.NewApplicationHandler(services.Application, profiles).RegisterRoutes)
		v1.Route("/uploads", handler.NewUploadHandler(services.Upload, profiles, opts.UploadMaxBytes).RegisterRoutes)
	})

	// Uploaded screenshots are public.
	r.Handle(UploadsURLPrefix+"/*", http.StripPrefix(UploadsURLPrefix+"/", http.FileServer(http.Dir(opts.UploadDir))))

	return r
}
