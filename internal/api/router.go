package api

import (
	"encoding/json"
	"net/http"

	"github.com/dom/session-auth/internal/api/handlers"
	"github.com/dom/session-auth/internal/api/middleware"
	"github.com/dom/session-auth/internal/config"
	"github.com/dom/session-auth/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	r.Get("/health", status)

	cookies := middleware.CookieOptionsFromConfig(cfg)
	accountHandler := handlers.NewAccountHandler(services.Auth, cookies)
	usersHandler := handlers.NewUsersHandler(services.Auth, cookies)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", status)

		r.Route("/account", func(r chi.Router) {
			r.Post("/signup", accountHandler.SignUp)
			r.Post("/login", accountHandler.LogIn)
			r.Delete("/logout", accountHandler.LogOut)
			r.Delete("/logout/all", accountHandler.LogOutEverywhere)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth, cookies))
				r.Get("/me", accountHandler.Me)
			})
		})

		r.Get("/users", usersHandler.List)
	})

	return r
}

func status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
