package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"betpool/observability"
)

// NewRouter registers every endpoint. /healthz is public; everything under
// /api requires a bearer token.
func NewRouter(h *Handler, authn Authenticator, observer HTTPObserver, health observability.HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(observer))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", observability.HealthHandler(health))

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate(authn))

		r.Route("/bets", func(r chi.Router) {
			r.Get("/", h.ListBets)
			r.Post("/", h.CreateBet)

			r.Route("/{betID}", func(r chi.Router) {
				r.Get("/", h.GetBet)
				r.Patch("/", h.EditBet)
				r.Delete("/", h.DeleteBet)
				r.Put("/status", h.ChangeStatus)
				r.Post("/resolve", h.ResolveBet)
				r.Post("/revert", h.RevertBet)

				r.Post("/participations", h.Participate)
				r.Put("/participations/option", h.ChangeParticipantOption)
				r.Delete("/participations/{participationID}", h.RemoveParticipation)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.RegisterUser)
			r.Get("/me", h.CurrentUser)
			r.Post("/reset-credits", h.ResetCredits)
			r.Put("/{userID}/credits", h.SetCredits)
			r.Get("/{userID}/history", h.BalanceHistory)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Post("/read", h.MarkRead)
		})
	})

	return r
}
