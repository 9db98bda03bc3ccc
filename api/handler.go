package api

import (
	"betpool/service"
)

// Services bundles the operations exposed over HTTP
type Services struct {
	Settlement    service.SettlementService
	Lifecycle     service.LifecycleService
	Participation service.ParticipationService
	Ledger        service.LedgerService
	Notifications service.NotificationService
}

// Handler exposes the betting services as HTTP handlers
type Handler struct {
	svc Services
}

// NewHandler returns a new Handler
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}
