package service

import (
	"errors"
	"time"
)

// MetricsRecorder receives operational measurements from the services
type MetricsRecorder interface {
	ObserveSettlement(operation, outcome string, duration time.Duration)
	AddCreditsMoved(transactionType string, amount int64)
	IncParticipation(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSettlement(string, string, time.Duration) {}
func (noopMetrics) AddCreditsMoved(string, int64)                   {}
func (noopMetrics) IncParticipation(string)                          {}

// outcomeLabel reduces an error to a low-cardinality metric label
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case isDomainError(err) && !errors.Is(err, ErrStorage):
		return "rejected"
	default:
		return "error"
	}
}
