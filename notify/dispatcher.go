package notify

import (
	"context"
	"fmt"

	"betpool/events"
	"betpool/models"

	log "github.com/sirupsen/logrus"
)

// Dispatcher turns committed bet events into notifications and fans them out
// to every sink. Delivery failures are logged and never reach the operation
// that raised the event.
type Dispatcher struct {
	users    UserDirectory
	sinks    []Sink
	observer DeliveryObserver
}

// NewDispatcher creates a dispatcher. observer may be nil.
func NewDispatcher(users UserDirectory, observer DeliveryObserver, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		users:    users,
		sinks:    sinks,
		observer: observer,
	}
}

// Register subscribes the dispatcher to every event type it turns into a
// notification
func (d *Dispatcher) Register(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeBetCreated,
		events.EventTypeParticipantJoined,
		events.EventTypeBetStatusChanged,
		events.EventTypeBetResolved,
		events.EventTypeBetReverted,
		events.EventTypeBetDeleted,
		events.EventTypeUserCreated,
	} {
		bus.Subscribe(eventType, d.Handle)
	}
}

// Handle builds the notification for event and delivers it
func (d *Dispatcher) Handle(ctx context.Context, event events.Event) {
	n, ok, err := d.build(ctx, event)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to build notification")
		return
	}
	if !ok || len(n.Recipients) == 0 {
		return
	}

	for _, sink := range d.sinks {
		err := sink.Deliver(ctx, n)
		if d.observer != nil {
			d.observer.ObserveNotification(sink.Name(), string(n.Type), err)
		}
		if err != nil {
			log.WithFields(log.Fields{
				"sink":       sink.Name(),
				"type":       n.Type,
				"recipients": len(n.Recipients),
				"error":      err,
			}).Error("Failed to deliver notification")
		}
	}
}

func (d *Dispatcher) build(ctx context.Context, event events.Event) (Notification, bool, error) {
	switch e := event.(type) {
	case events.BetCreatedEvent:
		all, err := d.users.GetAllIDs(ctx)
		if err != nil {
			return Notification{}, false, fmt.Errorf("failed to load users: %w", err)
		}
		return Notification{
			Type:        models.NotificationTypeNewBet,
			Recipients:  without(all, e.ActorID),
			Title:       "New bet available",
			Description: fmt.Sprintf("%q is open for %d credits", e.Title, e.Amount),
			Data:        map[string]any{"bet_id": e.BetID, "options": e.Options},
		}, true, nil

	case events.ParticipantJoinedEvent:
		return Notification{
			Type:        models.NotificationTypeNewParticipant,
			Recipients:  without(e.ParticipantIDs, e.UserID),
			Title:       "New participant",
			Description: fmt.Sprintf("Someone joined %q on %q", e.Title, e.OptionText),
			Data:        map[string]any{"bet_id": e.BetID, "option_id": e.OptionID},
		}, true, nil

	case events.BetStatusChangedEvent:
		if e.NewStatus != models.BetStatusInProgress {
			return Notification{}, false, nil
		}
		return Notification{
			Type:        models.NotificationTypeBetInProgress,
			Recipients:  without(e.ParticipantIDs, e.ActorID),
			Title:       "Bet in progress",
			Description: fmt.Sprintf("%q is now in progress", e.Title),
			Data:        map[string]any{"bet_id": e.BetID},
		}, true, nil

	case events.BetResolvedEvent:
		return Notification{
			Type:        models.NotificationTypeBetResolved,
			Recipients:  without(e.ParticipantIDs, e.ActorID),
			Title:       "Bet resolved",
			Description: fmt.Sprintf("%q was resolved: %q won", e.Title, e.WinningOptionText),
			Data: map[string]any{
				"bet_id":            e.BetID,
				"winning_option_id": e.WinningOptionID,
				"pool":              e.Pool,
			},
		}, true, nil

	case events.BetRevertedEvent:
		return Notification{
			Type:        models.NotificationTypeBetReverted,
			Recipients:  without(e.ParticipantIDs, e.ActorID),
			Title:       "Bet result reverted",
			Description: fmt.Sprintf("The result of %q was reverted and the bet is active again", e.Title),
			Data:        map[string]any{"bet_id": e.BetID},
		}, true, nil

	case events.BetDeletedEvent:
		return Notification{
			Type:        models.NotificationTypeBetDeleted,
			Recipients:  without(e.ParticipantIDs, e.ActorID),
			Title:       "Bet deleted",
			Description: fmt.Sprintf("%q was deleted", e.Title),
			Data:        map[string]any{"bet_id": e.BetID, "was_resolved": e.WasResolved},
		}, true, nil

	case events.UserCreatedEvent:
		admins, err := d.users.GetIDsByRole(ctx, models.RoleAdmin)
		if err != nil {
			return Notification{}, false, fmt.Errorf("failed to load admins: %w", err)
		}
		return Notification{
			Type:        models.NotificationTypeNewUser,
			Recipients:  without(admins, e.ActorID, e.UserID),
			Title:       "New user",
			Description: fmt.Sprintf("%s joined as %s", e.DisplayName, e.Role),
			Data:        map[string]any{"user_id": e.UserID},
		}, true, nil
	}

	return Notification{}, false, nil
}
