package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"betpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the flow from TransactionalBus to the main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:          42,
		OldBalance:      1000,
		NewBalance:      1034,
		ChangeAmount:    34,
		TransactionType: models.TransactionTypeBetPayout,
	}

	transactionalBus.Publish(testEvent)

	// Nothing is delivered before the commit flush
	select {
	case <-eventReceived:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	transactionalBus.Flush()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
	assert.Empty(t, transactionalBus.Pending())
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	var delivered []Event
	mainBus.Subscribe(EventTypeBetResolved, func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, event)
	})

	transactionalBus.Publish(BetResolvedEvent{BetID: 1})
	transactionalBus.Publish(BetResolvedEvent{BetID: 2})
	require.Len(t, transactionalBus.Pending(), 2)

	transactionalBus.Discard()
	transactionalBus.Flush()

	require.NoError(t, mainBus.Wait(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, delivered)
}

func TestBus_MultipleEventsInOrderOfPublish(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	received := make(map[int64]bool)
	mainBus.Subscribe(EventTypeBetDeleted, func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		received[event.(BetDeletedEvent).BetID] = true
	})

	for i := int64(1); i <= 3; i++ {
		transactionalBus.Publish(BetDeletedEvent{BetID: i})
	}
	transactionalBus.Flush()

	require.NoError(t, mainBus.Wait(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
}

func TestBus_PanickingHandlerDoesNotAffectOthers(t *testing.T) {
	mainBus := NewBus()

	var wg sync.WaitGroup
	wg.Add(1)
	mainBus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	mainBus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		wg.Done()
	})

	mainBus.Emit(context.Background(), UserCreatedEvent{UserID: 7})

	wg.Wait()
	require.NoError(t, mainBus.Wait(context.Background()))
}

func TestBus_WaitHonoursContext(t *testing.T) {
	mainBus := NewBus()
	release := make(chan struct{})
	mainBus.Subscribe(EventTypeBetCreated, func(ctx context.Context, event Event) {
		<-release
	})
	mainBus.Emit(context.Background(), BetCreatedEvent{BetID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, mainBus.Wait(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, mainBus.Wait(context.Background()))
}
