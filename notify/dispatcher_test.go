package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"betpool/events"
	"betpool/models"
	"betpool/service"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Deliver(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ObserveNotification(sink, notificationType string, err error) {
	m.Called(sink, notificationType, err)
}

func TestDispatcher_RecipientRules(t *testing.T) {
	tests := []struct {
		name       string
		event      events.Event
		wantType   models.NotificationType
		wantRecips []int64
	}{
		{
			name:       "new bet goes to everyone but the creator",
			event:      events.BetCreatedEvent{BetID: 1, ActorID: 1, Title: "t", Amount: 10},
			wantType:   models.NotificationTypeNewBet,
			wantRecips: []int64{2, 3, 4},
		},
		{
			name:       "participant joined goes to the others",
			event:      events.ParticipantJoinedEvent{BetID: 1, UserID: 3, ParticipantIDs: []int64{2, 3, 4}},
			wantType:   models.NotificationTypeNewParticipant,
			wantRecips: []int64{2, 4},
		},
		{
			name:       "in progress",
			event:      events.BetStatusChangedEvent{BetID: 1, ActorID: 1, NewStatus: models.BetStatusInProgress, ParticipantIDs: []int64{2, 3}},
			wantType:   models.NotificationTypeBetInProgress,
			wantRecips: []int64{2, 3},
		},
		{
			name:       "resolved excludes the acting admin",
			event:      events.BetResolvedEvent{BetID: 1, ActorID: 2, ParticipantIDs: []int64{2, 3, 4}},
			wantType:   models.NotificationTypeBetResolved,
			wantRecips: []int64{3, 4},
		},
		{
			name:       "reverted",
			event:      events.BetRevertedEvent{BetID: 1, ActorID: 1, ParticipantIDs: []int64{3}},
			wantType:   models.NotificationTypeBetReverted,
			wantRecips: []int64{3},
		},
		{
			name:       "deleted",
			event:      events.BetDeletedEvent{BetID: 1, ActorID: 1, ParticipantIDs: []int64{3, 3, 4}},
			wantType:   models.NotificationTypeBetDeleted,
			wantRecips: []int64{3, 4},
		},
		{
			name:       "new user goes to the other admins",
			event:      events.UserCreatedEvent{UserID: 4, ActorID: 1, DisplayName: "dee", Role: models.RoleUser},
			wantType:   models.NotificationTypeNewUser,
			wantRecips: []int64{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			users := new(service.MockUserRepository)
			users.On("GetAllIDs", ctx).Return([]int64{1, 2, 3, 4}, nil).Maybe()
			users.On("GetIDsByRole", ctx, models.RoleAdmin).Return([]int64{1, 5}, nil).Maybe()

			sink := new(mockSink)
			sink.On("Deliver", ctx, mock.MatchedBy(func(n Notification) bool {
				return n.Type == tt.wantType && assert.ObjectsAreEqual(tt.wantRecips, n.Recipients)
			})).Return(nil).Once()

			NewDispatcher(users, nil, sink).Handle(ctx, tt.event)

			sink.AssertExpectations(t)
		})
	}
}

func TestDispatcher_SkipsUninterestingEvents(t *testing.T) {
	ctx := context.Background()
	sink := new(mockSink)
	d := NewDispatcher(new(service.MockUserRepository), nil, sink)

	d.Handle(ctx, events.BetStatusChangedEvent{BetID: 1, NewStatus: models.BetStatusActive, ParticipantIDs: []int64{2}})
	d.Handle(ctx, events.BalanceChangeEvent{UserID: 2})
	d.Handle(ctx, events.BetResolvedEvent{BetID: 1, ActorID: 2, ParticipantIDs: []int64{2}})

	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDispatcher_SinkFailureDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	failing := new(mockSink)
	working := new(mockSink)
	observer := new(mockObserver)
	boom := errors.New("channel unavailable")

	failing.On("Deliver", ctx, mock.Anything).Return(boom)
	working.On("Deliver", ctx, mock.Anything).Return(nil)
	observer.On("ObserveNotification", "mock", "bet_reverted", boom).Once()
	observer.On("ObserveNotification", "mock", "bet_reverted", nil).Once()

	d := NewDispatcher(new(service.MockUserRepository), observer, failing, working)
	d.Handle(ctx, events.BetRevertedEvent{BetID: 1, ActorID: 1, ParticipantIDs: []int64{2}})

	failing.AssertExpectations(t)
	working.AssertExpectations(t)
	observer.AssertExpectations(t)
}

func TestDispatcher_DirectoryFailure(t *testing.T) {
	ctx := context.Background()
	users := new(service.MockUserRepository)
	users.On("GetAllIDs", ctx).Return(nil, errors.New("db down"))
	sink := new(mockSink)

	NewDispatcher(users, nil, sink).Handle(ctx, events.BetCreatedEvent{BetID: 1, ActorID: 1})

	sink.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDispatcher_RegisterOnBus(t *testing.T) {
	bus := events.NewBus()
	sink := new(mockSink)

	var wg sync.WaitGroup
	wg.Add(1)
	sink.On("Deliver", mock.Anything, mock.Anything).Run(func(mock.Arguments) { wg.Done() }).Return(nil).Once()

	NewDispatcher(new(service.MockUserRepository), nil, sink).Register(bus)
	bus.Emit(context.Background(), events.BetDeletedEvent{BetID: 9, ActorID: 1, ParticipantIDs: []int64{2}})

	wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Wait(ctx))
	sink.AssertExpectations(t)
}

func TestStoreSink(t *testing.T) {
	ctx := context.Background()
	repo := new(service.MockNotificationRepository)
	repo.On("CreateBatch", ctx, mock.MatchedBy(func(rows []*models.Notification) bool {
		return len(rows) == 2 && rows[0].UserID == 3 && rows[1].UserID == 4 &&
			rows[0].Type == models.NotificationTypeBetResolved && rows[1].Data["bet_id"] == int64(1)
	})).Return(nil)

	err := NewStoreSink(repo).Deliver(ctx, Notification{
		Type:       models.NotificationTypeBetResolved,
		Recipients: []int64{3, 4},
		Title:      "Bet resolved",
		Data:       map[string]any{"bet_id": int64(1)},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

func TestNATSSink(t *testing.T) {
	pub := &fakePublisher{}
	n := Notification{
		Type:       models.NotificationTypeNewBet,
		Recipients: []int64{2},
		Title:      "New bet available",
	}

	require.NoError(t, NewNATSSink(pub).Deliver(context.Background(), n))
	assert.Equal(t, "betpool.notifications.new_bet", pub.subject)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(pub.data, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "new_bet", envelope.EventType)
	assert.Equal(t, "betpool", envelope.SourceService)

	var payload Notification
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, []int64{2}, payload.Recipients)

	pub.err = errors.New("no responders")
	assert.Error(t, NewNATSSink(pub).Deliver(context.Background(), n))
}

type fakeChannel struct {
	channelID string
	embed     *discordgo.MessageEmbed
}

func (c *fakeChannel) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	c.channelID = channelID
	c.embed = embed
	return &discordgo.Message{}, nil
}

func TestDiscordSink(t *testing.T) {
	channel := &fakeChannel{}
	sink := NewDiscordSink(channel, "123")

	err := sink.Deliver(context.Background(), Notification{
		Type:        models.NotificationTypeBetResolved,
		Recipients:  []int64{2, 3},
		Title:       "Bet resolved",
		Description: `"Rain" won`,
		Data:        map[string]any{"bet_id": int64(8)},
	})
	require.NoError(t, err)

	assert.Equal(t, "123", channel.channelID)
	assert.Equal(t, "Bet resolved", channel.embed.Title)
	assert.Equal(t, ColorSuccess, channel.embed.Color)
	require.Len(t, channel.embed.Fields, 1)
	assert.Equal(t, "#8", channel.embed.Fields[0].Value)
}
