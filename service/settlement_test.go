package service

import (
	"testing"

	"betpool/config"
	"betpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func participation(id, userID, optionID, stake int64) *models.Participation {
	return &models.Participation{
		ID:       id,
		BetID:    1,
		UserID:   userID,
		OptionID: optionID,
		Stake:    stake,
		Status:   models.ParticipationStatusAccepted,
	}
}

func TestPlanSettlement_EvenSplitWithRemainder(t *testing.T) {
	// Three winners share a single loser's stake of 100
	participations := []*models.Participation{
		participation(12, 2, 10, 100),
		participation(11, 1, 10, 100),
		participation(14, 4, 20, 100),
		participation(13, 3, 10, 100),
	}

	plan := PlanSettlement(participations, 10)

	assert.Equal(t, int64(100), plan.Pool)
	require.Len(t, plan.Winners, 3)
	require.Len(t, plan.Losers, 1)

	assert.Equal(t, int64(11), plan.Winners[0].ID, "winners are ordered by participation id")
	assert.Equal(t, int64(34), plan.Payouts[11])
	assert.Equal(t, int64(33), plan.Payouts[12])
	assert.Equal(t, int64(33), plan.Payouts[13])
	assert.Equal(t, int64(0), plan.Payouts[14])
	assert.Equal(t, plan.Pool, plan.TotalPaid())
}

func TestPlanSettlement_Conservation(t *testing.T) {
	tests := []struct {
		name    string
		winners int
		losers  int
		stake   int64
	}{
		{name: "one vs one", winners: 1, losers: 1, stake: 50},
		{name: "two vs five", winners: 2, losers: 5, stake: 7},
		{name: "seven vs three", winners: 7, losers: 3, stake: 10},
		{name: "four vs four", winners: 4, losers: 4, stake: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var participations []*models.Participation
			id := int64(1)
			for i := 0; i < tt.winners; i++ {
				participations = append(participations, participation(id, id, 1, tt.stake))
				id++
			}
			for i := 0; i < tt.losers; i++ {
				participations = append(participations, participation(id, id, 2, tt.stake))
				id++
			}

			plan := PlanSettlement(participations, 1)

			assert.Equal(t, int64(tt.losers)*tt.stake, plan.Pool)
			assert.Equal(t, plan.Pool, plan.TotalPaid())

			lo, hi := plan.Pool, int64(0)
			for _, w := range plan.Winners {
				lo = min(lo, plan.Payouts[w.ID])
				hi = max(hi, plan.Payouts[w.ID])
			}
			assert.LessOrEqual(t, hi-lo, int64(1), "even split differs by at most one credit")
		})
	}
}

func TestPlanSettlement_AllWinners(t *testing.T) {
	participations := []*models.Participation{
		participation(1, 1, 10, 100),
		participation(2, 2, 10, 100),
	}

	plan := PlanSettlement(participations, 10)

	assert.Zero(t, plan.Pool)
	assert.Len(t, plan.Winners, 2)
	assert.Empty(t, plan.Losers)
	assert.Zero(t, plan.Payouts[1])
	assert.Zero(t, plan.Payouts[2])
}

func TestPlanSettlement_NoWinners(t *testing.T) {
	participations := []*models.Participation{
		participation(1, 1, 20, 100),
		participation(2, 2, 30, 100),
	}

	plan := PlanSettlement(participations, 10)

	assert.Equal(t, int64(200), plan.Pool)
	assert.Empty(t, plan.Winners)
	assert.Zero(t, plan.TotalPaid(), "pool is not distributed without winners")
}

func TestSettlementPlan_Apply(t *testing.T) {
	participations := []*models.Participation{
		participation(1, 1, 10, 100),
		participation(2, 2, 20, 100),
	}

	plan := PlanSettlement(participations, 10)
	settled := plan.Apply()

	require.Len(t, settled, 2)
	assert.Equal(t, models.ParticipationStatusWon, participations[0].Status)
	require.NotNil(t, participations[0].PayoutAmount)
	assert.Equal(t, int64(100), *participations[0].PayoutAmount)
	assert.Equal(t, models.ParticipationStatusLost, participations[1].Status)
	require.NotNil(t, participations[1].PayoutAmount)
	assert.Zero(t, *participations[1].PayoutAmount)
}

func settledParticipations() []*models.Participation {
	participations := []*models.Participation{
		participation(1, 1, 10, 100),
		participation(2, 2, 10, 100),
		participation(3, 3, 10, 100),
		participation(4, 4, 20, 100),
	}
	PlanSettlement(participations, 10).Apply()
	return participations
}

func TestPlanReversal_StakeMode(t *testing.T) {
	bet := &models.Bet{ID: 1, Amount: 100}

	adjustments := PlanReversal(bet, settledParticipations(), config.ReversalModeStake)

	require.Len(t, adjustments, 4)
	byUser := map[int64]int64{}
	for _, adj := range adjustments {
		byUser[adj.UserID] = adj.Amount
	}
	assert.Equal(t, int64(-100), byUser[1])
	assert.Equal(t, int64(-100), byUser[2])
	assert.Equal(t, int64(-100), byUser[3])
	assert.Equal(t, int64(100), byUser[4])
}

func TestPlanReversal_PayoutMode(t *testing.T) {
	bet := &models.Bet{ID: 1, Amount: 100}

	adjustments := PlanReversal(bet, settledParticipations(), config.ReversalModePayout)

	require.Len(t, adjustments, 3, "losers were never debited so nothing is returned to them")
	var total int64
	for _, adj := range adjustments {
		assert.Negative(t, adj.Amount)
		total += adj.Amount
	}
	assert.Equal(t, int64(-100), total, "payout mode undoes exactly what was paid")
}

func TestPlanReversal_SkipsUnsettledAndZero(t *testing.T) {
	bet := &models.Bet{ID: 1, Amount: 100}
	zero := int64(0)
	participations := []*models.Participation{
		participation(1, 1, 10, 100),
		{ID: 2, UserID: 2, OptionID: 10, Stake: 100, Status: models.ParticipationStatusWon, PayoutAmount: &zero},
	}

	assert.Empty(t, PlanReversal(bet, participations, config.ReversalModePayout))

	stake := PlanReversal(bet, participations, config.ReversalModeStake)
	require.Len(t, stake, 1)
	assert.Equal(t, int64(2), stake[0].UserID)
}
