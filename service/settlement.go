package service

import (
	"sort"

	"betpool/config"
	"betpool/models"
)

// SettlementPlan is the credit outcome of resolving a bet on one option
type SettlementPlan struct {
	WinningOptionID int64
	Winners         []*models.Participation
	Losers          []*models.Participation
	Pool            int64
	Payouts         map[int64]int64 // participation ID -> payout
}

// PlanSettlement splits the losers' stakes evenly among the winners.
// Integer division leaves pool % len(winners) credits over; those go one each
// to the earliest winners by participation id, so the payouts always sum to
// the pool. With no winners nothing is paid out.
func PlanSettlement(participations []*models.Participation, winningOptionID int64) *SettlementPlan {
	plan := &SettlementPlan{
		WinningOptionID: winningOptionID,
		Payouts:         make(map[int64]int64, len(participations)),
	}

	for _, p := range participations {
		if p.OptionID == winningOptionID {
			plan.Winners = append(plan.Winners, p)
		} else {
			plan.Losers = append(plan.Losers, p)
			plan.Pool += p.Stake
		}
	}

	sort.Slice(plan.Winners, func(i, j int) bool {
		return plan.Winners[i].ID < plan.Winners[j].ID
	})

	for _, loser := range plan.Losers {
		plan.Payouts[loser.ID] = 0
	}
	if len(plan.Winners) == 0 {
		return plan
	}

	share := plan.Pool / int64(len(plan.Winners))
	remainder := plan.Pool % int64(len(plan.Winners))
	for i, winner := range plan.Winners {
		payout := share
		if int64(i) < remainder {
			payout++
		}
		plan.Payouts[winner.ID] = payout
	}

	return plan
}

// TotalPaid returns the sum of all payouts in the plan
func (p *SettlementPlan) TotalPaid() int64 {
	var total int64
	for _, amount := range p.Payouts {
		total += amount
	}
	return total
}

// Apply marks each participation won or lost and records its payout
func (p *SettlementPlan) Apply() []*models.Participation {
	settled := make([]*models.Participation, 0, len(p.Winners)+len(p.Losers))
	for _, w := range p.Winners {
		payout := p.Payouts[w.ID]
		w.Status = models.ParticipationStatusWon
		w.PayoutAmount = &payout
		settled = append(settled, w)
	}
	for _, l := range p.Losers {
		zero := int64(0)
		l.Status = models.ParticipationStatusLost
		l.PayoutAmount = &zero
		settled = append(settled, l)
	}
	return settled
}

// CreditAdjustment is one signed ledger movement
type CreditAdjustment struct {
	UserID          int64
	ParticipationID int64
	Amount          int64
}

// PlanReversal computes the ledger movements that undo a settlement.
// In stake mode winners lose and losers regain the bet's stake amount. In
// payout mode winners return exactly what they were paid. Zero movements are
// omitted. Participations that were never settled contribute nothing.
func PlanReversal(bet *models.Bet, participations []*models.Participation, mode config.ReversalMode) []CreditAdjustment {
	var adjustments []CreditAdjustment

	for _, p := range participations {
		var amount int64
		switch mode {
		case config.ReversalModePayout:
			if p.Status == models.ParticipationStatusWon && p.PayoutAmount != nil {
				amount = -*p.PayoutAmount
			}
		default:
			switch p.Status {
			case models.ParticipationStatusWon:
				amount = -bet.Amount
			case models.ParticipationStatusLost:
				amount = bet.Amount
			}
		}

		if amount == 0 {
			continue
		}
		adjustments = append(adjustments, CreditAdjustment{
			UserID:          p.UserID,
			ParticipationID: p.ID,
			Amount:          amount,
		})
	}

	return adjustments
}
