package scoring

import (
	"github.com/pulseboard/pulseboard/internal/customer"
)

// segmentParams hold the per-segment normalization assumptions.
// Enterprise orgs log in less per seat and absorb more ticket volume.
type segmentParams struct {
	loginTargetPerSeat30d    float64
	ticketPenaltyPer100Seats float64
}

var segments = map[customer.Segment]segmentParams{
	customer.SegmentEnterprise: {loginTargetPerSeat30d: 0.15, ticketPenaltyPer100Seats: 16.0},
	customer.SegmentSMB:        {loginTargetPerSeat30d: 0.80, ticketPenaltyPer100Seats: 10.0},
	customer.SegmentStartup:    {loginTargetPerSeat30d: 1.20, ticketPenaltyPer100Seats: 10.0},
}

// DefaultFeatureCatalogSize is the soft target of distinct features a
// fully-adopted customer uses in 30 days.
const DefaultFeatureCatalogSize = 6

// scoreLoginFrequency maps 30d login count onto 0-100 against a
// seat/segment expected cadence. Zero logins score 0; the score
// saturates at 100 at or above the expected total.
func scoreLoginFrequency(logins30d int, seats int, segment customer.Segment) float64 {
	if seats < 1 {
		seats = 1
	}
	params, ok := segments[segment]
	if !ok {
		params = segments[customer.SegmentSMB]
	}

	target := float64(seats) * params.loginTargetPerSeat30d
	if target <= 0 {
		return 50.0 // neutral fallback; unreachable with positive targets
	}
	return clamp(100.0 * float64(logins30d) / target)
}

// scoreFeatureAdoption maps distinct features used in 30d onto 0-100 as
// a share of the feature catalog, capped at 100.
func scoreFeatureAdoption(uniqueFeatures30d, catalogSize int) float64 {
	if catalogSize < 1 {
		catalogSize = DefaultFeatureCatalogSize
	}
	return clamp(100.0 * float64(uniqueFeatures30d) / float64(catalogSize))
}

// scoreSupportTicketVolume penalizes tickets per 100 seats. Zero tickets
// score 100; the score decreases monotonically with ticket count and
// floors at 0. Bigger orgs absorb more volume.
func scoreSupportTicketVolume(tickets30d int, seats int, segment customer.Segment) float64 {
	if seats < 1 {
		seats = 1
	}
	params, ok := segments[segment]
	if !ok {
		params = segments[customer.SegmentSMB]
	}

	per100 := float64(seats) / 100.0
	if per100 < 1.0 {
		per100 = 1.0
	}
	ticketsPer100 := float64(tickets30d) / per100
	return clamp(100.0 - ticketsPer100*params.ticketPenaltyPer100Seats)
}

// scoreInvoiceTimeliness is the paid ratio over the 90d window:
// 100 * paid / (paid + late). No invoices in the window scores 100 —
// no evidence of lateness.
func scoreInvoiceTimeliness(paid, late int) float64 {
	total := paid + late
	if total == 0 {
		return 100.0
	}
	return clamp(100.0 * float64(paid) / float64(total))
}

// scoreAPIUsageTrend compares API call volume in the last 7 days against
// the prior 7 days. 50 is neutral; the score moves proportionally to
// (recent-prior)/prior and clamps at the ends. No prior usage but some
// recent usage is the maximal upward trend (100); two empty windows are
// neutral (50).
func scoreAPIUsageTrend(recentSum, priorSum float64) float64 {
	if priorSum <= 0 && recentSum <= 0 {
		return 50.0
	}
	if priorSum <= 0 {
		return 100.0
	}
	return clamp(50.0 + 50.0*(recentSum-priorSum)/priorSum)
}
