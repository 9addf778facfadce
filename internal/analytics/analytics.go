// Package analytics aggregates health scores across the customer base:
// population summaries (distribution, rankings) and daily score trends.
//
// Both aggregations are pure functions of (customer set, event history,
// as-of time); nothing here holds state between calls.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/scoring"
	"github.com/pulseboard/pulseboard/internal/traces"
)

// Trend window bounds enforced at the service level.
const (
	DefaultTrendDays = 30
	MaxTrendDays     = 90
)

// CustomerSource enumerates the customers to aggregate over.
type CustomerSource interface {
	List(ctx context.Context, segment customer.Segment) ([]*customer.Customer, error)
}

// RiskDistribution counts customers per risk bucket.
type RiskDistribution struct {
	Healthy int `json:"healthy"`
	Watch   int `json:"watch"`
	AtRisk  int `json:"at_risk"`
}

// RankedCustomer is one entry in the top/bottom rankings.
type RankedCustomer struct {
	CustomerID int64        `json:"customerId"`
	Name       string       `json:"name"`
	Score      float64      `json:"score"`
	Risk       scoring.Risk `json:"risk"`
}

// SummaryReport is the population aggregation output. Ephemeral —
// computed on demand, never persisted.
type SummaryReport struct {
	TotalCustomers   int                `json:"totalCustomers"`
	AverageScore     float64            `json:"averageScore"` // 0 for an empty customer set
	RiskDistribution RiskDistribution   `json:"riskDistribution"`
	AverageFactors   map[string]float64 `json:"averageFactors"`
	Top5             []RankedCustomer   `json:"top5"`
	Bottom5          []RankedCustomer   `json:"bottom5"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// TrendPoint is one day in the score trend. Percentile fields are nil
// when the customer set was empty that day.
type TrendPoint struct {
	Date         string   `json:"date"`
	AverageScore *float64 `json:"avg"`
	P25          *float64 `json:"p25"`
	P75          *float64 `json:"p75"`
	Customers    int      `json:"customers"`
}

// Service runs the scoring engine across customer sets.
type Service struct {
	customers CustomerSource
	engine    *scoring.Engine
}

// NewService creates an analytics service.
func NewService(customers CustomerSource, engine *scoring.Engine) *Service {
	return &Service{customers: customers, engine: engine}
}

// Summary computes the population report as of asOf, optionally
// filtered by segment. One scoring pass per customer feeds the
// averages, the distribution, and both rankings.
func (s *Service) Summary(ctx context.Context, segment customer.Segment, asOf time.Time) (*SummaryReport, error) {
	ctx, span := traces.StartSpan(ctx, "analytics.Summary",
		attribute.String("segment", string(segment)))
	defer span.End()

	customers, err := s.customers.List(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	report := &SummaryReport{
		TotalCustomers: len(customers),
		AverageFactors: make(map[string]float64, len(scoring.FactorNames)),
		Top5:           []RankedCustomer{},
		Bottom5:        []RankedCustomer{},
		GeneratedAt:    asOf,
	}
	for _, name := range scoring.FactorNames {
		report.AverageFactors[name] = 0
	}
	if len(customers) == 0 {
		return report, nil
	}

	ranked := make([]RankedCustomer, 0, len(customers))
	var totalSum float64
	factorSums := make(map[string]float64, len(scoring.FactorNames))

	for _, c := range customers {
		bd, err := s.engine.ScoreAt(ctx, c, asOf)
		if err != nil {
			return nil, err
		}

		totalSum += bd.Total
		for name, v := range bd.Factors {
			factorSums[name] += v
		}

		switch bd.Risk {
		case scoring.RiskHealthy:
			report.RiskDistribution.Healthy++
		case scoring.RiskWatch:
			report.RiskDistribution.Watch++
		case scoring.RiskAtRisk:
			report.RiskDistribution.AtRisk++
		}

		ranked = append(ranked, RankedCustomer{
			CustomerID: c.ID,
			Name:       c.Name,
			Score:      bd.Total,
			Risk:       bd.Risk,
		})
	}

	n := float64(len(customers))
	report.AverageScore = round2(totalSum / n)
	for name, sum := range factorSums {
		report.AverageFactors[name] = round2(sum / n)
	}

	// Rankings: score desc/asc, customer ID ascending breaks ties so
	// output is deterministic.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].CustomerID < ranked[j].CustomerID
		}
		return ranked[i].Score > ranked[j].Score
	})
	report.Top5 = append(report.Top5, ranked[:minInt(5, len(ranked))]...)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].CustomerID < ranked[j].CustomerID
		}
		return ranked[i].Score < ranked[j].Score
	})
	report.Bottom5 = append(report.Bottom5, ranked[:minInt(5, len(ranked))]...)

	return report, nil
}

// Trend recomputes every customer's score for each of the `days`
// trailing calendar days (oldest to newest) and returns one point per
// day. Deterministic and idempotent given fixed asOf and event data.
//
// This is O(days x customers x window-scan) — by far the most
// expensive operation the service exposes. Scores per (customer, day)
// are independent, so it could be parallelized or memoized by date;
// correctness needs neither.
func (s *Service) Trend(ctx context.Context, segment customer.Segment, days int, asOf time.Time) ([]TrendPoint, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be >= 1, got %d", days)
	}

	ctx, span := traces.StartSpan(ctx, "analytics.Trend",
		attribute.String("segment", string(segment)),
		attribute.Int("days", days))
	defer span.End()

	customers, err := s.customers.List(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	points := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayEnd := asOf.AddDate(0, 0, -i)

		scores := make([]float64, 0, len(customers))
		for _, c := range customers {
			bd, err := s.engine.ScoreAt(ctx, c, dayEnd)
			if err != nil {
				return nil, err
			}
			scores = append(scores, bd.Total)
		}

		point := TrendPoint{
			Date:      dayEnd.UTC().Format("2006-01-02"),
			Customers: len(scores),
		}
		if len(scores) > 0 {
			var sum float64
			for _, v := range scores {
				sum += v
			}
			avg := round2(sum / float64(len(scores)))
			p25 := round2(percentile(scores, 25))
			p75 := round2(percentile(scores, 75))
			point.AverageScore = &avg
			point.P25 = &p25
			point.P75 = &p75
		}
		points = append(points, point)
	}

	return points, nil
}

// percentile computes the p-th percentile (0-100) using linear
// interpolation between order statistics: idx = p/100 * (n-1),
// interpolating between floor(idx) and floor(idx)+1. Mutates nothing;
// sorts a copy.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (p / 100.0) * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi > len(sorted)-1 {
		hi = len(sorted) - 1
	}
	w := idx - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
