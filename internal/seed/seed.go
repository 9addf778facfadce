// Package seed generates demo customers with 90 days of plausible
// usage history. Each customer is assigned a persona that shapes its
// login cadence, feature adoption, API traffic, ticket volume, and
// payment behavior, so the seeded portfolio spreads across the whole
// score range instead of clustering.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
	"github.com/pulseboard/pulseboard/internal/logging"
)

const (
	// DefaultCount is how many customers a full seed run creates.
	DefaultCount = 60

	// skipThreshold: a store that already holds this many customers is
	// considered seeded and left alone.
	skipThreshold = 50

	historyDays = 90
)

// persona controls the per-day event probabilities for one customer.
type persona struct {
	name       string
	pLogin     float64
	featPool   [2]int     // catalog size range
	adoptRange [2]float64 // per-feature adoption probability range
	featDaily  [2]int     // feature_use events per day
	pAPI       float64
	apiAmount  [2]int // api_call value range
	pTicket    float64
	pPaid      float64 // invoice paid on time
}

var personas = map[string]persona{
	"power": {
		name: "power", pLogin: 0.9, featPool: [2]int{6, 10}, adoptRange: [2]float64{0.6, 0.95},
		featDaily: [2]int{1, 3}, pAPI: 0.55, apiAmount: [2]int{80, 400}, pTicket: 0.10, pPaid: 0.94,
	},
	"steady": {
		name: "steady", pLogin: 0.65, featPool: [2]int{4, 9}, adoptRange: [2]float64{0.45, 0.8},
		featDaily: [2]int{1, 2}, pAPI: 0.35, apiAmount: [2]int{40, 220}, pTicket: 0.12, pPaid: 0.90,
	},
	"spiky": {
		name: "spiky", pLogin: 0.55, featPool: [2]int{4, 8}, adoptRange: [2]float64{0.35, 0.7},
		featDaily: [2]int{0, 2}, pAPI: 0.25, apiAmount: [2]int{120, 600}, pTicket: 0.14, pPaid: 0.88,
	},
	"frugal": {
		name: "frugal", pLogin: 0.35, featPool: [2]int{3, 7}, adoptRange: [2]float64{0.25, 0.55},
		featDaily: [2]int{0, 1}, pAPI: 0.15, apiAmount: [2]int{20, 120}, pTicket: 0.08, pPaid: 0.92,
	},
	"churning": {
		name: "churning", pLogin: 0.18, featPool: [2]int{2, 6}, adoptRange: [2]float64{0.15, 0.45},
		featDaily: [2]int{0, 1}, pAPI: 0.10, apiAmount: [2]int{10, 80}, pTicket: 0.20, pPaid: 0.70,
	},
}

// personaPools weight persona selection per segment.
var personaPools = map[customer.Segment][]string{
	customer.SegmentStartup:    {"power", "steady", "frugal", "spiky", "churning"},
	customer.SegmentSMB:        {"steady", "power", "spiky", "frugal", "churning"},
	customer.SegmentEnterprise: {"steady", "power", "spiky", "churning", "frugal"},
}

var (
	nameFirst = []string{
		"Acme", "Globex", "Initech", "Umbra", "Vertex", "Nimbus", "Quanta",
		"Harbor", "Lumen", "Cobalt", "Atlas", "Beacon", "Cedar", "Drift",
		"Ember", "Fable", "Granite", "Helix", "Iris", "Juno", "Krill",
		"Ledger", "Mosaic", "Northwind", "Opal", "Pylon", "Quill", "Ridge",
		"Summit", "Tundra", "Unity", "Vista", "Willow", "Xenon", "Yarrow", "Zephyr",
	}
	nameSecond = []string{
		"Labs", "Systems", "Robotics", "Analytics", "Dynamics", "Software",
		"Networks", "Industries", "Logistics", "Digital", "Cloud", "Data",
		"Works", "Technologies", "Solutions", "Group",
	}
)

// Seeder populates the stores with demo data.
type Seeder struct {
	customers customer.Store
	events    event.Store
	rng       *rand.Rand
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a seeder. seedValue makes runs reproducible; pass
// time.Now().UnixNano() for a fresh portfolio each run.
func New(customers customer.Store, events event.Store, seedValue int64, logger *slog.Logger) *Seeder {
	return &Seeder{
		customers: customers,
		events:    events,
		rng:       rand.New(rand.NewSource(seedValue)),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logging.Component(logger, "seed"),
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Seeder) WithClock(now func() time.Time) *Seeder {
	s.now = now
	return s
}

// Run creates count demo customers with history, unless the store
// already looks seeded. Returns the number of customers created.
func (s *Seeder) Run(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultCount
	}

	existing, err := s.customers.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("check existing customers: %w", err)
	}
	if len(existing) >= skipThreshold {
		s.logger.Info("store already seeded", "customers", len(existing))
		return 0, nil
	}

	taken := make(map[string]bool, count)
	for _, c := range existing {
		taken[c.Name] = true
	}

	segments := []customer.Segment{
		customer.SegmentStartup, customer.SegmentSMB, customer.SegmentEnterprise,
	}

	created := 0
	for i := 0; i < count; i++ {
		seg := segments[s.rng.Intn(len(segments))]
		c := &customer.Customer{
			Name:    s.companyName(taken),
			Segment: seg,
			Seats:   s.seatsFor(seg),
		}
		if err := s.customers.Create(ctx, c); err != nil {
			if errors.Is(err, customer.ErrExists) {
				continue
			}
			return created, fmt.Errorf("create customer %q: %w", c.Name, err)
		}
		created++

		if err := s.history(ctx, c); err != nil {
			return created, fmt.Errorf("history for %q: %w", c.Name, err)
		}
	}

	s.logger.Info("seeded demo portfolio", "customers", created, "historyDays", historyDays)
	return created, nil
}

func (s *Seeder) companyName(taken map[string]bool) string {
	for attempt := 0; attempt < 50; attempt++ {
		name := nameFirst[s.rng.Intn(len(nameFirst))] + " " + nameSecond[s.rng.Intn(len(nameSecond))]
		if !taken[name] {
			taken[name] = true
			return name
		}
	}
	name := fmt.Sprintf("%s %s #%d",
		nameFirst[s.rng.Intn(len(nameFirst))],
		nameSecond[s.rng.Intn(len(nameSecond))],
		1000+s.rng.Intn(9000))
	taken[name] = true
	return name
}

func (s *Seeder) seatsFor(seg customer.Segment) int {
	switch seg {
	case customer.SegmentStartup:
		return s.between(5, 30)
	case customer.SegmentSMB:
		return s.between(20, 250)
	default:
		return s.between(200, 1200)
	}
}

func (s *Seeder) pickPersona(seg customer.Segment, seats int) persona {
	pool := personaPools[seg]
	p := personas[pool[s.rng.Intn(len(pool))]]

	// Startups explore more features; enterprises file more tickets.
	if seg == customer.SegmentStartup {
		p.adoptRange[0] += 0.05
		p.adoptRange[1] = min(0.98, p.adoptRange[1]+0.05)
	}
	if seg == customer.SegmentEnterprise {
		p.pTicket = min(0.30, p.pTicket+0.03)
	}

	// More seats, more activity.
	nudge := 0.0
	if seats >= 200 {
		nudge = 0.05
	}
	if seats >= 800 {
		nudge = 0.08
	}
	p.pLogin = min(0.98, p.pLogin+nudge/2)
	p.pAPI = min(0.95, p.pAPI+nudge/2)
	p.pTicket += nudge / 3

	return p
}

// history walks 90 days of activity for one customer.
func (s *Seeder) history(ctx context.Context, c *customer.Customer) error {
	p := s.pickPersona(c.Segment, c.Seats)
	now := s.now()

	poolSize := s.between(p.featPool[0], p.featPool[1])
	pool := make([]string, poolSize)
	for i := range pool {
		pool[i] = fmt.Sprintf("feature_%d", i+1)
	}

	adoptP := p.adoptRange[0] + s.rng.Float64()*(p.adoptRange[1]-p.adoptRange[0])
	recent := s.adoptedSubset(pool, adoptP)
	prior := s.adoptedSubset(pool, max(0.15, adoptP-0.15))

	for daysAgo := historyDays; daysAgo >= 0; daysAgo-- {
		day := now.AddDate(0, 0, -daysAgo)
		inLast30 := daysAgo <= 30

		if s.rng.Float64() < p.pLogin {
			for n := s.rng.Intn(3); n > 0; n-- {
				if err := s.insert(ctx, c.ID, event.TypeLogin, "", nil, s.within(day)); err != nil {
					return err
				}
			}
		}

		todays := recent
		if !inLast30 {
			todays = prior
			// Exploration: occasionally try a non-adopted feature.
			if s.rng.Float64() < 0.2 && len(todays) < len(pool) {
				todays = append(append([]string{}, todays...), s.unadopted(pool, todays))
			}
		}
		if len(todays) > 0 {
			for n := s.between(p.featDaily[0], p.featDaily[1]); n > 0; n-- {
				fk := todays[s.rng.Intn(len(todays))]
				if err := s.insert(ctx, c.ID, event.TypeFeatureUse, fk, nil, s.within(day)); err != nil {
					return err
				}
			}
		}

		if s.rng.Float64() < p.pAPI {
			amount := float64(s.between(p.apiAmount[0], p.apiAmount[1]))
			if err := s.insert(ctx, c.ID, event.TypeAPICall, "", &amount, s.within(day)); err != nil {
				return err
			}
		}

		if s.rng.Float64() < p.pTicket {
			if err := s.insert(ctx, c.ID, event.TypeSupportTicketOpened, "", nil, s.within(day)); err != nil {
				return err
			}
		}

		// One invoice per month, on the 1st.
		if day.Day() == 1 {
			typ := event.TypeInvoicePaid
			if s.rng.Float64() >= p.pPaid {
				typ = event.TypeInvoiceLate
			}
			if err := s.insert(ctx, c.ID, typ, "", nil, day); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Seeder) insert(ctx context.Context, customerID int64, typ event.Type, featureKey string, value *float64, ts time.Time) error {
	return s.events.Insert(ctx, &event.Event{
		CustomerID: customerID,
		Type:       typ,
		FeatureKey: featureKey,
		Value:      value,
		Timestamp:  ts,
	})
}

func (s *Seeder) adoptedSubset(pool []string, prob float64) []string {
	var adopted []string
	for _, f := range pool {
		if s.rng.Float64() < prob {
			adopted = append(adopted, f)
		}
	}
	if len(adopted) == 0 {
		adopted = []string{pool[s.rng.Intn(len(pool))]}
	}
	return adopted
}

func (s *Seeder) unadopted(pool, adopted []string) string {
	in := make(map[string]bool, len(adopted))
	for _, f := range adopted {
		in[f] = true
	}
	var out []string
	for _, f := range pool {
		if !in[f] {
			out = append(out, f)
		}
	}
	return out[s.rng.Intn(len(out))]
}

// between returns a uniform int in [lo, hi].
func (s *Seeder) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// within places an event at a random hour of the given day.
func (s *Seeder) within(day time.Time) time.Time {
	return day.Add(time.Duration(s.rng.Intn(24)) * time.Hour)
}
