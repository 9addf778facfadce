package scoring

import (
	"testing"

	"github.com/pulseboard/pulseboard/internal/customer"
)

func TestScoreLoginFrequency(t *testing.T) {
	tests := []struct {
		name    string
		logins  int
		seats   int
		segment customer.Segment
		want    float64
	}{
		{"zero logins", 0, 10, customer.SegmentSMB, 0},
		{"at target saturates", 8, 10, customer.SegmentSMB, 100},   // target = 10 * 0.80
		{"above target clamps", 80, 10, customer.SegmentSMB, 100},
		{"half target", 4, 10, customer.SegmentSMB, 50},
		{"enterprise lower cadence", 15, 100, customer.SegmentEnterprise, 100}, // target = 100 * 0.15
		{"startup higher cadence", 6, 10, customer.SegmentStartup, 50},         // target = 10 * 1.20
		{"zero seats treated as one", 1, 0, customer.SegmentStartup, 83.33333333333334},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreLoginFrequency(tt.logins, tt.seats, tt.segment)
			if !almostEqual(got, tt.want) {
				t.Errorf("scoreLoginFrequency(%d, %d, %s) = %v, want %v",
					tt.logins, tt.seats, tt.segment, got, tt.want)
			}
		})
	}
}

func TestScoreLoginFrequency_Monotonic(t *testing.T) {
	prev := -1.0
	for logins := 0; logins <= 20; logins++ {
		got := scoreLoginFrequency(logins, 10, customer.SegmentSMB)
		if got < prev {
			t.Fatalf("score decreased at %d logins: %v < %v", logins, got, prev)
		}
		prev = got
	}
}

func TestScoreFeatureAdoption(t *testing.T) {
	tests := []struct {
		features int
		catalog  int
		want     float64
	}{
		{0, 6, 0},
		{3, 6, 50},
		{6, 6, 100},
		{9, 6, 100}, // more features than the catalog clamps
		{3, 0, 50},  // invalid catalog falls back to default size
	}

	for _, tt := range tests {
		got := scoreFeatureAdoption(tt.features, tt.catalog)
		if !almostEqual(got, tt.want) {
			t.Errorf("scoreFeatureAdoption(%d, %d) = %v, want %v",
				tt.features, tt.catalog, got, tt.want)
		}
	}
}

func TestScoreSupportTicketVolume(t *testing.T) {
	tests := []struct {
		name    string
		tickets int
		seats   int
		segment customer.Segment
		want    float64
	}{
		{"no tickets is perfect", 0, 10, customer.SegmentSMB, 100},
		{"small org floors per100 at one", 2, 10, customer.SegmentSMB, 80},
		{"enterprise absorbs volume", 4, 200, customer.SegmentEnterprise, 68},
		{"floors at zero", 20, 10, customer.SegmentSMB, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreSupportTicketVolume(tt.tickets, tt.seats, tt.segment)
			if !almostEqual(got, tt.want) {
				t.Errorf("scoreSupportTicketVolume(%d, %d, %s) = %v, want %v",
					tt.tickets, tt.seats, tt.segment, got, tt.want)
			}
		})
	}
}

func TestScoreSupportTicketVolume_Monotonic(t *testing.T) {
	prev := 101.0
	for tickets := 0; tickets <= 15; tickets++ {
		got := scoreSupportTicketVolume(tickets, 50, customer.SegmentSMB)
		if got > prev {
			t.Fatalf("score increased at %d tickets: %v > %v", tickets, got, prev)
		}
		prev = got
	}
}

func TestScoreInvoiceTimeliness(t *testing.T) {
	tests := []struct {
		name       string
		paid, late int
		want       float64
	}{
		{"no invoices is no evidence of lateness", 0, 0, 100},
		{"all paid", 4, 0, 100},
		{"three paid one late", 3, 1, 75},
		{"all late", 0, 2, 0},
		{"even split", 2, 2, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreInvoiceTimeliness(tt.paid, tt.late)
			if !almostEqual(got, tt.want) {
				t.Errorf("scoreInvoiceTimeliness(%d, %d) = %v, want %v",
					tt.paid, tt.late, got, tt.want)
			}
		})
	}
}

func TestScoreAPIUsageTrend(t *testing.T) {
	tests := []struct {
		name          string
		recent, prior float64
		want          float64
	}{
		{"both windows empty is neutral", 0, 0, 50},
		{"new usage with no prior maxes out", 120, 0, 100},
		{"flat usage is neutral", 500, 500, 50},
		{"doubled usage maxes out", 1000, 500, 100},
		{"usage stopped bottoms out", 0, 500, 0},
		{"half usage", 250, 500, 25},
		{"large spike clamps", 5000, 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreAPIUsageTrend(tt.recent, tt.prior)
			if !almostEqual(got, tt.want) {
				t.Errorf("scoreAPIUsageTrend(%v, %v) = %v, want %v",
					tt.recent, tt.prior, got, tt.want)
			}
		})
	}
}

func TestAllNormalizersStayInRange(t *testing.T) {
	for logins := 0; logins <= 200; logins += 17 {
		for seats := 0; seats <= 500; seats += 83 {
			for _, seg := range []customer.Segment{customer.SegmentStartup, customer.SegmentSMB, customer.SegmentEnterprise} {
				checkRange(t, "login_frequency", scoreLoginFrequency(logins, seats, seg))
				checkRange(t, "support_ticket_volume", scoreSupportTicketVolume(logins, seats, seg))
			}
		}
	}
	for f := 0; f <= 30; f++ {
		checkRange(t, "feature_adoption", scoreFeatureAdoption(f, 6))
	}
	for paid := 0; paid <= 10; paid++ {
		for late := 0; late <= 10; late++ {
			checkRange(t, "invoice_timeliness", scoreInvoiceTimeliness(paid, late))
		}
	}
	for _, recent := range []float64{0, 1, 100, 10000} {
		for _, prior := range []float64{0, 1, 100, 10000} {
			checkRange(t, "api_usage_trend", scoreAPIUsageTrend(recent, prior))
		}
	}
}

func checkRange(t *testing.T, factor string, v float64) {
	t.Helper()
	if v < 0 || v > 100 {
		t.Fatalf("%s out of range: %v", factor, v)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
