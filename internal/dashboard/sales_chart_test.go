package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildSalesChartDaily(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	comandas := []Sale{
		{At: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), Amount: d("12.50")},
		{At: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC), Amount: d("7.50")},
		{At: time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC), Amount: d("4.00")},
		{At: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), Amount: d("99.00")}, // outside the window
	}
	online := []Sale{{At: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), Amount: d("30.00")}}

	res := BuildSalesChart(PeriodDaily, 3, now, comandas, online)

	if len(res.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(res.Points))
	}
	if res.From != "2026-03-08" || res.To != "2026-03-10" {
		t.Fatalf("window = %s..%s", res.From, res.To)
	}

	want := []struct{ label, comanda, online string }{
		{"2026-03-08", "4", "0"},
		{"2026-03-09", "0", "30"},
		{"2026-03-10", "20", "0"},
	}
	for i, w := range want {
		p := res.Points[i]
		if p.Label != w.label || !p.Comanda.Equal(d(w.comanda)) || !p.Online.Equal(d(w.online)) {
			t.Errorf("point %d = %+v, want %+v", i, p, w)
		}
	}
	if !res.GrandTotals.Total.Equal(d("54")) {
		t.Fatalf("grand total = %s, want 54", res.GrandTotals.Total)
	}
}

func TestBucketStartWeeklyIsMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	got := bucketStart(PeriodWeekly, sunday)
	if got.Weekday() != time.Monday || got.Day() != 9 {
		t.Fatalf("week of %s starts %s", sunday, got)
	}
}

func TestBuildSalesChartMonthly(t *testing.T) {
	now := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	comandas := []Sale{
		{At: time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), Amount: d("10")},
		{At: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Amount: d("5")},
	}

	res := BuildSalesChart(PeriodMonthly, 3, now, comandas, nil)
	if res.Points[0].Label != "2026-01-01" || !res.Points[0].Comanda.Equal(d("10")) {
		t.Fatalf("january = %+v", res.Points[0])
	}
	if !res.Points[1].Total.IsZero() {
		t.Fatalf("february = %+v", res.Points[1])
	}
	if !res.Points[2].Comanda.Equal(d("5")) {
		t.Fatalf("march = %+v", res.Points[2])
	}
	if res.To != "2026-03-31" {
		t.Fatalf("to = %s", res.To)
	}
}
