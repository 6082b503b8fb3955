package dashboard

import (
	"strconv"
	"time"

	"padaria-backend/internal/database"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type SalesChartPoint struct {
	Label   string          `json:"label"` // day / week start (Monday) / month start
	Comanda decimal.Decimal `json:"comanda"`
	Online  decimal.Decimal `json:"online"`
	Total   decimal.Decimal `json:"total"`
}

type SalesChartTotals struct {
	Comanda decimal.Decimal `json:"comanda"`
	Online  decimal.Decimal `json:"online"`
	Total   decimal.Decimal `json:"total"`
}

type SalesChartResponse struct {
	Period      string            `json:"period"` // daily | weekly | monthly
	From        string            `json:"from"`
	To          string            `json:"to"`
	Points      []SalesChartPoint `json:"points"`
	GrandTotals SalesChartTotals  `json:"grand_totals"`
}

// Sale is one settled amount at the moment it counted.
type Sale struct {
	At     time.Time
	Amount decimal.Decimal
}

func defaultCount(period string) int {
	switch period {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	}
	return 7
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(period string, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

func step(period string, t time.Time, n int) time.Time {
	switch period {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7*n)
	case PeriodMonthly:
		return t.AddDate(0, n, 0)
	}
	return t.AddDate(0, 0, n)
}

// Window returns the first bucket start and the exclusive end of the last
// bucket for count buckets ending with the one that contains now.
func Window(period string, count int, now time.Time) (time.Time, time.Time) {
	last := bucketStart(period, now)
	return step(period, last, -(count - 1)), step(period, last, 1)
}

// BuildSalesChart spreads sales over count buckets. Every bucket is present,
// empty ones with zero totals; sales outside the window are ignored.
func BuildSalesChart(period string, count int, now time.Time, comandas, online []Sale) SalesChartResponse {
	start, end := Window(period, count, now)

	points := make([]SalesChartPoint, count)
	index := make(map[time.Time]int, count)
	for i := 0; i < count; i++ {
		b := step(period, start, i)
		index[b] = i
		points[i] = SalesChartPoint{
			Label:   b.Format("2006-01-02"),
			Comanda: decimal.Zero,
			Online:  decimal.Zero,
			Total:   decimal.Zero,
		}
	}

	add := func(s Sale, online bool) {
		at := s.At.In(now.Location())
		if at.Before(start) || !at.Before(end) {
			return
		}
		i, ok := index[bucketStart(period, at)]
		if !ok {
			return
		}
		if online {
			points[i].Online = points[i].Online.Add(s.Amount)
		} else {
			points[i].Comanda = points[i].Comanda.Add(s.Amount)
		}
		points[i].Total = points[i].Total.Add(s.Amount)
	}
	for _, s := range comandas {
		add(s, false)
	}
	for _, s := range online {
		add(s, true)
	}

	grand := SalesChartTotals{Comanda: decimal.Zero, Online: decimal.Zero, Total: decimal.Zero}
	for _, p := range points {
		grand.Comanda = grand.Comanda.Add(p.Comanda)
		grand.Online = grand.Online.Add(p.Online)
		grand.Total = grand.Total.Add(p.Total)
	}

	return SalesChartResponse{
		Period:      period,
		From:        start.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}
}

// GET /api/dashboard/sales-chart?period=daily&count=7
func SalesChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", PeriodDaily)
		if period != PeriodWeekly && period != PeriodMonthly {
			period = PeriodDaily
		}

		count := defaultCount(period)
		if s := c.Query("count"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 366")
			}
			count = n
		}

		now := time.Now()
		start, end := Window(period, count, now)

		// comandas count when they are closed for payment; cancelled ones never do
		var comandas []models.Comanda
		if err := database.DB.Select("id", "total", "closed_at").
			Where("status IN ? AND closed_at >= ? AND closed_at < ?",
				[]models.ComandaStatus{models.ComandaAwaitingPayment, models.ComandaClosed}, start, end).
			Find(&comandas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not aggregate sales")
		}

		var orders []models.OnlineOrder
		if err := database.DB.Select("id", "total", "delivered_at").
			Where("status = ? AND delivered_at >= ? AND delivered_at < ?", models.OnlineDelivered, start, end).
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not aggregate sales")
		}

		comandaSales := make([]Sale, 0, len(comandas))
		for _, cmd := range comandas {
			if cmd.ClosedAt != nil {
				comandaSales = append(comandaSales, Sale{At: *cmd.ClosedAt, Amount: cmd.Total})
			}
		}
		onlineSales := make([]Sale, 0, len(orders))
		for _, o := range orders {
			if o.DeliveredAt != nil {
				onlineSales = append(onlineSales, Sale{At: *o.DeliveredAt, Amount: o.Total})
			}
		}

		return c.JSON(BuildSalesChart(period, count, now, comandaSales, onlineSales))
	}
}
