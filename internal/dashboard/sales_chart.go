package dashboard

import (
	"fmt"
	"sort"
	"time"

	"restoran-pos/internal/models"

	"github.com/shopspring/decimal"
)

type SalesChartPoint struct {
	Label string  `json:"label"` // day / week start / month start
	Cash  float64 `json:"cash"`
	QR    float64 `json:"qr"`
	Other float64 `json:"other"` // sales recorded without a payment method
	Total float64 `json:"total"`
}

type SalesChartGrandTotals struct {
	Cash  float64 `json:"cash"`
	QR    float64 `json:"qr"`
	Other float64 `json:"other"`
	Total float64 `json:"total"`
}

type SalesChartResponse struct {
	Period      string                `json:"period"` // daily | weekly | monthly
	From        string                `json:"from"`
	To          string                `json:"to"`
	Points      []SalesChartPoint     `json:"points"`
	GrandTotals SalesChartGrandTotals `json:"grandTotals"`
}

type ChartOptions struct {
	Period   string
	Count    int // 0 picks the period default
	Now      time.Time
	Location *time.Location
	Pricing  Pricing
}

// SalesChart buckets revenue by day, week (Monday start) or month, split by
// payment method.
func SalesChart(products []models.Product, history []models.HistoryEntry, opts ChartOptions) (SalesChartResponse, error) {
	period, count := opts.Period, opts.Count
	if count < 0 {
		return SalesChartResponse{}, fmt.Errorf("count must be positive")
	}
	if count == 0 {
		switch period {
		case "weekly":
			count = 8
		case "monthly":
			count = 12
		default:
			count = 7
		}
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var start, end time.Time
	switch period {
	case "weekly":
		end = weekStart(today).AddDate(0, 0, 7)
		start = end.AddDate(0, 0, -7*count)
	case "monthly":
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
		start = end.AddDate(0, -count, 0)
	case "daily", "":
		period = "daily"
		end = today.AddDate(0, 0, 1)
		start = end.AddDate(0, 0, -count)
	default:
		return SalesChartResponse{}, fmt.Errorf("unknown period %q", period)
	}

	type bucketAgg struct {
		bucket time.Time
		cash   decimal.Decimal
		qr     decimal.Decimal
		other  decimal.Decimal
	}
	buckets := make(map[time.Time]*bucketAgg)

	for _, s := range sales(history) {
		at := s.at.In(loc)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		b := bucketFor(period, at)
		agg, ok := buckets[b]
		if !ok {
			agg = &bucketAgg{bucket: b}
			buckets[b] = agg
		}
		amount := lineRevenue(s, products, opts.Pricing)
		switch s.method {
		case models.PaymentCash:
			agg.cash = agg.cash.Add(amount)
		case models.PaymentQR:
			agg.qr = agg.qr.Add(amount)
		default:
			agg.other = agg.other.Add(amount)
		}
	}

	ordered := make([]*bucketAgg, 0, len(buckets))
	for _, v := range buckets {
		ordered = append(ordered, v)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].bucket.Before(ordered[j].bucket) })

	points := make([]SalesChartPoint, 0, len(ordered))
	var cash, qr, other decimal.Decimal
	for _, b := range ordered {
		total := b.cash.Add(b.qr).Add(b.other)
		points = append(points, SalesChartPoint{
			Label: b.bucket.Format("2006-01-02"),
			Cash:  b.cash.InexactFloat64(),
			QR:    b.qr.InexactFloat64(),
			Other: b.other.InexactFloat64(),
			Total: total.InexactFloat64(),
		})
		cash = cash.Add(b.cash)
		qr = qr.Add(b.qr)
		other = other.Add(b.other)
	}

	return SalesChartResponse{
		Period: period,
		From:   start.Format("2006-01-02"),
		To:     end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points: points,
		GrandTotals: SalesChartGrandTotals{
			Cash:  cash.InexactFloat64(),
			QR:    qr.InexactFloat64(),
			Other: other.InexactFloat64(),
			Total: cash.Add(qr).Add(other).InexactFloat64(),
		},
	}, nil
}

func bucketFor(period string, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case "weekly":
		return weekStart(day)
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
