package gold

import (
	"math"
	"sort"
	"time"

	"extrapulse/internal/schema"
)

type kpiKey struct {
	date    time.Time
	market  string
	extraID string
}

type kpiAccum struct {
	trials      int64
	purchases   int64
	renewals    int64
	cancels     int64
	sessions    int64
	activeUsers map[string]struct{}
}

// BuildDailyKPI aggregates raw events into one row per (date, market,
// extra_id) combination that has at least one event; combinations with no
// events are absent, not zero-filled. Rows are enriched with region,
// category and price from the dimension tables (nil attributes when the
// code is unknown) and ordered by (market, extra_id, date).
//
// active_subscriptions is the running cumulative sum of daily net adds
// (purchases + renewals - cancels) within each (market, extra_id) series.
// It is a proxy, not a subscriber ledger: on truncated windows it can go
// negative, and it is preserved as-is rather than floored at zero so that
// downstream consumers see the gap as a data-quality signal.
func BuildDailyKPI(events []schema.Event, markets []schema.Market, extras []schema.Extra) []schema.DailyKPI {
	groups := make(map[kpiKey]*kpiAccum)

	for _, e := range events {
		// Rows missing a grouping key have no group to land in; the
		// missing_keys DQ check is where they surface.
		if e.EventDate.IsZero() || e.Market == "" || e.ExtraID == "" {
			continue
		}

		key := kpiKey{date: schema.DateOf(e.EventDate), market: e.Market, extraID: e.ExtraID}
		acc, ok := groups[key]
		if !ok {
			acc = &kpiAccum{activeUsers: make(map[string]struct{})}
			groups[key] = acc
		}

		switch e.EventType {
		case schema.EventTrialStart:
			acc.trials++
		case schema.EventPurchase:
			acc.purchases++
		case schema.EventRenew:
			acc.renewals++
		case schema.EventCancel:
			acc.cancels++
		case schema.EventUsageSession:
			acc.sessions++
			if e.CustomerID != "" {
				acc.activeUsers[e.CustomerID] = struct{}{}
			}
		}
	}

	regionByMarket := make(map[string]string, len(markets))
	for _, m := range markets {
		regionByMarket[m.Market] = m.Region
	}
	extraByID := make(map[string]schema.Extra, len(extras))
	for _, x := range extras {
		extraByID[x.ExtraID] = x
	}

	rows := make([]schema.DailyKPI, 0, len(groups))
	for key, acc := range groups {
		row := schema.DailyKPI{
			Date:        key.date,
			Market:      key.market,
			ExtraID:     key.extraID,
			Trials:      acc.trials,
			Purchases:   acc.purchases,
			Renewals:    acc.renewals,
			Cancels:     acc.cancels,
			ActiveUsers: int64(len(acc.activeUsers)),
			Sessions:    acc.sessions,
		}
		if region, ok := regionByMarket[key.market]; ok {
			row.Region = &region
		}
		if extra, ok := extraByID[key.extraID]; ok {
			category := extra.Category
			row.Category = &category
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Market != rows[j].Market {
			return rows[i].Market < rows[j].Market
		}
		if rows[i].ExtraID != rows[j].ExtraID {
			return rows[i].ExtraID < rows[j].ExtraID
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	// Cumulative subscription proxy and MRR over each date-ordered
	// (market, extra_id) series.
	var (
		seriesMarket string
		seriesExtra  string
		cumulative   int64
	)
	for i := range rows {
		if rows[i].Market != seriesMarket || rows[i].ExtraID != seriesExtra {
			seriesMarket = rows[i].Market
			seriesExtra = rows[i].ExtraID
			cumulative = 0
		}
		cumulative += rows[i].Purchases + rows[i].Renewals - rows[i].Cancels
		rows[i].ActiveSubscriptions = cumulative

		if extra, ok := extraByID[rows[i].ExtraID]; ok {
			mrr := roundTo(float64(cumulative)*extra.PriceMonthly, 2)
			rows[i].MRR = &mrr
		}
	}

	return rows
}

// roundTo rounds x half away from zero to the given number of decimals.
func roundTo(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
