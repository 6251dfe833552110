package gold

import (
	"sort"
	"time"

	"extrapulse/internal/schema"
)

type cohortKey struct {
	cohortMonth time.Time
	market      string
	extraID     string
}

type retentionKey struct {
	cohortKey
	monthN int
}

type monthlyActivity struct {
	triple schema.TripleKey
	month  time.Time
}

// BuildCohortRetention assigns every (customer, market, extra) triple to the
// calendar month of its earliest purchase and computes retention indexed by
// months since that cohort month. A triple is active in a month when it has
// at least one purchase or renew event there; other event types are
// irrelevant to activity. Triples that never purchase are excluded from the
// output entirely.
//
// Activity observed before a triple's own cohort month (possible only
// through noisy or duplicated input) is discarded, not clamped to offset
// zero. Months with no activity simply have no row; gaps are not
// interpolated. Output is ordered by (cohort_month, market, extra_id,
// month_n).
func BuildCohortRetention(events []schema.Event) []schema.CohortRetention {
	cohortByTriple := make(map[schema.TripleKey]time.Time)
	activeSet := make(map[monthlyActivity]struct{})

	for _, e := range events {
		if e.EventType != schema.EventPurchase && e.EventType != schema.EventRenew {
			continue
		}
		triple := e.Triple()
		if triple.CustomerID == "" || triple.Market == "" || triple.ExtraID == "" || e.EventDate.IsZero() {
			continue
		}
		month := schema.MonthOf(e.EventDate)

		if e.EventType == schema.EventPurchase {
			if existing, ok := cohortByTriple[triple]; !ok || month.Before(existing) {
				cohortByTriple[triple] = month
			}
		}
		activeSet[monthlyActivity{triple: triple, month: month}] = struct{}{}
	}

	cohortSizes := make(map[cohortKey]int64, len(cohortByTriple))
	for triple, month := range cohortByTriple {
		cohortSizes[cohortKey{cohortMonth: month, market: triple.Market, extraID: triple.ExtraID}]++
	}

	// Distinct customers active at each (cohort_month, market, extra_id,
	// month_n) offset. Renew-only triples have no cohort and drop out here.
	retained := make(map[retentionKey]map[string]struct{})
	for activity := range activeSet {
		cohortMonth, ok := cohortByTriple[activity.triple]
		if !ok {
			continue
		}
		monthN := schema.MonthsBetween(cohortMonth, activity.month)
		if monthN < 0 {
			continue
		}
		key := retentionKey{
			cohortKey: cohortKey{
				cohortMonth: cohortMonth,
				market:      activity.triple.Market,
				extraID:     activity.triple.ExtraID,
			},
			monthN: monthN,
		}
		customers, ok := retained[key]
		if !ok {
			customers = make(map[string]struct{})
			retained[key] = customers
		}
		customers[activity.triple.CustomerID] = struct{}{}
	}

	rows := make([]schema.CohortRetention, 0, len(retained))
	for key, customers := range retained {
		size := cohortSizes[key.cohortKey]
		rows = append(rows, schema.CohortRetention{
			CohortMonth:   key.cohortMonth,
			Market:        key.market,
			ExtraID:       key.extraID,
			MonthN:        int32(key.monthN),
			RetainedSubs:  int64(len(customers)),
			CohortSize:    size,
			RetentionRate: roundTo(float64(len(customers))/float64(size), 4),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CohortMonth.Equal(rows[j].CohortMonth) {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		if rows[i].Market != rows[j].Market {
			return rows[i].Market < rows[j].Market
		}
		if rows[i].ExtraID != rows[j].ExtraID {
			return rows[i].ExtraID < rows[j].ExtraID
		}
		return rows[i].MonthN < rows[j].MonthN
	})

	return rows
}
