package gold

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrapulse/internal/schema"
)

func TestBuildCohortRetentionEndToEnd(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-02-12 10:00", "C1", "DE", "EX_01", schema.EventRenew),
	}

	rows := BuildCohortRetention(events)
	require.Len(t, rows, 2)

	jan := date(t, "2025-01-01")
	for i, wantMonthN := range []int32{0, 1} {
		assert.Equal(t, jan, rows[i].CohortMonth)
		assert.Equal(t, "DE", rows[i].Market)
		assert.Equal(t, "EX_01", rows[i].ExtraID)
		assert.Equal(t, wantMonthN, rows[i].MonthN)
		assert.Equal(t, int64(1), rows[i].RetainedSubs)
		assert.Equal(t, int64(1), rows[i].CohortSize)
		assert.Equal(t, 1.0, rows[i].RetentionRate)
	}
}

func TestBuildCohortRetentionExcludesNonPurchasers(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_01", schema.EventTrialStart),
		evt(t, "2025-01-11 10:00", "C1", "DE", "EX_01", schema.EventUsageSession),
		evt(t, "2025-01-12 10:00", "C1", "DE", "EX_01", schema.EventUsageSession),
	}

	assert.Empty(t, BuildCohortRetention(events), "triples with no purchase never enter the output")
}

func TestBuildCohortRetentionRenewOnlyTripleExcluded(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_01", schema.EventRenew),
		evt(t, "2025-02-10 10:00", "C1", "DE", "EX_01", schema.EventRenew),
	}

	assert.Empty(t, BuildCohortRetention(events), "renew without purchase has no cohort")
}

func TestBuildCohortRetentionNegativeOffsetsDiscarded(t *testing.T) {
	events := []schema.Event{
		// Renew in December, first purchase in January: the December
		// activity predates the cohort and is dropped, not clamped.
		evt(t, "2024-12-20 10:00", "C1", "DE", "EX_01", schema.EventRenew),
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
	}

	rows := BuildCohortRetention(events)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(0), rows[0].MonthN)
	assert.Equal(t, date(t, "2025-01-01"), rows[0].CohortMonth)
}

func TestBuildCohortRetentionCohortSize(t *testing.T) {
	events := []schema.Event{
		// Three triples purchase in January in DE/EX_01; one retains into
		// February.
		evt(t, "2025-01-05 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-01-15 10:00", "C2", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-01-25 10:00", "C3", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-02-05 10:00", "C1", "DE", "EX_01", schema.EventRenew),
	}

	rows := BuildCohortRetention(events)
	require.Len(t, rows, 2)

	month0 := rows[0]
	assert.Equal(t, int32(0), month0.MonthN)
	assert.Equal(t, int64(3), month0.RetainedSubs)
	assert.Equal(t, int64(3), month0.CohortSize)
	assert.Equal(t, 1.0, month0.RetentionRate)

	month1 := rows[1]
	assert.Equal(t, int32(1), month1.MonthN)
	assert.Equal(t, int64(1), month1.RetainedSubs)
	assert.Equal(t, int64(3), month1.CohortSize)
	assert.Equal(t, 0.3333, month1.RetentionRate, "retention_rate rounds to 4 decimal places")
}

func TestBuildCohortRetentionGapsNotInterpolated(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
		// Silent in February, back in March.
		evt(t, "2025-03-12 10:00", "C1", "DE", "EX_01", schema.EventRenew),
	}

	rows := BuildCohortRetention(events)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(0), rows[0].MonthN)
	assert.Equal(t, int32(2), rows[1].MonthN, "a silent month has no row, not a zero row")
}

func TestBuildCohortRetentionRateBounds(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-01-05 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-01-06 10:00", "C2", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-02-05 10:00", "C1", "DE", "EX_01", schema.EventRenew),
		evt(t, "2025-02-06 10:00", "C2", "DE", "EX_01", schema.EventRenew),
		evt(t, "2025-03-05 10:00", "C1", "DE", "EX_01", schema.EventRenew),
		evt(t, "2025-01-20 10:00", "C3", "US", "EX_02", schema.EventPurchase),
	}

	for _, r := range BuildCohortRetention(events) {
		assert.GreaterOrEqual(t, r.RetentionRate, 0.0)
		assert.LessOrEqual(t, r.RetentionRate, 1.0)
		assert.LessOrEqual(t, r.RetainedSubs, r.CohortSize)
		assert.GreaterOrEqual(t, r.CohortSize, int64(1))
	}
}

func TestBuildCohortRetentionOrdering(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-02-10 10:00", "C4", "US", "EX_01", schema.EventPurchase),
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_02", schema.EventPurchase),
		evt(t, "2025-01-10 10:00", "C2", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-02-10 10:00", "C2", "DE", "EX_01", schema.EventRenew),
	}

	rows := BuildCohortRetention(events)
	require.Len(t, rows, 4)

	sorted := sort.SliceIsSorted(rows, func(i, j int) bool {
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
	assert.True(t, sorted)
	assert.Equal(t, "DE", rows[0].Market)
	assert.Equal(t, "EX_01", rows[0].ExtraID)
}

func TestBuildCohortRetentionEarliestPurchaseWins(t *testing.T) {
	events := []schema.Event{
		evt(t, "2025-03-10 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
		evt(t, "2025-01-10 10:00", "C1", "DE", "EX_01", schema.EventPurchase),
	}

	rows := BuildCohortRetention(events)
	require.Len(t, rows, 2)
	assert.Equal(t, date(t, "2025-01-01"), rows[0].CohortMonth)
	assert.Equal(t, int32(0), rows[0].MonthN)
	assert.Equal(t, int32(2), rows[1].MonthN, "the later purchase is month 2 activity of the January cohort")
}
