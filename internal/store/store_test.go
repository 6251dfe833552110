package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extrapulse/internal/config"
	"extrapulse/internal/schema"
)

func testPaths(t *testing.T) config.Paths {
	t.Helper()
	root := t.TempDir()
	paths := config.Paths{
		RawDir:       filepath.Join(root, "raw"),
		ProcessedDir: filepath.Join(root, "processed"),
		ReportsDir:   filepath.Join(root, "reports"),
	}
	require.NoError(t, os.MkdirAll(paths.RawDir, 0755))
	return paths
}

func sampleEvents() []schema.Event {
	ts := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)
	return []schema.Event{
		{
			EventTS:    ts,
			EventDate:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			CustomerID: "C_000001",
			Market:     "DE",
			ExtraID:    "EX_01",
			EventType:  schema.EventPurchase,
			Quantity:   1,
		},
		{
			EventTS:    ts.Add(time.Hour),
			EventDate:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			CustomerID: "C_000002",
			Market:     "US",
			ExtraID:    "EX_02",
			EventType:  schema.EventUsageSession,
			Quantity:   1,
		},
	}
}

func TestDetect(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		paths := testPaths(t)
		st := New(paths, FormatCSV, nil)
		require.NoError(t, st.WriteEvents(sampleEvents()))

		detected, err := Detect(paths, nil)
		require.NoError(t, err)
		assert.Equal(t, FormatCSV, detected.Format())
	})

	t.Run("parquet preferred over csv", func(t *testing.T) {
		paths := testPaths(t)
		require.NoError(t, New(paths, FormatCSV, nil).WriteEvents(sampleEvents()))
		require.NoError(t, New(paths, FormatParquet, nil).WriteEvents(sampleEvents()))

		detected, err := Detect(paths, nil)
		require.NoError(t, err)
		assert.Equal(t, FormatParquet, detected.Format())
	})

	t.Run("no events table", func(t *testing.T) {
		paths := testPaths(t)
		_, err := Detect(paths, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTableMissing)
	})
}

func TestMissingInputTable(t *testing.T) {
	paths := testPaths(t)
	st := New(paths, FormatCSV, nil)
	require.NoError(t, st.WriteEvents(sampleEvents()))

	// fact_events exists but dim_market does not.
	_, err := st.ReadMarkets()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableMissing)
	assert.Contains(t, err.Error(), TableMarket)
}

func TestCSVRoundTrips(t *testing.T) {
	paths := testPaths(t)
	st := New(paths, FormatCSV, nil)

	t.Run("markets", func(t *testing.T) {
		rows := []schema.Market{{Market: "DE", Region: "EU"}, {Market: "US", Region: "NA"}}
		require.NoError(t, st.WriteMarkets(rows))
		got, err := st.ReadMarkets()
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("extras", func(t *testing.T) {
		rows := []schema.Extra{
			{ExtraID: "EX_01", Name: "Navigation+", Category: "Infotainment", PriceMonthly: 9.99},
			{ExtraID: "EX_07", Name: "Theft Alert", Category: "Security", PriceMonthly: 4.99},
		}
		require.NoError(t, st.WriteExtras(rows))
		got, err := st.ReadExtras()
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("customers", func(t *testing.T) {
		rows := []schema.Customer{
			{CustomerID: "C_000001", Market: "DE", Segment: "Private", SignupDate: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		}
		require.NoError(t, st.WriteCustomers(rows))
		got, err := st.ReadCustomers()
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("events", func(t *testing.T) {
		rows := sampleEvents()
		require.NoError(t, st.WriteEvents(rows))
		got, err := st.ReadEvents()
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})
}

func TestCSVMissingValues(t *testing.T) {
	paths := testPaths(t)
	path := paths.RawTable(TableEvents, "csv")
	content := "event_ts,event_date,customer_id,market,extra_id,event_type,quantity\n" +
		",,C_000001,DE,EX_01,purchase,1\n" +
		"2025-01-10 14:30:00,2025-01-10,,DE,EX_01,purchase,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	st := New(paths, FormatCSV, nil)
	events, err := st.ReadEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.True(t, events[0].EventTS.IsZero(), "empty timestamp reads as missing, not an error")
	assert.True(t, events[0].EventDate.IsZero())
	assert.Empty(t, events[1].CustomerID)
	assert.Zero(t, events[1].Quantity)
}

func TestCSVHeaderContract(t *testing.T) {
	paths := testPaths(t)
	path := paths.RawTable(TableMarket, "csv")
	require.NoError(t, os.WriteFile(path, []byte("country,region\nDE,EU\n"), 0644))

	_, err := New(paths, FormatCSV, nil).ReadMarkets()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")
}

func TestCSVReaderStripsBOM(t *testing.T) {
	paths := testPaths(t)
	path := paths.RawTable(TableMarket, "csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("market,region\nDE,EU\n")...)
	require.NoError(t, os.WriteFile(path, content, 0644))

	rows, err := New(paths, FormatCSV, nil).ReadMarkets()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DE", rows[0].Market)
}

func TestParquetRoundTrip(t *testing.T) {
	paths := testPaths(t)
	st := New(paths, FormatParquet, nil)

	rows := sampleEvents()
	require.NoError(t, st.WriteEvents(rows))
	got, err := st.ReadEvents()
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.True(t, rows[i].EventTS.Equal(got[i].EventTS))
		assert.Equal(t, rows[i].CustomerID, got[i].CustomerID)
		assert.Equal(t, rows[i].EventType, got[i].EventType)
	}
}

func TestWriteGoldTablesCSV(t *testing.T) {
	paths := testPaths(t)
	st := New(paths, FormatCSV, nil)

	region := "EU"
	category := "Infotainment"
	mrr := 19.98

	require.NoError(t, st.WriteDQResults([]schema.DQResult{{
		Date:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckName:  "missing_keys",
		TableName:  "events",
		Severity:   schema.SeverityInfo,
		FailedRows: 0,
	}}))
	require.NoError(t, st.WriteDailyKPI([]schema.DailyKPI{{
		Date:                time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Market:              "DE",
		Region:              &region,
		ExtraID:             "EX_01",
		Category:            &category,
		Purchases:           2,
		ActiveSubscriptions: 2,
		MRR:                 &mrr,
	}, {
		Date:                time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		Market:              "XX",
		ExtraID:             "EX_99",
		Cancels:             1,
		ActiveSubscriptions: -1,
	}}))
	require.NoError(t, st.WriteCohortRetention([]schema.CohortRetention{{
		CohortMonth:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Market:        "DE",
		ExtraID:       "EX_01",
		MonthN:        1,
		RetainedSubs:  1,
		CohortSize:    3,
		RetentionRate: 0.3333,
	}}))

	kpi, err := os.ReadFile(paths.ProcessedTable(TableDailyKPI, "csv"))
	require.NoError(t, err)
	assert.Contains(t, string(kpi), "2025-01-10,DE,EU,EX_01,Infotainment,0,2,0,0,2,0,0,19.98")
	assert.Contains(t, string(kpi), "2025-01-11,XX,,EX_99,,0,0,0,1,-1,0,0,", "nulls serialize as empty cells")

	cohort, err := os.ReadFile(paths.ProcessedTable(TableCohortRetention, "csv"))
	require.NoError(t, err)
	assert.Contains(t, string(cohort), "2025-01,DE,EX_01,1,1,3,0.3333")

	dq, err := os.ReadFile(paths.ProcessedTable(TableDQResults, "csv"))
	require.NoError(t, err)
	assert.Contains(t, string(dq), "2025-06-01,missing_keys,events,info,0,")
}
