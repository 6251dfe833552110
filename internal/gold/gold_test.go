package gold

import (
	"testing"
	"time"

	"extrapulse/internal/schema"
)

// evt builds a test event from a "2006-01-02 15:04" timestamp.
func evt(t *testing.T, ts, customer, market, extra string, eventType schema.EventType) schema.Event {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", ts, time.UTC)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", ts, err)
	}
	return schema.Event{
		EventTS:    parsed,
		EventDate:  schema.DateOf(parsed),
		CustomerID: customer,
		Market:     market,
		ExtraID:    extra,
		EventType:  eventType,
		Quantity:   1,
	}
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}
