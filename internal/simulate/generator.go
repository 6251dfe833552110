package simulate

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"extrapulse/internal/schema"
)

// staticMarkets is the fixed dim_market reference set.
var staticMarkets = []schema.Market{
	{Market: "DE", Region: "EU"}, {Market: "FR", Region: "EU"},
	{Market: "IT", Region: "EU"}, {Market: "ES", Region: "EU"},
	{Market: "NL", Region: "EU"}, {Market: "SE", Region: "EU"},
	{Market: "PL", Region: "EU"}, {Market: "GB", Region: "EU"},
	{Market: "US", Region: "NA"}, {Market: "CA", Region: "NA"},
	{Market: "BR", Region: "LATAM"}, {Market: "MX", Region: "LATAM"},
	{Market: "AE", Region: "MEA"}, {Market: "SA", Region: "MEA"},
	{Market: "IN", Region: "APAC"}, {Market: "SG", Region: "APAC"},
	{Market: "JP", Region: "APAC"}, {Market: "KR", Region: "APAC"},
	{Market: "AU", Region: "APAC"},
}

// marketWeights biases customer placement toward the large markets. Index
// aligned with staticMarkets.
var marketWeights = []float64{
	0.07, 0.06, 0.05, 0.05, 0.03,
	0.02, 0.03, 0.04,
	0.20, 0.05,
	0.06, 0.04,
	0.03, 0.02,
	0.10, 0.02, 0.04, 0.03, 0.03,
}

// staticExtras is the fixed dim_extra reference set.
var staticExtras = []schema.Extra{
	{ExtraID: "EX_01", Name: "Navigation+", Category: "Infotainment", PriceMonthly: 9.99},
	{ExtraID: "EX_02", Name: "Remote Start", Category: "Comfort", PriceMonthly: 5.99},
	{ExtraID: "EX_03", Name: "Advanced Parking", Category: "Safety", PriceMonthly: 7.99},
	{ExtraID: "EX_04", Name: "Premium Audio", Category: "Infotainment", PriceMonthly: 12.99},
	{ExtraID: "EX_05", Name: "Driver Assist", Category: "Safety", PriceMonthly: 14.99},
	{ExtraID: "EX_06", Name: "Smart Charging", Category: "EV", PriceMonthly: 6.99},
	{ExtraID: "EX_07", Name: "Theft Alert", Category: "Security", PriceMonthly: 4.99},
	{ExtraID: "EX_08", Name: "Wi-Fi Hotspot", Category: "Connectivity", PriceMonthly: 8.99},
}

var segments = []string{"Private", "Business", "Premium"}
var segmentWeights = []float64{0.70, 0.20, 0.10}

// Config controls one synthetic dataset.
type Config struct {
	Customers              int
	Start                  time.Time
	End                    time.Time
	CampaignDate           time.Time
	CampaignMarkets        []string
	CampaignConvMultiplier float64
	// QualityNoise is the fraction of events corrupted for the DQ demo,
	// half as exact duplicates and half as renews predating their purchase.
	QualityNoise float64
}

// Dataset is one complete generated snapshot of the four raw tables.
type Dataset struct {
	Markets   []schema.Market
	Extras    []schema.Extra
	Customers []schema.Customer
	Events    []schema.Event
}

// Generator produces synthetic datasets. The random source is injected via
// seed; the same seed and config always produce the same dataset.
type Generator struct {
	rng    *rand.Rand
	cfg    Config
	logger *slog.Logger
}

// New creates a generator for the given seed and config.
func New(seed int64, cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.End.Before(cfg.Start) {
		return nil, fmt.Errorf("end %s before start %s", cfg.End.Format("2006-01-02"), cfg.Start.Format("2006-01-02"))
	}
	if cfg.Customers <= 0 {
		return nil, fmt.Errorf("customers must be positive, got %d", cfg.Customers)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), cfg: cfg, logger: logger}, nil
}

// Generate produces one full dataset.
func (g *Generator) Generate() Dataset {
	markets := append([]schema.Market(nil), staticMarkets...)
	extras := append([]schema.Extra(nil), staticExtras...)
	customers := g.generateCustomers(markets)
	events := g.generateEvents(markets, extras, customers)

	g.logger.Info("synthetic dataset generated",
		slog.Int("markets", len(markets)),
		slog.Int("extras", len(extras)),
		slog.Int("customers", len(customers)),
		slog.Int("events", len(events)))

	return Dataset{Markets: markets, Extras: extras, Customers: customers, Events: events}
}

// generateCustomers places customers in weighted markets and segments, with
// signup dates biased toward the start of the period.
func (g *Generator) generateCustomers(markets []schema.Market) []schema.Customer {
	totalDays := int(g.cfg.End.Sub(g.cfg.Start).Hours() / 24)
	customers := make([]schema.Customer, 0, g.cfg.Customers)

	for i := 1; i <= g.cfg.Customers; i++ {
		market := markets[weightedIndex(g.rng, marketWeights)].Market
		segment := segments[weightedIndex(g.rng, segmentWeights)]

		// Beta(2, 5) biases signups toward the early period.
		offset := int(betaSample(g.rng, 2, 5) * float64(totalDays))
		signup := g.cfg.Start.AddDate(0, 0, offset)

		customers = append(customers, schema.Customer{
			CustomerID: fmt.Sprintf("C_%06d", i),
			Market:     market,
			Segment:    segment,
			SignupDate: signup,
		})
	}
	return customers
}

// generateEvents simulates the subscription lifecycle per customer:
// trial_start, optional purchase, monthly renews until churn, a cancel when
// it falls inside the horizon, and usage sessions while trialing or active.
func (g *Generator) generateEvents(markets []schema.Market, extras []schema.Extra, customers []schema.Customer) []schema.Event {
	mRates := buildMarketRates(g.rng, markets)
	eRates := buildExtraRates(extras)

	var events []schema.Event

	for _, c := range customers {
		if c.SignupDate.After(g.cfg.End) {
			continue
		}
		rates := mRates[c.Market]
		if g.rng.Float64() > rates.trialRate {
			continue
		}

		nTrials := poisson(g.rng, 1.2)
		if nTrials < 1 {
			nTrials = 1
		}
		if nTrials > 4 {
			nTrials = 4
		}
		if nTrials > len(extras) {
			nTrials = len(extras)
		}

		for _, idx := range g.rng.Perm(len(extras))[:nTrials] {
			extra := extras[idx]
			events = append(events, g.lifecycleEvents(c, extra, rates, eRates[extra.ExtraID])...)
		}
	}

	events = g.injectNoise(events)

	sort.Slice(events, func(i, j int) bool {
		if !events[i].EventTS.Equal(events[j].EventTS) {
			return events[i].EventTS.Before(events[j].EventTS)
		}
		if events[i].CustomerID != events[j].CustomerID {
			return events[i].CustomerID < events[j].CustomerID
		}
		return events[i].ExtraID < events[j].ExtraID
	})

	return events
}

// lifecycleEvents produces the full event trail of one customer/extra trial.
func (g *Generator) lifecycleEvents(c schema.Customer, extra schema.Extra, mr marketRates, er extraRates) []schema.Event {
	var events []schema.Event

	minDay := c.SignupDate
	if minDay.Before(g.cfg.Start) {
		minDay = g.cfg.Start
	}
	horizon := int(g.cfg.End.Sub(minDay).Hours()/24) + 1
	if horizon < 1 {
		horizon = 1
	}
	trialDay := minDay.AddDate(0, 0, intBetween(g.rng, 0, horizon))
	events = append(events, g.event(trialDay, c, extra.ExtraID, schema.EventTrialStart))

	conv := er.baseConv * mr.convUplift
	if g.inCampaign(c.Market, trialDay) {
		conv *= g.cfg.CampaignConvMultiplier
	}
	switch c.Segment {
	case "Premium":
		conv *= 1.20
	case "Business":
		conv *= 1.08
	}
	conv = clip(conv, 0.02, 0.60)

	usageLambda := er.baseUsageLambda * mr.usageUplift

	if g.rng.Float64() >= conv {
		// No purchase: a short burst of trial usage only.
		trialDays := intBetween(g.rng, 3, 15)
		events = append(events, g.usageEvents(c, extra.ExtraID, trialDay, trialDay.AddDate(0, 0, trialDays-1), usageLambda)...)
		return events
	}

	purchaseDay := trialDay.AddDate(0, 0, intBetween(g.rng, 0, 22))
	if purchaseDay.After(g.cfg.End) {
		return events
	}
	events = append(events, g.event(purchaseDay, c, extra.ExtraID, schema.EventPurchase))

	churn := er.baseChurn * mr.churnUplift
	switch c.Segment {
	case "Premium":
		churn *= 0.80
	case "Business":
		churn *= 0.90
	}
	churn = clip(churn, 0.01, 0.25)

	monthsAlive := 1
	for monthsAlive < 12 && g.rng.Float64() > churn {
		monthsAlive++
	}

	// Approximate month boundaries at 30 days, as in the billing cadence.
	activeEnd := g.cfg.End
	cancelDay := purchaseDay.AddDate(0, 0, 30*monthsAlive+intBetween(g.rng, -5, 6))
	cancelHappens := !cancelDay.After(g.cfg.End)
	if cancelHappens {
		activeEnd = cancelDay
	}

	for m := 1; m < monthsAlive; m++ {
		renewDay := purchaseDay.AddDate(0, 0, 30*m)
		if renewDay.After(g.cfg.End) {
			break
		}
		events = append(events, g.event(renewDay, c, extra.ExtraID, schema.EventRenew))
	}

	if cancelHappens {
		events = append(events, g.event(activeEnd, c, extra.ExtraID, schema.EventCancel))
	}

	events = append(events, g.usageEvents(c, extra.ExtraID, purchaseDay, activeEnd, usageLambda)...)
	return events
}

// usageEvents emits daily usage sessions between from and to inclusive,
// clamped to the horizon.
func (g *Generator) usageEvents(c schema.Customer, extraID string, from, to time.Time, lambda float64) []schema.Event {
	var events []schema.Event
	for day := from; !day.After(to) && !day.After(g.cfg.End); day = day.AddDate(0, 0, 1) {
		for i := 0; i < poisson(g.rng, lambda); i++ {
			events = append(events, g.event(day, c, extraID, schema.EventUsageSession))
		}
	}
	return events
}

// event stamps an event at a random minute within the given day.
func (g *Generator) event(day time.Time, c schema.Customer, extraID string, eventType schema.EventType) schema.Event {
	ts := schema.DateOf(day).Add(time.Duration(intBetween(g.rng, 0, 1440)) * time.Minute)
	return schema.Event{
		EventTS:    ts,
		EventDate:  schema.DateOf(ts),
		CustomerID: c.CustomerID,
		Market:     c.Market,
		ExtraID:    extraID,
		EventType:  eventType,
		Quantity:   1,
	}
}

func (g *Generator) inCampaign(market string, day time.Time) bool {
	if g.cfg.CampaignDate.IsZero() || day.Before(g.cfg.CampaignDate) {
		return false
	}
	for _, m := range g.cfg.CampaignMarkets {
		if m == market {
			return true
		}
	}
	return false
}

// injectNoise corrupts a QualityNoise fraction of the stream: half exact
// duplicates, half renew events shifted 1-9 days before their source row.
func (g *Generator) injectNoise(events []schema.Event) []schema.Event {
	if g.cfg.QualityNoise <= 0 || len(events) == 0 {
		return events
	}
	nNoise := int(float64(len(events)) * g.cfg.QualityNoise)
	nDup := nNoise / 2
	nInvalid := nNoise - nDup

	for _, idx := range g.rng.Perm(len(events))[:min(nDup, len(events))] {
		events = append(events, events[idx])
	}

	for i := 0; i < nInvalid; i++ {
		src := events[g.rng.Intn(len(events))]
		src.EventType = schema.EventRenew
		src.EventTS = src.EventTS.AddDate(0, 0, -intBetween(g.rng, 1, 10))
		src.EventDate = schema.DateOf(src.EventTS)
		events = append(events, src)
	}

	return events
}

// weightedIndex draws an index proportionally to the given weights.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}
