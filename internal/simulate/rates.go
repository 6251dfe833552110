package simulate

import (
	"math/rand"

	"extrapulse/internal/schema"
)

// marketRates are the per-market behavior baselines: the probability that a
// customer trials anything in the period, and multipliers applied to
// conversion, churn and usage intensity.
type marketRates struct {
	trialRate   float64
	convUplift  float64
	churnUplift float64
	usageUplift float64
}

// extraRates are the per-extra behavior baselines.
type extraRates struct {
	baseConv        float64 // trial -> purchase probability
	baseChurn       float64 // monthly churn probability
	baseUsageLambda float64 // expected daily usage sessions while active
}

// buildMarketRates derives baseline rates per market from its region, with
// a small seeded per-market jitter so markets inside a region still differ.
func buildMarketRates(rng *rand.Rand, markets []schema.Market) map[string]marketRates {
	rates := make(map[string]marketRates, len(markets))
	for _, m := range markets {
		var base marketRates
		switch m.Region {
		case "EU":
			base = marketRates{trialRate: 0.22, convUplift: 1.05, churnUplift: 0.95, usageUplift: 1.00}
		case "NA":
			base = marketRates{trialRate: 0.26, convUplift: 1.10, churnUplift: 0.90, usageUplift: 1.05}
		case "APAC":
			base = marketRates{trialRate: 0.20, convUplift: 0.95, churnUplift: 1.05, usageUplift: 0.95}
		case "LATAM":
			base = marketRates{trialRate: 0.18, convUplift: 0.85, churnUplift: 1.15, usageUplift: 0.90}
		default: // MEA
			base = marketRates{trialRate: 0.16, convUplift: 0.90, churnUplift: 1.10, usageUplift: 0.90}
		}

		jitter := clip(rng.NormFloat64()*0.05+1.0, 0.85, 1.20)
		rates[m.Market] = marketRates{
			trialRate:   clip(base.trialRate*jitter, 0.08, 0.40),
			convUplift:  clip(base.convUplift*jitter, 0.70, 1.35),
			churnUplift: clip(base.churnUplift*(2.0-jitter), 0.75, 1.40),
			usageUplift: clip(base.usageUplift*jitter, 0.70, 1.35),
		}
	}
	return rates
}

// buildExtraRates derives baseline rates per extra: higher price means lower
// conversion and higher churn risk; usage intensity follows the category.
func buildExtraRates(extras []schema.Extra) map[string]extraRates {
	rates := make(map[string]extraRates, len(extras))
	for _, x := range extras {
		conv := clip(0.18-0.004*(x.PriceMonthly-5.0), 0.06, 0.22)
		churn := clip(0.06+0.002*(x.PriceMonthly-5.0), 0.03, 0.10)

		var usage float64
		switch x.Category {
		case "Safety", "Security":
			usage = 0.20
		case "Infotainment", "Connectivity":
			usage = 0.45
		case "Comfort", "EV":
			usage = 0.30
		default:
			usage = 0.25
		}

		rates[x.ExtraID] = extraRates{baseConv: conv, baseChurn: churn, baseUsageLambda: usage}
	}
	return rates
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
