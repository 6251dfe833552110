// Package simulate generates a synthetic but realistic "digital extras"
// dataset: the three dimension tables and a subscription lifecycle event
// stream (trial_start, purchase, renew, cancel, usage_session) with
// market-, extra- and segment-dependent rates, an optional conversion
// campaign, and a small injected fraction of data-quality noise (exact
// duplicates and renews predating their purchase) for DQ monitoring demos.
//
// All randomness flows through a single *rand.Rand owned by the Generator,
// so a seed fully determines the produced dataset.
package simulate
