// Package domain models per-region conflict risk observations and the pure
// derivations computed over them.
//
// # Data Source
//
// Observations come from a flat CSV dataset (historical or synthetic) with
// one row per (timestamp, region) sample. Required columns:
//
//	timestamp, region, lat, lon,
//	risk_score, activity_index, supply_pressure, morale_index
//
// The four indicators are bounded reals with a nominal 0-100 range that is
// not enforced on input; derived values are clamped instead.
//
// # Timestamp Conventions
//
// Timestamps are ISO-like strings parsed against an ordered list of layouts
// and normalized to UTC. A row whose timestamp matches no layout keeps a null
// (zero) timestamp rather than failing the load. Canonical ordering is
// timestamp ascending, region ascending on ties, null timestamps last, so a
// malformed row can never anchor the trailing window.
//
// # Composite Score
//
// The composite risk scalar blends the raw indicators through four weighted
// terms (defaults 0.45 risk, 0.25 infrastructure stress, 0.20 supply relief,
// 0.10 environmental risk) and clamps the result to [0,100]. Weights are
// operator-tunable and intentionally not renormalized; see [Composite].
//
// # Injections
//
// An [Injection] perturbs the already-revealed rows of one region for a
// bounded interval, coupling a risk spike to supply and morale degradation.
// This is the single sanctioned break in the event timeline's immutability.
package domain
