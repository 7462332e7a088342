// Package domain holds the weather-risk-to-decision core: crop tolerance
// catalog, risk evaluation, forecast scanning, harvest economics, and
// typhoon landfall inference. Everything here is pure computation over
// in-memory values; persistence and provider I/O live in the adapters.
//
// # Risk Verdicts
//
// Each environmental dimension (drought, flood, heat, frost, cold, wind,
// humidity) is evaluated independently against the crop's tolerance profile
// and produces at most one finding per sample. Findings are non-exclusive:
// a single sample can yield flood and wind findings at the same time.
// Severity is always derived from the triggering measurement through the
// catalog thresholds, never assigned ad hoc.
//
// # Storm Classification
//
// Forecast scanning uses stricter multi-signal thresholds than single-sample
// evaluation to reduce false positives from noisy forecast feeds:
//
//	Typhoon (forecast):  sustained ≥ 75 km/h or gusts ≥ 90 km/h, precipitation ≥ 20 mm,
//	                     gusts ≥ 1.2× sustained (or sustained alone ≥ 75).
//	Typhoon (current):   relaxed 70 / 85 / 15 mm / 1.15×, live conditions are
//	                     already corroborated by observation.
//	Tropical storm:      50 / 65 / 10 mm / 1.1×, surfaced only within a 2-day
//	                     horizon; further out is considered too speculative.
//
// The gust-ratio requirement guards against isolated gust spikes that do not
// indicate a real storm system. Escalation within typhoon grade:
//
//	sustained ≥ 118 km/h or gusts ≥ 140 → critical, "Super Typhoon"
//	sustained ≥ 89 km/h or gusts ≥ 110  → critical, "Category 3"
//	otherwise                           → high, "Category 1-2"
//
// # Harvest Economics
//
// The decision engine compares peso values across four scenarios (harvest
// now, wait to full maturity, wait and absorb storm damage, harvest on an
// optimal pre-storm date). Maturity-dependent yield uses a monotone step
// table from 70% upward with linear interpolation below 70%, floored at a
// 0.70 factor. Damage factors are combined by maximum, not by sum, because
// flood, lodging, heavy rain, and wind losses from a single storm are
// strongly correlated; a lodging + heavy-rain + wind co-occurrence is the
// one explicit override, escalating to 0.50.
package domain
