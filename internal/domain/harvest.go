package domain

import (
	"fmt"
	"math"
	"time"
)

// Damage factors: fractional yield loss per damage category when a storm
// hits a standing crop. Combined by maximum, not by sum: the losses are
// strongly correlated within one event.
const (
	damageFlood     = 0.40
	damageLodging   = 0.35
	damageWind      = 0.20
	damageHeavyRain = 0.15

	// Lodging together with heavy rain and wind is the combined severe
	// event; an explicit override rather than an addition.
	damageCombinedSevere = 0.50

	// heavyRainDamageMM is the single-day forecast rainfall at which rain
	// alone starts costing yield on a mature crop.
	heavyRainDamageMM = 20.0

	// lodgingWindKMH is the sustained wind at which tall-stalk crops start
	// to flatten.
	lodgingWindKMH = 60.0
)

// MaturityYieldFactor maps maturity percent to the fraction of full-maturity
// yield recovered at harvest. A monotone step table from 70% upward; below
// 70% it interpolates linearly down to a 0.70 floor; early harvest is
// increasingly lossy but never written off.
func MaturityYieldFactor(pct float64) float64 {
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	steps := []struct {
		pct    float64
		factor float64
	}{
		{100, 1.00}, {95, 0.99}, {90, 0.97}, {85, 0.94}, {80, 0.91}, {75, 0.88}, {70, 0.85},
	}
	for _, s := range steps {
		if pct >= s.pct {
			return s.factor
		}
	}
	return 0.70 + (pct/70)*0.15
}

// MaturityPercent is the derived (never stored) growth progress: calendar
// days since planting over the profile's growth cycle, capped at 100. Both
// sides are truncated to dates so a time-of-day component on the planting
// timestamp never shaves a fraction off the day count.
func MaturityPercent(plantingDate time.Time, growthDays int, asOf time.Time) float64 {
	if growthDays <= 0 {
		return 0
	}
	elapsed := dateOnly(asOf).Sub(dateOnly(plantingDate)).Hours() / 24
	if elapsed < 0 {
		return 0
	}
	pct := elapsed / float64(growthDays) * 100
	return math.Min(100, pct)
}

// dateOnly truncates a timestamp to midnight UTC.
func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CropState is the slice of a user's crop the engine needs.
type CropState struct {
	CropID       uint
	CropName     string
	PlantingDate time.Time
	AreaHectares float64
}

// Scenario is one yield/value outcome the engine prices out.
type Scenario struct {
	Name            string     `json:"name"`
	MaturityPercent float64    `json:"maturity_percent"`
	YieldTons       float64    `json:"yield_tons"`
	ValuePHP        float64    `json:"value_php"`
	Date            *time.Time `json:"date,omitempty"` // set for optimal_harvest
}

// Recommendation codes, in descending urgency.
const (
	RecommendHarvestEarlyOptimal = "harvest_early_optimal"
	RecommendHarvestNow          = "harvest_now"
	RecommendMonitorClosely      = "monitor_closely"
	RecommendHarvestSoon         = "harvest_soon"
	RecommendWait                = "wait"
)

// HarvestAdvice is the engine's full output for one crop.
type HarvestAdvice struct {
	CropID          uint       `json:"crop_id"`
	CropName        string     `json:"crop_name"`
	MaturityPercent float64    `json:"maturity_percent"`
	Scenarios       []Scenario `json:"scenarios"`
	Recommendation  string     `json:"recommendation"`
	RecommendedDate *time.Time `json:"recommended_date,omitempty"` // set for harvest_early_optimal
	Reason          string     `json:"reason"`
	DamageFactor    float64    `json:"damage_factor"`
	PricePerKg      float64    `json:"price_per_kg"`
	PriceAccuracy   string     `json:"price_accuracy"`
}

// Advise computes the four harvest scenarios and ranks a recommendation.
// The choice is comparative economics: among risk-affected alternatives the
// scenario with the higher peso value wins; agronomic heuristics only apply
// when no weather risk is present.
func Advise(crop CropState, p CropProfile, risk RiskSummary, pricePerKg float64) HarvestAdvice {
	now := clock.Now().UTC()
	maturity := MaturityPercent(crop.PlantingDate, p.GrowthDays, now)
	baseYield := BaseYieldPerHa(p.YieldPotential) * crop.AreaHectares
	value := func(yieldTons float64) float64 { return yieldTons * 1000 * pricePerKg }

	scenario := func(name string, pct, damage float64) Scenario {
		yield := baseYield * MaturityYieldFactor(pct) * (1 - damage)
		return Scenario{
			Name:            name,
			MaturityPercent: round1(pct),
			YieldTons:       round2(yield),
			ValuePHP:        round2(value(yield)),
		}
	}

	damage := damageFactor(p, risk)

	harvestNow := scenario("harvest_now", maturity, 0)
	waitFull := scenario("wait_full_maturity", 100, 0)
	waitRisk := scenario("wait_risk_damage", 100, damage)

	advice := HarvestAdvice{
		CropID:          crop.CropID,
		CropName:        crop.CropName,
		MaturityPercent: round1(maturity),
		Scenarios:       []Scenario{harvestNow, waitFull, waitRisk},
		DamageFactor:    damage,
		PricePerKg:      pricePerKg,
	}

	var optimal *Scenario
	var optimalDate time.Time
	if risk.OverallRisk > SeverityLow && risk.HasStormRisk() {
		optimalDate = risk.OnsetDate.AddDate(0, 0, -2)
		if floor := Today().AddDate(0, 0, 1); optimalDate.Before(floor) {
			optimalDate = floor
		}
		maturityAtOptimal := MaturityPercent(crop.PlantingDate, p.GrowthDays, optimalDate)
		s := scenario("optimal_harvest", maturityAtOptimal, 0)
		s.Date = &optimalDate
		advice.Scenarios = append(advice.Scenarios, s)
		optimal = &s
	}

	// The optimal scenario wins on a value tie with harvest-now: the dates
	// differ but the step table prices them the same, and the later date
	// costs nothing.
	switch {
	case risk.OverallRisk >= SeverityHigh && optimal != nil &&
		optimal.ValuePHP > waitRisk.ValuePHP && optimal.ValuePHP >= harvestNow.ValuePHP:
		advice.Recommendation = RecommendHarvestEarlyOptimal
		advice.RecommendedDate = &optimalDate
		advice.Reason = fmt.Sprintf("Severe weather expected around %s; harvesting by %s at %.0f%% maturity beats riding out the storm (₱%.0f vs ₱%.0f).",
			risk.OnsetDate.Format("Jan 2"), optimalDate.Format("Jan 2"), optimal.MaturityPercent, optimal.ValuePHP, waitRisk.ValuePHP)
	case damage > 0 && harvestNow.ValuePHP > waitRisk.ValuePHP:
		advice.Recommendation = RecommendHarvestNow
		advice.Reason = fmt.Sprintf("Harvesting now at %.0f%% maturity (₱%.0f) is worth more than waiting through expected damage (₱%.0f).",
			maturity, harvestNow.ValuePHP, waitRisk.ValuePHP)
	case risk.OverallRisk == SeverityMedium:
		advice.Recommendation = RecommendMonitorClosely
		advice.Reason = "Moderate weather risk in the forecast; recheck daily before committing to a harvest date."
	case maturity >= 95:
		advice.Recommendation = RecommendHarvestSoon
		advice.Reason = fmt.Sprintf("Crop is at %.0f%% maturity with no significant weather risk; schedule harvest.", maturity)
	default:
		advice.Recommendation = RecommendWait
		advice.Reason = fmt.Sprintf("Crop is at %.0f%% maturity with no significant weather risk; waiting to full maturity is worth ₱%.0f.",
			maturity, waitFull.ValuePHP)
	}

	return advice
}

// damageFactor derives the wait-and-risk yield loss from the scanner output.
// Candidate categories are collected from the storm days and crop findings,
// then combined by maximum; lodging co-occurring with heavy rain and wind is
// the one override.
func damageFactor(p CropProfile, risk RiskSummary) float64 {
	var flood, lodging, wind, heavyRain bool

	for _, f := range risk.CropFindings {
		if f.Category == RiskFlood {
			flood = true
		}
	}
	for _, d := range risk.StormDays {
		if d.Wind > p.OptimalWindMax {
			wind = true
		}
		if d.Rainfall >= heavyRainDamageMM {
			heavyRain = true
		}
		if p.LodgingProne && d.Wind >= lodgingWindKMH {
			lodging = true
		}
	}

	if lodging && heavyRain && wind {
		return damageCombinedSevere
	}

	factor := 0.0
	if flood {
		factor = math.Max(factor, damageFlood)
	}
	if lodging {
		factor = math.Max(factor, damageLodging)
	}
	if wind {
		factor = math.Max(factor, damageWind)
	}
	if heavyRain {
		factor = math.Max(factor, damageHeavyRain)
	}
	return factor
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
