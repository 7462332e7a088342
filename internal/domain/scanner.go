package domain

import (
	"fmt"
	"time"
)

// stormThresholds is one rung of the storm classification ladder.
type stormThresholds struct {
	sustained float64 // km/h
	gusts     float64 // km/h
	rainfall  float64 // mm
	gustRatio float64 // required gusts/sustained ratio unless sustained alone qualifies
}

var (
	// Forecast typhoon grade. The gust ratio rejects isolated gust spikes
	// that do not indicate a coherent storm system.
	typhoonForecast = stormThresholds{sustained: 75, gusts: 90, rainfall: 20, gustRatio: 1.2}

	// Same grade for the current day, relaxed because live conditions are
	// already corroborated by observation.
	typhoonToday = stormThresholds{sustained: 70, gusts: 85, rainfall: 15, gustRatio: 1.15}

	// Tropical storm grade, only surfaced within tropicalStormHorizon.
	tropicalStorm = stormThresholds{sustained: 50, gusts: 65, rainfall: 10, gustRatio: 1.1}
)

// tropicalStormHorizon bounds how far out a tropical-storm-grade forecast is
// worth alerting on. Beyond 2 days the signal is too speculative.
const tropicalStormHorizon = 2 * 24 * time.Hour

// matches reports whether a forecast day clears a storm rung. Wind must
// qualify by sustained speed or by gusts, rain must corroborate, and gusts
// must be proportionate to sustained wind unless sustained alone qualifies.
func (t stormThresholds) matches(wind, gusts, rain float64) bool {
	windQualifies := wind >= t.sustained || gusts >= t.gusts
	if !windQualifies || rain < t.rainfall {
		return false
	}
	if wind >= t.sustained {
		return true
	}
	return gusts >= wind*t.gustRatio
}

// DayRisk is the storm verdict for a single forecast day.
type DayRisk struct {
	Date     time.Time    `json:"date"`
	Category RiskCategory `json:"category"`
	Severity Severity     `json:"severity"`
	Label    string       `json:"label"` // e.g. "Super Typhoon", "Category 1-2"
	Wind     float64      `json:"wind"`
	Gusts    float64      `json:"gusts"`
	Rainfall float64      `json:"rainfall"`
}

// RiskSummary is the scanner's aggregate over a forecast series.
type RiskSummary struct {
	OverallRisk     Severity      `json:"overall_risk"`
	HighestRiskDate time.Time     `json:"highest_risk_date"` // zero when no storm day found
	OnsetDate       time.Time     `json:"onset_date"`        // first storm-grade day
	StormDays       []DayRisk     `json:"storm_days"`
	CropFindings    []RiskFinding `json:"crop_findings"`
}

// HasStormRisk reports whether any day reached storm grade.
func (s RiskSummary) HasStormRisk() bool {
	return !s.HighestRiskDate.IsZero()
}

// ScanForecast walks a forecast series once and classifies each day against
// the storm ladder, keeping the single highest-severity day (ties broken by
// earliest date) and the onset date anchoring harvest-timing decisions.
// Per-crop findings (drought run, flood days, heat days) are collected
// against the profile along the way.
func ScanForecast(days []ForecastDay, p CropProfile) RiskSummary {
	summary := RiskSummary{}
	today := Today()

	var best *DayRisk
	dryRun := 0

	for _, day := range days {
		if risk, ok := classifyStormDay(day, today); ok {
			summary.StormDays = append(summary.StormDays, risk)
			if best == nil || risk.Severity > best.Severity {
				r := risk
				best = &r
			}
			summary.OverallRisk = MaxSeverity(summary.OverallRisk, risk.Severity)
		}

		// Crop-dimension findings across the series.
		if day.Rainfall > p.FloodThreshold {
			summary.CropFindings = append(summary.CropFindings, RiskFinding{
				Category: RiskFlood, Severity: SeverityHigh, Crop: p.Name,
				Description: fmt.Sprintf("Forecast rainfall %.1f mm on %s exceeds the %.1f mm flood threshold", day.Rainfall, day.Date.Format("2006-01-02"), p.FloodThreshold),
				Value:       day.Rainfall, Threshold: p.FloodThreshold,
			})
		}
		if day.Temperature > p.HeatStressThreshold {
			summary.CropFindings = append(summary.CropFindings, RiskFinding{
				Category: RiskHeatStress, Severity: SeverityHigh, Crop: p.Name,
				Description: fmt.Sprintf("Forecast temperature %.1f°C on %s exceeds the %.1f°C heat stress threshold", day.Temperature, day.Date.Format("2006-01-02"), p.HeatStressThreshold),
				Value:       day.Temperature, Threshold: p.HeatStressThreshold,
			})
		}
		if day.Rainfall < p.DroughtThreshold {
			dryRun++
		} else {
			dryRun = 0
		}
	}

	if dryRun >= 3 {
		sev := SeverityMedium
		if p.WaterRequirement == WaterHigh {
			sev = SeverityHigh
		}
		summary.CropFindings = append(summary.CropFindings, RiskFinding{
			Category: RiskDrought, Severity: sev, Crop: p.Name,
			Description: fmt.Sprintf("%d consecutive forecast days below the %.1f mm/day drought threshold", dryRun, p.DroughtThreshold),
			Value:       float64(dryRun), Threshold: p.DroughtThreshold,
		})
	}

	for _, f := range summary.CropFindings {
		summary.OverallRisk = MaxSeverity(summary.OverallRisk, f.Severity)
	}

	if best != nil {
		summary.HighestRiskDate = best.Date
		// Onset is the first storm-grade day of any rung, which may precede
		// the highest-severity day when a storm strengthens while passing.
		summary.OnsetDate = summary.StormDays[0].Date
	}

	return summary
}

// classifyStormDay grades one forecast day on the storm ladder.
func classifyStormDay(day ForecastDay, today time.Time) (DayRisk, bool) {
	date := day.Date.UTC().Truncate(24 * time.Hour)
	isToday := date.Equal(today)

	typhoonRung := typhoonForecast
	if isToday {
		typhoonRung = typhoonToday
	}

	if typhoonRung.matches(day.WindSpeed, day.WindGusts, day.Rainfall) {
		sev, label := escalateTyphoon(day.WindSpeed, day.WindGusts)
		return DayRisk{
			Date: date, Category: RiskTyphoon, Severity: sev, Label: label,
			Wind: day.WindSpeed, Gusts: day.WindGusts, Rainfall: day.Rainfall,
		}, true
	}

	if tropicalStorm.matches(day.WindSpeed, day.WindGusts, day.Rainfall) {
		// Future tropical-storm-grade days beyond the horizon are ignored.
		if date.Sub(today) > tropicalStormHorizon {
			return DayRisk{}, false
		}
		return DayRisk{
			Date: date, Category: RiskTropicalStorm, Severity: SeverityMedium, Label: "Tropical Storm",
			Wind: day.WindSpeed, Gusts: day.WindGusts, Rainfall: day.Rainfall,
		}, true
	}

	return DayRisk{}, false
}

// escalateTyphoon grades a typhoon-level day by wind strength.
func escalateTyphoon(wind, gusts float64) (Severity, string) {
	switch {
	case wind >= 118 || gusts >= 140:
		return SeverityCritical, "Super Typhoon"
	case wind >= 89 || gusts >= 110:
		return SeverityCritical, "Category 3"
	default:
		return SeverityHigh, "Category 1-2"
	}
}
