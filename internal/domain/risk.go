package domain

import (
	"fmt"
	"strings"
)

// Severity is an ordered risk verdict. The ordering matters: alert severity
// must be derivable from measurements through monotone thresholds, and the
// scanner keeps the maximum across days.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"none", "low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityNone || s > SeverityCritical {
		return "none"
	}
	return severityNames[s]
}

// MarshalJSON encodes the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a severity name; unknown names decode as none.
func (s *Severity) UnmarshalJSON(data []byte) error {
	*s = ParseSeverity(string(data))
	return nil
}

// ParseSeverity maps a name (optionally quoted) to a Severity, defaulting
// to none.
func ParseSeverity(name string) Severity {
	name = strings.Trim(strings.TrimSpace(name), `"`)
	for i, n := range severityNames {
		if n == name {
			return Severity(i)
		}
	}
	return SeverityNone
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// RiskCategory identifies the environmental dimension a finding concerns.
type RiskCategory string

const (
	RiskDrought       RiskCategory = "drought"
	RiskFlood         RiskCategory = "flood"
	RiskHeatStress    RiskCategory = "heat_stress"
	RiskFrost         RiskCategory = "frost"
	RiskCold          RiskCategory = "cold"
	RiskWind          RiskCategory = "wind"
	RiskHumidityLow   RiskCategory = "humidity_low"
	RiskHumidityHigh  RiskCategory = "humidity_high"
	RiskTyphoon       RiskCategory = "typhoon"
	RiskTropicalStorm RiskCategory = "tropical_storm"
)

// RiskFinding is a single environmental-dimension verdict for one crop.
type RiskFinding struct {
	Category    RiskCategory `json:"category"`
	Severity    Severity     `json:"severity"`
	Crop        string       `json:"crop"`
	Description string       `json:"description"`
	Value       float64      `json:"value"`     // the measurement that tripped the threshold
	Threshold   float64      `json:"threshold"` // the profile bound it crossed
}

// EvaluateSample classifies a weather sample against a crop profile. Each
// dimension is judged independently and findings are non-exclusive; a sample
// inside every bound produces no findings at all. history carries the
// trailing daily samples (oldest first) used for the drought average and the
// frost minimum; drought is only judged with at least 3 days of signal.
func EvaluateSample(sample WeatherSample, history []WeatherSample, p CropProfile) []RiskFinding {
	var findings []RiskFinding

	add := func(cat RiskCategory, sev Severity, value, threshold float64, format string, args ...any) {
		findings = append(findings, RiskFinding{
			Category:    cat,
			Severity:    sev,
			Crop:        p.Name,
			Description: fmt.Sprintf(format, args...),
			Value:       value,
			Threshold:   threshold,
		})
	}

	// Drought: trailing average over at least 3 days of rainfall signal.
	if len(history) >= 2 {
		avg := TrailingAvgRainfall(sample, history)
		if avg < p.DroughtThreshold {
			sev := SeverityMedium
			if p.WaterRequirement == WaterHigh {
				sev = SeverityHigh
			}
			add(RiskDrought, sev, avg, p.DroughtThreshold,
				"Trailing rainfall %.1f mm/day is below the %.1f mm/day drought threshold for %s", avg, p.DroughtThreshold, p.Name)
		}
	}

	if sample.Rainfall > p.FloodThreshold {
		add(RiskFlood, SeverityHigh, sample.Rainfall, p.FloodThreshold,
			"Rainfall %.1f mm exceeds the %.1f mm flood threshold for %s", sample.Rainfall, p.FloodThreshold, p.Name)
	}

	if sample.Temperature > p.HeatStressThreshold {
		add(RiskHeatStress, SeverityHigh, sample.Temperature, p.HeatStressThreshold,
			"Temperature %.1f°C exceeds the %.1f°C heat stress threshold for %s", sample.Temperature, p.HeatStressThreshold, p.Name)
	}

	if p.FrostSensitive {
		if minT := TrailingMinTemp(sample, history); minT < frostWarningTemp {
			add(RiskFrost, SeverityHigh, minT, frostWarningTemp,
				"Minimum temperature %.1f°C risks chilling injury to frost-sensitive %s", minT, p.Name)
		}
	}

	// Cold is the non-frost variant: below the optimal band but not a
	// chilling emergency.
	if sample.Temperature < p.OptimalTempMin {
		add(RiskCold, SeverityMedium, sample.Temperature, p.OptimalTempMin,
			"Temperature %.1f°C is below the optimal minimum %.1f°C for %s", sample.Temperature, p.OptimalTempMin, p.Name)
	}

	if sample.WindSpeed > p.OptimalWindMax {
		add(RiskWind, SeverityMedium, sample.WindSpeed, p.OptimalWindMax,
			"Wind %.1f km/h exceeds the %.1f km/h tolerance for %s", sample.WindSpeed, p.OptimalWindMax, p.Name)
	}

	if sample.Humidity < p.OptimalHumidityMin {
		add(RiskHumidityLow, SeverityLow, sample.Humidity, p.OptimalHumidityMin,
			"Humidity %.0f%% is below the optimal minimum %.0f%% for %s", sample.Humidity, p.OptimalHumidityMin, p.Name)
	} else if sample.Humidity > p.OptimalHumidityMax {
		// High humidity is the disease-pressure direction, graded one step up.
		add(RiskHumidityHigh, SeverityMedium, sample.Humidity, p.OptimalHumidityMax,
			"Humidity %.0f%% exceeds the optimal maximum %.0f%% for %s, raising disease risk", sample.Humidity, p.OptimalHumidityMax, p.Name)
	}

	return findings
}

// frostWarningTemp is the chilling-injury floor for frost-sensitive tropical
// crops. Air frost is rare in the lowland Philippines; damage to sensitive
// crops starts well above 0°C.
const frostWarningTemp = 10.0
