package domain

import (
	"sort"
	"strings"
)

// YieldTier is a coarse qualitative yield grade. No farm-specific yield
// history exists, so tonnage per hectare is a 4-step lookup, intentionally
// coarse.
type YieldTier string

const (
	YieldVeryHigh YieldTier = "very_high"
	YieldHigh     YieldTier = "high"
	YieldMedium   YieldTier = "medium"
	YieldLow      YieldTier = "low"
)

// BaseYieldPerHa maps a yield tier to tons per hectare at full maturity.
func BaseYieldPerHa(tier YieldTier) float64 {
	switch tier {
	case YieldVeryHigh:
		return 6.0
	case YieldHigh:
		return 4.5
	case YieldLow:
		return 1.5
	default:
		return 3.0
	}
}

// WaterRequirement grades how much a crop depends on steady water supply.
// Drought findings for high-requirement crops escalate to high severity.
type WaterRequirement string

const (
	WaterHigh   WaterRequirement = "high"
	WaterMedium WaterRequirement = "medium"
	WaterLow    WaterRequirement = "low"
)

// CropProfile is a static environmental tolerance table for one crop.
// Loaded once at process start and shared read-only by the risk evaluator
// and the harvest decision engine.
type CropProfile struct {
	Name                string
	OptimalTempMin      float64 // °C
	OptimalTempMax      float64
	OptimalHumidityMin  float64 // %
	OptimalHumidityMax  float64
	OptimalRainfallMin  float64 // mm/day
	OptimalRainfallMax  float64
	OptimalWindMax      float64 // km/h
	DroughtThreshold    float64 // mm/day trailing average below which drought is flagged
	FloodThreshold      float64 // mm single-day rainfall above which flood is flagged
	HeatStressThreshold float64 // °C
	FrostSensitive      bool
	LodgingProne        bool // tall-stalk crops that storms can flatten
	WaterRequirement    WaterRequirement
	GrowthDays          int // planting to full maturity
	YieldPotential      YieldTier
}

// Catalog is the immutable crop tolerance table, built once and injected
// into every consumer. Lookups are total: unknown crops resolve to a
// conservative default profile, never an error.
type Catalog struct {
	profiles map[string]CropProfile
	names    []string // sorted, so substring matching is deterministic
	fallback CropProfile
}

// DefaultProfile is the conservative fallback for unknown crops: mid-range
// tolerances, medium water requirement, 120-day cycle, medium yield.
func DefaultProfile() CropProfile {
	return CropProfile{
		Name:                "default",
		OptimalTempMin:      18,
		OptimalTempMax:      32,
		OptimalHumidityMin:  50,
		OptimalHumidityMax:  85,
		OptimalRainfallMin:  2,
		OptimalRainfallMax:  15,
		OptimalWindMax:      40,
		DroughtThreshold:    2,
		FloodThreshold:      50,
		HeatStressThreshold: 36,
		FrostSensitive:      false,
		WaterRequirement:    WaterMedium,
		GrowthDays:          120,
		YieldPotential:      YieldMedium,
	}
}

// NewCatalog builds the crop tolerance catalog. The entries cover the major
// Philippine crops; everything else falls back to DefaultProfile.
func NewCatalog() *Catalog {
	profiles := []CropProfile{
		{
			Name:           "rice",
			OptimalTempMin: 20, OptimalTempMax: 35,
			OptimalHumidityMin: 60, OptimalHumidityMax: 90,
			OptimalRainfallMin: 4, OptimalRainfallMax: 20,
			OptimalWindMax:   50,
			DroughtThreshold: 3, FloodThreshold: 60,
			HeatStressThreshold: 38,
			LodgingProne:        true,
			WaterRequirement:    WaterHigh,
			GrowthDays:          120,
			YieldPotential:      YieldHigh,
		},
		{
			Name:           "corn",
			OptimalTempMin: 18, OptimalTempMax: 33,
			OptimalHumidityMin: 50, OptimalHumidityMax: 80,
			OptimalRainfallMin: 3, OptimalRainfallMax: 15,
			OptimalWindMax:   45,
			DroughtThreshold: 2.5, FloodThreshold: 50,
			HeatStressThreshold: 35,
			LodgingProne:        true,
			WaterRequirement:    WaterMedium,
			GrowthDays:          100,
			YieldPotential:      YieldHigh,
		},
		{
			Name:           "banana",
			OptimalTempMin: 22, OptimalTempMax: 32,
			OptimalHumidityMin: 60, OptimalHumidityMax: 95,
			OptimalRainfallMin: 4, OptimalRainfallMax: 25,
			OptimalWindMax:   35,
			DroughtThreshold: 3, FloodThreshold: 80,
			HeatStressThreshold: 37,
			WaterRequirement:    WaterHigh,
			GrowthDays:          300,
			YieldPotential:      YieldVeryHigh,
		},
		{
			Name:           "coconut",
			OptimalTempMin: 20, OptimalTempMax: 34,
			OptimalHumidityMin: 60, OptimalHumidityMax: 95,
			OptimalRainfallMin: 3, OptimalRainfallMax: 25,
			OptimalWindMax:   60,
			DroughtThreshold: 2, FloodThreshold: 100,
			HeatStressThreshold: 38,
			WaterRequirement:    WaterMedium,
			GrowthDays:          365,
			YieldPotential:      YieldMedium,
		},
		{
			Name:           "sugarcane",
			OptimalTempMin: 20, OptimalTempMax: 35,
			OptimalHumidityMin: 55, OptimalHumidityMax: 85,
			OptimalRainfallMin: 3, OptimalRainfallMax: 20,
			OptimalWindMax:   50,
			DroughtThreshold: 2.5, FloodThreshold: 70,
			HeatStressThreshold: 38,
			LodgingProne:        true,
			WaterRequirement:    WaterHigh,
			GrowthDays:          330,
			YieldPotential:      YieldVeryHigh,
		},
		{
			Name:           "mango",
			OptimalTempMin: 21, OptimalTempMax: 35,
			OptimalHumidityMin: 40, OptimalHumidityMax: 75,
			OptimalRainfallMin: 1, OptimalRainfallMax: 10,
			OptimalWindMax:   40,
			DroughtThreshold: 1, FloodThreshold: 60,
			HeatStressThreshold: 40,
			WaterRequirement:    WaterLow,
			GrowthDays:          150,
			YieldPotential:      YieldMedium,
		},
		{
			Name:           "cassava",
			OptimalTempMin: 20, OptimalTempMax: 34,
			OptimalHumidityMin: 45, OptimalHumidityMax: 80,
			OptimalRainfallMin: 1.5, OptimalRainfallMax: 12,
			OptimalWindMax:   45,
			DroughtThreshold: 1, FloodThreshold: 40,
			HeatStressThreshold: 38,
			WaterRequirement:    WaterLow,
			GrowthDays:          270,
			YieldPotential:      YieldMedium,
		},
		{
			Name:           "tomato",
			OptimalTempMin: 16, OptimalTempMax: 30,
			OptimalHumidityMin: 50, OptimalHumidityMax: 75,
			OptimalRainfallMin: 2, OptimalRainfallMax: 10,
			OptimalWindMax:   30,
			DroughtThreshold: 1.5, FloodThreshold: 35,
			HeatStressThreshold: 33,
			FrostSensitive:      true,
			WaterRequirement:    WaterMedium,
			GrowthDays:          85,
			YieldPotential:      YieldHigh,
		},
		{
			Name:           "eggplant",
			OptimalTempMin: 18, OptimalTempMax: 32,
			OptimalHumidityMin: 50, OptimalHumidityMax: 80,
			OptimalRainfallMin: 2, OptimalRainfallMax: 12,
			OptimalWindMax:   35,
			DroughtThreshold: 1.5, FloodThreshold: 40,
			HeatStressThreshold: 35,
			FrostSensitive:      true,
			WaterRequirement:    WaterMedium,
			GrowthDays:          110,
			YieldPotential:      YieldMedium,
		},
		{
			Name:           "coffee",
			OptimalTempMin: 15, OptimalTempMax: 28,
			OptimalHumidityMin: 60, OptimalHumidityMax: 90,
			OptimalRainfallMin: 3, OptimalRainfallMax: 18,
			OptimalWindMax:   30,
			DroughtThreshold: 2, FloodThreshold: 50,
			HeatStressThreshold: 32,
			FrostSensitive:      true,
			WaterRequirement:    WaterMedium,
			GrowthDays:          365,
			YieldPotential:      YieldLow,
		},
	}

	m := make(map[string]CropProfile, len(profiles))
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		m[p.Name] = p
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return &Catalog{profiles: m, names: names, fallback: DefaultProfile()}
}

// ProfileFor resolves a crop name to its tolerance profile. Matching order:
// exact match on the normalized name, substring match in either direction
// ("hybrid rice" → rice, "egg" → eggplant), then the default profile.
// Total: never fails.
func (c *Catalog) ProfileFor(name string) CropProfile {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return c.fallback
	}
	if p, ok := c.profiles[key]; ok {
		return p
	}
	for _, known := range c.names {
		if strings.Contains(key, known) || strings.Contains(known, key) {
			return c.profiles[known]
		}
	}
	return c.fallback
}

// Profiles returns every catalog entry, for suitability scoring.
func (c *Catalog) Profiles() []CropProfile {
	out := make([]CropProfile, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.profiles[name])
	}
	return out
}
