package domain

import "sort"

// CropScore ranks how well current conditions suit one catalog crop.
type CropScore struct {
	Crop  string  `json:"crop"`
	Score float64 `json:"score"` // 0-100
}

// RecommendCrops scores every catalog crop against the current conditions
// and returns the ranking, best first. The score averages per-dimension
// closeness to the optimal band: 1.0 inside the band, decaying linearly to 0
// at one band-width outside it.
func RecommendCrops(c *Catalog, sample WeatherSample) []CropScore {
	profiles := c.Profiles()
	scores := make([]CropScore, 0, len(profiles))
	for _, p := range profiles {
		score := (bandScore(sample.Temperature, p.OptimalTempMin, p.OptimalTempMax) +
			bandScore(sample.Humidity, p.OptimalHumidityMin, p.OptimalHumidityMax) +
			bandScore(sample.Rainfall, p.OptimalRainfallMin, p.OptimalRainfallMax)) / 3
		scores = append(scores, CropScore{Crop: p.Name, Score: round1(score * 100)})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Crop < scores[j].Crop
	})
	return scores
}

// bandScore is 1 inside [lo, hi], decaying linearly to 0 at one band-width
// beyond either edge.
func bandScore(v, lo, hi float64) float64 {
	width := hi - lo
	if width <= 0 {
		return 0
	}
	switch {
	case v >= lo && v <= hi:
		return 1
	case v < lo:
		return clamp(1-(lo-v)/width, 0, 1)
	default:
		return clamp(1-(v-hi)/width, 0, 1)
	}
}
