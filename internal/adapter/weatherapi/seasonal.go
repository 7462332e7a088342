package weatherapi

import (
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
)

// seasonal holds the monthly climate normals used when the provider is
// unreachable. Figures are lowland Philippine averages: hot and dry
// March-May, wet June-November, cooler December-February.
type seasonal struct {
	temperature float64
	humidity    float64
	rainfall    float64 // mm per day
	windSpeed   float64
}

var seasonalNormals = map[time.Month]seasonal{
	time.January:   {27.0, 76, 2.5, 14},
	time.February:  {27.5, 73, 2.0, 14},
	time.March:     {28.5, 71, 1.8, 13},
	time.April:     {30.0, 69, 2.2, 12},
	time.May:       {30.5, 73, 5.5, 11},
	time.June:      {29.5, 79, 9.0, 12},
	time.July:      {28.5, 82, 13.5, 13},
	time.August:    {28.5, 83, 14.5, 13},
	time.September: {28.5, 83, 12.0, 12},
	time.October:   {28.5, 81, 9.5, 12},
	time.November:  {28.0, 80, 7.5, 13},
	time.December:  {27.0, 78, 4.0, 14},
}

// SeasonalSample is the fallback current-conditions sample for a date.
func SeasonalSample(date time.Time) domain.WeatherSample {
	n := seasonalNormals[date.Month()]
	return domain.WeatherSample{
		Temperature: n.temperature,
		Humidity:    n.humidity,
		Rainfall:    n.rainfall,
		WindSpeed:   n.windSpeed,
		WindGusts:   n.windSpeed * 1.4,
		Condition:   "seasonal average",
		RecordedAt:  date,
	}
}

// SeasonalForecast is the fallback forecast series starting the day after
// the given date. The figures are deliberately calm: an outage must never
// fabricate storm-grade conditions.
func SeasonalForecast(date time.Time, days int) []domain.ForecastDay {
	out := make([]domain.ForecastDay, 0, days)
	for i := 1; i <= days; i++ {
		d := date.AddDate(0, 0, i)
		n := seasonalNormals[d.Month()]
		out = append(out, domain.ForecastDay{
			Date:        d,
			Temperature: n.temperature,
			Rainfall:    n.rainfall,
			WindSpeed:   n.windSpeed,
			WindGusts:   n.windSpeed * 1.4,
			Humidity:    n.humidity,
			Confidence:  30,
		})
	}
	return out
}
