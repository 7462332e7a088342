package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calmSample() WeatherSample {
	return WeatherSample{
		Temperature: 28,
		Humidity:    70,
		Rainfall:    6,
		WindSpeed:   15,
		Condition:   "partly cloudy",
		RecordedAt:  time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC),
	}
}

func rainHistory(mm float64, days int) []WeatherSample {
	h := make([]WeatherSample, days)
	for i := range h {
		h[i] = WeatherSample{Temperature: 28, Humidity: 70, Rainfall: mm}
	}
	return h
}

func findingFor(findings []RiskFinding, cat RiskCategory) *RiskFinding {
	for i := range findings {
		if findings[i].Category == cat {
			return &findings[i]
		}
	}
	return nil
}

func TestEvaluateSampleInBounds(t *testing.T) {
	c := NewCatalog()
	findings := EvaluateSample(calmSample(), rainHistory(6, 4), c.ProfileFor("rice"))
	assert.Empty(t, findings, "a sample inside every bound produces no findings")
}

func TestEvaluateSampleHeatStress(t *testing.T) {
	hot := calmSample()
	hot.Temperature = 40

	t.Run("above threshold emits exactly one high finding", func(t *testing.T) {
		p := DefaultProfile()
		p.HeatStressThreshold = 35
		findings := EvaluateSample(hot, nil, p)

		heat := findingFor(findings, RiskHeatStress)
		require.NotNil(t, heat)
		assert.Equal(t, SeverityHigh, heat.Severity)
		assert.Equal(t, 40.0, heat.Value)

		count := 0
		for _, f := range findings {
			if f.Category == RiskHeatStress {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("below threshold emits none", func(t *testing.T) {
		p := DefaultProfile()
		p.HeatStressThreshold = 42
		findings := EvaluateSample(hot, nil, p)
		assert.Nil(t, findingFor(findings, RiskHeatStress))
	})
}

func TestEvaluateSampleDrought(t *testing.T) {
	dry := calmSample()
	dry.Rainfall = 0.5

	t.Run("high water requirement escalates to high", func(t *testing.T) {
		c := NewCatalog()
		findings := EvaluateSample(dry, rainHistory(0.5, 3), c.ProfileFor("rice"))
		drought := findingFor(findings, RiskDrought)
		require.NotNil(t, drought)
		assert.Equal(t, SeverityHigh, drought.Severity)
	})

	t.Run("medium water requirement stays medium", func(t *testing.T) {
		p := DefaultProfile()
		findings := EvaluateSample(dry, rainHistory(0.5, 3), p)
		drought := findingFor(findings, RiskDrought)
		require.NotNil(t, drought)
		assert.Equal(t, SeverityMedium, drought.Severity)
	})

	t.Run("not judged without three days of signal", func(t *testing.T) {
		findings := EvaluateSample(dry, rainHistory(0.5, 1), DefaultProfile())
		assert.Nil(t, findingFor(findings, RiskDrought))
	})
}

func TestEvaluateSampleFrost(t *testing.T) {
	c := NewCatalog()
	cold := calmSample()
	cold.Temperature = 14
	history := rainHistory(6, 3)
	history[1].Temperature = 8 // overnight dip in the trailing window

	t.Run("frost sensitive crop flags on trailing minimum", func(t *testing.T) {
		findings := EvaluateSample(cold, history, c.ProfileFor("tomato"))
		frost := findingFor(findings, RiskFrost)
		require.NotNil(t, frost)
		assert.Equal(t, SeverityHigh, frost.Severity)
		assert.Equal(t, 8.0, frost.Value)
	})

	t.Run("insensitive crop ignores the dip", func(t *testing.T) {
		findings := EvaluateSample(cold, history, c.ProfileFor("rice"))
		assert.Nil(t, findingFor(findings, RiskFrost))
	})
}

func TestEvaluateSampleMultipleFindings(t *testing.T) {
	c := NewCatalog()
	storm := calmSample()
	storm.Rainfall = 90 // over rice flood threshold (60)
	storm.WindSpeed = 70
	storm.Humidity = 95

	findings := EvaluateSample(storm, rainHistory(6, 4), c.ProfileFor("rice"))

	assert.NotNil(t, findingFor(findings, RiskFlood))
	assert.NotNil(t, findingFor(findings, RiskWind))
	assert.NotNil(t, findingFor(findings, RiskHumidityHigh))
	assert.Equal(t, SeverityHigh, findingFor(findings, RiskFlood).Severity)
	assert.Equal(t, SeverityMedium, findingFor(findings, RiskWind).Severity)
}

func TestEvaluateSampleColdAndHumidity(t *testing.T) {
	p := DefaultProfile()

	t.Run("cold below optimal minimum is medium", func(t *testing.T) {
		s := calmSample()
		s.Temperature = 12
		cold := findingFor(EvaluateSample(s, nil, p), RiskCold)
		require.NotNil(t, cold)
		assert.Equal(t, SeverityMedium, cold.Severity)
	})

	t.Run("low humidity is low severity", func(t *testing.T) {
		s := calmSample()
		s.Humidity = 30
		f := findingFor(EvaluateSample(s, nil, p), RiskHumidityLow)
		require.NotNil(t, f)
		assert.Equal(t, SeverityLow, f.Severity)
	})

	t.Run("high humidity is medium severity", func(t *testing.T) {
		s := calmSample()
		s.Humidity = 95
		f := findingFor(EvaluateSample(s, nil, p), RiskHumidityHigh)
		require.NotNil(t, f)
		assert.Equal(t, SeverityMedium, f.Severity)
	})
}

func TestSeverityOrderingAndJSON(t *testing.T) {
	assert.True(t, SeverityCritical > SeverityHigh)
	assert.True(t, SeverityHigh > SeverityMedium)
	assert.True(t, SeverityMedium > SeverityLow)
	assert.True(t, SeverityLow > SeverityNone)

	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityMedium, SeverityHigh))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityLow))

	data, err := SeverityCritical.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"critical"`, string(data))

	assert.Equal(t, SeverityHigh, ParseSeverity(`"high"`))
	assert.Equal(t, SeverityNone, ParseSeverity("bogus"))
}
