package features

import (
	"campus-stress-alerts/src/config"
	"campus-stress-alerts/src/types"
)

// Project encodes one reading as the model's fixed-width input vector:
// the numerical features in training order, then one one-hot column per
// known location. A location outside the known set yields an all-zero
// location block, never an error.
func Project(r types.Reading) []float32 {
	vec := make([]float32, 0, config.VectorWidth())
	for _, name := range config.NumericalFeatures {
		vec = append(vec, float32(numericalValue(r, name)))
	}
	for _, id := range config.KnownLocationIDs {
		if r.LocationID == id {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}
	return vec
}

func numericalValue(r types.Reading, name string) float64 {
	switch name {
	case "temperature_celsius":
		return r.TemperatureCelsius
	case "humidity_percent":
		return r.HumidityPercent
	case "air_quality_index":
		return r.AirQualityIndex
	case "noise_level_db":
		return r.NoiseLevelDB
	case "lighting_lux":
		return r.LightingLux
	case "crowd_density":
		return r.CrowdDensity
	case "sleep_hours":
		return r.SleepHours
	case "mood_score":
		return r.MoodScore
	default:
		return 0
	}
}
