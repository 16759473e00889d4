package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/types"
)

var requiredColumns = []string{
	"timestamp",
	"location_id",
	"stress_level",
	"temperature_celsius",
	"humidity_percent",
	"air_quality_index",
	"noise_level_db",
	"lighting_lux",
	"crowd_density",
	"sleep_hours",
	"mood_score",
}

// Result is the outcome of loading one batch file.
type Result struct {
	Readings []types.Reading // rows above the stress threshold
	Loaded   int             // rows that parsed into Readings
	Skipped  int             // rows dropped by typed parsing
}

// LoadAndFilter reads a CSV batch and returns the rows whose stress level
// strictly exceeds threshold. An unreadable file or a broken header/record
// structure is a load failure; an individual row with a malformed value is
// skipped and logged, never fatal.
func LoadAndFilter(ctx context.Context, path string, threshold float64) (*Result, error) {
	logger := logging.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header from %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("batch file %s is missing required column %q", path, name)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV rows from %s: %w", path, err)
	}

	result := &Result{}
	for i, record := range records {
		reading, err := parseReading(record, index)
		if err != nil {
			logger.Errorf("Skipping row %d of %s: %v", i+1, path, err)
			result.Skipped++
			continue
		}
		result.Loaded++
		if reading.StressLevel > threshold {
			result.Readings = append(result.Readings, reading)
		}
	}

	logger.Infof("Loaded %d rows from %s, %d above stress threshold %g", result.Loaded, path, len(result.Readings), threshold)
	return result, nil
}

func parseReading(record []string, index map[string]int) (types.Reading, error) {
	var r types.Reading

	ts, err := parseTimestamp(record[index["timestamp"]])
	if err != nil {
		return r, err
	}
	r.Timestamp = ts

	locationID, err := strconv.Atoi(record[index["location_id"]])
	if err != nil {
		return r, fmt.Errorf("invalid location_id %q: %w", record[index["location_id"]], err)
	}
	r.LocationID = locationID

	fields := []struct {
		column string
		value  *float64
		raw    *string
	}{
		{"stress_level", &r.StressLevel, &r.StressLevelRaw},
		{"temperature_celsius", &r.TemperatureCelsius, nil},
		{"humidity_percent", &r.HumidityPercent, nil},
		{"air_quality_index", &r.AirQualityIndex, nil},
		{"noise_level_db", &r.NoiseLevelDB, &r.NoiseLevelDBRaw},
		{"lighting_lux", &r.LightingLux, nil},
		{"crowd_density", &r.CrowdDensity, nil},
		{"sleep_hours", &r.SleepHours, &r.SleepHoursRaw},
		{"mood_score", &r.MoodScore, &r.MoodScoreRaw},
	}

	for _, field := range fields {
		raw := record[index[field.column]]
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return r, fmt.Errorf("invalid %s %q: %w", field.column, raw, err)
		}
		*field.value = value
		if field.raw != nil {
			*field.raw = raw
		}
	}

	return r, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(types.TimestampLayout, raw); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return ts, nil
}
