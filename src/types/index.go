package types

import "time"

// TimestampLayout is the canonical timestamp format shared by batch files
// and persisted alerts.
const TimestampLayout = "2006-01-02 15:04:05"

// Reading is one parsed row of a sensor batch. The raw decimal text of the
// fields that get persisted is kept alongside the parsed values so storage
// round-trips the exact figures from the file.
type Reading struct {
	Timestamp  time.Time
	LocationID int

	StressLevel        float64
	TemperatureCelsius float64
	HumidityPercent    float64
	AirQualityIndex    float64
	NoiseLevelDB       float64
	LightingLux        float64
	CrowdDensity       float64
	SleepHours         float64
	MoodScore          float64

	StressLevelRaw  string
	SleepHoursRaw   string
	MoodScoreRaw    string
	NoiseLevelDBRaw string
}

// ConfirmedReading is a Reading the classifier flagged as high stress.
type ConfirmedReading struct {
	Reading
	PredictedLabel int
}

// AlertRecord mirrors one DynamoDB item. Decimal attributes stay as strings:
// DynamoDB numbers are decimal text on the wire, so keeping them as text end
// to end avoids float drift.
type AlertRecord struct {
	PK                   string
	SK                   string
	UserID               string
	Timestamp            string // "2006-01-02 15:04:05"
	SourceFile           string
	LocationID           int
	OriginalStressLevel  string
	PredictedStressLabel int
	SleepHours           string
	MoodScore            string
	NoiseLevelDB         string
}

// AlertView is the externally served shape of an alert. RecordID carries the
// source file name of the batch the alert came from.
type AlertView struct {
	RecordID    string  `json:"record_id"`
	StressScore int     `json:"stress_score"`
	Timestamp   *string `json:"timestamp"`
}

type AlertsResponse struct {
	Alerts []AlertView `json:"alerts"`
}
