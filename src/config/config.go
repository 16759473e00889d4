package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	ClassifierLinear   = "linear"
	ClassifierEndpoint = "endpoint"
)

// NumericalFeatures is the model's numerical input columns, in training order.
var NumericalFeatures = []string{
	"temperature_celsius",
	"humidity_percent",
	"air_quality_index",
	"noise_level_db",
	"lighting_lux",
	"crowd_density",
	"sleep_hours",
	"mood_score",
}

// KnownLocationIDs is the closed set of campus locations the model was
// trained on. Readings from any other location one-hot encode to all zeros.
var KnownLocationIDs = []int{101, 102, 103, 104, 105}

// TrainingColumns is the full model input schema: numerical features followed
// by one one-hot column per known location.
func TrainingColumns() []string {
	columns := make([]string, 0, VectorWidth())
	columns = append(columns, NumericalFeatures...)
	for _, id := range KnownLocationIDs {
		columns = append(columns, fmt.Sprintf("location_id_%d", id))
	}
	return columns
}

// VectorWidth is the input width the loaded classifier must accept.
func VectorWidth() int {
	return len(NumericalFeatures) + len(KnownLocationIDs)
}

type Config struct {
	AWSRegion       string  `envconfig:"AWS_REGION" default:"us-east-1"`
	TableName       string  `envconfig:"DYNAMODB_TABLE_NAME" default:"HighStressUsers"`
	StressThreshold float64 `envconfig:"STRESS_THRESHOLD" default:"42"`

	RunningLocally bool   `envconfig:"RUNNING_LOCALLY" default:"false"`
	LocalCSVFile   string `envconfig:"LOCAL_CSV_FILE" default:"resources/university_mental_health_iot_dataset.csv"`
	DryRun         bool   `envconfig:"DRY_RUN" default:"false"`

	ClassifierKind    string `envconfig:"CLASSIFIER_KIND" default:"linear"`
	ModelFile         string `envconfig:"MODEL_FILE" default:"resources/stress_model.json"`
	ModelS3Bucket     string `envconfig:"MODEL_S3_BUCKET"`
	ModelS3Key        string `envconfig:"MODEL_S3_KEY" default:"models/stress_model.json"`
	SageMakerEndpoint string `envconfig:"SAGEMAKER_ENDPOINT_NAME"`

	Debug bool `envconfig:"DEBUG" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// SkipWrites reports whether storage writes should be skipped. Local runs
// never touch the live table.
func (c *Config) SkipWrites() bool {
	return c.DryRun || c.RunningLocally
}
