package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// LinearParams holds the exported parameters of the trained binary
// classifier: one weight per input column plus an intercept.
type LinearParams struct {
	Columns   []string  `json:"columns"`
	Weights   []float64 `json:"coefficients"`
	Intercept float64   `json:"intercept"`
}

// Linear is a classifier evaluating the exported linear decision function
// locally: label 1 when w·x + b > 0.
type Linear struct {
	params *LinearParams
}

// NewLinear validates the artifact against the configured input schema.
// A width or column-order mismatch between the trained model and the
// runtime encoder fails here, before any row is processed.
func NewLinear(params *LinearParams, trainingColumns []string) (*Linear, error) {
	if len(params.Weights) != len(params.Columns) {
		return nil, fmt.Errorf("model artifact is inconsistent: %d weights for %d columns", len(params.Weights), len(params.Columns))
	}
	if len(params.Columns) != len(trainingColumns) {
		return nil, fmt.Errorf("model expects %d input columns, runtime encoder produces %d", len(params.Columns), len(trainingColumns))
	}
	for i, column := range trainingColumns {
		if params.Columns[i] != column {
			return nil, fmt.Errorf("model column %d is %q, runtime encoder produces %q", i, params.Columns[i], column)
		}
	}
	return &Linear{params: params}, nil
}

func (l *Linear) Predict(features []float32) (int, error) {
	if len(features) != len(l.params.Weights) {
		return 0, fmt.Errorf("feature vector has %d entries, model expects %d", len(features), len(l.params.Weights))
	}

	score := l.params.Intercept
	for i, w := range l.params.Weights {
		score += w * float64(features[i])
	}

	if score > 0 {
		return 1, nil
	}
	return 0, nil
}

// LoadParamsFromFile reads a model artifact from local disk.
func LoadParamsFromFile(path string) (*LinearParams, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}
	return parseParams(content)
}

// LoadParamsFromS3 downloads a model artifact from S3.
func LoadParamsFromS3(sess *session.Session, bucket, key string) (*LinearParams, error) {
	svc := s3.New(sess)

	result, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download model artifact s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return parseParams(content)
}

func parseParams(content []byte) (*LinearParams, error) {
	var params LinearParams
	if err := json.Unmarshal(content, &params); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	return &params, nil
}
