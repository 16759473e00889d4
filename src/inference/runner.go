package inference

import (
	"context"

	"campus-stress-alerts/src/features"
	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/model"
	"campus-stress-alerts/src/types"
)

// Run classifies each pre-filtered reading independently and returns the
// confirmed-positive rows in input order, plus the number of rows whose
// inference failed. A failing row is logged and skipped; it never aborts
// the batch.
func Run(ctx context.Context, readings []types.Reading, clf model.Classifier) ([]types.ConfirmedReading, int) {
	logger := logging.FromContext(ctx)

	var confirmed []types.ConfirmedReading
	failures := 0

	for i, reading := range readings {
		vec := features.Project(reading)

		label, err := clf.Predict(vec)
		if err != nil {
			logger.Errorf("Error classifying row %d (location %d): %v", i, reading.LocationID, err)
			failures++
			continue
		}

		if label == 1 {
			confirmed = append(confirmed, types.ConfirmedReading{Reading: reading, PredictedLabel: label})
		}
	}

	return confirmed, failures
}
