package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"campus-stress-alerts/src/batch"
	"campus-stress-alerts/src/inference"
	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/model"
	"campus-stress-alerts/src/types"
)

// Store is the write side of the alert store.
type Store interface {
	PutAlert(ctx context.Context, c types.ConfirmedReading, sourceFile string) (types.AlertRecord, error)
}

// RunReport is the aggregate outcome of one run. Per-row and per-write
// failures are part of the report, not just log lines.
type RunReport struct {
	SourceFile    string `json:"source_file"`
	Loaded        int    `json:"loaded"`
	SkippedRows   int    `json:"skipped_rows"`
	Potential     int    `json:"potential"`
	Confirmed     int    `json:"confirmed"`
	Inserted      int    `json:"inserted"`
	RowFailures   int    `json:"row_failures"`
	WriteFailures int    `json:"write_failures"`
	LoadFailed    bool   `json:"load_failed"`
	Err           error  `json:"-"`
}

// Agent drives one batch file through load → filter → infer → store and
// keeps an ordered trace of its actions and observations.
type Agent struct {
	threshold  float64
	classifier model.Classifier
	store      Store
	trace      *Trace
}

func New(threshold float64, classifier model.Classifier, store Store) *Agent {
	return &Agent{
		threshold:  threshold,
		classifier: classifier,
		store:      store,
	}
}

// Trace returns the trace of the most recent run.
func (a *Agent) Trace() *Trace {
	return a.trace
}

// Run processes one batch file. Failures at batch granularity halt the run
// without error; failures at row or write granularity are isolated and
// counted. The trace is emitted unconditionally, even when the run errored.
func (a *Agent) Run(ctx context.Context, filePath string) *RunReport {
	logger := logging.FromContext(ctx)

	a.trace = NewTrace()
	report := &RunReport{SourceFile: filepath.Base(filePath)}

	a.observe(ctx, "Agent run started.", map[string]interface{}{
		"state":     StateStarted,
		"file_path": filePath,
	})

	func() {
		defer func() {
			if r := recover(); r != nil {
				report.Err = fmt.Errorf("unexpected error during run: %v", r)
				a.observe(ctx, "An unexpected error occurred during the run.", map[string]interface{}{
					"state": StateErrored,
					"error": fmt.Sprintf("%v", r),
				})
			}
		}()
		a.process(ctx, filePath, report)
	}()

	a.observe(ctx, "Agent run finished.", map[string]interface{}{
		"state":          StateFinished,
		"items_inserted": report.Inserted,
		"row_failures":   report.RowFailures,
		"write_failures": report.WriteFailures,
	})

	logger.Infof("--- Agent Trace ---\n%s", a.trace.JSON())
	return report
}

func (a *Agent) process(ctx context.Context, filePath string, report *RunReport) {
	a.observe(ctx, "Initiating action: Load and filter data.", map[string]interface{}{
		"state": StateLoading,
	})

	result, err := batch.LoadAndFilter(ctx, filePath, a.threshold)
	if err != nil {
		report.LoadFailed = true
		a.observe(ctx, "Observation: Data loading failed. Halting run.", map[string]interface{}{
			"state": StateFiltered,
			"error": err.Error(),
		})
		return
	}

	report.Loaded = result.Loaded
	report.SkippedRows = result.Skipped
	report.Potential = len(result.Readings)

	if len(result.Readings) == 0 {
		a.observe(ctx, "Observation: No potential high-stress users found after filtering. Halting run.", map[string]interface{}{
			"state": StateFiltered,
		})
		return
	}

	a.observe(ctx, "Observation: Data loaded and filtered successfully.", map[string]interface{}{
		"state":             StateFiltered,
		"potential_records": report.Potential,
	})

	a.observe(ctx, "Initiating action: Run model inference.", map[string]interface{}{
		"state": StateInferring,
	})

	confirmed, rowFailures := inference.Run(ctx, result.Readings, a.classifier)
	report.Confirmed = len(confirmed)
	report.RowFailures = rowFailures

	a.observe(ctx, "Observation: Model inference complete.", map[string]interface{}{
		"state":                   StateInferring,
		"high_stress_predictions": len(confirmed),
		"row_failures":            rowFailures,
	})

	if len(confirmed) == 0 {
		a.observe(ctx, "Observation: No high-stress predictions to store.", map[string]interface{}{
			"state": StateInferring,
		})
		return
	}

	a.observe(ctx, "Initiating action: Store predictions in DynamoDB.", map[string]interface{}{
		"state": StateStoring,
	})

	inserted, writeFailures := a.storeAll(ctx, confirmed, report.SourceFile)
	report.Inserted = inserted
	report.WriteFailures = writeFailures

	a.observe(ctx, "Observation: Storage complete.", map[string]interface{}{
		"state":          StateStoring,
		"items_inserted": inserted,
		"write_failures": writeFailures,
	})
}

// storeAll writes confirmed readings one by one. A failed write is logged
// and counted, and the remaining writes continue.
func (a *Agent) storeAll(ctx context.Context, confirmed []types.ConfirmedReading, sourceFile string) (int, int) {
	logger := logging.FromContext(ctx)

	inserted := 0
	failures := 0

	for _, c := range confirmed {
		if _, err := a.store.PutAlert(ctx, c, sourceFile); err != nil {
			logger.Errorf("Error storing alert for location %d: %v", c.LocationID, err)
			failures++
			continue
		}
		inserted++
	}

	return inserted, failures
}

func (a *Agent) observe(ctx context.Context, message string, data map[string]interface{}) {
	a.trace.Append(message, data)
	logging.FromContext(ctx).Infof("[AGENT LOG] %s", message)
}
