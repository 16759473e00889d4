package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campus-stress-alerts/src/types"
)

const csvHeader = "timestamp,location_id,stress_level,temperature_celsius,humidity_percent,air_quality_index,noise_level_db,lighting_lux,crowd_density,sleep_hours,mood_score"

func writeBatch(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.csv")
	content := csvHeader + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write batch file: %v", err)
	}
	return path
}

func row(locationID int, stress string) string {
	return fmt.Sprintf("2024-03-01 10:00:00,%d,%s,21.5,45,80,55.2,300,0.4,6.5,3", locationID, stress)
}

// scriptedClassifier returns one scripted outcome per call, in row order.
type scriptedClassifier struct {
	labels []int
	errs   []error
	panics bool
	calls  int
}

func (s *scriptedClassifier) Predict(features []float32) (int, error) {
	if s.panics {
		panic("classifier handle is broken")
	}
	i := s.calls
	s.calls++
	if s.errs != nil && s.errs[i] != nil {
		return 0, s.errs[i]
	}
	return s.labels[i], nil
}

type fakeStore struct {
	errs  []error
	puts  []types.ConfirmedReading
	files []string
}

func (f *fakeStore) PutAlert(ctx context.Context, c types.ConfirmedReading, sourceFile string) (types.AlertRecord, error) {
	i := len(f.puts)
	f.puts = append(f.puts, c)
	f.files = append(f.files, sourceFile)
	if f.errs != nil && f.errs[i] != nil {
		return types.AlertRecord{}, f.errs[i]
	}
	return types.AlertRecord{SourceFile: sourceFile}, nil
}

func traceStates(trace *Trace) []string {
	var states []string
	for _, entry := range trace.Entries() {
		if state, ok := entry.Data["state"].(string); ok {
			states = append(states, state)
		}
	}
	return states
}

func hasState(trace *Trace, state string) bool {
	for _, s := range traceStates(trace) {
		if s == state {
			return true
		}
	}
	return false
}

func TestRunStoresOnlyConfirmedRows(t *testing.T) {
	// Threshold 42 keeps the 50 and 60 rows; the classifier confirms only
	// the first of them.
	path := writeBatch(t, row(101, "50"), row(102, "10"), row(103, "60"))
	clf := &scriptedClassifier{labels: []int{1, 0}}
	store := &fakeStore{}

	a := New(42, clf, store)
	report := a.Run(context.Background(), path)

	if report.Err != nil {
		t.Fatalf("report error: %v", report.Err)
	}
	if report.Loaded != 3 || report.Potential != 2 {
		t.Errorf("loaded/potential, got: %d/%d, expected: 3/2", report.Loaded, report.Potential)
	}
	if report.Confirmed != 1 || report.Inserted != 1 {
		t.Errorf("confirmed/inserted, got: %d/%d, expected: 1/1", report.Confirmed, report.Inserted)
	}
	if len(store.puts) != 1 {
		t.Fatalf("store writes, got: %d, expected: 1", len(store.puts))
	}
	if store.puts[0].LocationID != 101 || store.puts[0].StressLevelRaw != "50" {
		t.Errorf("stored row, got location %d stress %q, expected 101 %q", store.puts[0].LocationID, store.puts[0].StressLevelRaw, "50")
	}
	if store.files[0] != "batch.csv" {
		t.Errorf("source file, got: %q, expected: %q", store.files[0], "batch.csv")
	}
	for _, state := range []string{StateStarted, StateLoading, StateInferring, StateStoring, StateFinished} {
		if !hasState(a.Trace(), state) {
			t.Errorf("trace is missing state %s: %v", state, traceStates(a.Trace()))
		}
	}
}

func TestRunHaltsOnEmptyFilter(t *testing.T) {
	path := writeBatch(t, row(101, "10"), row(102, "42"))
	clf := &scriptedClassifier{}
	store := &fakeStore{}

	a := New(42, clf, store)
	report := a.Run(context.Background(), path)

	if report.Err != nil {
		t.Fatalf("report error: %v", report.Err)
	}
	if clf.calls != 0 {
		t.Errorf("classifier calls, got: %d, expected: 0", clf.calls)
	}
	if len(store.puts) != 0 {
		t.Errorf("store writes, got: %d, expected: 0", len(store.puts))
	}
	if report.Loaded != 2 || report.Potential != 0 {
		t.Errorf("loaded/potential, got: %d/%d, expected: 2/0", report.Loaded, report.Potential)
	}
	if !hasState(a.Trace(), StateFinished) {
		t.Error("trace is missing the finished state")
	}
}

func TestRunHaltsOnLoadFailure(t *testing.T) {
	store := &fakeStore{}
	a := New(42, &scriptedClassifier{}, store)

	report := a.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))

	if report.Err != nil {
		t.Fatalf("load failure must not escalate, got: %v", report.Err)
	}
	if !report.LoadFailed {
		t.Error("expected LoadFailed to be set")
	}
	if len(store.puts) != 0 {
		t.Errorf("store writes, got: %d, expected: 0", len(store.puts))
	}
	if !hasState(a.Trace(), StateFinished) {
		t.Error("trace is missing the finished state")
	}
}

func TestRunSkipsStorageWhenNothingConfirmed(t *testing.T) {
	path := writeBatch(t, row(101, "50"), row(102, "60"))
	store := &fakeStore{}

	a := New(42, &scriptedClassifier{labels: []int{0, 0}}, store)
	report := a.Run(context.Background(), path)

	if report.Confirmed != 0 || report.Inserted != 0 {
		t.Errorf("confirmed/inserted, got: %d/%d, expected: 0/0", report.Confirmed, report.Inserted)
	}
	if len(store.puts) != 0 {
		t.Errorf("store writes, got: %d, expected: 0", len(store.puts))
	}
	if hasState(a.Trace(), StateStoring) {
		t.Error("storage stage should have been skipped entirely")
	}
}

func TestRunIsolatesWriteFailures(t *testing.T) {
	path := writeBatch(t, row(101, "50"), row(102, "60"))
	store := &fakeStore{errs: []error{fmt.Errorf("write throttled"), nil}}

	a := New(42, &scriptedClassifier{labels: []int{1, 1}}, store)
	report := a.Run(context.Background(), path)

	if report.Err != nil {
		t.Fatalf("write failures must not escalate, got: %v", report.Err)
	}
	if len(store.puts) != 2 {
		t.Errorf("store writes attempted, got: %d, expected: 2", len(store.puts))
	}
	if report.Inserted != 1 || report.WriteFailures != 1 {
		t.Errorf("inserted/write failures, got: %d/%d, expected: 1/1", report.Inserted, report.WriteFailures)
	}
}

func TestRunCountsRowFailures(t *testing.T) {
	path := writeBatch(t, row(101, "50"), row(102, "60"), row(103, "70"))
	clf := &scriptedClassifier{
		labels: []int{1, 0, 1},
		errs:   []error{nil, fmt.Errorf("malformed value"), nil},
	}
	store := &fakeStore{}

	a := New(42, clf, store)
	report := a.Run(context.Background(), path)

	if clf.calls != 3 {
		t.Errorf("classifier calls, got: %d, expected: 3", clf.calls)
	}
	if report.RowFailures != 1 || report.Confirmed != 2 {
		t.Errorf("row failures/confirmed, got: %d/%d, expected: 1/2", report.RowFailures, report.Confirmed)
	}
}

func TestRunRecoversFromPanic(t *testing.T) {
	path := writeBatch(t, row(101, "50"))

	a := New(42, &scriptedClassifier{panics: true}, &fakeStore{})
	report := a.Run(context.Background(), path)

	if report.Err == nil {
		t.Fatal("expected a reported error, got nil")
	}
	if !hasState(a.Trace(), StateErrored) {
		t.Error("trace is missing the errored state")
	}
	if !hasState(a.Trace(), StateFinished) {
		t.Error("trace must still reach the finished state")
	}
}

func TestTraceTimestampsAreMonotonic(t *testing.T) {
	path := writeBatch(t, row(101, "50"))
	a := New(42, &scriptedClassifier{labels: []int{1}}, &fakeStore{})
	a.Run(context.Background(), path)

	entries := a.Trace().Entries()
	if len(entries) < 2 {
		t.Fatalf("trace entries, got: %d, expected at least 2", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp < entries[i-1].Timestamp {
			t.Errorf("entry %d timestamp %f precedes entry %d timestamp %f", i, entries[i].Timestamp, i-1, entries[i-1].Timestamp)
		}
	}
}
