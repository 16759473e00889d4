package dynamo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"campus-stress-alerts/src/types"
)

type capturingDynamoDB struct {
	dynamodbiface.DynamoDBAPI

	putErr error
	inputs []*dynamodb.PutItemInput
}

func (c *capturingDynamoDB) PutItem(input *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	c.inputs = append(c.inputs, input)
	if c.putErr != nil {
		return nil, c.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func confirmedReading() types.ConfirmedReading {
	return types.ConfirmedReading{
		Reading: types.Reading{
			Timestamp:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			LocationID:      103,
			StressLevel:     50.7,
			StressLevelRaw:  "50.70",
			SleepHoursRaw:   "6.5",
			MoodScoreRaw:    "3",
			NoiseLevelDBRaw: "55.2",
		},
		PredictedLabel: 1,
	}
}

func newTestStore(api dynamodbiface.DynamoDBAPI, dryRun bool) *Store {
	store := NewStore(api, "HighStressUsers", dryRun)
	store.newID = func() string { return "fixed-uuid" }
	return store
}

func TestPutAlertItemShape(t *testing.T) {
	fake := &capturingDynamoDB{}
	store := newTestStore(fake, false)

	record, err := store.PutAlert(context.Background(), confirmedReading(), "batch.csv")
	if err != nil {
		t.Fatalf("PutAlert: %v", err)
	}

	if record.PK != "SOURCEFILE#batch.csv" {
		t.Errorf("PK, got: %q, expected: %q", record.PK, "SOURCEFILE#batch.csv")
	}
	if record.SK != "LOCATION#103#USERID#fixed-uuid" {
		t.Errorf("SK, got: %q, expected: %q", record.SK, "LOCATION#103#USERID#fixed-uuid")
	}
	if record.Timestamp != "2024-03-01 10:00:00" {
		t.Errorf("Timestamp, got: %q, expected: %q", record.Timestamp, "2024-03-01 10:00:00")
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("PutItem calls, got: %d, expected: 1", len(fake.inputs))
	}
	item := fake.inputs[0].Item
	if *fake.inputs[0].TableName != "HighStressUsers" {
		t.Errorf("table, got: %q, expected: %q", *fake.inputs[0].TableName, "HighStressUsers")
	}
	if *item["OriginalStressLevel"].N != "50.70" {
		t.Errorf("OriginalStressLevel attribute, got: %q, expected: %q", *item["OriginalStressLevel"].N, "50.70")
	}
	if *item["LocationID"].N != "103" || *item["PredictedStressLabel"].N != "1" {
		t.Errorf("numeric attributes, got: %q/%q", *item["LocationID"].N, *item["PredictedStressLabel"].N)
	}
	if *item["SourceFile"].S != "batch.csv" || *item["UserID"].S != "fixed-uuid" {
		t.Errorf("string attributes, got: %q/%q", *item["SourceFile"].S, *item["UserID"].S)
	}
}

func TestPutAlertDryRunSkipsWrite(t *testing.T) {
	fake := &capturingDynamoDB{}
	store := newTestStore(fake, true)

	record, err := store.PutAlert(context.Background(), confirmedReading(), "batch.csv")
	if err != nil {
		t.Fatalf("PutAlert: %v", err)
	}
	if len(fake.inputs) != 0 {
		t.Errorf("PutItem calls, got: %d, expected: 0", len(fake.inputs))
	}
	if record.UserID != "fixed-uuid" {
		t.Errorf("record still synthesized, got UserID: %q", record.UserID)
	}
}

func TestPutAlertPropagatesWriteError(t *testing.T) {
	fake := &capturingDynamoDB{putErr: fmt.Errorf("conditional check failed")}
	store := newTestStore(fake, false)

	if _, err := store.PutAlert(context.Background(), confirmedReading(), "batch.csv"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestRecordRoundTripsThroughItem(t *testing.T) {
	fake := &capturingDynamoDB{}
	store := newTestStore(fake, false)

	written, err := store.PutAlert(context.Background(), confirmedReading(), "batch.csv")
	if err != nil {
		t.Fatalf("PutAlert: %v", err)
	}

	read := recordFromItem(fake.inputs[0].Item)
	if read != written {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", read, written)
	}
}
