package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/uuid"

	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/types"
)

// Store persists and reads alert records. A dry-run store synthesizes
// records without touching the table, for local runs.
type Store struct {
	api    dynamodbiface.DynamoDBAPI
	table  string
	dryRun bool
	newID  func() string
}

func NewStore(api dynamodbiface.DynamoDBAPI, table string, dryRun bool) *Store {
	return &Store{
		api:    api,
		table:  table,
		dryRun: dryRun,
		newID:  uuid.NewString,
	}
}

// PutAlert writes one confirmed reading as an alert item keyed by
// SOURCEFILE#<file> / LOCATION#<id>#USERID#<uuid>. The synthesized record is
// returned even when the physical write fails or is skipped.
func (s *Store) PutAlert(ctx context.Context, c types.ConfirmedReading, sourceFile string) (types.AlertRecord, error) {
	userID := s.newID()

	record := types.AlertRecord{
		PK:                   "SOURCEFILE#" + sourceFile,
		SK:                   fmt.Sprintf("LOCATION#%d#USERID#%s", c.LocationID, userID),
		UserID:               userID,
		Timestamp:            c.Timestamp.Format(types.TimestampLayout),
		SourceFile:           sourceFile,
		LocationID:           c.LocationID,
		OriginalStressLevel:  c.StressLevelRaw,
		PredictedStressLabel: c.PredictedLabel,
		SleepHours:           c.SleepHoursRaw,
		MoodScore:            c.MoodScoreRaw,
		NoiseLevelDB:         c.NoiseLevelDBRaw,
	}

	if s.dryRun {
		logging.FromContext(ctx).Infof("Dry run: skipping write for %s / %s", record.PK, record.SK)
		return record, nil
	}

	_, err := s.api.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      itemFromRecord(record),
	})
	if err != nil {
		return record, fmt.Errorf("put alert item: %w", err)
	}

	return record, nil
}

// itemFromRecord builds the DynamoDB item by hand so decimal attributes keep
// the exact digits carried from the batch file.
func itemFromRecord(record types.AlertRecord) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK":                   {S: aws.String(record.PK)},
		"SK":                   {S: aws.String(record.SK)},
		"UserID":               {S: aws.String(record.UserID)},
		"Timestamp":            {S: aws.String(record.Timestamp)},
		"SourceFile":           {S: aws.String(record.SourceFile)},
		"LocationID":           {N: aws.String(strconv.Itoa(record.LocationID))},
		"OriginalStressLevel":  {N: aws.String(record.OriginalStressLevel)},
		"PredictedStressLabel": {N: aws.String(strconv.Itoa(record.PredictedStressLabel))},
		"SleepHours":           {N: aws.String(record.SleepHours)},
		"MoodScore":            {N: aws.String(record.MoodScore)},
		"NoiseLevelDB":         {N: aws.String(record.NoiseLevelDB)},
	}
}

func recordFromItem(item map[string]*dynamodb.AttributeValue) types.AlertRecord {
	return types.AlertRecord{
		PK:                   stringAttr(item, "PK"),
		SK:                   stringAttr(item, "SK"),
		UserID:               stringAttr(item, "UserID"),
		Timestamp:            stringAttr(item, "Timestamp"),
		SourceFile:           stringAttr(item, "SourceFile"),
		LocationID:           intAttr(item, "LocationID"),
		OriginalStressLevel:  numberAttr(item, "OriginalStressLevel"),
		PredictedStressLabel: intAttr(item, "PredictedStressLabel"),
		SleepHours:           numberAttr(item, "SleepHours"),
		MoodScore:            numberAttr(item, "MoodScore"),
		NoiseLevelDB:         numberAttr(item, "NoiseLevelDB"),
	}
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if attr, ok := item[name]; ok && attr.S != nil {
		return *attr.S
	}
	return ""
}

func numberAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if attr, ok := item[name]; ok && attr.N != nil {
		return *attr.N
	}
	return ""
}

func intAttr(item map[string]*dynamodb.AttributeValue, name string) int {
	value, err := strconv.Atoi(numberAttr(item, name))
	if err != nil {
		return 0
	}
	return value
}
