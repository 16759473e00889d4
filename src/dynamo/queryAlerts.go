package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/types"
)

// QueryBySourceFile returns every alert stored for one batch file, in sort
// key order. The backing store pages its results: each response carrying a
// LastEvaluatedKey is followed up with a continuation read until the store
// reports no further key, and the pages are concatenated. Any page error
// fails the whole read; no partial result is returned.
func (s *Store) QueryBySourceFile(ctx context.Context, sourceFile string) ([]types.AlertRecord, error) {
	logger := logging.FromContext(ctx)

	pk := "SOURCEFILE#" + sourceFile
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(pk)},
		},
	}

	var records []types.AlertRecord
	pages := 0

	for {
		output, err := s.api.Query(input)
		if err != nil {
			return nil, fmt.Errorf("query alerts for %s: %w", pk, err)
		}
		pages++

		for _, item := range output.Items {
			records = append(records, recordFromItem(item))
		}

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	logger.Infof("Fetched %d alerts for %s in %d pages", len(records), pk, pages)
	return records, nil
}
