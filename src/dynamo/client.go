package dynamo

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

var (
	clientInstance *dynamodb.DynamoDB
	once           sync.Once
)

// GetClient returns the process-wide DynamoDB client, creating it on the
// first call. The region is fixed for the process lifetime.
func GetClient(region string) *dynamodb.DynamoDB {
	once.Do(func() {
		sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))

		clientInstance = dynamodb.New(sess)
	})

	return clientInstance
}
