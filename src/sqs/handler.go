package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"campus-stress-alerts/src/agent"
	"campus-stress-alerts/src/logging"
)

// Runner processes one downloaded batch file.
type Runner interface {
	Run(ctx context.Context, filePath string) *agent.RunReport
}

// Handle consumes an SQS event whose records wrap S3 object-created
// notifications: each referenced object is downloaded to /tmp and run
// through the pipeline. A record that cannot be parsed or downloaded is
// logged and skipped; it never fails the other records.
func Handle(ctx context.Context, sqsEvent events.SQSEvent, downloader s3manageriface.DownloaderAPI, runner Runner) error {
	logger := logging.FromContext(ctx)

	for _, record := range sqsEvent.Records {
		var s3Event events.S3Event
		if err := json.Unmarshal([]byte(record.Body), &s3Event); err != nil {
			logger.Errorf("Error parsing SQS record %s body as an S3 event: %v", record.MessageId, err)
			continue
		}

		for _, s3Record := range s3Event.Records {
			bucket := s3Record.S3.Bucket.Name
			key := s3Record.S3.Object.Key

			downloadPath, err := download(ctx, downloader, bucket, key)
			if err != nil {
				logger.Errorf("Error downloading s3://%s/%s: %v", bucket, key, err)
				continue
			}

			logger.Infof("Downloaded s3://%s/%s to %s", bucket, key, downloadPath)
			runner.Run(ctx, downloadPath)
		}
	}

	return nil
}

func download(ctx context.Context, downloader s3manageriface.DownloaderAPI, bucket, key string) (string, error) {
	downloadPath := filepath.Join(os.TempDir(), filepath.Base(key))

	f, err := os.Create(downloadPath)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	defer f.Close()

	_, err = downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("download object: %w", err)
	}

	return downloadPath, nil
}
