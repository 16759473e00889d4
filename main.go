package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime"

	"campus-stress-alerts/src/agent"
	"campus-stress-alerts/src/api"
	"campus-stress-alerts/src/config"
	"campus-stress-alerts/src/dynamo"
	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/model"
	"campus-stress-alerts/src/sqs"
)

// Env holds the process-wide handles: constructed once before the handler
// starts taking events, read-only afterwards.
type Env struct {
	cfg        *config.Config
	store      *dynamo.Store
	classifier model.Classifier
	downloader s3manageriface.DownloaderAPI
}

func newEnv(cfg *config.Config) (*Env, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}

	classifier, err := newClassifier(cfg, sess)
	if err != nil {
		return nil, err
	}

	return &Env{
		cfg:        cfg,
		store:      dynamo.NewStore(dynamo.GetClient(cfg.AWSRegion), cfg.TableName, cfg.SkipWrites()),
		classifier: classifier,
		downloader: s3manager.NewDownloader(sess),
	}, nil
}

func newClassifier(cfg *config.Config, sess *session.Session) (model.Classifier, error) {
	switch cfg.ClassifierKind {
	case config.ClassifierEndpoint:
		return model.NewEndpoint(sagemakerruntime.New(sess), cfg.SageMakerEndpoint)

	case config.ClassifierLinear:
		var params *model.LinearParams
		var err error
		if cfg.ModelS3Bucket != "" {
			params, err = model.LoadParamsFromS3(sess, cfg.ModelS3Bucket, cfg.ModelS3Key)
		} else {
			params, err = model.LoadParamsFromFile(cfg.ModelFile)
		}
		if err != nil {
			return nil, err
		}
		return model.NewLinear(params, config.TrainingColumns())

	default:
		return nil, fmt.Errorf("unknown classifier kind %q", cfg.ClassifierKind)
	}
}

func (env *Env) newAgent() *agent.Agent {
	return agent.New(env.cfg.StressThreshold, env.classifier, env.store)
}

func detectEventType(event json.RawMessage) (string, error) {
	// Try parsing as an API Gateway HTTP event
	var httpEvent events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(event, &httpEvent); err == nil {
		if httpEvent.RouteKey != "" || httpEvent.RequestContext.HTTP.Method != "" {
			return "http", nil
		}
	}

	// Try parsing as an SQS event
	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil {
		if len(sqsEvent.Records) > 0 && sqsEvent.Records[0].EventSource == "aws:sqs" {
			return "sqs", nil
		}
	}

	return "", fmt.Errorf("unrecognized event source")
}

func (env *Env) handle(ctx context.Context, event json.RawMessage) (interface{}, error) {
	eventType, err := detectEventType(event)
	if err != nil {
		return nil, err
	}

	switch eventType {
	case "http":
		var httpEvent events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(event, &httpEvent); err != nil {
			return nil, fmt.Errorf("unmarshal HTTP event: %w", err)
		}
		return api.HandleHTTP(ctx, httpEvent, env.store)

	case "sqs":
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(event, &sqsEvent); err != nil {
			return nil, fmt.Errorf("unmarshal SQS event: %w", err)
		}
		if err := sqs.Handle(ctx, sqsEvent, env.downloader, env.newAgent()); err != nil {
			return nil, err
		}
		return "Processing complete.", nil

	default:
		return nil, fmt.Errorf("unrecognized event type: %s", eventType)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger(false).Fatalf("Error loading config: %v", err)
	}

	logger := logging.NewLogger(cfg.Debug)
	ctx := logging.WithLogger(context.Background(), logger)

	env, err := newEnv(cfg)
	if err != nil {
		logger.Fatalf("Error initializing environment: %v", err)
	}

	if cfg.RunningLocally {
		logger.Info("--- Running in Local Mode ---")
		report := env.newAgent().Run(ctx, cfg.LocalCSVFile)
		logger.Infof("Local processing complete: %+v", report)
		return
	}

	lambda.Start(func(lambdaCtx context.Context, event json.RawMessage) (interface{}, error) {
		return env.handle(logging.WithLogger(lambdaCtx, logger), event)
	})
}
