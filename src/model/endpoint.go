package model

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime/sagemakerruntimeiface"
)

type endpointResponse struct {
	Predictions []struct {
		Score          float64 `json:"score"`
		PredictedLabel float64 `json:"predicted_label"`
	} `json:"predictions"`
}

// Endpoint is a classifier backed by a deployed SageMaker endpoint.
type Endpoint struct {
	client sagemakerruntimeiface.SageMakerRuntimeAPI
	name   string
}

func NewEndpoint(client sagemakerruntimeiface.SageMakerRuntimeAPI, name string) (*Endpoint, error) {
	if name == "" {
		return nil, fmt.Errorf("SAGEMAKER_ENDPOINT_NAME is not set")
	}
	return &Endpoint{client: client, name: name}, nil
}

func (e *Endpoint) Predict(features []float32) (int, error) {
	payload := map[string]interface{}{
		"instances": []map[string]interface{}{
			{"features": features},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal endpoint payload: %w", err)
	}

	output, err := e.client.InvokeEndpoint(&sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(e.name),
		Body:         payloadBytes,
		ContentType:  aws.String("application/json"),
		Accept:       aws.String("application/json"),
	})
	if err != nil {
		return 0, fmt.Errorf("invoke endpoint %s: %w", e.name, err)
	}

	var response endpointResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return 0, fmt.Errorf("parse endpoint response: %w", err)
	}
	if len(response.Predictions) == 0 {
		return 0, fmt.Errorf("endpoint %s returned no predictions", e.name)
	}

	return int(response.Predictions[0].PredictedLabel), nil
}
