package api

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"campus-stress-alerts/src/logging"
	"campus-stress-alerts/src/types"
)

// AlertReader is the read side of the alert store.
type AlertReader interface {
	QueryBySourceFile(ctx context.Context, sourceFile string) ([]types.AlertRecord, error)
}

var jsonHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

// HandleHTTP serves the query path. GET /alerts?source_file=<batch file name>
// returns every stored alert for that batch.
func HandleHTTP(ctx context.Context, req events.APIGatewayV2HTTPRequest, store AlertReader) (events.APIGatewayV2HTTPResponse, error) {
	logger := logging.FromContext(ctx)

	switch req.RouteKey {
	case "GET /alerts":
		sourceFile := req.QueryStringParameters["source_file"]
		if sourceFile == "" {
			return errorResponse(400, "The 'source_file' query parameter is required."), nil
		}

		records, err := store.QueryBySourceFile(ctx, sourceFile)
		if err != nil {
			logger.Errorf("Error querying alerts for %s: %v", sourceFile, err)
			return errorResponse(500, "Could not retrieve alerts."), nil
		}

		response := types.AlertsResponse{Alerts: make([]types.AlertView, 0, len(records))}
		for _, record := range records {
			response.Alerts = append(response.Alerts, alertView(record))
		}

		body, _ := json.Marshal(response)
		return events.APIGatewayV2HTTPResponse{
			StatusCode: 200,
			Headers:    jsonHeaders,
			Body:       string(body),
		}, nil

	default:
		return errorResponse(404, "Not Found"), nil
	}
}

// alertView is the outward transform of one stored alert. The record id
// carries the stored source file name; the stress score is the stored
// decimal truncated to an integer; an unparseable stored timestamp becomes
// a null timestamp, never a failed request.
func alertView(record types.AlertRecord) types.AlertView {
	view := types.AlertView{
		RecordID:    record.SourceFile,
		StressScore: truncateDecimal(record.OriginalStressLevel),
	}
	if ts, err := time.Parse(types.TimestampLayout, record.Timestamp); err == nil {
		iso := ts.Format("2006-01-02T15:04:05") + "Z"
		view.Timestamp = &iso
	}
	if view.RecordID == "" {
		view.RecordID = "unknown-source"
	}
	return view
}

func truncateDecimal(raw string) int {
	whole, _, _ := strings.Cut(raw, ".")
	value, err := strconv.Atoi(whole)
	if err != nil {
		return 0
	}
	return value
}

func errorResponse(status int, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    jsonHeaders,
		Body:       string(body),
	}
}
