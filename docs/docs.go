// Package docs CiviGuard Citizen Report API.
//
// Documentation of CiviGuard Citizen Report API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://citizen-report-api.civiguard.io
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/civiguard/citizen-report-api/models"
	"github.com/civiguard/citizen-report-api/workflow"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/report/{report_id} report reportByID
// Gets a single citizen report by ID.
// responses:
//   200: reportByIDResponse

// Shows a single report by the given {report_id}
// swagger:response reportByIDResponse
type reportByIDResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route POST /api/v1/report/{report_id}/transition report transitionReport
// Moves a report to its next case status.
// responses:
//   200: transitionResponse

// The normalized outcome of a status transition attempt.
// swagger:response transitionResponse
type transitionResponseWrapper struct {
	// in:body
	Body workflow.TransitionResult
}

// swagger:route GET /api/v1/report/{report_id}/timeline report reportTimeline
// Returns the status timeline of a report with human readable durations.
// responses:
//   200: timelineResponse

// The chronological status history of a report.
// swagger:response timelineResponse
type timelineResponseWrapper struct {
	// in:body
	Body []workflow.TimelineEntry
}

// swagger:route GET /api/v1/reports/metrics report reportMetrics
// Computes workflow performance metrics over all reports.
// responses:
//   200: metricsResponse

// Aggregated workflow metrics for the dispatch dashboard.
// swagger:response metricsResponse
type metricsResponseWrapper struct {
	// in:body
	Body workflow.MetricsSummary
}
