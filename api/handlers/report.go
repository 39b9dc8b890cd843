package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/civiguard/citizen-report-api/api"
	"github.com/civiguard/citizen-report-api/config"
	"github.com/civiguard/citizen-report-api/databases"
	"github.com/civiguard/citizen-report-api/models"
	"github.com/civiguard/citizen-report-api/workflow"
)

// Page holds the current page number parsed from the request
var Page int

// Report exported for testing purposes
type Report struct {
	RDB    databases.ReportDatabase
	Engine *workflow.Manager
	Feed   *CaseFeed
}

func getPage(page int, r *http.Request) int {
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p >= 0 {
			return p
		}
	}
	return 0
}

// CreateReportHandler files a new citizen report. Reports always start in
// pending with an empty status history; only the workflow engine moves them
// from there.
func (v Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	report.ID = primitive.NewObjectID()
	now := primitive.NewDateTimeFromTime(time.Now())
	report.CreatedAt = now
	report.UpdatedAt = now
	report.Status = models.StatusPending
	report.StatusHistory = []models.StatusHistoryEntry{}
	report.CurrentOfficerID = ""
	report.InvestigationStartedAt = nil
	report.InvestigationDuration = nil

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := v.RDB.InsertOne(ctx, report); err != nil {
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	v.Feed.BroadcastCaseEvent("report_created", map[string]interface{}{
		"reportId": report.ID.Hex(),
		"status":   report.Status,
		"category": report.Category,
	})

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ReportByIDHandler returns a report by ID
func (v Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	zap.S().Debugf("report_id: %v", reportID)

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportHandler returns all reports, optionally filtered by status
func (v Report) ReportHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	status := r.URL.Query().Get("status")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := v.RDB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportsByUserIDHandler returns all reports filed by the given user
func (v Report) ReportsByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v", Limit|10))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	zap.S().Debugf("user_id: '%v'", userID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.RDB.Find(ctx, bson.M{"reporterId": userID}, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"_id": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type transitionRequestBody struct {
	CurrentUserID string                 `json:"currentUserId"`
	UserRole      models.UserRole        `json:"userRole"`
	Notes         string                 `json:"notes"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Location      *models.GeoLocation    `json:"location,omitempty"`
}

// TransitionReportHandler moves a report to its next case status through the
// workflow engine. The engine decides the target status, validates role and
// fields, and commits atomically; this handler only shapes the HTTP surface.
func (v Report) TransitionReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	var body transitionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result := v.Engine.PerformTransition(ctx, workflow.TransitionRequest{
		ReportID:      reportID,
		CurrentUserID: body.CurrentUserID,
		UserRole:      body.UserRole,
		Notes:         body.Notes,
		Metadata:      body.Metadata,
		Location:      body.Location,
	})

	b, err := json.Marshal(result)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	if !result.Success {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(b)
		return
	}

	v.Feed.BroadcastCaseEvent("case_status_changed", map[string]interface{}{
		"reportId":        reportID,
		"newStatus":       result.NewStatus,
		"statusHistoryId": result.StatusHistoryID,
		"officerId":       body.CurrentUserID,
	})

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AvailableTransitionsHandler returns the next statuses the acting role may
// move the report to. Field completeness is not checked here; a listed
// status can still fail at commit time if the transition form is incomplete.
func (v Report) AvailableTransitionsHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]
	role := models.UserRole(r.URL.Query().Get("role"))

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	response := map[string]interface{}{
		"currentStatus":        dbResp.Status,
		"role":                 role,
		"availableTransitions": workflow.GetAvailableTransitions(dbResp.Status, role),
	}
	b, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportTimelineHandler returns the human-readable status timeline of a report
func (v Report) ReportTimelineHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(workflow.GetStatusTimeline(dbResp.StatusHistory))
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportOverdueHandler reports whether a report has blown its SLA and what
// should happen next
func (v Report) ReportOverdueHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
		return
	}

	response := map[string]interface{}{
		"reportId": reportID,
		"status":   dbResp.Status,
		"overdue":  v.Engine.IsReportOverdue(dbResp),
	}
	if hours, ok := workflow.SLAHours(dbResp.Status); ok {
		response["slaHours"] = hours
		response["suggestedAction"] = workflow.SuggestedAction(dbResp.Status)
	}

	b, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportMetricsHandler computes workflow metrics over all reports
func (v Report) ReportMetricsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.RDB.Find(ctx, bson.D{})
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(v.Engine.GetPerformanceMetrics(dbResp))
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
