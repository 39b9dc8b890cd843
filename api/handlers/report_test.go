package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civiguard/citizen-report-api/api/handlers"
	mocksdb "github.com/civiguard/citizen-report-api/databases/mocks"
	"github.com/civiguard/citizen-report-api/models"
	"github.com/civiguard/citizen-report-api/workflow"
)

func newReportHandler(rdb *mocksdb.ReportDatabase) handlers.Report {
	return handlers.Report{
		RDB:    rdb,
		Engine: workflow.NewManager(rdb),
		Feed:   handlers.NewCaseFeed(),
	}
}

func passThroughTransaction(rdb *mocksdb.ReportDatabase) {
	rdb.On("RunTransaction", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		})
}

func TestReport_ReportByIDHandlerInvalidHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/report/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": "1234"})

	rdb := &mocksdb.ReportDatabase{}
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportByIDHandler)
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"response": "failed to get objectID from Hex, the provided hex string is not a valid ObjectID"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: \ngot: %v \nwant: %v", rr.Body.String(), expected)
	}
}

func TestReport_ReportByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/report/5fc51f58c72ff10004dca382", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": "5fc51f58c72ff10004dca382"})

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("mongo: no documents in result"))
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportByIDHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReport_ReportByIDHandlerSuccess(t *testing.T) {
	rID, _ := primitive.ObjectIDFromHex("5fc51f58c72ff10004dca382")
	req, err := http.NewRequest("GET", "/api/v1/report/5fc51f58c72ff10004dca382", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": "5fc51f58c72ff10004dca382"})

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{
		ID:     rID,
		Title:  "Stolen bicycle",
		Status: models.StatusPending,
	}, nil)
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportByIDHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "5fc51f58c72ff10004dca382")
	assert.Contains(t, rr.Body.String(), "Stolen bicycle")
}

func TestReport_CreateReportHandlerStartsPending(t *testing.T) {
	body := map[string]interface{}{
		"title":       "Vandalism at the park",
		"description": "Graffiti on the north wall",
		"category":    "vandalism",
		"reporterId":  "user-77",
		// clients cannot pick their own starting status
		"status": "resolved",
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequest("POST", "/api/v1/report", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	var inserted models.Report
	rdb := &mocksdb.ReportDatabase{}
	rdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.Report)
	})
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateReportHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.StatusPending, inserted.Status)
	assert.Empty(t, inserted.StatusHistory)
	assert.False(t, inserted.ID.IsZero())
	rdb.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestReport_CreateReportHandlerBadBody(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/report", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}

	rdb := &mocksdb.ReportDatabase{}
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateReportHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestReport_TransitionReportHandlerSuccess(t *testing.T) {
	rID := primitive.NewObjectID()
	report := &models.Report{
		ID:        rID,
		Title:     "Break-in report",
		Status:    models.StatusPending,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	rdb := &mocksdb.ReportDatabase{}
	passThroughTransaction(rdb)
	rdb.On("GetByID", mock.Anything, rID.Hex()).Return(report, nil)
	rdb.On("Save", mock.Anything, mock.Anything).Return(nil)
	u := newReportHandler(rdb)

	body, _ := json.Marshal(map[string]interface{}{
		"currentUserId": "officer-1",
		"userRole":      "desk_officer",
		"notes":         "verified with the caller",
		"metadata":      map[string]interface{}{"triageLevel": "high"},
	})
	req, err := http.NewRequest("POST", "/api/v1/report/"+rID.Hex()+"/transition", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": rID.Hex()})

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.TransitionReportHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var result workflow.TransitionResult
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, models.StatusValidated, result.NewStatus)
	assert.NotEmpty(t, result.StatusHistoryID)
}

func TestReport_TransitionReportHandlerUnauthorizedRole(t *testing.T) {
	rID := primitive.NewObjectID()
	report := &models.Report{
		ID:        rID,
		Status:    models.StatusPending,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	rdb := &mocksdb.ReportDatabase{}
	passThroughTransaction(rdb)
	rdb.On("GetByID", mock.Anything, rID.Hex()).Return(report, nil)
	u := newReportHandler(rdb)

	body, _ := json.Marshal(map[string]interface{}{
		"currentUserId": "officer-2",
		"userRole":      "officer",
		"notes":         "trying to validate",
		"metadata":      map[string]interface{}{"triageLevel": "low"},
	})
	req, err := http.NewRequest("POST", "/api/v1/report/"+rID.Hex()+"/transition", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": rID.Hex()})

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.TransitionReportHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var result workflow.TransitionResult
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "not authorized")
	rdb.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReport_AvailableTransitionsHandler(t *testing.T) {
	rID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/report/"+rID.Hex()+"/transitions?role=desk_officer", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": rID.Hex()})

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{
		ID:     rID,
		Status: models.StatusPending,
	}, nil)
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AvailableTransitionsHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		CurrentStatus        models.CaseStatus   `json:"currentStatus"`
		AvailableTransitions []models.CaseStatus `json:"availableTransitions"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusPending, resp.CurrentStatus)
	assert.ElementsMatch(t, []models.CaseStatus{models.StatusValidated, models.StatusRejected}, resp.AvailableTransitions)
}

func TestReport_ReportTimelineHandler(t *testing.T) {
	rID := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	req, err := http.NewRequest("GET", "/api/v1/report/"+rID.Hex()+"/timeline", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": rID.Hex()})

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{
		ID:     rID,
		Status: models.StatusAssigned,
		StatusHistory: []models.StatusHistoryEntry{
			{ID: "h1", Status: models.StatusValidated, PreviousStatus: models.StatusPending, Timestamp: primitive.NewDateTimeFromTime(base)},
			{ID: "h2", Status: models.StatusAssigned, PreviousStatus: models.StatusValidated, Timestamp: primitive.NewDateTimeFromTime(base.Add(90 * time.Minute))},
		},
	}, nil)
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportTimelineHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var timeline []workflow.TimelineEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &timeline))
	assert.Len(t, timeline, 2)
	assert.Equal(t, models.StatusValidated, timeline[0].Status)
	assert.Equal(t, "1h 30m", timeline[1].Duration)
}

func TestReport_ReportOverdueHandler(t *testing.T) {
	rID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/report/"+rID.Hex()+"/overdue", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"report_id": rID.Hex()})

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Report{
		ID:        rID,
		Status:    models.StatusPending,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now().Add(-10 * time.Hour)),
	}, nil)
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportOverdueHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Overdue         bool   `json:"overdue"`
		SLAHours        int    `json:"slaHours"`
		SuggestedAction string `json:"suggestedAction"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Overdue)
	assert.Equal(t, 4, resp.SLAHours)
	assert.NotEmpty(t, resp.SuggestedAction)
}

func TestReport_ReportHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/reports?limit=10", nil)
	if err != nil {
		t.Fatal(err)
	}

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Report{}, nil)
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestReport_ReportMetricsHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/reports/metrics", nil)
	if err != nil {
		t.Fatal(err)
	}

	rdb := &mocksdb.ReportDatabase{}
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{ID: primitive.NewObjectID(), Status: models.StatusPending, CreatedAt: primitive.NewDateTimeFromTime(time.Now())},
		{ID: primitive.NewObjectID(), Status: models.StatusResolved, CreatedAt: primitive.NewDateTimeFromTime(time.Now())},
	}, nil)
	u := newReportHandler(rdb)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ReportMetricsHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var metrics workflow.MetricsSummary
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &metrics))
	assert.Equal(t, 2, metrics.TotalReports)
	assert.Equal(t, 1, metrics.StatusDistribution[models.StatusPending])
	assert.Equal(t, 1, metrics.StatusDistribution[models.StatusResolved])
}
