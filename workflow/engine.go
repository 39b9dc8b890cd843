package workflow

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civiguard/citizen-report-api/models"
)

// ErrReportNotFound is returned by a ReportStore when the report id does not
// resolve to a document
var ErrReportNotFound = errors.New("report not found")

// ReportStore is the narrow document-store surface the engine needs. The
// mongo-backed implementation lives in the databases package; tests use an
// in-memory fake. RunTransaction must provide atomicity for the enclosed
// read-modify-write and retry on store-level conflicts.
type ReportStore interface {
	GetByID(ctx context.Context, reportID string) (*models.Report, error)
	Save(ctx context.Context, report *models.Report) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransitionRequest is the caller-facing input to PerformTransition
type TransitionRequest struct {
	ReportID      string                 `json:"reportId"`
	CurrentUserID string                 `json:"currentUserId"`
	UserRole      models.UserRole        `json:"userRole"`
	Notes         string                 `json:"notes"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Location      *models.GeoLocation    `json:"location,omitempty"`
}

// TransitionResult is the normalized outcome of PerformTransition. Failures
// of every kind land in ErrorMessage; no error escapes to the caller.
type TransitionResult struct {
	Success         bool              `json:"success"`
	NewStatus       models.CaseStatus `json:"newStatus,omitempty"`
	StatusHistoryID string            `json:"statusHistoryId,omitempty"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
}

// Manager executes case status transitions against the report store. It is
// the single writer of status, statusHistory, currentOfficerId,
// investigationStartedAt and investigationDuration.
type Manager struct {
	store ReportStore
	now   func() time.Time
}

// NewManager creates a workflow manager on top of the given store
func NewManager(store ReportStore) *Manager {
	return NewManagerWithClock(store, time.Now)
}

// NewManagerWithClock creates a workflow manager with a custom time source
func NewManagerWithClock(store ReportStore, now func() time.Time) *Manager {
	return &Manager{
		store: store,
		now:   now,
	}
}

// PerformTransition moves a report to its next status inside a single
// transaction: load, resolve the target status, validate, append a history
// entry and update the derived fields. Any failure aborts the whole write.
func (m *Manager) PerformTransition(ctx context.Context, req TransitionRequest) TransitionResult {
	if req.ReportID == "" {
		return TransitionResult{ErrorMessage: "reportId is required"}
	}

	var result TransitionResult
	err := m.store.RunTransaction(ctx, func(ctx context.Context) error {
		report, err := m.store.GetByID(ctx, req.ReportID)
		if err != nil {
			return err
		}

		target := DefaultNextStatus(report.Status)
		if s, ok := req.Metadata["targetStatus"].(string); ok && s != "" {
			target = models.CaseStatus(s)
		}

		fields := FieldValues{"notes": req.Notes}
		if s, ok := req.Metadata["assignedTo"].(string); ok {
			fields["assignedTo"] = s
		}
		if s, ok := req.Metadata["triageLevel"].(string); ok {
			fields["triageLevel"] = s
		}

		validation := ValidateTransition(report.Status, target, req.UserRole, fields)
		if !validation.IsValid {
			return errors.New(validation.ErrorMessage)
		}

		nowTime := m.now()
		now := primitive.NewDateTimeFromTime(nowTime)
		entry := models.StatusHistoryEntry{
			ID:             uuid.New().String(),
			Status:         target,
			PreviousStatus: report.Status,
			Timestamp:      now,
			OfficerID:      req.CurrentUserID,
			OfficerRole:    req.UserRole,
			Notes:          req.Notes,
			Location:       req.Location,
			Metadata:       req.Metadata,
		}
		report.StatusHistory = append(report.StatusHistory, entry)
		report.Status = target
		report.UpdatedAt = now

		report.CurrentOfficerID = req.CurrentUserID
		if target == models.StatusAssigned {
			if assignee, ok := req.Metadata["assignedTo"].(string); ok && assignee != "" {
				report.CurrentOfficerID = assignee
			}
		}
		if target == models.StatusInvestigating && report.InvestigationStartedAt == nil {
			report.InvestigationStartedAt = &now
		}
		if target == models.StatusResolved && report.InvestigationStartedAt != nil {
			hours := int(math.Round(nowTime.Sub(report.InvestigationStartedAt.Time()).Hours()))
			report.InvestigationDuration = &hours
		}

		if err := m.store.Save(ctx, report); err != nil {
			return err
		}
		result = TransitionResult{
			Success:         true,
			NewStatus:       target,
			StatusHistoryID: entry.ID,
		}
		return nil
	})
	if err != nil {
		zap.S().Errorw("case status transition failed",
			"reportId", req.ReportID,
			"officerId", req.CurrentUserID,
			"error", err,
		)
		return TransitionResult{ErrorMessage: err.Error()}
	}

	zap.S().Infow("case status transition committed",
		"reportId", req.ReportID,
		"newStatus", result.NewStatus,
		"officerId", req.CurrentUserID,
	)
	return result
}
