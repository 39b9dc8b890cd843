package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civiguard/citizen-report-api/models"
	"github.com/civiguard/citizen-report-api/workflow"
)

func historyEntry(status, previous models.CaseStatus, at time.Time) models.StatusHistoryEntry {
	return models.StatusHistoryEntry{
		ID:             primitive.NewObjectID().Hex(),
		Status:         status,
		PreviousStatus: previous,
		Timestamp:      primitive.NewDateTimeFromTime(at),
		OfficerID:      "officer-1",
		OfficerRole:    models.RoleInvestigator,
		Notes:          "note",
	}
}

func TestGetAvailableTransitionsChecksAuthorizationOnly(t *testing.T) {
	// a desk officer can validate or reject a pending report even before
	// the triage form is filled in
	available := workflow.GetAvailableTransitions(models.StatusPending, models.RoleDeskOfficer)
	assert.ElementsMatch(t, []models.CaseStatus{models.StatusValidated, models.StatusRejected}, available)

	// an investigator can neither validate nor triage-reject
	available = workflow.GetAvailableTransitions(models.StatusPending, models.RoleInvestigator)
	assert.Empty(t, available)

	// supervisors see both closing and reopening on resolved cases
	available = workflow.GetAvailableTransitions(models.StatusResolved, models.RoleSupervisor)
	assert.ElementsMatch(t, []models.CaseStatus{models.StatusClosed, models.StatusInvestigating}, available)

	// investigators get nothing on a resolved case
	available = workflow.GetAvailableTransitions(models.StatusResolved, models.RoleInvestigator)
	assert.Empty(t, available)
}

func TestGetAvailableTransitionsTerminalStatuses(t *testing.T) {
	assert.Empty(t, workflow.GetAvailableTransitions(models.StatusArchived, models.RoleAdmin))
	assert.Empty(t, workflow.GetAvailableTransitions(models.StatusRejected, models.RoleAdmin))
}

func TestGetStatusTimelineEmptyHistory(t *testing.T) {
	assert.Empty(t, workflow.GetStatusTimeline(nil))
	assert.Empty(t, workflow.GetStatusTimeline([]models.StatusHistoryEntry{}))
}

func TestGetStatusTimelineDurations(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	history := []models.StatusHistoryEntry{
		historyEntry(models.StatusValidated, models.StatusPending, t0),
		historyEntry(models.StatusAssigned, models.StatusValidated, t0.Add(45*time.Second)),
		historyEntry(models.StatusAccepted, models.StatusAssigned, t0.Add(30*time.Minute)),
		historyEntry(models.StatusInvestigating, models.StatusResponding, t0.Add(4*time.Hour)),
		historyEntry(models.StatusResolved, models.StatusInvestigating, t0.Add(50*time.Hour)),
	}

	timeline := workflow.GetStatusTimeline(history)

	assert.Len(t, timeline, 5)
	assert.Empty(t, timeline[0].Duration)
	assert.Equal(t, "45s", timeline[1].Duration)
	assert.Equal(t, "29m", timeline[2].Duration)
	assert.Equal(t, "3h 30m", timeline[3].Duration)
	assert.Equal(t, "1d 22h", timeline[4].Duration)
}

func TestGetStatusTimelineSortsAndDoesNotMutate(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// out of construction order, as concurrent writers may leave it
	history := []models.StatusHistoryEntry{
		historyEntry(models.StatusAssigned, models.StatusValidated, t0.Add(time.Hour)),
		historyEntry(models.StatusValidated, models.StatusPending, t0),
	}

	timeline := workflow.GetStatusTimeline(history)

	assert.Equal(t, models.StatusValidated, timeline[0].Status)
	assert.Equal(t, models.StatusAssigned, timeline[1].Status)
	// input order untouched
	assert.Equal(t, models.StatusAssigned, history[0].Status)

	// pure: a second call yields the same projection
	assert.Equal(t, timeline, workflow.GetStatusTimeline(history))
}

func TestIsReportOverdueUsesLastHistoryEntry(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := t0.Add(40 * time.Hour)
	manager := workflow.NewManagerWithClock(newFakeStore(), func() time.Time { return now })

	report := &models.Report{
		Status:    models.StatusResolved,
		CreatedAt: primitive.NewDateTimeFromTime(t0.Add(-100 * time.Hour)),
		StatusHistory: []models.StatusHistoryEntry{
			historyEntry(models.StatusResolved, models.StatusInvestigating, t0.Add(10*time.Hour)),
		},
	}

	// resolved SLA is 24h; last entry is 30h old
	assert.True(t, manager.IsReportOverdue(report))
	assert.Equal(t, "Review and close the case", workflow.SuggestedAction(report.Status))

	// within SLA when the entry is recent
	report.StatusHistory[0].Timestamp = primitive.NewDateTimeFromTime(now.Add(-2 * time.Hour))
	assert.False(t, manager.IsReportOverdue(report))
}

func TestIsReportOverdueFallsBackToCreationTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	manager := workflow.NewManagerWithClock(newFakeStore(), func() time.Time { return now })

	report := &models.Report{
		Status:    models.StatusPending,
		CreatedAt: primitive.NewDateTimeFromTime(now.Add(-5 * time.Hour)),
	}
	assert.True(t, manager.IsReportOverdue(report)) // pending SLA is 4h

	report.CreatedAt = primitive.NewDateTimeFromTime(now.Add(-3 * time.Hour))
	assert.False(t, manager.IsReportOverdue(report))
}

func TestIsReportOverdueTerminalStatusesNever(t *testing.T) {
	now := time.Now()
	manager := workflow.NewManagerWithClock(newFakeStore(), func() time.Time { return now })

	for _, status := range []models.CaseStatus{models.StatusRejected, models.StatusArchived} {
		report := &models.Report{
			Status:    status,
			CreatedAt: primitive.NewDateTimeFromTime(now.Add(-10000 * time.Hour)),
		}
		assert.False(t, manager.IsReportOverdue(report))
	}
	assert.False(t, manager.IsReportOverdue(nil))
}

func TestGetPerformanceMetricsEmptyInput(t *testing.T) {
	manager := workflow.NewManager(newFakeStore())

	summary := manager.GetPerformanceMetrics(nil)

	assert.Zero(t, summary.TotalReports)
	assert.Zero(t, summary.OverdueCount)
	assert.Empty(t, summary.StatusDistribution)
	assert.Nil(t, summary.AvgAssignToAcceptMinutes)
	assert.Nil(t, summary.AvgAcceptToResolveHours)
}

func TestGetPerformanceMetricsAverages(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := t0.Add(time.Hour)
	manager := workflow.NewManagerWithClock(newFakeStore(), func() time.Time { return now })

	reportA := models.Report{
		Status:    models.StatusResolved,
		CreatedAt: primitive.NewDateTimeFromTime(t0),
		StatusHistory: []models.StatusHistoryEntry{
			historyEntry(models.StatusAssigned, models.StatusValidated, t0),
			historyEntry(models.StatusAccepted, models.StatusAssigned, t0.Add(10*time.Minute)),
			historyEntry(models.StatusResolved, models.StatusInvestigating, t0.Add(10*time.Minute+6*time.Hour)),
		},
	}
	reportB := models.Report{
		Status:    models.StatusResolved,
		CreatedAt: primitive.NewDateTimeFromTime(t0),
		StatusHistory: []models.StatusHistoryEntry{
			historyEntry(models.StatusAssigned, models.StatusValidated, t0),
			historyEntry(models.StatusAccepted, models.StatusAssigned, t0.Add(30*time.Minute)),
			historyEntry(models.StatusResolved, models.StatusInvestigating, t0.Add(30*time.Minute+2*time.Hour)),
		},
	}
	reportC := models.Report{
		Status:    models.StatusPending,
		CreatedAt: primitive.NewDateTimeFromTime(t0),
	}

	summary := manager.GetPerformanceMetrics([]models.Report{reportA, reportB, reportC})

	assert.Equal(t, 3, summary.TotalReports)
	assert.Equal(t, 2, summary.StatusDistribution[models.StatusResolved])
	assert.Equal(t, 1, summary.StatusDistribution[models.StatusPending])

	if assert.NotNil(t, summary.AvgAssignToAcceptMinutes) {
		assert.InDelta(t, 20.0, *summary.AvgAssignToAcceptMinutes, 0.01)
	}
	if assert.NotNil(t, summary.AvgAcceptToResolveHours) {
		assert.InDelta(t, 4.0, *summary.AvgAcceptToResolveHours, 0.01)
	}
}

func TestGetPerformanceMetricsCountsOverdue(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := t0.Add(30 * time.Hour)
	manager := workflow.NewManagerWithClock(newFakeStore(), func() time.Time { return now })

	overdue := models.Report{
		Status:    models.StatusResolved,
		CreatedAt: primitive.NewDateTimeFromTime(t0),
		StatusHistory: []models.StatusHistoryEntry{
			historyEntry(models.StatusResolved, models.StatusInvestigating, t0),
		},
	}
	fresh := models.Report{
		Status:    models.StatusInvestigating,
		CreatedAt: primitive.NewDateTimeFromTime(t0),
		StatusHistory: []models.StatusHistoryEntry{
			historyEntry(models.StatusInvestigating, models.StatusResponding, t0.Add(29*time.Hour)),
		},
	}

	summary := manager.GetPerformanceMetrics([]models.Report{overdue, fresh})
	assert.Equal(t, 1, summary.OverdueCount)
}

func TestSLAHours(t *testing.T) {
	hours, ok := workflow.SLAHours(models.StatusInvestigating)
	assert.True(t, ok)
	assert.Equal(t, 48, hours)

	_, ok = workflow.SLAHours(models.StatusArchived)
	assert.False(t, ok)
}
