package workflow

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civiguard/citizen-report-api/models"
)

// TimelineEntry is a read-only projection of one history entry plus the time
// spent since the previous one
type TimelineEntry struct {
	Status         models.CaseStatus  `json:"status"`
	PreviousStatus models.CaseStatus  `json:"previousStatus"`
	Timestamp      primitive.DateTime `json:"timestamp"`
	OfficerID      string             `json:"officerId"`
	OfficerRole    models.UserRole    `json:"officerRole"`
	Notes          string             `json:"notes"`
	Duration       string             `json:"duration,omitempty"`
}

// MetricsSummary aggregates workflow health over a batch of reports
type MetricsSummary struct {
	TotalReports             int                       `json:"totalReports"`
	StatusDistribution       map[models.CaseStatus]int `json:"statusDistribution"`
	OverdueCount             int                       `json:"overdueCount"`
	AvgAssignToAcceptMinutes *float64                  `json:"avgAssignToAcceptMinutes,omitempty"`
	AvgAcceptToResolveHours  *float64                  `json:"avgAcceptToResolveHours,omitempty"`
}

// suggestedActions nudges the responsible role when a report sits in a
// status past its SLA
var suggestedActions = map[models.CaseStatus]string{
	models.StatusPending:       "Validate or reject the report",
	models.StatusValidated:     "Assign an investigator",
	models.StatusAssigned:      "Accept the assignment",
	models.StatusAccepted:      "Begin the response",
	models.StatusResponding:    "Start the investigation",
	models.StatusInvestigating: "Resolve the investigation",
	models.StatusResolved:      "Review and close the case",
	models.StatusClosed:        "Archive the case",
}

// GetAvailableTransitions returns the reachable statuses the actor role is
// authorized to execute from the current status. Field completeness is
// deliberately not checked here: the field values are only known once the
// user fills the transition form, so a status returned as available can
// still fail at commit time with a missing-fields error.
func GetAvailableTransitions(current models.CaseStatus, role models.UserRole) []models.CaseStatus {
	available := []models.CaseStatus{}
	for _, target := range statusTransitions[current] {
		if HasCapability(role, RequiredRoleFor(current, target)) {
			available = append(available, target)
		}
	}
	return available
}

// GetStatusTimeline projects a status history into display order with
// human-readable durations between entries. The input is never mutated;
// entries are re-sorted by timestamp since concurrent writers may have
// appended out of order.
func GetStatusTimeline(history []models.StatusHistoryEntry) []TimelineEntry {
	sorted := make([]models.StatusHistoryEntry, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	timeline := make([]TimelineEntry, 0, len(sorted))
	for i, entry := range sorted {
		te := TimelineEntry{
			Status:         entry.Status,
			PreviousStatus: entry.PreviousStatus,
			Timestamp:      entry.Timestamp,
			OfficerID:      entry.OfficerID,
			OfficerRole:    entry.OfficerRole,
			Notes:          entry.Notes,
		}
		if i > 0 {
			te.Duration = formatDuration(entry.Timestamp.Time().Sub(sorted[i-1].Timestamp.Time()))
		}
		timeline = append(timeline, te)
	}
	return timeline
}

// IsReportOverdue reports whether the time since the last status change
// exceeds the SLA for the report's current status. The baseline is the most
// recent history entry, or the report's creation time if there is none.
func (m *Manager) IsReportOverdue(report *models.Report) bool {
	if report == nil {
		return false
	}
	hours, ok := statusSLAHours[report.Status]
	if !ok {
		return false
	}

	baseline := report.CreatedAt
	for _, entry := range report.StatusHistory {
		if entry.Timestamp > baseline {
			baseline = entry.Timestamp
		}
	}
	return m.now().Sub(baseline.Time()) > time.Duration(hours)*time.Hour
}

// SuggestedAction names the next step for a report stuck in the given status
func SuggestedAction(status models.CaseStatus) string {
	return suggestedActions[status]
}

// SLAHours returns the SLA for a status and whether one applies
func SLAHours(status models.CaseStatus) (int, bool) {
	hours, ok := statusSLAHours[status]
	return hours, ok
}

// GetPerformanceMetrics computes batch workflow metrics: status distribution,
// overdue count and mean transition times. Averages are omitted when no
// report contributed a sample. Empty input yields zeroed metrics.
func (m *Manager) GetPerformanceMetrics(reports []models.Report) MetricsSummary {
	summary := MetricsSummary{
		StatusDistribution: map[models.CaseStatus]int{},
	}

	var assignToAccept, acceptToResolve []time.Duration
	for i := range reports {
		report := &reports[i]
		summary.TotalReports++
		summary.StatusDistribution[report.Status]++
		if m.IsReportOverdue(report) {
			summary.OverdueCount++
		}

		entered := map[models.CaseStatus]time.Time{}
		for _, te := range GetStatusTimeline(report.StatusHistory) {
			if _, seen := entered[te.Status]; !seen {
				entered[te.Status] = te.Timestamp.Time()
			}
		}
		if assignedAt, ok := entered[models.StatusAssigned]; ok {
			if acceptedAt, ok := entered[models.StatusAccepted]; ok && acceptedAt.After(assignedAt) {
				assignToAccept = append(assignToAccept, acceptedAt.Sub(assignedAt))
			}
		}
		if acceptedAt, ok := entered[models.StatusAccepted]; ok {
			if resolvedAt, ok := entered[models.StatusResolved]; ok && resolvedAt.After(acceptedAt) {
				acceptToResolve = append(acceptToResolve, resolvedAt.Sub(acceptedAt))
			}
		}
	}

	if len(assignToAccept) > 0 {
		minutes := meanDuration(assignToAccept).Minutes()
		summary.AvgAssignToAcceptMinutes = &minutes
	}
	if len(acceptToResolve) > 0 {
		hours := meanDuration(acceptToResolve).Hours()
		summary.AvgAcceptToResolveHours = &hours
	}
	return summary
}

func meanDuration(samples []time.Duration) time.Duration {
	var total time.Duration
	for _, s := range samples {
		total += s
	}
	return total / time.Duration(len(samples))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
