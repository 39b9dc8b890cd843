package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/civiguard/citizen-report-api/databases"
	"github.com/civiguard/citizen-report-api/models"
	templates "github.com/civiguard/citizen-report-api/templates/html"
	"github.com/civiguard/citizen-report-api/workflow"
)

// Scheduler handles periodic background jobs for the case workflow
type Scheduler struct {
	cron       *cron.Cron
	RDB        databases.ReportDatabase
	Engine     *workflow.Manager
	UDB        databases.UserDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	rDB databases.ReportDatabase,
	engine *workflow.Manager,
	uDB databases.UserDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		RDB:        rDB,
		Engine:     engine,
		UDB:        uDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep open cases for blown SLAs every 30 minutes
	_, err := s.cron.AddFunc("*/30 * * * *", s.sweepOverdueReports)
	if err != nil {
		zap.S().Errorw("failed to register overdue sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Case workflow scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Case workflow scheduler stopped")
}

// sweepOverdueReports scans open cases for blown SLAs and emails the
// supervisors a digest
func (s *Scheduler) sweepOverdueReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "overdue_report_sweep", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for overdue sweep", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Overdue sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "overdue_report_sweep", s.instanceID)

	zap.S().Infow("Running overdue report sweep", "instance", s.instanceID)

	// Terminal cases are never overdue, skip them at the query level
	filter := bson.M{
		"status": bson.M{"$nin": []models.CaseStatus{models.StatusRejected, models.StatusArchived}},
	}
	reports, err := s.RDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find open reports", "error", err)
		return
	}

	var overdue []templates.OverdueCase
	for i := range reports {
		report := &reports[i]
		if !s.Engine.IsReportOverdue(report) {
			continue
		}
		hours, _ := workflow.SLAHours(report.Status)
		overdue = append(overdue, templates.OverdueCase{
			ReportID:        report.ID.Hex(),
			Title:           report.Title,
			Status:          string(report.Status),
			SLAHours:        hours,
			SuggestedAction: workflow.SuggestedAction(report.Status),
		})
	}

	if len(overdue) == 0 {
		zap.S().Infow("Overdue report sweep complete", "checked", len(reports), "overdue", 0)
		return
	}

	s.notifySupervisors(ctx, overdue)

	zap.S().Infow("Overdue report sweep complete",
		"checked", len(reports),
		"overdue", len(overdue),
	)
}

// notifySupervisors emails the overdue digest to every active supervisor and admin
func (s *Scheduler) notifySupervisors(ctx context.Context, overdue []templates.OverdueCase) {
	supervisors, err := s.UDB.Find(ctx, bson.M{
		"user.role":   bson.M{"$in": []models.UserRole{models.RoleSupervisor, models.RoleAdmin}},
		"user.active": true,
	})
	if err != nil {
		zap.S().Errorw("failed to find supervisors for overdue digest", "error", err)
		return
	}

	for _, supervisor := range supervisors {
		if supervisor.Details.Email == "" {
			continue
		}
		subject := fmt.Sprintf("Overdue Case Alert: %d case(s) need attention - CiviGuard", len(overdue))
		htmlContent := templates.RenderOverdueCaseAlertEmail(supervisor.Details.Name, overdue)
		plainText := fmt.Sprintf("%d case(s) have exceeded their response time target. Please review the dispatch dashboard.", len(overdue))

		if err := s.sendEmail(supervisor.Details.Email, supervisor.Details.Name, subject, htmlContent, plainText); err != nil {
			zap.S().Errorw("failed to send overdue digest", "error", err, "email", supervisor.Details.Email)
		}
	}
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("CiviGuard", "no-reply@civiguard.io")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
