package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/civiguard/citizen-report-api/api"
	"github.com/civiguard/citizen-report-api/api/scheduler"
	"github.com/civiguard/citizen-report-api/config"
	"github.com/civiguard/citizen-report-api/databases"
	"github.com/civiguard/citizen-report-api/models"
	"github.com/civiguard/citizen-report-api/workflow"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	reportDB := databases.NewReportDatabase(a.dbHelper)
	engine := workflow.NewManager(reportDB)
	feed := NewCaseFeed()

	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	report := Report{RDB: reportDB, Engine: engine, Feed: feed}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/login", http.HandlerFunc(u.LoginHandler)).Methods("POST")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/report", api.Middleware(http.HandlerFunc(report.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/report/{report_id}", api.Middleware(http.HandlerFunc(report.ReportByIDHandler))).Methods("GET")
	apiCreate.Handle("/report/{report_id}/transition", api.Middleware(http.HandlerFunc(report.TransitionReportHandler))).Methods("POST")
	apiCreate.Handle("/report/{report_id}/transitions", api.Middleware(http.HandlerFunc(report.AvailableTransitionsHandler))).Methods("GET")
	apiCreate.Handle("/report/{report_id}/timeline", api.Middleware(http.HandlerFunc(report.ReportTimelineHandler))).Methods("GET")
	apiCreate.Handle("/report/{report_id}/overdue", api.Middleware(http.HandlerFunc(report.ReportOverdueHandler))).Methods("GET")
	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(report.ReportHandler))).Methods("GET")
	apiCreate.Handle("/reports/metrics", api.Middleware(http.HandlerFunc(report.ReportMetricsHandler))).Methods("GET")
	apiCreate.Handle("/reports/user/{user_id}", api.Middleware(http.HandlerFunc(report.ReportsByUserIDHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	r.HandleFunc("/ws/cases", feed.HandleCaseFeedWebSocket)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("citizen-report-api has connected to the database")

	// start the overdue report sweep
	reportDB := databases.NewReportDatabase(a.dbHelper)
	a.scheduler = scheduler.NewScheduler(
		reportDB,
		workflow.NewManager(reportDB),
		databases.NewUserDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
