package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civiguard/citizen-report-api/models"
	"github.com/civiguard/citizen-report-api/workflow"
)

const reportName = "reports"

// ReportDatabase contains the methods to use with the report database. It
// also satisfies workflow.ReportStore so the workflow engine can run its
// transactional read-modify-write against this collection.
type ReportDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Report, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Report, error)
	InsertOne(context.Context, models.Report, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetByID(ctx context.Context, reportID string) (*models.Report, error)
	Save(ctx context.Context, report *models.Report) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

func (c *reportDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Report, error) {
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOne(ctx, filter, opts...).Decode(&report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *reportDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Report, error) {
	var reports []models.Report
	curr, err := c.db.Collection(reportName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *reportDatabase) InsertOne(ctx context.Context, report models.Report, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(reportName).InsertOne(ctx, report, opts...)
}

func (c *reportDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(reportName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *reportDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(reportName).CountDocuments(ctx, filter, opts...)
}

// GetByID looks up a report by its hex object id. A missing document maps to
// workflow.ErrReportNotFound so the engine can fail fast without leaking
// driver errors.
func (c *reportDatabase) GetByID(ctx context.Context, reportID string) (*models.Report, error) {
	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		return nil, workflow.ErrReportNotFound
	}
	report, err := c.FindOne(ctx, bson.M{"_id": rID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, workflow.ErrReportNotFound
	}
	return report, err
}

// Save replaces the whole report document. Callers are expected to hold a
// transaction started by RunTransaction.
func (c *reportDatabase) Save(ctx context.Context, report *models.Report) error {
	_, err := c.db.Collection(reportName).ReplaceOne(ctx, bson.M{"_id": report.ID}, report)
	return err
}

// RunTransaction executes fn inside a mongo transaction. The driver re-runs
// the callback on transient transaction errors, which gives concurrent
// transitions on the same report their serialization.
func (c *reportDatabase) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := c.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
