package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseStatus is the lifecycle state of a crime report
type CaseStatus string

// All case statuses a report can be in
const (
	StatusPending       CaseStatus = "pending"
	StatusValidated     CaseStatus = "validated"
	StatusAssigned      CaseStatus = "assigned"
	StatusAccepted      CaseStatus = "accepted"
	StatusResponding    CaseStatus = "responding"
	StatusInvestigating CaseStatus = "investigating"
	StatusResolved      CaseStatus = "resolved"
	StatusClosed        CaseStatus = "closed"
	StatusArchived      CaseStatus = "archived"
	StatusRejected      CaseStatus = "rejected"
)

// UserRole is the role an officer acts under when working a case
type UserRole string

// All roles known to the workflow engine
const (
	RoleAdmin        UserRole = "admin"
	RoleSupervisor   UserRole = "supervisor"
	RoleInvestigator UserRole = "investigator"
	RoleDeskOfficer  UserRole = "desk_officer"
	RoleOfficer      UserRole = "officer"
)

// GeoLocation holds the coordinates of the actor at transition time
type GeoLocation struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// StatusHistoryEntry is an immutable audit record appended on every successful
// status transition. Entries are never mutated or deleted.
type StatusHistoryEntry struct {
	ID             string                 `bson:"id" json:"id"`
	Status         CaseStatus             `bson:"status" json:"status"`
	PreviousStatus CaseStatus             `bson:"previousStatus" json:"previousStatus"`
	Timestamp      primitive.DateTime     `bson:"timestamp" json:"timestamp"`
	OfficerID      string                 `bson:"officerId" json:"officerId"`
	OfficerRole    UserRole               `bson:"officerRole" json:"officerRole"`
	Notes          string                 `bson:"notes" json:"notes"`
	Location       *GeoLocation           `bson:"location,omitempty" json:"location,omitempty"`
	Metadata       map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Report holds the structure for the report collection in mongo. The status,
// statusHistory, currentOfficerId, investigationStartedAt and
// investigationDuration fields are written only by the workflow engine.
type Report struct {
	ID                     primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Title                  string               `bson:"title" json:"title"`
	Description            string               `bson:"description" json:"description"`
	Category               string               `bson:"category" json:"category"`
	Address                string               `bson:"address,omitempty" json:"address,omitempty"`
	Location               *GeoLocation         `bson:"location,omitempty" json:"location,omitempty"`
	ReporterID             string               `bson:"reporterId" json:"reporterId"`
	ReporterName           string               `bson:"reporterName" json:"reporterName"`
	IsAnonymous            bool                 `bson:"isAnonymous" json:"isAnonymous"`
	EvidenceURLs           []string             `bson:"evidenceUrls,omitempty" json:"evidenceUrls,omitempty"`
	Status                 CaseStatus           `bson:"status" json:"status"`
	StatusHistory          []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	CurrentOfficerID       string               `bson:"currentOfficerId,omitempty" json:"currentOfficerId,omitempty"`
	InvestigationStartedAt *primitive.DateTime  `bson:"investigationStartedAt,omitempty" json:"investigationStartedAt,omitempty"`
	InvestigationDuration  *int                 `bson:"investigationDuration,omitempty" json:"investigationDuration,omitempty"`
	CreatedAt              primitive.DateTime   `bson:"createdAt" json:"createdAt"`
	UpdatedAt              primitive.DateTime   `bson:"updatedAt" json:"updatedAt"`
}
