package workflow

import (
	"fmt"
	"strings"

	"github.com/civiguard/citizen-report-api/models"
)

// FieldValues carries the form fields supplied with a transition attempt.
// An absent or empty value counts as missing.
type FieldValues map[string]string

// ValidationResult is the structured outcome of a transition validation.
// It is always returned, never thrown; ErrorMessage is set iff IsValid is false.
type ValidationResult struct {
	IsValid       bool              `json:"isValid"`
	CurrentStatus models.CaseStatus `json:"currentStatus"`
	TargetStatus  models.CaseStatus `json:"targetStatus"`
	RequiredRole  models.UserRole   `json:"requiredRole,omitempty"`
	MissingFields []string          `json:"missingFields,omitempty"`
	ErrorMessage  string            `json:"errorMessage,omitempty"`
}

// ValidateTransition decides whether the actor may move a report from one
// status to another with the supplied fields. Checks run in order and
// short-circuit: reachability, then authorization, then field completeness.
// It performs no I/O.
func ValidateTransition(from, to models.CaseStatus, role models.UserRole, fields FieldValues) ValidationResult {
	result := ValidationResult{
		CurrentStatus: from,
		TargetStatus:  to,
	}

	if !CanTransition(from, to) {
		result.ErrorMessage = fmt.Sprintf("invalid transition from %s to %s", from, to)
		return result
	}

	required := RequiredRoleFor(from, to)
	result.RequiredRole = required
	if !HasCapability(role, required) {
		result.ErrorMessage = fmt.Sprintf("role %s is not authorized for this transition, requires %s", role, required)
		return result
	}

	var missing []string
	for _, name := range RequiredFieldsFor(from, to) {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		result.MissingFields = missing
		result.ErrorMessage = fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", "))
		return result
	}

	result.IsValid = true
	return result
}
