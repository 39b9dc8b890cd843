package workflow

import (
	"github.com/civiguard/citizen-report-api/models"
)

type transitionKey struct {
	from models.CaseStatus
	to   models.CaseStatus
}

// statusTransitions maps each case status to the statuses directly reachable
// from it. Rejected and archived are terminal. Investigating allows a
// self-transition for status-preserving updates.
var statusTransitions = map[models.CaseStatus][]models.CaseStatus{
	models.StatusPending:       {models.StatusValidated, models.StatusRejected},
	models.StatusValidated:     {models.StatusAssigned, models.StatusRejected},
	models.StatusAssigned:      {models.StatusAccepted, models.StatusRejected},
	models.StatusAccepted:      {models.StatusResponding, models.StatusRejected},
	models.StatusResponding:    {models.StatusInvestigating, models.StatusRejected},
	models.StatusInvestigating: {models.StatusResolved, models.StatusInvestigating},
	models.StatusResolved:      {models.StatusClosed, models.StatusInvestigating},
	models.StatusClosed:        {models.StatusArchived, models.StatusInvestigating},
	models.StatusArchived:      {},
	models.StatusRejected:      {},
}

// requiredRoles maps each legal transition to the role capability needed to
// execute it. Pairs not listed fall back via requiredRoleFor.
var requiredRoles = map[transitionKey]models.UserRole{
	{models.StatusPending, models.StatusValidated}:           models.RoleDeskOfficer,
	{models.StatusPending, models.StatusRejected}:            models.RoleDeskOfficer,
	{models.StatusValidated, models.StatusAssigned}:          models.RoleInvestigator,
	{models.StatusAssigned, models.StatusAccepted}:           models.RoleInvestigator,
	{models.StatusAccepted, models.StatusResponding}:         models.RoleInvestigator,
	{models.StatusResponding, models.StatusInvestigating}:    models.RoleInvestigator,
	{models.StatusInvestigating, models.StatusInvestigating}: models.RoleInvestigator,
	{models.StatusInvestigating, models.StatusResolved}:      models.RoleInvestigator,
	{models.StatusResolved, models.StatusClosed}:             models.RoleSupervisor,
	{models.StatusResolved, models.StatusInvestigating}:      models.RoleSupervisor,
	{models.StatusClosed, models.StatusArchived}:             models.RoleSupervisor,
	{models.StatusClosed, models.StatusInvestigating}:        models.RoleSupervisor,
}

// roleCapabilities expresses capability inheritance. A role may execute any
// transition whose required role appears in its capability set. Admins pass
// every check. Officers may act as investigators.
var roleCapabilities = map[models.UserRole][]models.UserRole{
	models.RoleAdmin:        {models.RoleAdmin, models.RoleSupervisor, models.RoleInvestigator, models.RoleDeskOfficer, models.RoleOfficer},
	models.RoleSupervisor:   {models.RoleSupervisor, models.RoleInvestigator, models.RoleOfficer},
	models.RoleInvestigator: {models.RoleInvestigator},
	models.RoleDeskOfficer:  {models.RoleDeskOfficer},
	models.RoleOfficer:      {models.RoleInvestigator},
}

// requiredFields lists the context keys a transition cannot commit without.
// Pairs not listed still require notes.
var requiredFields = map[transitionKey][]string{
	{models.StatusPending, models.StatusValidated}:  {"notes", "triageLevel"},
	{models.StatusValidated, models.StatusAssigned}: {"notes", "assignedTo"},
}

// defaultNextStatus is the one-hop forward progression used when a transition
// request carries no explicit target. Terminal statuses map to themselves.
var defaultNextStatus = map[models.CaseStatus]models.CaseStatus{
	models.StatusPending:       models.StatusValidated,
	models.StatusValidated:     models.StatusAssigned,
	models.StatusAssigned:      models.StatusAccepted,
	models.StatusAccepted:      models.StatusResponding,
	models.StatusResponding:    models.StatusInvestigating,
	models.StatusInvestigating: models.StatusResolved,
	models.StatusResolved:      models.StatusClosed,
	models.StatusClosed:        models.StatusArchived,
	models.StatusArchived:      models.StatusArchived,
	models.StatusRejected:      models.StatusRejected,
}

// statusSLAHours is how long a report may sit in each status before it is
// considered overdue. Rejected and archived are absent and never go overdue.
var statusSLAHours = map[models.CaseStatus]int{
	models.StatusPending:       4,
	models.StatusValidated:     2,
	models.StatusAssigned:      1,
	models.StatusAccepted:      2,
	models.StatusResponding:    4,
	models.StatusInvestigating: 48,
	models.StatusResolved:      24,
	models.StatusClosed:        72,
}

// CanTransition reports whether the (from, to) pair is in the adjacency table
func CanTransition(from, to models.CaseStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RequiredRoleFor resolves the role capability needed for a transition.
// Unmapped rejection transitions fall back to investigator, anything else
// unmapped requires admin.
func RequiredRoleFor(from, to models.CaseStatus) models.UserRole {
	if role, ok := requiredRoles[transitionKey{from, to}]; ok {
		return role
	}
	if to == models.StatusRejected {
		return models.RoleInvestigator
	}
	return models.RoleAdmin
}

// RequiredFieldsFor returns the context keys that must be present for a transition
func RequiredFieldsFor(from, to models.CaseStatus) []string {
	if fields, ok := requiredFields[transitionKey{from, to}]; ok {
		return fields
	}
	return []string{"notes"}
}

// HasCapability reports whether the actor role satisfies the required role
func HasCapability(actor, required models.UserRole) bool {
	if actor == models.RoleAdmin {
		return true
	}
	for _, capability := range roleCapabilities[actor] {
		if capability == required {
			return true
		}
	}
	return false
}

// DefaultNextStatus returns the one-hop forward status for the given status
func DefaultNextStatus(current models.CaseStatus) models.CaseStatus {
	if next, ok := defaultNextStatus[current]; ok {
		return next
	}
	return current
}
