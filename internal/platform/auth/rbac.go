package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleFrontDesk  Role = "front_desk"
	RoleDoctor     Role = "doctor"
	RolePatient    Role = "patient"
)

// AllRoles lists every role in a stable order.
var AllRoles = []Role{RoleSuperAdmin, RoleFrontDesk, RoleDoctor, RolePatient}

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// Operation names an action an endpoint performs.
type Operation string

const (
	OpCreatePatient     Operation = "patient.create"
	OpListPatients      Operation = "patient.list"
	OpReadPatient       Operation = "patient.read"
	OpUpdatePatient     Operation = "patient.update_status"
	OpCreateNote        Operation = "note.create"
	OpReadNotes         Operation = "note.read"
	OpListUsers         Operation = "user.list"
	OpManageUsers       Operation = "user.manage"
	OpListDoctors       Operation = "doctor.list"
	OpCreateAppointment Operation = "appointment.create"
	OpListAppointments  Operation = "appointment.list"
	OpReadDashboard     Operation = "dashboard.read"
)

// Scope describes which rows an allowed caller may see or touch.
type Scope int

const (
	// ScopeNone means the operation is denied.
	ScopeNone Scope = iota
	// ScopeAll means no ownership filtering.
	ScopeAll
	// ScopeOwnPatientRecord restricts the caller to the patient record whose
	// email matches their own.
	ScopeOwnPatientRecord
	// ScopeOwnDoctor restricts the caller to rows where they are the doctor.
	ScopeOwnDoctor
)

// Rule is one row of the access table: the roles that may perform an
// operation, and per-role ownership scoping. Roles missing from Scoped get
// ScopeAll.
type Rule struct {
	Roles  []Role
	Scoped map[Role]Scope
}

var staff = []Role{RoleSuperAdmin, RoleFrontDesk, RoleDoctor}

// Policy is the access table every endpoint consults.
var Policy = map[Operation]Rule{
	OpCreatePatient: {Roles: []Role{RoleFrontDesk, RoleSuperAdmin}},
	OpListPatients: {
		Roles:  AllRoles,
		Scoped: map[Role]Scope{RolePatient: ScopeOwnPatientRecord},
	},
	OpReadPatient: {
		Roles:  AllRoles,
		Scoped: map[Role]Scope{RolePatient: ScopeOwnPatientRecord},
	},
	OpUpdatePatient: {Roles: staff},
	OpCreateNote:    {Roles: []Role{RoleDoctor, RoleSuperAdmin}},
	OpReadNotes: {
		Roles:  AllRoles,
		Scoped: map[Role]Scope{RolePatient: ScopeOwnPatientRecord},
	},
	OpListUsers:   {Roles: []Role{RoleSuperAdmin}},
	OpManageUsers: {Roles: []Role{RoleSuperAdmin}},
	OpListDoctors: {Roles: AllRoles},
	OpCreateAppointment: {
		Roles:  AllRoles,
		Scoped: map[Role]Scope{RolePatient: ScopeOwnPatientRecord, RoleDoctor: ScopeOwnDoctor},
	},
	OpListAppointments: {
		Roles:  AllRoles,
		Scoped: map[Role]Scope{RolePatient: ScopeOwnPatientRecord, RoleDoctor: ScopeOwnDoctor},
	},
	OpReadDashboard: {Roles: AllRoles},
}

// ScopeFor returns the scope granted to role for op. Unknown operations and
// roles outside the rule get ScopeNone.
func ScopeFor(role Role, op Operation) Scope {
	rule, ok := Policy[op]
	if !ok {
		return ScopeNone
	}
	for _, r := range rule.Roles {
		if r != role {
			continue
		}
		if s, ok := rule.Scoped[role]; ok {
			return s
		}
		return ScopeAll
	}
	return ScopeNone
}

// Allowed reports whether role may perform op at all.
func Allowed(role Role, op Operation) bool {
	return ScopeFor(role, op) != ScopeNone
}

// Require returns middleware that rejects callers whose role may not perform
// op. It must run after Authenticate.
func Require(op Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !Allowed(p.Role, op) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("role %s may not perform %s", p.Role, op))
			}
			return next(c)
		}
	}
}
