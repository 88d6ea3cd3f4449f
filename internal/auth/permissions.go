// Package auth maps (role, operation) pairs to allow/deny decisions.
// The matrix is a static table so the full authorization surface can be
// reviewed in one place instead of being scattered across route
// annotations.
package auth

import "github.com/nvarela/coldtrack/internal/model"

// Operation names a guarded use case.  Middleware resolves the actor's
// role from the JWT and checks it against the table below before the
// handler runs.
type Operation string

const (
	OpUserCreate   Operation = "user.create"
	OpProductRead  Operation = "product.read"
	OpProductWrite Operation = "product.write"
	OpFormRead     Operation = "form.read"
	OpFormCreate   Operation = "form.create"
	OpFormEdit     Operation = "form.edit"
	OpFormReview   Operation = "form.review"
	OpFormDelete   Operation = "form.delete"
	OpAlertRead    Operation = "alert.read"
	OpAlertAck     Operation = "alert.ack"
	OpReportRead   Operation = "report.read"
)

// permissions is the role/operation matrix.  Auditors are read-only;
// operators handle forms; supervisors additionally review and
// acknowledge; administrators can do everything.
var permissions = map[Operation]map[string]bool{
	OpUserCreate:   {model.RoleAdministrator: true},
	OpProductRead:  allRoles(),
	OpProductWrite: {model.RoleAdministrator: true},
	OpFormRead:     allRoles(),
	OpFormCreate:   {model.RoleOperator: true, model.RoleSupervisor: true, model.RoleAdministrator: true},
	OpFormEdit:     {model.RoleOperator: true, model.RoleSupervisor: true, model.RoleAdministrator: true},
	OpFormReview:   {model.RoleSupervisor: true, model.RoleAdministrator: true},
	OpFormDelete:   {model.RoleAdministrator: true},
	OpAlertRead:    allRoles(),
	OpAlertAck:     {model.RoleSupervisor: true, model.RoleAdministrator: true},
	OpReportRead:   allRoles(),
}

func allRoles() map[string]bool {
	return map[string]bool{
		model.RoleOperator:      true,
		model.RoleSupervisor:    true,
		model.RoleAdministrator: true,
		model.RoleAuditor:       true,
	}
}

// Can reports whether the given role may perform op.  Unknown roles and
// unknown operations are denied.
func Can(role string, op Operation) bool {
	allowed, ok := permissions[op]
	if !ok {
		return false
	}
	return allowed[role]
}
