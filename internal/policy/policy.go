// Package policy centralizes access decisions for the clearance service.
// Evaluate is a pure function of the caller, the operation, and the target
// state so the rules can be tested without any transport or storage.
package policy

import "github.com/spec-kit/clearance-service/internal/domain"

// Operation enumerates the actions the evaluator knows about.
type Operation string

const (
	OpListAccounts      Operation = "list_accounts"
	OpViewAccount       Operation = "view_account"
	OpCreateAccount     Operation = "create_account"
	OpListDepartments   Operation = "list_departments"
	OpViewDepartment    Operation = "view_department"
	OpManageDepartments Operation = "manage_departments"
	OpCreateRequest     Operation = "create_request"
	OpViewRequest       Operation = "view_request"
	OpUpdateRequest     Operation = "update_request"
	OpApproveRequest    Operation = "approve_request"
	OpRejectRequest     Operation = "reject_request"
)

// Caller is the authenticated identity invoking an operation. A nil *Caller
// means unauthenticated.
type Caller struct {
	ID   string
	Role domain.Role
}

// Request carries the slice of clearance-request state a decision depends on:
// who owns it and who heads its department (nil when the department has no
// head).
type Request struct {
	StudentID        string
	DepartmentHeadID *string
}

// Decision is the outcome of an evaluation. Denials always carry a
// human-readable reason; deny is a normal return value, never an error.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Evaluate decides whether the caller may perform op against the target.
// Target may be nil for operations that do not concern a single clearance
// request.
func Evaluate(caller *Caller, op Operation, target *Request) Decision {
	if caller == nil {
		return deny("Authentication required.")
	}

	switch op {
	case OpListAccounts, OpViewAccount, OpCreateAccount:
		if caller.Role == domain.RoleAdmin {
			return allow()
		}
		return deny("Only admins can manage accounts.")

	case OpListDepartments, OpViewDepartment:
		return allow()

	case OpManageDepartments:
		if caller.Role == domain.RoleAdmin {
			return allow()
		}
		return deny("Only admins can manage departments.")

	case OpCreateRequest:
		if caller.Role == domain.RoleStudent {
			return allow()
		}
		return deny("Only students can create clearance requests.")

	case OpViewRequest:
		return evaluateView(caller, target)

	case OpUpdateRequest:
		if actsForDepartment(caller, target) || caller.Role == domain.RoleAdmin {
			return allow()
		}
		return deny("You don't have permission to update this request.")

	case OpApproveRequest:
		return evaluateDecision(caller, target, "approve")

	case OpRejectRequest:
		return evaluateDecision(caller, target, "reject")
	}

	return deny("Unknown operation.")
}

func evaluateView(caller *Caller, target *Request) Decision {
	if target == nil {
		return deny("No request to view.")
	}
	switch caller.Role {
	case domain.RoleAdmin:
		return allow()
	case domain.RoleStudent:
		if target.StudentID == caller.ID {
			return allow()
		}
	case domain.RoleDepartment:
		if headMatches(caller, target) {
			return allow()
		}
	}
	return deny("You don't have permission to view this request.")
}

// evaluateDecision covers approve and reject, which share the same shape:
// admins unconditionally, department callers only for their own department,
// everyone else (students included) denied.
func evaluateDecision(caller *Caller, target *Request, verb string) Decision {
	switch caller.Role {
	case domain.RoleAdmin:
		return allow()
	case domain.RoleDepartment:
		if headMatches(caller, target) {
			return allow()
		}
		return deny("You can only " + verb + " requests for your department.")
	}
	return deny("Only admins and department heads can " + verb + " requests.")
}

func actsForDepartment(caller *Caller, target *Request) bool {
	return caller.Role == domain.RoleDepartment && headMatches(caller, target)
}

func headMatches(caller *Caller, target *Request) bool {
	if target == nil || target.DepartmentHeadID == nil {
		return false
	}
	return *target.DepartmentHeadID == caller.ID
}
