// Package workflow holds the canonical status-transition tables for
// proposals, expenditures, amendments, overrides, income, and financial
// years. Services consult these tables instead of duplicating the rules
// per handler, so validation and any UI stay in agreement.
package workflow

import (
	"fmt"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
)

// Action identifies a workflow action requested on an entity.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionVerify   Action = "verify"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionResubmit Action = "resubmit"
)

type proposalRule struct {
	from  []models.ProposalStatus
	roles []models.Role
	to    models.ProposalStatus
}

var proposalRules = map[Action]proposalRule{
	ActionSubmit: {
		from:  []models.ProposalStatus{models.ProposalDraft, models.ProposalRevised},
		roles: []models.Role{models.RoleDepartment, models.RoleHOD},
		to:    models.ProposalSubmitted,
	},
	ActionVerify: {
		from:  []models.ProposalStatus{models.ProposalSubmitted},
		roles: []models.Role{models.RoleHOD, models.RoleOffice},
		to:    models.ProposalVerified,
	},
	ActionApprove: {
		from:  []models.ProposalStatus{models.ProposalSubmitted, models.ProposalVerified},
		roles: models.ApproverRoles,
		to:    models.ProposalApproved,
	},
	ActionReject: {
		from:  []models.ProposalStatus{models.ProposalSubmitted, models.ProposalVerified},
		roles: models.ApproverRoles,
		to:    models.ProposalRejected,
	},
	ActionResubmit: {
		from:  []models.ProposalStatus{models.ProposalRejected},
		roles: []models.Role{models.RoleDepartment, models.RoleHOD},
		to:    models.ProposalDraft,
	},
}

// ProposalTransition validates a proposal action against the current
// status and the acting role, returning the next status. The office role
// may only approve a proposal it has already verified; other approver
// roles may approve directly from submitted.
func ProposalTransition(action Action, from models.ProposalStatus, role models.Role) (models.ProposalStatus, error) {
	rule, ok := proposalRules[action]
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransition, fmt.Sprintf("unknown proposal action %q", action))
	}
	if !statusAllowed(rule.from, from) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot %s a proposal in status %q", action, from))
	}
	if !roleAllowed(rule.roles, role) {
		return "", apperrors.WithMessage(apperrors.ErrForbidden,
			fmt.Sprintf("role %q may not %s proposals", role, action))
	}
	if action == ActionApprove && role == models.RoleOffice && from != models.ProposalVerified {
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransition,
			"office must verify a proposal before approving it")
	}
	return rule.to, nil
}

type expenditureRule struct {
	from  []models.ExpenditureStatus
	roles []models.Role
	to    models.ExpenditureStatus
}

var expenditureRules = map[Action]expenditureRule{
	ActionVerify: {
		from:  []models.ExpenditureStatus{models.ExpenditurePending},
		roles: []models.Role{models.RoleHOD, models.RoleOffice},
		to:    models.ExpenditureVerified,
	},
	ActionApprove: {
		from:  []models.ExpenditureStatus{models.ExpenditurePending, models.ExpenditureVerified},
		roles: models.ApproverRoles,
		to:    models.ExpenditureApproved,
	},
	ActionReject: {
		from:  []models.ExpenditureStatus{models.ExpenditurePending, models.ExpenditureVerified},
		roles: models.ApproverRoles,
		to:    models.ExpenditureRejected,
	},
	ActionResubmit: {
		from:  []models.ExpenditureStatus{models.ExpenditureRejected},
		roles: []models.Role{models.RoleDepartment, models.RoleHOD},
		to:    models.ExpenditurePending,
	},
}

// ExpenditureTransition validates an expenditure action against the
// current status and acting role, returning the next status.
func ExpenditureTransition(action Action, from models.ExpenditureStatus, role models.Role) (models.ExpenditureStatus, error) {
	rule, ok := expenditureRules[action]
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransition, fmt.Sprintf("unknown expenditure action %q", action))
	}
	if !statusAllowed(rule.from, from) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot %s an expenditure in status %q", action, from))
	}
	if !roleAllowed(rule.roles, role) {
		return "", apperrors.WithMessage(apperrors.ErrForbidden,
			fmt.Sprintf("role %q may not %s expenditures", role, action))
	}
	return rule.to, nil
}

// DecisionTransition validates an approve/reject action on a pending
// amendment or override. Only the pending state accepts a decision.
func DecisionTransition(action Action, pending bool, role models.Role) error {
	if action != ActionApprove && action != ActionReject {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition, fmt.Sprintf("unknown decision action %q", action))
	}
	if !pending {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition, "a decision has already been recorded")
	}
	if !roleAllowed(models.ApproverRoles, role) {
		return apperrors.WithMessage(apperrors.ErrForbidden,
			fmt.Sprintf("role %q may not decide approvals", role))
	}
	return nil
}

// IncomeTransition validates income status changes: expected→received by
// office or approvers, received→verified by principal or admin only.
func IncomeTransition(action Action, from models.IncomeStatus, role models.Role) (models.IncomeStatus, error) {
	switch action {
	case ActionSubmit: // mark received
		if from != models.IncomeExpected {
			return "", apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("cannot mark income in status %q as received", from))
		}
		return models.IncomeReceived, nil
	case ActionVerify:
		if from != models.IncomeReceived {
			return "", apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("cannot verify income in status %q", from))
		}
		if role != models.RolePrincipal && role != models.RoleAdmin {
			return "", apperrors.WithMessage(apperrors.ErrForbidden, "only principal or admin may verify income")
		}
		return models.IncomeVerified, nil
	default:
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransition, fmt.Sprintf("unknown income action %q", action))
	}
}

// FinancialYearTransition validates financial-year lifecycle changes:
// planning→active→locked→closed, admin or principal only.
func FinancialYearTransition(to models.FinancialYearStatus, from models.FinancialYearStatus, role models.Role) error {
	if role != models.RoleAdmin && role != models.RolePrincipal {
		return apperrors.WithMessage(apperrors.ErrForbidden, "only admin or principal may change financial year status")
	}
	allowed := map[models.FinancialYearStatus]models.FinancialYearStatus{
		models.FinancialYearActive: models.FinancialYearPlanning,
		models.FinancialYearLocked: models.FinancialYearActive,
		models.FinancialYearClosed: models.FinancialYearLocked,
	}
	want, ok := allowed[to]
	if !ok || from != want {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move financial year from %q to %q", from, to))
	}
	return nil
}

func statusAllowed[T comparable](allowed []T, s T) bool {
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}

func roleAllowed(allowed []models.Role, r models.Role) bool {
	if r == models.RoleAdmin {
		return true
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
