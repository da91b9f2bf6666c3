package auth

import (
	"fmt"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// HasPermission reports whether the staff member holds a capability. Absent
// or inactive staff hold nothing; admins hold everything.
func HasPermission(staff *domain.StaffMember, capability domain.Capability) bool {
	if staff == nil || !staff.Active {
		return false
	}
	if staff.IsAdmin() {
		return true
	}
	if staff.Role == nil {
		return false
	}
	return staff.Role.Permissions.Has(capability)
}

// RequirePermission returns a forbidden error when the capability is not
// held.
func RequirePermission(staff *domain.StaffMember, capability domain.Capability) error {
	if HasPermission(staff, capability) {
		return nil
	}
	return apperrors.NewForbidden(fmt.Sprintf("missing permission %q", capability))
}

// ActorRank resolves the hierarchy position of a staff member.
func ActorRank(staff *domain.StaffMember) domain.Rank {
	return staff.Rank()
}

// RequireCanActOnRole enforces the hierarchical action rule for role
// edit/delete: a non-admin actor may act on a target role only when the
// actor strictly outranks it, and the implicit admin role is never a valid
// target for non-admins.
func RequireCanActOnRole(actor *domain.StaffMember, target *domain.Role) error {
	if actor == nil || !actor.Active {
		return apperrors.NewForbidden("no active staff context")
	}
	if actor.IsAdmin() {
		return nil
	}
	if target != nil && target.IsAdmin {
		return apperrors.NewForbidden("the admin role cannot be managed by non-admin staff")
	}
	if !ActorRank(actor).Outranks(target.Rank()) {
		return apperrors.NewForbidden("your role does not outrank the target role")
	}
	return nil
}

// RequireCanActOnStaff enforces the hierarchical action rule for staff
// role-assignment, suspension, removal and pay adjustments.
func RequireCanActOnStaff(actor, target *domain.StaffMember) error {
	if actor == nil || !actor.Active {
		return apperrors.NewForbidden("no active staff context")
	}
	if actor.IsAdmin() {
		return nil
	}
	if target != nil && target.IsAdmin() {
		return apperrors.NewForbidden("admin staff cannot be managed by non-admin staff")
	}
	var targetRank domain.Rank
	if target != nil {
		targetRank = target.Rank()
	} else {
		targetRank = domain.UnrankedRank()
	}
	if !ActorRank(actor).Outranks(targetRank) {
		return apperrors.NewForbidden("your role does not outrank the target staff member")
	}
	return nil
}

// RequireCanGrant rejects granting any capability the acting non-admin does
// not already hold, closing the privilege-escalation path through role
// edits.
func RequireCanGrant(actor *domain.StaffMember, grant domain.PermissionSet) error {
	if actor == nil || !actor.Active {
		return apperrors.NewForbidden("no active staff context")
	}
	if actor.IsAdmin() {
		return nil
	}
	if grant.All {
		return apperrors.NewForbidden("only admins may grant the wildcard permission")
	}
	for capability := range grant.Caps {
		if !HasPermission(actor, capability) {
			return apperrors.NewForbidden(fmt.Sprintf("cannot grant permission %q you do not hold", capability))
		}
	}
	return nil
}

// RequireCanSetAdminFlag blocks non-admins from ever creating or promoting
// an admin role.
func RequireCanSetAdminFlag(actor *domain.StaffMember, isAdmin bool) error {
	if !isAdmin {
		return nil
	}
	if actor != nil && actor.Active && actor.IsAdmin() {
		return nil
	}
	return apperrors.NewForbidden("only admins may set the admin flag on a role")
}
