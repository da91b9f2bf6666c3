package domain

import "time"

// Capability identifies a single staff permission.
type Capability string

const (
	CapTicketsView      Capability = "tickets.view"
	CapTicketsReply     Capability = "tickets.reply"
	CapTicketsClaim     Capability = "tickets.claim"
	CapTicketsAssign    Capability = "tickets.assign"
	CapTicketsStatus    Capability = "tickets.status"
	CapTicketsEscalate  Capability = "tickets.escalate"
	CapTicketsClose     Capability = "tickets.close"
	CapTranscriptsWrite Capability = "tickets.transcripts"
	CapPanelsManage     Capability = "panels.manage"
	CapStatusesManage   Capability = "statuses.manage"
	CapRolesManage      Capability = "roles.manage"
	CapStaffManage      Capability = "staff.manage"
	CapPayManage        Capability = "pay.manage"
	CapAuditView        Capability = "audit.view"
)

// Wildcard marks a permission set granting every capability.
const Wildcard = "*"

// PermissionSet is either the wildcard "all" or an explicit capability set.
type PermissionSet struct {
	All  bool
	Caps map[Capability]struct{}
}

// ParsePermissions builds a set from the stored string list.
func ParsePermissions(values []string) PermissionSet {
	set := PermissionSet{Caps: make(map[Capability]struct{}, len(values))}
	for _, v := range values {
		if v == Wildcard {
			return PermissionSet{All: true}
		}
		set.Caps[Capability(v)] = struct{}{}
	}
	return set
}

// Has reports whether the set grants the capability.
func (p PermissionSet) Has(c Capability) bool {
	if p.All {
		return true
	}
	_, ok := p.Caps[c]
	return ok
}

// Strings returns the storable representation of the set.
func (p PermissionSet) Strings() []string {
	if p.All {
		return []string{Wildcard}
	}
	out := make([]string, 0, len(p.Caps))
	for c := range p.Caps {
		out = append(out, string(c))
	}
	return out
}

// Role is a named rank in the staff hierarchy. Lower SortOrder is more
// senior; IsAdmin marks the implicit top rank.
type Role struct {
	ID          string
	Name        string
	SortOrder   *int
	IsAdmin     bool
	Permissions PermissionSet
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Rank returns the role's position in the hierarchy order.
func (r *Role) Rank() Rank {
	if r == nil {
		return UnrankedRank()
	}
	if r.IsAdmin {
		return AdminRank()
	}
	if r.SortOrder == nil {
		return UnrankedRank()
	}
	return RankedRank(*r.SortOrder)
}

type rankTier int

const (
	tierAdmin rankTier = iota
	tierRanked
	tierUnranked
)

// Rank is a total order over role seniority with three tiers: the admin role
// outranks every ranked role, and ranked roles outrank unranked ones.
type Rank struct {
	tier  rankTier
	order int
}

// AdminRank is the unconditional top of the hierarchy.
func AdminRank() Rank { return Rank{tier: tierAdmin} }

// RankedRank wraps an explicit sort order; lower is more senior.
func RankedRank(order int) Rank { return Rank{tier: tierRanked, order: order} }

// UnrankedRank is the bottom tier used for roles without a sort order.
func UnrankedRank() Rank { return Rank{tier: tierUnranked} }

// Outranks reports whether r is strictly more senior than other.
func (r Rank) Outranks(other Rank) bool {
	if r.tier != other.tier {
		return r.tier < other.tier
	}
	if r.tier == tierRanked {
		return r.order < other.order
	}
	return false
}

// IsAdmin reports whether the rank is the admin tier.
func (r Rank) IsAdmin() bool { return r.tier == tierAdmin }
