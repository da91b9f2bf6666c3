package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// DirectoryService covers the admin-configured directory: panels, statuses,
// roles and staff members. Every mutation is gated on a manage capability
// and, where a role or staff member is the target, on the rank hierarchy.
type DirectoryService struct {
	panels        repository.PanelRepository
	statuses      repository.StatusRepository
	roles         repository.RoleRepository
	staff         repository.StaffRepository
	users         repository.UserRepository
	tickets       repository.TicketRepository
	notifications repository.NotificationRepository
	audit         *AuditRecorder
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	PanelRepo        repository.PanelRepository
	StatusRepo       repository.StatusRepository
	RoleRepo         repository.RoleRepository
	StaffRepo        repository.StaffRepository
	UserRepo         repository.UserRepository
	TicketRepo       repository.TicketRepository
	NotificationRepo repository.NotificationRepository
	Audit            *AuditRecorder
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		panels:        deps.PanelRepo,
		statuses:      deps.StatusRepo,
		roles:         deps.RoleRepo,
		staff:         deps.StaffRepo,
		users:         deps.UserRepo,
		tickets:       deps.TicketRepo,
		notifications: deps.NotificationRepo,
		audit:         deps.Audit,
	}
}

// PanelInput carries panel configuration.
type PanelInput struct {
	Name          string
	Active        bool
	SortOrder     int
	AccessRoleIDs []string
}

// CreatePanel adds an intake panel with its optional role allow-list.
func (s *DirectoryService) CreatePanel(ctx context.Context, actor *domain.StaffMember, input PanelInput) (*domain.TicketPanel, error) {
	if err := auth.RequirePermission(actor, domain.CapPanelsManage); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("panel name is required", nil)
	}

	panel := &domain.TicketPanel{Name: input.Name, Active: input.Active, SortOrder: input.SortOrder}
	if err := s.panels.Create(ctx, panel); err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(input.AccessRoleIDs) > 0 {
		if err := s.panels.SetAccessRoleIDs(ctx, panel.ID, input.AccessRoleIDs); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "panel.created", "panel", panel.ID,
		map[string]any{"name": panel.Name})
	return panel, nil
}

// UpdatePanel rewrites a panel and replaces its allow-list.
func (s *DirectoryService) UpdatePanel(ctx context.Context, actor *domain.StaffMember, panelID string, input PanelInput) (*domain.TicketPanel, error) {
	if err := auth.RequirePermission(actor, domain.CapPanelsManage); err != nil {
		return nil, err
	}
	panel, err := s.panels.GetByID(ctx, panelID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("panel name is required", nil)
	}

	panel.Name = input.Name
	panel.Active = input.Active
	panel.SortOrder = input.SortOrder
	if err := s.panels.Update(ctx, panel); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.panels.SetAccessRoleIDs(ctx, panel.ID, input.AccessRoleIDs); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "panel.updated", "panel", panel.ID,
		map[string]any{"name": panel.Name})
	return panel, nil
}

// DeletePanel removes a panel that no ticket references.
func (s *DirectoryService) DeletePanel(ctx context.Context, actor *domain.StaffMember, panelID string) error {
	if err := auth.RequirePermission(actor, domain.CapPanelsManage); err != nil {
		return err
	}
	count, err := s.panels.CountTicketReferences(ctx, panelID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("panel still has tickets", map[string]any{"tickets": count})
	}
	if err := s.panels.Delete(ctx, panelID); err != nil {
		return apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "panel.deleted", "panel", panelID, nil)
	return nil
}

// ListPanels returns every panel with its allow-list role ids.
func (s *DirectoryService) ListPanels(ctx context.Context) ([]domain.TicketPanel, map[string][]string, error) {
	panels, err := s.panels.List(ctx, false)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	access := make(map[string][]string, len(panels))
	for _, panel := range panels {
		roleIDs, err := s.panels.AccessRoleIDs(ctx, panel.ID)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		access[panel.ID] = roleIDs
	}
	return panels, access, nil
}

// StatusInput carries ticket-status configuration.
type StatusInput struct {
	Name          string
	IsDefaultOpen bool
	IsClosed      bool
	SortOrder     int
}

// CreateStatus adds a lifecycle status. Flagging it default-open clears the
// flag from every other status, keeping the invariant of one default.
func (s *DirectoryService) CreateStatus(ctx context.Context, actor *domain.StaffMember, input StatusInput) (*domain.TicketStatus, error) {
	if err := auth.RequirePermission(actor, domain.CapStatusesManage); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("status name is required", nil)
	}
	if input.IsDefaultOpen && input.IsClosed {
		return nil, apperrors.NewValidationError("a status cannot be both default-open and closed", nil)
	}

	status := &domain.TicketStatus{
		Name:          input.Name,
		Slug:          slug.Make(input.Name),
		IsDefaultOpen: input.IsDefaultOpen,
		IsClosed:      input.IsClosed,
		SortOrder:     input.SortOrder,
	}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	if status.IsDefaultOpen {
		if err := s.statuses.ClearDefaultOpenExcept(ctx, status.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "status.created", "status", status.ID,
		map[string]any{"slug": status.Slug})
	return status, nil
}

// UpdateStatus rewrites a status.
func (s *DirectoryService) UpdateStatus(ctx context.Context, actor *domain.StaffMember, statusID string, input StatusInput) (*domain.TicketStatus, error) {
	if err := auth.RequirePermission(actor, domain.CapStatusesManage); err != nil {
		return nil, err
	}
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("status name is required", nil)
	}
	if input.IsDefaultOpen && input.IsClosed {
		return nil, apperrors.NewValidationError("a status cannot be both default-open and closed", nil)
	}

	status.Name = input.Name
	status.Slug = slug.Make(input.Name)
	status.IsDefaultOpen = input.IsDefaultOpen
	status.IsClosed = input.IsClosed
	status.SortOrder = input.SortOrder
	if err := s.statuses.Update(ctx, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	if status.IsDefaultOpen {
		if err := s.statuses.ClearDefaultOpenExcept(ctx, status.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "status.updated", "status", status.ID,
		map[string]any{"slug": status.Slug})
	return status, nil
}

// DeleteStatus removes a status that no ticket references.
func (s *DirectoryService) DeleteStatus(ctx context.Context, actor *domain.StaffMember, statusID string) error {
	if err := auth.RequirePermission(actor, domain.CapStatusesManage); err != nil {
		return err
	}
	count, err := s.statuses.CountTicketReferences(ctx, statusID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("status still has tickets", map[string]any{"tickets": count})
	}
	if err := s.statuses.Delete(ctx, statusID); err != nil {
		return apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "status.deleted", "status", statusID, nil)
	return nil
}

// ListStatuses returns every configured status in sort order.
func (s *DirectoryService) ListStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return statuses, nil
}

// RoleInput carries role configuration.
type RoleInput struct {
	Name        string
	SortOrder   *int
	IsAdmin     bool
	Permissions []string
	Color       string
}

// CreateRole adds a role. Non-admins may neither set the admin flag nor
// grant capabilities they do not hold, and must outrank the new role.
func (s *DirectoryService) CreateRole(ctx context.Context, actor *domain.StaffMember, input RoleInput) (*domain.Role, error) {
	if err := auth.RequirePermission(actor, domain.CapRolesManage); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("role name is required", nil)
	}
	if err := auth.RequireCanSetAdminFlag(actor, input.IsAdmin); err != nil {
		return nil, err
	}
	perms := domain.ParsePermissions(input.Permissions)
	if err := auth.RequireCanGrant(actor, perms); err != nil {
		return nil, err
	}

	role := &domain.Role{
		Name:        input.Name,
		SortOrder:   input.SortOrder,
		IsAdmin:     input.IsAdmin,
		Permissions: perms,
		Color:       input.Color,
	}
	if err := auth.RequireCanActOnRole(actor, role); err != nil {
		return nil, err
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "role.created", "role", role.ID,
		map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole rewrites a role under the same hierarchy and grant rules.
func (s *DirectoryService) UpdateRole(ctx context.Context, actor *domain.StaffMember, roleID string, input RoleInput) (*domain.Role, error) {
	if err := auth.RequirePermission(actor, domain.CapRolesManage); err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.RequireCanActOnRole(actor, role); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("role name is required", nil)
	}
	if input.IsAdmin != role.IsAdmin {
		if err := auth.RequireCanSetAdminFlag(actor, input.IsAdmin); err != nil {
			return nil, err
		}
		// Demoting the admin role is itself an admin-only act.
		if role.IsAdmin && !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("only admins may demote the admin role")
		}
	}
	perms := domain.ParsePermissions(input.Permissions)
	if err := auth.RequireCanGrant(actor, perms); err != nil {
		return nil, err
	}

	role.Name = input.Name
	role.SortOrder = input.SortOrder
	role.IsAdmin = input.IsAdmin
	role.Permissions = perms
	role.Color = input.Color
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "role.updated", "role", role.ID,
		map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a role that no staff member or panel references.
func (s *DirectoryService) DeleteRole(ctx context.Context, actor *domain.StaffMember, roleID string) error {
	if err := auth.RequirePermission(actor, domain.CapRolesManage); err != nil {
		return err
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.RequireCanActOnRole(actor, role); err != nil {
		return err
	}

	staffCount, err := s.roles.CountStaffReferences(ctx, roleID)
	if err != nil {
		return apperrors.MapError(err)
	}
	panelCount, err := s.roles.CountPanelReferences(ctx, roleID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if staffCount > 0 || panelCount > 0 {
		return apperrors.NewConflict("role is still referenced",
			map[string]any{"staff": staffCount, "panels": panelCount})
	}
	if err := s.roles.Delete(ctx, roleID); err != nil {
		return apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "role.deleted", "role", roleID,
		map[string]any{"name": role.Name})
	return nil
}

// ListRoles returns every role in hierarchy order.
func (s *DirectoryService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

// StaffInput carries staff-member configuration.
type StaffInput struct {
	UserID       string
	RoleID       string
	Nickname     *string
	Active       bool
	PayPerTicket float64
}

// CreateStaff promotes a user to staff with a role the actor outranks.
func (s *DirectoryService) CreateStaff(ctx context.Context, actor *domain.StaffMember, input StaffInput) (*domain.StaffMember, error) {
	if err := auth.RequirePermission(actor, domain.CapStaffManage); err != nil {
		return nil, err
	}
	if input.UserID == "" || input.RoleID == "" {
		return nil, apperrors.NewValidationError("user and role are required", nil)
	}
	if input.PayPerTicket < 0 {
		return nil, apperrors.NewValidationError("pay per ticket cannot be negative", nil)
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, apperrors.MapError(err)
	}
	role, err := s.roles.GetByID(ctx, input.RoleID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.RequireCanActOnRole(actor, role); err != nil {
		return nil, err
	}

	staff := &domain.StaffMember{
		UserID:       input.UserID,
		RoleID:       role.ID,
		Role:         role,
		Nickname:     input.Nickname,
		Active:       input.Active,
		PayPerTicket: input.PayPerTicket,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(actor.ID), "staff.created", "staff", staff.ID,
		map[string]any{"user_id": staff.UserID, "role_id": staff.RoleID})
	return staff, nil
}

// UpdateStaff rewrites a staff member. Deactivation revokes authorization
// immediately and unassigns the member's tickets; a pay-rate change drops a
// notification into the member's inbox.
func (s *DirectoryService) UpdateStaff(ctx context.Context, actor *domain.StaffMember, staffID string, input StaffInput) (*domain.StaffMember, error) {
	if err := auth.RequirePermission(actor, domain.CapStaffManage); err != nil {
		return nil, err
	}
	target, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.RequireCanActOnStaff(actor, target); err != nil {
		return nil, err
	}
	if input.PayPerTicket < 0 {
		return nil, apperrors.NewValidationError("pay per ticket cannot be negative", nil)
	}

	if input.RoleID != "" && input.RoleID != target.RoleID {
		role, err := s.roles.GetByID(ctx, input.RoleID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if err := auth.RequireCanActOnRole(actor, role); err != nil {
			return nil, err
		}
		target.RoleID = role.ID
		target.Role = role
	}

	wasActive := target.Active
	oldRate := target.PayPerTicket
	target.Nickname = input.Nickname
	target.Active = input.Active
	target.PayPerTicket = input.PayPerTicket
	if err := s.staff.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}

	if wasActive && !target.Active {
		if err := s.tickets.UnassignStaff(ctx, target.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if oldRate != target.PayPerTicket {
		notification := &domain.StaffNotification{
			StaffID: target.ID,
			Type:    domain.NotifyPayRate,
			Message: fmt.Sprintf("Your pay per ticket changed from %.2f to %.2f", oldRate, target.PayPerTicket),
			Metadata: map[string]any{
				"old_rate": oldRate,
				"new_rate": target.PayPerTicket,
			},
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.audit.Record(ctx, domain.StaffActor(actor.ID), "staff.updated", "staff", target.ID,
		map[string]any{"active": target.Active, "role_id": target.RoleID})
	return target, nil
}

// ListStaff returns staff members matching the filter.
func (s *DirectoryService) ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	staff, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}
