package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// In-memory repositories backing the service tests. They mirror the Postgres
// implementations' observable behavior, including pgx.ErrNoRows on missing
// rows, without needing a database.

type memUserRepo struct {
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]domain.User{}} }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByIdentityID(_ context.Context, identityID string) (*domain.User, error) {
	for _, user := range r.users {
		if user.IdentityID == identityID {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memRoleRepo struct {
	roles     map[string]domain.Role
	staffRefs map[string]int
	panelRefs map[string]int
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{roles: map[string]domain.Role{}, staffRefs: map[string]int{}, panelRefs: map[string]int{}}
}

func (r *memRoleRepo) Create(_ context.Context, role *domain.Role) error {
	role.ID = uuid.NewString()
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	r.roles[role.ID] = *role
	return nil
}

func (r *memRoleRepo) Update(_ context.Context, role *domain.Role) error {
	if _, ok := r.roles[role.ID]; !ok {
		return pgx.ErrNoRows
	}
	role.UpdatedAt = time.Now()
	r.roles[role.ID] = *role
	return nil
}

func (r *memRoleRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.roles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.roles, id)
	return nil
}

func (r *memRoleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &role, nil
}

func (r *memRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRoleRepo) CountStaffReferences(_ context.Context, roleID string) (int, error) {
	return r.staffRefs[roleID], nil
}

func (r *memRoleRepo) CountPanelReferences(_ context.Context, roleID string) (int, error) {
	return r.panelRefs[roleID], nil
}

type memStaffRepo struct {
	members map[string]domain.StaffMember
}

func newMemStaffRepo() *memStaffRepo { return &memStaffRepo{members: map[string]domain.StaffMember{}} }

func (r *memStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	staff.ID = uuid.NewString()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	r.members[staff.ID] = *staff
	return nil
}

func (r *memStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	if _, ok := r.members[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	staff.UpdatedAt = time.Now()
	r.members[staff.ID] = *staff
	return nil
}

func (r *memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &staff, nil
}

func (r *memStaffRepo) GetByUserID(_ context.Context, userID string) (*domain.StaffMember, error) {
	for _, staff := range r.members {
		if staff.UserID == userID {
			s := staff
			return &s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, staff := range r.members {
		if filter.RoleID != nil && staff.RoleID != *filter.RoleID {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memPanelRepo struct {
	panels     map[string]domain.TicketPanel
	access     map[string][]string
	ticketRefs map[string]int
}

func newMemPanelRepo() *memPanelRepo {
	return &memPanelRepo{panels: map[string]domain.TicketPanel{}, access: map[string][]string{}, ticketRefs: map[string]int{}}
}

func (r *memPanelRepo) Create(_ context.Context, panel *domain.TicketPanel) error {
	panel.ID = uuid.NewString()
	panel.CreatedAt = time.Now()
	panel.UpdatedAt = panel.CreatedAt
	r.panels[panel.ID] = *panel
	return nil
}

func (r *memPanelRepo) Update(_ context.Context, panel *domain.TicketPanel) error {
	if _, ok := r.panels[panel.ID]; !ok {
		return pgx.ErrNoRows
	}
	panel.UpdatedAt = time.Now()
	r.panels[panel.ID] = *panel
	return nil
}

func (r *memPanelRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.panels[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.panels, id)
	delete(r.access, id)
	return nil
}

func (r *memPanelRepo) GetByID(_ context.Context, id string) (*domain.TicketPanel, error) {
	panel, ok := r.panels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &panel, nil
}

func (r *memPanelRepo) List(_ context.Context, activeOnly bool) ([]domain.TicketPanel, error) {
	var out []domain.TicketPanel
	for _, panel := range r.panels {
		if activeOnly && !panel.Active {
			continue
		}
		out = append(out, panel)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memPanelRepo) AccessRoleIDs(_ context.Context, panelID string) ([]string, error) {
	return r.access[panelID], nil
}

func (r *memPanelRepo) SetAccessRoleIDs(_ context.Context, panelID string, roleIDs []string) error {
	r.access[panelID] = roleIDs
	return nil
}

func (r *memPanelRepo) CountTicketReferences(_ context.Context, panelID string) (int, error) {
	return r.ticketRefs[panelID], nil
}

type memStatusRepo struct {
	statuses   map[string]domain.TicketStatus
	ticketRefs map[string]int
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{statuses: map[string]domain.TicketStatus{}, ticketRefs: map[string]int{}}
}

func (r *memStatusRepo) Create(_ context.Context, status *domain.TicketStatus) error {
	status.ID = uuid.NewString()
	status.CreatedAt = time.Now()
	status.UpdatedAt = status.CreatedAt
	r.statuses[status.ID] = *status
	return nil
}

func (r *memStatusRepo) Update(_ context.Context, status *domain.TicketStatus) error {
	if _, ok := r.statuses[status.ID]; !ok {
		return pgx.ErrNoRows
	}
	status.UpdatedAt = time.Now()
	r.statuses[status.ID] = *status
	return nil
}

func (r *memStatusRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.statuses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.statuses, id)
	return nil
}

func (r *memStatusRepo) GetByID(_ context.Context, id string) (*domain.TicketStatus, error) {
	status, ok := r.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &status, nil
}

func (r *memStatusRepo) List(_ context.Context) ([]domain.TicketStatus, error) {
	out := make([]domain.TicketStatus, 0, len(r.statuses))
	for _, status := range r.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *memStatusRepo) ClearDefaultOpenExcept(_ context.Context, keepID string) error {
	for id, status := range r.statuses {
		if id != keepID && status.IsDefaultOpen {
			status.IsDefaultOpen = false
			r.statuses[id] = status
		}
	}
	return nil
}

func (r *memStatusRepo) CountTicketReferences(_ context.Context, statusID string) (int, error) {
	return r.ticketRefs[statusID], nil
}

type memTicketRepo struct {
	tickets map[string]domain.Ticket
}

func newMemTicketRepo() *memTicketRepo { return &memTicketRepo{tickets: map[string]domain.Ticket{}} }

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = uuid.NewString()
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.LastMessageAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memTicketRepo) GetByPublicID(_ context.Context, publicID string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.PublicID == publicID {
			t := ticket
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) PublicIDExists(_ context.Context, publicID string) (bool, error) {
	for _, ticket := range r.tickets {
		if ticket.PublicID == publicID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatorUserID != nil && ticket.CreatorUserID != *filter.CreatorUserID {
			continue
		}
		if len(filter.PanelIDs) > 0 && !containsString(filter.PanelIDs, ticket.PanelID) {
			continue
		}
		if len(filter.StatusIDs) > 0 && !containsString(filter.StatusIDs, ticket.StatusID) {
			continue
		}
		if filter.AssignedStaffID != nil {
			if ticket.AssignedStaffID == nil || *ticket.AssignedStaffID != *filter.AssignedStaffID {
				continue
			}
		}
		if filter.OpenOnly && ticket.ClosedAt != nil {
			continue
		}
		out = append(out, ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *memTicketRepo) UnassignStaff(_ context.Context, staffID string) error {
	for id, ticket := range r.tickets {
		if ticket.AssignedStaffID != nil && *ticket.AssignedStaffID == staffID {
			ticket.AssignedStaffID = nil
			r.tickets[id] = ticket
		}
	}
	return nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

type memMessageRepo struct {
	messages []domain.TicketMessage
}

func newMemMessageRepo() *memMessageRepo { return &memMessageRepo{} }

func (r *memMessageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *memMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	var out []domain.TicketMessage
	for _, msg := range r.messages {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *memMessageRepo) CountRepliedTicketsByStaff(_ context.Context, from, to time.Time) ([]repository.ReplyCount, error) {
	distinct := map[string]map[string]struct{}{}
	for _, msg := range r.messages {
		if msg.AuthorType != domain.AuthorTypeStaff || msg.AuthorID == nil {
			continue
		}
		if msg.CreatedAt.Before(from) || !msg.CreatedAt.Before(to) {
			continue
		}
		if distinct[*msg.AuthorID] == nil {
			distinct[*msg.AuthorID] = map[string]struct{}{}
		}
		distinct[*msg.AuthorID][msg.TicketID] = struct{}{}
	}
	var out []repository.ReplyCount
	for staffID, tickets := range distinct {
		out = append(out, repository.ReplyCount{StaffID: staffID, Tickets: len(tickets)})
	}
	return out, nil
}

type memAttachmentRepo struct {
	attachments []domain.TicketAttachment
}

func newMemAttachmentRepo() *memAttachmentRepo { return &memAttachmentRepo{} }

func (r *memAttachmentRepo) Create(_ context.Context, att *domain.TicketAttachment) error {
	att.ID = uuid.NewString()
	att.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *att)
	return nil
}

func (r *memAttachmentRepo) ListByMessage(_ context.Context, messageID string) ([]domain.TicketAttachment, error) {
	var out []domain.TicketAttachment
	for _, att := range r.attachments {
		if att.MessageID == messageID {
			out = append(out, att)
		}
	}
	return out, nil
}

type memClaimRepo struct {
	claims []domain.TicketClaim
}

func newMemClaimRepo() *memClaimRepo { return &memClaimRepo{} }

func (r *memClaimRepo) Create(_ context.Context, claim *domain.TicketClaim) error {
	claim.ID = uuid.NewString()
	claim.CreatedAt = time.Now()
	r.claims = append(r.claims, *claim)
	return nil
}

func (r *memClaimRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketClaim, error) {
	var out []domain.TicketClaim
	for _, claim := range r.claims {
		if claim.TicketID == ticketID {
			out = append(out, claim)
		}
	}
	return out, nil
}

func (r *memClaimRepo) CountClaimsByStaff(_ context.Context, staffID string, from, to time.Time) (int, error) {
	count := 0
	for _, claim := range r.claims {
		if claim.StaffID != staffID || claim.Action != domain.ClaimActionClaim {
			continue
		}
		if claim.CreatedAt.Before(from) || !claim.CreatedAt.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}

type memTranscriptRepo struct {
	transcripts []domain.TicketTranscript
}

func newMemTranscriptRepo() *memTranscriptRepo { return &memTranscriptRepo{} }

func (r *memTranscriptRepo) Create(_ context.Context, transcript *domain.TicketTranscript) error {
	transcript.ID = uuid.NewString()
	transcript.GeneratedAt = time.Now()
	r.transcripts = append(r.transcripts, *transcript)
	return nil
}

func (r *memTranscriptRepo) GetByID(_ context.Context, id string) (*domain.TicketTranscript, error) {
	for _, transcript := range r.transcripts {
		if transcript.ID == id {
			t := transcript
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTranscriptRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketTranscript, error) {
	var out []domain.TicketTranscript
	for _, transcript := range r.transcripts {
		if transcript.TicketID == ticketID {
			out = append(out, transcript)
		}
	}
	return out, nil
}

type memAuditRepo struct {
	entries []domain.AuditLogEntry
}

func newMemAuditRepo() *memAuditRepo { return &memAuditRepo{} }

func (r *memAuditRepo) Create(_ context.Context, entry *domain.AuditLogEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]domain.AuditLogEntry, error) {
	var out []domain.AuditLogEntry
	for _, entry := range r.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *memAuditRepo) byAction(action string) []domain.AuditLogEntry {
	var out []domain.AuditLogEntry
	for _, entry := range r.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type memNotificationRepo struct {
	notifications []domain.StaffNotification
}

func newMemNotificationRepo() *memNotificationRepo { return &memNotificationRepo{} }

func (r *memNotificationRepo) Create(_ context.Context, notification *domain.StaffNotification) error {
	notification.ID = uuid.NewString()
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *memNotificationRepo) ListByStaff(_ context.Context, staffID string, unreadOnly bool) ([]domain.StaffNotification, error) {
	var out []domain.StaffNotification
	for _, notification := range r.notifications {
		if notification.StaffID != staffID {
			continue
		}
		if unreadOnly && notification.ReadAt != nil {
			continue
		}
		out = append(out, notification)
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id, staffID string) error {
	for i, notification := range r.notifications {
		if notification.ID == id && notification.StaffID == staffID {
			now := time.Now()
			r.notifications[i].ReadAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memPayRepo struct {
	adjustments []domain.StaffPayAdjustment
}

func newMemPayRepo() *memPayRepo { return &memPayRepo{} }

func (r *memPayRepo) Create(_ context.Context, adjustment *domain.StaffPayAdjustment) error {
	adjustment.ID = uuid.NewString()
	adjustment.CreatedAt = time.Now()
	r.adjustments = append(r.adjustments, *adjustment)
	return nil
}

func (r *memPayRepo) ListByStaff(_ context.Context, staffID string) ([]domain.StaffPayAdjustment, error) {
	var out []domain.StaffPayAdjustment
	for _, adjustment := range r.adjustments {
		if adjustment.StaffID == staffID {
			out = append(out, adjustment)
		}
	}
	return out, nil
}

func (r *memPayRepo) SumByStaff(_ context.Context, staffID string, from, to time.Time) (float64, error) {
	var sum float64
	for _, adjustment := range r.adjustments {
		if adjustment.StaffID != staffID {
			continue
		}
		if adjustment.CreatedAt.Before(from) || !adjustment.CreatedAt.Before(to) {
			continue
		}
		sum += adjustment.Amount
	}
	return sum, nil
}

// captureBroadcaster records published events for assertions.
type captureBroadcaster struct {
	events []events.Event
}

func (b *captureBroadcaster) Broadcast(_ context.Context, event events.Event) {
	b.events = append(b.events, event)
}
