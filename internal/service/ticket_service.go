package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/platform/discord"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	publicIDPrefix  = "TCK-"
	publicIDRetries = 5
)

// Broadcaster publishes lifecycle events to live subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, event events.Event)
}

// TicketService owns the ticket state machine: creation, replies, claim and
// assignment, escalation, status transitions and the close/transcript
// lifecycle. Panel visibility is re-checked on every call; role and panel
// access rules can change between requests.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	panels      repository.PanelRepository
	statuses    repository.StatusRepository
	staff       repository.StaffRepository
	claims      repository.ClaimRepository
	transcripts *TranscriptService
	audit       *AuditRecorder
	broadcaster Broadcaster
	discord     discord.Notifier
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	PanelRepo      repository.PanelRepository
	StatusRepo     repository.StatusRepository
	StaffRepo      repository.StaffRepository
	ClaimRepo      repository.ClaimRepository
	Transcripts    *TranscriptService
	Audit          *AuditRecorder
	Broadcaster    Broadcaster
	Discord        discord.Notifier
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		panels:      deps.PanelRepo,
		statuses:    deps.StatusRepo,
		staff:       deps.StaffRepo,
		claims:      deps.ClaimRepo,
		transcripts: deps.Transcripts,
		audit:       deps.Audit,
		broadcaster: deps.Broadcaster,
		discord:     deps.Discord,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
}

// StaffCanAccessPanel applies the per-panel role allow-list. Admins see all
// panels; a panel with no access rows is visible to every staff member.
func (s *TicketService) StaffCanAccessPanel(ctx context.Context, staff *domain.StaffMember, panelID string) (bool, error) {
	if staff == nil || !staff.Active {
		return false, nil
	}
	if staff.IsAdmin() {
		return true, nil
	}
	roleIDs, err := s.panels.AccessRoleIDs(ctx, panelID)
	if err != nil {
		return false, err
	}
	if len(roleIDs) == 0 {
		return true, nil
	}
	for _, id := range roleIDs {
		if id == staff.RoleID {
			return true, nil
		}
	}
	return false, nil
}

// AccessiblePanels lists the active panels the staff member may see, in
// configured order.
func (s *TicketService) AccessiblePanels(ctx context.Context, staff *domain.StaffMember) ([]domain.TicketPanel, error) {
	panels, err := s.panels.List(ctx, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if staff.IsAdmin() {
		return panels, nil
	}
	visible := make([]domain.TicketPanel, 0, len(panels))
	for _, panel := range panels {
		ok, err := s.StaffCanAccessPanel(ctx, staff, panel.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if ok {
			visible = append(visible, panel)
		}
	}
	return visible, nil
}

func (s *TicketService) requirePanelAccess(ctx context.Context, staff *domain.StaffMember, panelID string) error {
	ok, err := s.StaffCanAccessPanel(ctx, staff, panelID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewForbidden("you do not have access to this ticket's panel")
	}
	return nil
}

// CreateTicketInput carries the fields of the opening message.
type CreateTicketInput struct {
	PanelID  string
	Subject  string
	Body     string
	Source   domain.TicketSource
	ParentID *string
}

// TicketWithMessage pairs a ticket with one thread message, used for the
// create response.
type TicketWithMessage struct {
	Ticket  *domain.Ticket
	Message *domain.TicketMessage
}

// CreateTicket opens a ticket with its first message. The initial status is
// the row flagged default-open, falling back to the first configured status.
func (s *TicketService) CreateTicket(ctx context.Context, user *domain.User, input CreateTicketInput) (*TicketWithMessage, error) {
	input.Subject = strings.TrimSpace(input.Subject)
	input.Body = strings.TrimSpace(input.Body)
	if input.PanelID == "" || input.Subject == "" || input.Body == "" {
		return nil, apperrors.NewValidationError("panel, subject and message are required", nil)
	}
	if user.Email == "" && user.IdentityID == "" {
		return nil, apperrors.NewValidationError("an email address or linked identity is required", nil)
	}
	if input.Source == "" {
		input.Source = domain.SourceWeb
	}

	panel, err := s.panels.GetByID(ctx, input.PanelID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !panel.Active {
		return nil, apperrors.NewValidationError("panel is not accepting tickets", map[string]any{"panel_id": panel.ID})
	}

	status, err := s.defaultOpenStatus(ctx)
	if err != nil {
		return nil, err
	}
	publicID, err := s.allocatePublicID(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var identity *string
	if user.IdentityID != "" {
		identity = &user.IdentityID
	}
	ticket := &domain.Ticket{
		PublicID:        publicID,
		PanelID:         panel.ID,
		StatusID:        status.ID,
		CreatorUserID:   user.ID,
		CreatorIdentity: identity,
		CreatorEmail:    user.Email,
		Subject:         input.Subject,
		Source:          input.Source,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	message := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: domain.AuthorTypeUser,
		AuthorID:   &user.ID,
		Body:       input.Body,
		Source:     input.Source,
		ParentID:   input.ParentID,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, domain.UserActor(user.ID), "ticket.created", "ticket", ticket.ID,
		map[string]any{"public_id": ticket.PublicID, "panel_id": panel.ID})
	s.publish(ctx, events.EventTicketCreated, ticket, nil)

	return &TicketWithMessage{Ticket: ticket, Message: message}, nil
}

// defaultOpenStatus picks the initial status for new tickets.
func (s *TicketService) defaultOpenStatus(ctx context.Context) (*domain.TicketStatus, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(statuses) == 0 {
		return nil, apperrors.NewConflict("no ticket statuses configured", nil)
	}
	for i := range statuses {
		if statuses[i].IsDefaultOpen {
			return &statuses[i], nil
		}
	}
	return &statuses[0], nil
}

// allocatePublicID draws random ids until one is free. After the retry
// budget the candidate is accepted anyway; at 8 random hex chars a real
// collision would already have tripped the exists check five times.
func (s *TicketService) allocatePublicID(ctx context.Context) (string, error) {
	var candidate string
	for attempt := 0; attempt < publicIDRetries; attempt++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		candidate = publicIDPrefix + strings.ToUpper(hex.EncodeToString(buf))
		exists, err := s.tickets.PublicIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return candidate, nil
}

// GetForUser fetches a ticket the user created, with its thread.
func (s *TicketService) GetForUser(ctx context.Context, user *domain.User, publicID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if ticket.CreatorUserID != user.ID {
		return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"id": publicID})
	}
	messages, err := s.loadThread(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, messages, nil
}

// ListForUser lists the user's own tickets.
func (s *TicketService) ListForUser(ctx context.Context, user *domain.User, limit, offset int) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CreatorUserID: &user.ID,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// StaffListFilter narrows the staff ticket queue.
type StaffListFilter struct {
	PanelID         *string
	StatusIDs       []string
	AssignedStaffID *string
	OpenOnly        bool
	Limit           int
	Offset          int
}

// ListForStaff lists tickets within the caller's visible panels. A requested
// panel outside that set yields a visibility denial rather than an empty
// list, so misconfigured clients fail loudly.
func (s *TicketService) ListForStaff(ctx context.Context, staff *domain.StaffMember, filter StaffListFilter) ([]domain.Ticket, error) {
	if err := auth.RequirePermission(staff, domain.CapTicketsView); err != nil {
		return nil, err
	}

	var panelIDs []string
	if filter.PanelID != nil {
		if err := s.requirePanelAccess(ctx, staff, *filter.PanelID); err != nil {
			return nil, err
		}
		panelIDs = []string{*filter.PanelID}
	} else if !staff.IsAdmin() {
		panels, err := s.AccessiblePanels(ctx, staff)
		if err != nil {
			return nil, err
		}
		if len(panels) == 0 {
			return []domain.Ticket{}, nil
		}
		panelIDs = make([]string, 0, len(panels))
		for _, panel := range panels {
			panelIDs = append(panelIDs, panel.ID)
		}
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		PanelIDs:        panelIDs,
		StatusIDs:       filter.StatusIDs,
		AssignedStaffID: filter.AssignedStaffID,
		OpenOnly:        filter.OpenOnly,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetForStaff fetches any ticket within the caller's visible panels.
func (s *TicketService) GetForStaff(ctx context.Context, staff *domain.StaffMember, publicID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsView, publicID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.loadThread(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, messages, nil
}

// staffTicket resolves a ticket and gates it on a capability plus panel
// visibility. Every staff mutation starts here.
func (s *TicketService) staffTicket(ctx context.Context, staff *domain.StaffMember, capability domain.Capability, publicID string) (*domain.Ticket, error) {
	if err := auth.RequirePermission(staff, capability); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.requirePanelAccess(ctx, staff, ticket.PanelID); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) loadThread(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	messages, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range messages {
		atts, err := s.attachments.ListByMessage(ctx, messages[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		messages[i].Attachments = atts
	}
	return messages, nil
}

// ReplyInput carries a thread message plus optional attachment metadata.
type ReplyInput struct {
	Body        string
	ParentID    *string
	Attachments []AttachmentInput
}

// AttachmentInput is pre-uploaded attachment metadata; the payload already
// sits in the blob store under StorageKey.
type AttachmentInput struct {
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
}

// UserReply appends a message from the ticket's creator.
func (s *TicketService) UserReply(ctx context.Context, user *domain.User, publicID string, input ReplyInput) (*domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.CreatorUserID != user.ID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": publicID})
	}
	return s.appendMessage(ctx, ticket, domain.AuthorTypeUser, &user.ID, domain.UserActor(user.ID), domain.SourceWeb, input)
}

// StaffReply appends a staff message. Replies to Discord-sourced tickets are
// additionally delivered as a DM; delivery failures are logged, not
// surfaced, since the message is already part of the thread.
func (s *TicketService) StaffReply(ctx context.Context, staff *domain.StaffMember, publicID string, input ReplyInput) (*domain.TicketMessage, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsReply, publicID)
	if err != nil {
		return nil, err
	}
	message, err := s.appendMessage(ctx, ticket, domain.AuthorTypeStaff, &staff.ID, domain.StaffActor(staff.ID), domain.SourceWeb, input)
	if err != nil {
		return nil, err
	}
	if ticket.Source == domain.SourceDiscord && ticket.CreatorIdentity != nil {
		if err := s.discord.SendTicketDMReply(ctx, *ticket.CreatorIdentity, ticket.PublicID, message.Body); err != nil {
			s.logger.Warn("discord dm delivery failed",
				zap.String("ticket_id", ticket.PublicID),
				zap.Error(err))
		}
	}
	return message, nil
}

func (s *TicketService) appendMessage(ctx context.Context, ticket *domain.Ticket, authorType domain.MessageAuthorType, authorID *string, actor domain.Actor, source domain.TicketSource, input ReplyInput) (*domain.TicketMessage, error) {
	input.Body = strings.TrimSpace(input.Body)
	if input.Body == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}

	message := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: authorType,
		AuthorID:   authorID,
		Body:       input.Body,
		Source:     source,
		ParentID:   input.ParentID,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range input.Attachments {
		record := &domain.TicketAttachment{
			MessageID:  message.ID,
			FileName:   att.FileName,
			StorageKey: att.StorageKey,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		message.Attachments = append(message.Attachments, *record)
	}

	ticket.LastMessageAt = message.CreatedAt
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, actor, "ticket.reply", "ticket", ticket.ID,
		map[string]any{"message_id": message.ID})
	s.publish(ctx, events.EventTicketMessage, ticket, events.TicketMessagePayload{AuthorType: string(authorType)})
	return message, nil
}

// Claim assigns the ticket to the acting staff member. A claim row is
// appended even when the ticket was already claimed; history, not current
// state, is the source of truth, and the last writer wins the assignment.
func (s *TicketService) Claim(ctx context.Context, staff *domain.StaffMember, publicID string) (*domain.Ticket, error) {
	return s.recordClaim(ctx, staff, publicID, domain.ClaimActionClaim)
}

// Unclaim releases the ticket and appends an unclaim row.
func (s *TicketService) Unclaim(ctx context.Context, staff *domain.StaffMember, publicID string) (*domain.Ticket, error) {
	return s.recordClaim(ctx, staff, publicID, domain.ClaimActionUnclaim)
}

func (s *TicketService) recordClaim(ctx context.Context, staff *domain.StaffMember, publicID string, action domain.ClaimAction) (*domain.Ticket, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsClaim, publicID)
	if err != nil {
		return nil, err
	}

	if action == domain.ClaimActionClaim {
		ticket.AssignedStaffID = &staff.ID
	} else {
		ticket.AssignedStaffID = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	claim := &domain.TicketClaim{TicketID: ticket.ID, StaffID: staff.ID, Action: action}
	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, domain.StaffActor(staff.ID), "ticket."+string(action), "ticket", ticket.ID, nil)
	s.publish(ctx, events.EventTicketUpdated, ticket, events.TicketUpdatedPayload{Change: string(action)})
	return ticket, nil
}

// Assign sets the assignee to an arbitrary staff member, or clears it. The
// target must be an active staff member; claim history is not touched.
func (s *TicketService) Assign(ctx context.Context, staff *domain.StaffMember, publicID string, targetStaffID *string) (*domain.Ticket, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsAssign, publicID)
	if err != nil {
		return nil, err
	}

	if targetStaffID != nil {
		target, err := s.staff.GetByID(ctx, *targetStaffID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !target.Active {
			return nil, apperrors.NewValidationError("cannot assign a ticket to inactive staff", map[string]any{"staff_id": target.ID})
		}
	}
	ticket.AssignedStaffID = targetStaffID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	meta := map[string]any{}
	if targetStaffID != nil {
		meta["assigned_staff_id"] = *targetStaffID
	}
	s.audit.Record(ctx, domain.StaffActor(staff.ID), "ticket.assign", "ticket", ticket.ID, meta)
	s.publish(ctx, events.EventTicketUpdated, ticket, events.TicketUpdatedPayload{Change: "assign"})
	return ticket, nil
}

// SetStatus moves the ticket to another configured status. Transitioning
// into a closed status sets closed_at and, on the first close only,
// generates the automatic transcript.
func (s *TicketService) SetStatus(ctx context.Context, staff *domain.StaffMember, publicID, statusID string) (*domain.Ticket, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsStatus, publicID)
	if err != nil {
		return nil, err
	}
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.applyStatus(ctx, staff, ticket, status, "status")
}

// Close transitions the ticket into the canonical closed status.
func (s *TicketService) Close(ctx context.Context, staff *domain.StaffMember, publicID string) (*domain.Ticket, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsClose, publicID)
	if err != nil {
		return nil, err
	}
	status, err := s.closedStatus(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyStatus(ctx, staff, ticket, status, "close")
}

func (s *TicketService) closedStatus(ctx context.Context) (*domain.TicketStatus, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range statuses {
		if statuses[i].IsClosed {
			return &statuses[i], nil
		}
	}
	return nil, apperrors.NewConflict("no closed status configured", nil)
}

// applyStatus performs the status transition and its close side effects. One
// audit entry per call even when the closed flag also flips; transcript
// failures never roll back the transition.
func (s *TicketService) applyStatus(ctx context.Context, staff *domain.StaffMember, ticket *domain.Ticket, status *domain.TicketStatus, change string) (*domain.Ticket, error) {
	firstClose := status.IsClosed && ticket.ClosedAt == nil

	ticket.StatusID = status.ID
	switch {
	case firstClose:
		now := time.Now()
		ticket.ClosedAt = &now
	case !status.IsClosed:
		ticket.ClosedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, domain.StaffActor(staff.ID), "ticket."+change, "ticket", ticket.ID,
		map[string]any{"status_id": status.ID, "closed": status.IsClosed})

	if firstClose {
		if _, err := s.transcripts.Generate(ctx, ticket, domain.TranscriptTriggerClose); err != nil {
			s.logger.Error("automatic transcript failed",
				zap.String("ticket_id", ticket.PublicID),
				zap.Error(err))
			if s.metrics != nil {
				s.metrics.TranscriptFailures.Inc()
			}
		}
	}

	s.publish(ctx, events.EventTicketUpdated, ticket, events.TicketUpdatedPayload{Change: change})
	s.notifyCreator(ctx, ticket, change)
	return ticket, nil
}

// Escalate moves the ticket to a different active panel and clears the
// assignee so it is re-triaged there. The actor needs visibility on both
// the current and the target panel.
func (s *TicketService) Escalate(ctx context.Context, staff *domain.StaffMember, publicID, targetPanelID string) (*domain.Ticket, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTicketsEscalate, publicID)
	if err != nil {
		return nil, err
	}
	if targetPanelID == ticket.PanelID {
		return nil, apperrors.NewValidationError("ticket is already in this panel", nil)
	}
	target, err := s.panels.GetByID(ctx, targetPanelID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !target.Active {
		return nil, apperrors.NewValidationError("target panel is not active", map[string]any{"panel_id": target.ID})
	}
	if err := s.requirePanelAccess(ctx, staff, target.ID); err != nil {
		return nil, err
	}

	fromPanelID := ticket.PanelID
	ticket.PanelID = target.ID
	ticket.AssignedStaffID = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, domain.StaffActor(staff.ID), "ticket.escalate", "ticket", ticket.ID,
		map[string]any{"from_panel_id": fromPanelID, "to_panel_id": target.ID})
	s.publish(ctx, events.EventTicketUpdated, ticket, events.TicketUpdatedPayload{Change: "escalate"})
	return ticket, nil
}

// CreateManualTranscript snapshots the ticket on demand, in any state.
func (s *TicketService) CreateManualTranscript(ctx context.Context, staff *domain.StaffMember, publicID string) (*domain.TicketTranscript, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTranscriptsWrite, publicID)
	if err != nil {
		return nil, err
	}
	transcript, err := s.transcripts.Generate(ctx, ticket, domain.TranscriptTriggerManual)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.Record(ctx, domain.StaffActor(staff.ID), "ticket.transcript", "ticket", ticket.ID,
		map[string]any{"transcript_id": transcript.ID})
	return transcript, nil
}

// ListTranscripts returns a ticket's transcripts for staff with access.
func (s *TicketService) ListTranscripts(ctx context.Context, staff *domain.StaffMember, publicID string) ([]domain.TicketTranscript, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTranscriptsWrite, publicID)
	if err != nil {
		return nil, err
	}
	transcripts, err := s.transcripts.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return transcripts, nil
}

// GetTranscript fetches one transcript for rendering.
func (s *TicketService) GetTranscript(ctx context.Context, staff *domain.StaffMember, publicID, transcriptID string) (*domain.TicketTranscript, error) {
	ticket, err := s.staffTicket(ctx, staff, domain.CapTranscriptsWrite, publicID)
	if err != nil {
		return nil, err
	}
	return s.transcripts.Get(ctx, ticket.ID, transcriptID)
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, payload any) {
	s.broadcaster.Broadcast(ctx, events.Event{
		Type:           eventType,
		TicketPublicID: ticket.PublicID,
		CreatorUserID:  ticket.CreatorUserID,
		Payload:        payload,
	})
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(string(eventType)).Inc()
	}
}

// notifyCreator DMs Discord-linked creators about lifecycle changes.
func (s *TicketService) notifyCreator(ctx context.Context, ticket *domain.Ticket, change string) {
	if ticket.Source != domain.SourceDiscord || ticket.CreatorIdentity == nil {
		return
	}
	if err := s.discord.SendTicketUpdateDM(ctx, *ticket.CreatorIdentity, ticket.PublicID, change); err != nil {
		s.logger.Warn("discord update dm failed",
			zap.String("ticket_id", ticket.PublicID),
			zap.Error(err))
	}
}
