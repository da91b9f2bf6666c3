package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	PanelID string `json:"panel_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ReplyRequest payload for thread messages.
type ReplyRequest struct {
	Message     string              `json:"message"`
	ParentID    *string             `json:"parent_id"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest references a blob already uploaded to the store.
type AttachmentRequest struct {
	FileName   string `json:"file_name"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AssignRequest payload; a null staff_id clears the assignment.
type AssignRequest struct {
	StaffID *string `json:"staff_id"`
}

// StatusRequest payload.
type StatusRequest struct {
	StatusID string `json:"status_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	PanelID string `json:"panel_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string     `json:"id"`
	PanelID         string     `json:"panel_id"`
	StatusID        string     `json:"status_id"`
	Subject         string     `json:"subject"`
	Source          string     `json:"source"`
	AssignedStaffID *string    `json:"assigned_staff_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ClosedAt        *time.Time `json:"closed_at"`
	LastMessageAt   time.Time  `json:"last_message_at"`
}

// TicketDetailResponse pairs a ticket with its thread.
type TicketDetailResponse struct {
	Ticket   TicketSummary     `json:"ticket"`
	Messages []MessageResponse `json:"messages"`
}

// MessageResponse is one thread entry.
type MessageResponse struct {
	ID          string               `json:"id"`
	AuthorType  string               `json:"author_type"`
	AuthorID    *string              `json:"author_id"`
	Body        string               `json:"body"`
	Source      string               `json:"source"`
	ParentID    *string              `json:"parent_id"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
}

// AttachmentResponse is stored attachment metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// TranscriptSummary response; the snapshot body is fetched per transcript.
type TranscriptSummary struct {
	ID            string    `json:"id"`
	Trigger       string    `json:"trigger"`
	SchemaVersion int       `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// NewTicketSummary maps a domain ticket. The public id is the only id
// exposed outside the service.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:              ticket.PublicID,
		PanelID:         ticket.PanelID,
		StatusID:        ticket.StatusID,
		Subject:         ticket.Subject,
		Source:          string(ticket.Source),
		AssignedStaffID: ticket.AssignedStaffID,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		ClosedAt:        ticket.ClosedAt,
		LastMessageAt:   ticket.LastMessageAt,
	}
}

// NewTicketSummaries maps a ticket list.
func NewTicketSummaries(tickets []domain.Ticket) []TicketSummary {
	out := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketSummary(&tickets[i]))
	}
	return out
}

// NewMessageResponse maps a thread message with attachments.
func NewMessageResponse(msg *domain.TicketMessage) MessageResponse {
	attachments := make([]AttachmentResponse, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return MessageResponse{
		ID:          msg.ID,
		AuthorType:  string(msg.AuthorType),
		AuthorID:    msg.AuthorID,
		Body:        msg.Body,
		Source:      string(msg.Source),
		ParentID:    msg.ParentID,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
	}
}

// NewTicketDetail maps a ticket with its ordered thread.
func NewTicketDetail(ticket *domain.Ticket, messages []domain.TicketMessage) TicketDetailResponse {
	out := TicketDetailResponse{Ticket: NewTicketSummary(ticket)}
	out.Messages = make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out.Messages = append(out.Messages, NewMessageResponse(&messages[i]))
	}
	return out
}

// NewTranscriptSummaries maps transcript metadata.
func NewTranscriptSummaries(transcripts []domain.TicketTranscript) []TranscriptSummary {
	out := make([]TranscriptSummary, 0, len(transcripts))
	for _, transcript := range transcripts {
		out = append(out, TranscriptSummary{
			ID:            transcript.ID,
			Trigger:       string(transcript.Trigger),
			SchemaVersion: transcript.SchemaVersion,
			GeneratedAt:   transcript.GeneratedAt,
		})
	}
	return out
}
