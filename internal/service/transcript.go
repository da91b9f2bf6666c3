package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TranscriptService builds, persists and renders ticket transcripts.
type TranscriptService struct {
	transcripts repository.TranscriptRepository
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	claims      repository.ClaimRepository
	audits      repository.AuditRepository
}

// TranscriptDependencies bundles repositories for the transcript service.
type TranscriptDependencies struct {
	TranscriptRepo repository.TranscriptRepository
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	ClaimRepo      repository.ClaimRepository
	AuditRepo      repository.AuditRepository
}

// NewTranscriptService constructs the service.
func NewTranscriptService(deps TranscriptDependencies) *TranscriptService {
	return &TranscriptService{
		transcripts: deps.TranscriptRepo,
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		claims:      deps.ClaimRepo,
		audits:      deps.AuditRepo,
	}
}

// Generate snapshots the ticket's full history and persists an immutable
// transcript row. Messages, claims and audit entries are read back in
// creation order; the snapshot is the document of record from then on.
func (s *TranscriptService) Generate(ctx context.Context, ticket *domain.Ticket, trigger domain.TranscriptTrigger) (*domain.TicketTranscript, error) {
	messages, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for i := range messages {
		atts, err := s.attachments.ListByMessage(ctx, messages[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list attachments: %w", err)
		}
		messages[i].Attachments = atts
	}

	claims, err := s.claims.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	audits, err := s.audits.ListByEntity(ctx, "ticket", ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	snapshot := domain.TranscriptSnapshot{
		SchemaVersion: domain.TranscriptSchemaVersion,
		Ticket:        *ticket,
		Messages:      messages,
		Claims:        claims,
		AuditEntries:  audits,
		Trigger:       trigger,
		GeneratedAt:   time.Now().UTC(),
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	transcript := &domain.TicketTranscript{
		TicketID:      ticket.ID,
		Trigger:       trigger,
		SchemaVersion: domain.TranscriptSchemaVersion,
		Snapshot:      raw,
	}
	if err := s.transcripts.Create(ctx, transcript); err != nil {
		return nil, fmt.Errorf("persist transcript: %w", err)
	}
	return transcript, nil
}

// Get returns one transcript, verifying it belongs to the ticket.
func (s *TranscriptService) Get(ctx context.Context, ticketID, transcriptID string) (*domain.TicketTranscript, error) {
	transcript, err := s.transcripts.GetByID(ctx, transcriptID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if transcript.TicketID != ticketID {
		return nil, apperrors.NewNotFound("transcript", map[string]any{"id": transcriptID})
	}
	return transcript, nil
}

// ListByTicket returns the ticket's transcripts, newest first.
func (s *TranscriptService) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTranscript, error) {
	return s.transcripts.ListByTicket(ctx, ticketID)
}

// RenderJSON returns the stored snapshot verbatim.
func (s *TranscriptService) RenderJSON(transcript *domain.TicketTranscript) []byte {
	return transcript.Snapshot
}

// html/template escapes every interpolated field, so ticket subjects and
// message bodies cannot inject markup into the rendered document.
var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Transcript {{.Ticket.PublicID}}</title></head>
<body>
<h1>Ticket {{.Ticket.PublicID}}</h1>
<p>Subject: {{.Ticket.Subject}}</p>
<p>Generated: {{.GeneratedAt.UTC.Format "2006-01-02 15:04:05 MST"}} (trigger: {{.Trigger}})</p>
<h2>Messages</h2>
{{range .Messages}}<div class="message">
  <p><strong>{{.AuthorType}}</strong> at {{.CreatedAt.UTC.Format "2006-01-02 15:04:05"}}</p>
  <p>{{.Body}}</p>
  {{range .Attachments}}<p class="attachment">Attachment: {{.FileName}} ({{.MimeType}}, {{.SizeBytes}} bytes)</p>
  {{end}}</div>
{{else}}<p>No messages.</p>
{{end}}
<h2>Claim history</h2>
{{range .Claims}}<p>{{.Action}} by {{.StaffID}} at {{.CreatedAt.UTC.Format "2006-01-02 15:04:05"}}</p>
{{else}}<p>No claims.</p>
{{end}}
<h2>Audit trail</h2>
{{range .AuditEntries}}<p>{{.Action}} ({{.Actor.Type}}) at {{.CreatedAt.UTC.Format "2006-01-02 15:04:05"}}</p>
{{else}}<p>No entries.</p>
{{end}}
</body>
</html>
`))

// RenderHTML produces the portable document view of a transcript.
func (s *TranscriptService) RenderHTML(transcript *domain.TicketTranscript) ([]byte, error) {
	var snapshot domain.TranscriptSnapshot
	if err := json.Unmarshal(transcript.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.GeneratedAt.IsZero() {
		snapshot.GeneratedAt = transcript.GeneratedAt
	}

	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, snapshot); err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}
	return buf.Bytes(), nil
}
