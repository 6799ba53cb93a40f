package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/fieldcrypt"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

// ClientView is a client row with its sensitive fields resolved for display.
type ClientView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityService is the write/read surface for the records the suggestion
// engine analyzes: clients, visits and notes. Sensitive fields are encrypted
// on the way in and resolved on the way out.
type ActivityService interface {
	CreateClient(ctx context.Context, userID uuid.UUID, name, phone, city string) (*ClientView, error)
	ListClients(ctx context.Context, userID uuid.UUID) ([]*ClientView, error)
	CreateVisit(ctx context.Context, userID, clientID uuid.UUID, date time.Time, amount float64, outcome string) (*domain.Visit, error)
	ListVisits(ctx context.Context, userID uuid.UUID) ([]*domain.Visit, error)
	CreateNote(ctx context.Context, userID, clientID uuid.UUID, date time.Time, content string) (*domain.Note, error)
}

type activityService struct {
	db      *gorm.DB
	log     *logger.Logger
	clients repos.ClientRepo
	visits  repos.VisitRepo
	notes   repos.NoteRepo
	cipher  fieldcrypt.Cipher
}

func NewActivityService(db *gorm.DB, log *logger.Logger, clientRepo repos.ClientRepo, visitRepo repos.VisitRepo, noteRepo repos.NoteRepo, cipher fieldcrypt.Cipher) ActivityService {
	return &activityService{
		db:      db,
		log:     log.With("service", "ActivityService"),
		clients: clientRepo,
		visits:  visitRepo,
		notes:   noteRepo,
		cipher:  cipher,
	}
}

func (s *activityService) CreateClient(ctx context.Context, userID uuid.UUID, name, phone, city string) (*ClientView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("client name is required")
	}
	id := uuid.New()
	enc, err := s.cipher.Encrypt(ctx, userID, "client", id, map[string]string{
		"name":  name,
		"phone": strings.TrimSpace(phone),
	})
	if err != nil {
		return nil, fmt.Errorf("encrypt client fields: %w", err)
	}
	now := time.Now().UTC()
	row := &domain.Client{
		ID:        id,
		UserID:    userID,
		NameEnc:   enc["name"],
		PhoneEnc:  enc["phone"],
		City:      strings.TrimSpace(city),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.clients.Create(ctx, nil, []*domain.Client{row}); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &ClientView{ID: row.ID, Name: name, Phone: phone, City: row.City, CreatedAt: row.CreatedAt}, nil
}

func (s *activityService) ListClients(ctx context.Context, userID uuid.UUID) ([]*ClientView, error) {
	rows, err := s.clients.ListByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]*ClientView, 0, len(rows))
	for _, c := range rows {
		view := &ClientView{ID: c.ID, City: c.City, CreatedAt: c.CreatedAt}
		fields, err := s.cipher.Decrypt(ctx, userID, "client", c.ID, c.EncryptedFields(), []string{"name", "phone"})
		if err != nil {
			// unreadable row still shows up, with the cleartext fallback
			s.log.Warn("client decryption failed, using fallback", "client_id", c.ID, "error", err)
			view.Name = c.City
			if view.Name == "" {
				view.Name = "Client " + c.ID.String()[:8]
			}
		} else {
			view.Name = fields["name"]
			view.Phone = fields["phone"]
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *activityService) CreateVisit(ctx context.Context, userID, clientID uuid.UUID, date time.Time, amount float64, outcome string) (*domain.Visit, error) {
	if clientID == uuid.Nil {
		return nil, fmt.Errorf("client id is required")
	}
	if amount < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	now := time.Now().UTC()
	row := &domain.Visit{
		ID:        uuid.New(),
		UserID:    userID,
		ClientID:  clientID,
		Date:      date,
		Amount:    amount,
		Outcome:   strings.TrimSpace(outcome),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.visits.Create(ctx, nil, []*domain.Visit{row}); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return row, nil
}

func (s *activityService) ListVisits(ctx context.Context, userID uuid.UUID) ([]*domain.Visit, error) {
	rows, err := s.visits.ListByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return rows, nil
}

func (s *activityService) CreateNote(ctx context.Context, userID, clientID uuid.UUID, date time.Time, content string) (*domain.Note, error) {
	if clientID == uuid.Nil {
		return nil, fmt.Errorf("client id is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("note content is required")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	id := uuid.New()
	enc, err := s.cipher.Encrypt(ctx, userID, "note", id, map[string]string{"content": content})
	if err != nil {
		return nil, fmt.Errorf("encrypt note content: %w", err)
	}
	now := time.Now().UTC()
	row := &domain.Note{
		ID:         id,
		UserID:     userID,
		ClientID:   clientID,
		Date:       date,
		ContentEnc: enc["content"],
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.notes.Create(ctx, nil, []*domain.Note{row}); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return row, nil
}
