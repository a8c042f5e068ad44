package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/earlylookhq/earlylook/internal/models"
	apperrors "github.com/earlylookhq/earlylook/pkg/errors"
)

// AddFeedbackInput captures an issuer-side note on a deal's book.
type AddFeedbackInput struct {
	DealID          string
	CreatedByUserID string
	Scope           models.FeedbackScope
	ScopeID         *string
	NoteText        string
}

// FeedbackService records free-form issuer notes scoped to a whole deal, one
// investor, or one band.
type FeedbackService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewFeedbackService constructs a FeedbackService instance.
func NewFeedbackService(db *gorm.DB, auditService *AuditService) (*FeedbackService, error) {
	if db == nil {
		return nil, errors.New("feedback service: db is required")
	}
	return &FeedbackService{db: db, auditService: auditService}, nil
}

// Add stores a feedback note. Investor and band scopes must name their target;
// general scope must not.
func (s *FeedbackService) Add(ctx context.Context, input AddFeedbackInput) (*models.FeedbackNote, error) {
	ctx = ensureContext(ctx)

	text := strings.TrimSpace(input.NoteText)
	if text == "" {
		return nil, apperrors.NewBadRequest("note text is required")
	}

	scope := input.Scope
	if scope == "" {
		scope = models.FeedbackScopeGeneral
	}
	if !scope.Valid() {
		return nil, apperrors.NewBadRequest("scope must be investor, band, or general")
	}
	if scope == models.FeedbackScopeGeneral && input.ScopeID != nil {
		return nil, apperrors.NewBadRequest("general notes must not reference a target")
	}
	if scope != models.FeedbackScopeGeneral && (input.ScopeID == nil || strings.TrimSpace(*input.ScopeID) == "") {
		return nil, apperrors.NewBadRequest("scoped notes must reference a target")
	}

	var deal models.Deal
	if err := s.db.WithContext(ctx).First(&deal, "id = ?", input.DealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("feedback service: load deal: %w", err)
	}

	note := &models.FeedbackNote{
		DealID:          deal.ID,
		CreatedByUserID: strings.TrimSpace(input.CreatedByUserID),
		Scope:           scope,
		ScopeID:         input.ScopeID,
		NoteText:        text,
	}

	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, fmt.Errorf("feedback service: create note: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "feedback.add",
		Resource: note.ID,
		Result:   "success",
		Metadata: map[string]any{"deal_id": deal.ID, "scope": scope},
	})

	return note, nil
}

// List returns a deal's feedback notes, newest first.
func (s *FeedbackService) List(ctx context.Context, dealID string) ([]models.FeedbackNote, error) {
	ctx = ensureContext(ctx)

	var notes []models.FeedbackNote
	if err := s.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("feedback service: list notes: %w", err)
	}
	return notes, nil
}
