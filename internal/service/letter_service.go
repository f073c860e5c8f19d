package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"backend/internal/apperr"
	"backend/internal/lettertype"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateLetterRequest struct {
	LetterType        string            `json:"letter_type" binding:"required"`
	SupplementaryData map[string]string `json:"supplementary_data"`
	Purpose           string            `json:"purpose"`
	Notes             string            `json:"notes"`
}

type ChangeStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejection_reason"`
}

// LetterListFilter narrows letter listings. Students are always scoped to
// their own letters regardless of the filter.
type LetterListFilter struct {
	Status     string
	LetterType string
	Page       int
	Limit      int
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// MissingFieldsError reports the supplementary fields a letter type requires
// that the request did not carry. Matches apperr.ErrInvalidInput.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error {
	return apperr.ErrInvalidInput
}

// Notifier pushes letter events to connected dashboard clients.
type Notifier interface {
	NotifyLetter(event string, letter *model.Letter)
}

// Letter event names sent through the Notifier.
const (
	EventLetterCreated        = "letter.created"
	EventLetterApproved       = "letter.approved"
	EventLetterRejected       = "letter.rejected"
	EventLetterNumberAssigned = "letter.number_assigned"
)

// --- Interface ---

// LetterService is the lifecycle controller: it owns the pending →
// approved/rejected transition and invokes the numbering engine as an
// approval side effect.
type LetterService interface {
	Create(ctx context.Context, actor Actor, req CreateLetterRequest) (*model.Letter, error)
	List(ctx context.Context, actor Actor, filter LetterListFilter) ([]model.Letter, int64, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Letter, error)
	ChangeStatus(ctx context.Context, actor Actor, id uuid.UUID, req ChangeStatusRequest) (*model.Letter, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type letterService struct {
	letters   repository.LetterRepository
	audits    repository.AuditRepository
	tx        repository.TransactionManager
	registry  *lettertype.Registry
	numbering NumberingService
	notifier  Notifier // optional
	now       func() time.Time
}

func NewLetterService(
	letters repository.LetterRepository,
	audits repository.AuditRepository,
	tx repository.TransactionManager,
	registry *lettertype.Registry,
	numbering NumberingService,
	notifier Notifier,
) LetterService {
	return &letterService{
		letters:   letters,
		audits:    audits,
		tx:        tx,
		registry:  registry,
		numbering: numbering,
		notifier:  notifier,
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *letterService) Create(ctx context.Context, actor Actor, req CreateLetterRequest) (*model.Letter, error) {
	if !s.registry.Valid(req.LetterType) {
		return nil, fmt.Errorf("%w: invalid letter type %q", apperr.ErrInvalidInput, req.LetterType)
	}

	if missing := s.registry.MissingFields(req.LetterType, req.SupplementaryData); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	data, err := json.Marshal(req.SupplementaryData)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding supplementary data: %v", apperr.ErrInternal, err)
	}

	letter := model.Letter{
		LetterType:        req.LetterType,
		Status:            model.LetterPending,
		RequesterID:       actor.ID,
		SupplementaryData: string(data),
		Purpose:           req.Purpose,
		Notes:             req.Notes,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.letters.Create(txCtx, &letter); err != nil {
			return fmt.Errorf("%w: creating letter request: %v", apperr.ErrInternal, err)
		}
		return s.audit(txCtx, &actor.ID, model.ActionCreateLetterRequest, &letter, map[string]interface{}{
			"letter_type": req.LetterType,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(EventLetterCreated, &letter)

	return s.reload(ctx, letter.ID)
}

func (s *letterService) List(ctx context.Context, actor Actor, filter LetterListFilter) ([]model.Letter, int64, error) {
	repoFilter := repository.LetterFilter{
		Status:     filter.Status,
		LetterType: filter.LetterType,
	}
	// Students only ever see their own letters.
	if actor.Role == model.RoleStudent {
		id := actor.ID
		repoFilter.RequesterID = &id
	}

	page := filter.Page
	limit := filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	letters, total, err := s.letters.List(ctx, repoFilter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing letters: %v", apperr.ErrInternal, err)
	}
	return letters, total, nil
}

func (s *letterService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Letter, error) {
	letter, err := s.letters.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, letterLookupErr(err)
	}

	if actor.Role == model.RoleStudent && letter.RequesterID != actor.ID {
		return nil, fmt.Errorf("%w: you can only view your own letters", apperr.ErrForbidden)
	}

	return letter, nil
}

func (s *letterService) ChangeStatus(ctx context.Context, actor Actor, id uuid.UUID, req ChangeStatusRequest) (*model.Letter, error) {
	if req.Status != model.LetterApproved && req.Status != model.LetterRejected {
		return nil, fmt.Errorf("%w: status must be %q or %q", apperr.ErrInvalidInput, model.LetterApproved, model.LetterRejected)
	}
	if req.Status == model.LetterRejected && req.RejectionReason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", apperr.ErrInvalidInput)
	}

	var letter *model.Letter
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.letters.FindByID(txCtx, id)
		if err != nil {
			return letterLookupErr(err)
		}
		if found.Status != model.LetterPending {
			return fmt.Errorf("%w: letter is already %s", apperr.ErrInvalidState, found.Status)
		}

		now := s.now()
		action := model.ActionApproveLetter
		details := map[string]interface{}{"letter_type": found.LetterType}

		switch req.Status {
		case model.LetterApproved:
			found.Status = model.LetterApproved
			found.ApprovedBy = &actor.ID
			found.ApprovedAt = &now
		case model.LetterRejected:
			found.Status = model.LetterRejected
			found.RejectedBy = &actor.ID
			found.RejectedAt = &now
			found.RejectionReason = req.RejectionReason
			action = model.ActionRejectLetter
			details["reason"] = req.RejectionReason
		}

		if err := s.letters.Update(txCtx, found); err != nil {
			return fmt.Errorf("%w: updating letter status: %v", apperr.ErrInternal, err)
		}

		if err := s.audit(txCtx, &actor.ID, action, found, details); err != nil {
			return err
		}

		letter = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status == model.LetterApproved {
		// Numbering is a best-effort side effect: a failure here must not
		// undo the approval. The letter stays approved but numberless and
		// the failure is recorded for operators.
		numbered, assignErr := s.numbering.Assign(ctx, id, &actor.ID)
		if assignErr != nil {
			log.Printf("letter %s approved but number assignment failed: %v", id, assignErr)
			s.auditBestEffort(ctx, &actor.ID, model.ActionAssignNumberFailed, letter, map[string]interface{}{
				"error": assignErr.Error(),
			})
		} else {
			letter = numbered
			s.notify(EventLetterNumberAssigned, letter)
		}
		s.notify(EventLetterApproved, letter)
	} else {
		s.notify(EventLetterRejected, letter)
	}

	return s.reload(ctx, id)
}

func (s *letterService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	letter, err := s.letters.FindByID(ctx, id)
	if err != nil {
		return letterLookupErr(err)
	}

	if letter.RequesterID != actor.ID && actor.Role != model.RoleAdmin {
		return fmt.Errorf("%w: you can only delete your own letters", apperr.ErrForbidden)
	}
	if letter.Status != model.LetterPending {
		return fmt.Errorf("%w: only pending letters can be deleted", apperr.ErrInvalidState)
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.letters.Delete(txCtx, id); err != nil {
			return fmt.Errorf("%w: deleting letter: %v", apperr.ErrInternal, err)
		}
		return s.audit(txCtx, &actor.ID, model.ActionDeleteLetterRequest, letter, map[string]interface{}{
			"letter_type": letter.LetterType,
			"status":      letter.Status,
		})
	})
}

// --- Helpers ---

func (s *letterService) reload(ctx context.Context, id uuid.UUID) (*model.Letter, error) {
	letter, err := s.letters.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: reloading letter: %v", apperr.ErrInternal, err)
	}
	return letter, nil
}

func (s *letterService) audit(ctx context.Context, actorID *uuid.UUID, action string, letter *model.Letter, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   letter.ID.String(),
		EntityName: letter.LetterType,
		Details:    string(payload),
	}
	if err := s.audits.Log(ctx, &entry); err != nil {
		return fmt.Errorf("%w: writing audit log: %v", apperr.ErrInternal, err)
	}
	return nil
}

func (s *letterService) auditBestEffort(ctx context.Context, actorID *uuid.UUID, action string, letter *model.Letter, details map[string]interface{}) {
	if err := s.audit(ctx, actorID, action, letter, details); err != nil {
		log.Printf("audit write failed for %s on letter %s: %v", action, letter.ID, err)
	}
}

func (s *letterService) notify(event string, letter *model.Letter) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyLetter(event, letter)
}
