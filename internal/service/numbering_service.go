package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NumberingService is the letter numbering engine. Numbers follow the format
// "YYYY/MM/TYPE/SEQ" with SEQ a zero-padded 3-digit ordinal counted
// independently per (year, month, type) scope. Assign and Edit serialize
// concurrent writers with a per-scope advisory lock inside a transaction; the
// unique index on letter_number is the backstop.
type NumberingService interface {
	// NextNumber computes the next free number for the type in the scope of
	// ref. Read-only; callers needing a uniqueness guarantee must go through
	// Assign.
	NextNumber(ctx context.Context, letterType string, ref time.Time) (string, error)
	// Assign gives an approved, still unnumbered letter the next number in
	// its current scope.
	Assign(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*model.Letter, error)
	// Cancel clears a letter's number. The freed ordinal is never reused, so
	// a cancelled mid-sequence number leaves a permanent gap.
	Cancel(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*model.Letter, error)
	// Edit replaces a letter's number with an arbitrary string. Only global
	// uniqueness is enforced; the new number may belong to any scope or none.
	Edit(ctx context.Context, id uuid.UUID, newNumber string, actorID *uuid.UUID) (*model.Letter, error)
	// Statistics reports per-type counts and highest ordinals for a year.
	Statistics(ctx context.Context, year int) (model.NumberingStats, error)
}

type numberingService struct {
	letters repository.LetterRepository
	audits  repository.AuditRepository
	tx      repository.TransactionManager
	now     func() time.Time
}

func NewNumberingService(letters repository.LetterRepository, audits repository.AuditRepository, tx repository.TransactionManager) NumberingService {
	return &numberingService{
		letters: letters,
		audits:  audits,
		tx:      tx,
		now:     time.Now,
	}
}

// scopePrefix formats the literal prefix of a numbering scope,
// e.g. "2025/10/SKA/".
func scopePrefix(letterType string, ref time.Time) string {
	return fmt.Sprintf("%04d/%02d/%s/", ref.Year(), int(ref.Month()), letterType)
}

// parseSequence extracts the ordinal from a well-formed letter number.
// Numbers edited into a foreign shape simply don't participate.
func parseSequence(number string) (int, bool) {
	parts := strings.Split(number, "/")
	if len(parts) != 4 {
		return 0, false
	}
	seq, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, false
	}
	return seq, true
}

func (s *numberingService) NextNumber(ctx context.Context, letterType string, ref time.Time) (string, error) {
	prefix := scopePrefix(letterType, ref)
	return s.nextInScope(ctx, prefix)
}

// nextInScope computes prefix + (max assigned ordinal + 1). Callers that
// write the result must hold the scope lock.
func (s *numberingService) nextInScope(ctx context.Context, prefix string) (string, error) {
	numbers, err := s.letters.NumbersWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("%w: querying scope %s: %v", apperr.ErrInternal, prefix, err)
	}

	maxSeq := 0
	for _, n := range numbers {
		if seq, ok := parseSequence(n); ok && seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s%03d", prefix, maxSeq+1), nil
}

func (s *numberingService) Assign(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*model.Letter, error) {
	var assigned *model.Letter
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		letter, err := s.letters.FindByID(txCtx, id)
		if err != nil {
			return letterLookupErr(err)
		}

		if letter.Status != model.LetterApproved {
			return fmt.Errorf("%w: only approved letters can be assigned a number", apperr.ErrInvalidState)
		}
		if letter.LetterNumber != nil {
			return fmt.Errorf("%w: letter already has a number assigned", apperr.ErrInvalidState)
		}

		prefix := scopePrefix(letter.LetterType, s.now())
		if err := s.letters.LockScope(txCtx, prefix); err != nil {
			return fmt.Errorf("%w: locking scope %s: %v", apperr.ErrInternal, prefix, err)
		}

		number, err := s.nextInScope(txCtx, prefix)
		if err != nil {
			return err
		}

		letter.LetterNumber = &number
		if err := s.letters.Update(txCtx, letter); err != nil {
			return fmt.Errorf("%w: persisting letter number: %v", apperr.ErrInternal, err)
		}

		if err := s.audit(txCtx, actorID, model.ActionAssignLetterNumber, letter, map[string]interface{}{
			"letter_number": number,
		}); err != nil {
			return err
		}

		assigned = letter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

func (s *numberingService) Cancel(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*model.Letter, error) {
	var cancelled *model.Letter
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		letter, err := s.letters.FindByID(txCtx, id)
		if err != nil {
			return letterLookupErr(err)
		}

		if letter.LetterNumber == nil {
			return fmt.Errorf("%w: letter does not have a number assigned", apperr.ErrInvalidState)
		}

		old := *letter.LetterNumber
		letter.LetterNumber = nil
		if err := s.letters.Update(txCtx, letter); err != nil {
			return fmt.Errorf("%w: clearing letter number: %v", apperr.ErrInternal, err)
		}

		if err := s.audit(txCtx, actorID, model.ActionCancelLetterNumber, letter, map[string]interface{}{
			"cancelled_number": old,
		}); err != nil {
			return err
		}

		cancelled = letter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *numberingService) Edit(ctx context.Context, id uuid.UUID, newNumber string, actorID *uuid.UUID) (*model.Letter, error) {
	if newNumber == "" {
		return nil, fmt.Errorf("%w: letter number is required", apperr.ErrInvalidInput)
	}

	var edited *model.Letter
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		letter, err := s.letters.FindByID(txCtx, id)
		if err != nil {
			return letterLookupErr(err)
		}

		// Serialize on the target number so two edits (or an edit racing an
		// assign whose scope formats this exact string) can't both pass the
		// uniqueness check.
		if err := s.letters.LockScope(txCtx, newNumber); err != nil {
			return fmt.Errorf("%w: locking number %s: %v", apperr.ErrInternal, newNumber, err)
		}

		holder, err := s.letters.FindByNumber(txCtx, newNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: checking number uniqueness: %v", apperr.ErrInternal, err)
		}
		if holder != nil && holder.ID != letter.ID {
			return fmt.Errorf("%w: letter number already in use", apperr.ErrConflict)
		}

		var old string
		if letter.LetterNumber != nil {
			old = *letter.LetterNumber
		}

		letter.LetterNumber = &newNumber
		if err := s.letters.Update(txCtx, letter); err != nil {
			return fmt.Errorf("%w: persisting letter number: %v", apperr.ErrInternal, err)
		}

		if err := s.audit(txCtx, actorID, model.ActionEditLetterNumber, letter, map[string]interface{}{
			"old_number": old,
			"new_number": newNumber,
		}); err != nil {
			return err
		}

		edited = letter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

func (s *numberingService) Statistics(ctx context.Context, year int) (model.NumberingStats, error) {
	if year == 0 {
		year = s.now().Year()
	}

	letters, err := s.letters.NumberedInYear(ctx, year)
	if err != nil {
		return model.NumberingStats{}, fmt.Errorf("%w: querying numbered letters: %v", apperr.ErrInternal, err)
	}

	stats := model.NumberingStats{
		Year:         year,
		TotalLetters: len(letters),
		ByType:       make(map[string]model.TypeNumberingStats),
	}

	for _, letter := range letters {
		if letter.LetterNumber == nil {
			continue
		}
		entry := stats.ByType[letter.LetterType]
		entry.Count++

		// Highest ordinal per type across the whole year, regardless of
		// month. A type active in several months reports the max over all
		// of them — legacy report format.
		if seq, ok := parseSequence(*letter.LetterNumber); ok {
			if entry.LastNumber == nil || seq > *entry.LastNumber {
				v := seq
				entry.LastNumber = &v
			}
		}
		stats.ByType[letter.LetterType] = entry
	}

	return stats, nil
}

func (s *numberingService) audit(ctx context.Context, actorID *uuid.UUID, action string, letter *model.Letter, details map[string]interface{}) error {
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

func letterLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: letter not found", apperr.ErrNotFound)
	}
	return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
}
