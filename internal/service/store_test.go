package service

// In-memory test doubles for the letter record store, audit log and
// transaction manager. The tx fake serializes whole transactions with a
// single mutex, standing in for the per-scope advisory lock the real store
// takes.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memLetterStore struct {
	mu sync.Mutex

	letters map[uuid.UUID]model.Letter
	seq     int // creation order, for List sorting

	// failNumberWrites makes Update fail whenever a number is being
	// persisted, to exercise the fail-open approval path.
	failNumberWrites bool
}

func newMemLetterStore() *memLetterStore {
	return &memLetterStore{letters: make(map[uuid.UUID]model.Letter)}
}

func (s *memLetterStore) Create(ctx context.Context, letter *model.Letter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if letter.ID == uuid.Nil {
		letter.ID = uuid.New()
	}
	s.seq++
	letter.CreatedAt = time.Unix(int64(s.seq), 0)
	s.letters[letter.ID] = *letter
	return nil
}

func (s *memLetterStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Letter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	letter, ok := s.letters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &letter, nil
}

func (s *memLetterStore) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Letter, error) {
	return s.FindByID(ctx, id)
}

func (s *memLetterStore) List(ctx context.Context, filter repository.LetterFilter, page, limit int) ([]model.Letter, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Letter
	for _, letter := range s.letters {
		if filter.RequesterID != nil && letter.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Status != "" && letter.Status != filter.Status {
			continue
		}
		if filter.LetterType != "" && letter.LetterType != filter.LetterType {
			continue
		}
		matched = append(matched, letter)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memLetterStore) Update(ctx context.Context, letter *model.Letter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.letters[letter.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if s.failNumberWrites && letter.LetterNumber != nil {
		return errors.New("simulated write failure")
	}
	s.letters[letter.ID] = *letter
	return nil
}

func (s *memLetterStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.letters, id)
	return nil
}

func (s *memLetterStore) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var numbers []string
	for _, letter := range s.letters {
		if letter.LetterNumber != nil && strings.HasPrefix(*letter.LetterNumber, prefix) {
			numbers = append(numbers, *letter.LetterNumber)
		}
	}
	return numbers, nil
}

func (s *memLetterStore) FindByNumber(ctx context.Context, number string) (*model.Letter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, letter := range s.letters {
		if letter.LetterNumber != nil && *letter.LetterNumber == number {
			found := letter
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memLetterStore) NumberedInYear(ctx context.Context, year int) ([]model.Letter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := fmt.Sprintf("%d/", year)
	var out []model.Letter
	for _, letter := range s.letters {
		if letter.LetterNumber != nil && strings.HasPrefix(*letter.LetterNumber, prefix) {
			out = append(out, letter)
		}
	}
	return out, nil
}

func (s *memLetterStore) LockScope(ctx context.Context, key string) error {
	// The tx fake already serializes whole transactions.
	return nil
}

// put inserts a letter directly, bypassing the lifecycle.
func (s *memLetterStore) put(letter model.Letter) model.Letter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if letter.ID == uuid.Nil {
		letter.ID = uuid.New()
	}
	s.seq++
	letter.CreatedAt = time.Unix(int64(s.seq), 0)
	s.letters[letter.ID] = letter
	return letter
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (s *memAuditStore) Log(ctx context.Context, entry *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memAuditStore) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.AuditLog(nil), s.entries...), int64(len(s.entries)), nil
}

func (s *memAuditStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type memTxManager struct {
	mu sync.Mutex
}

func (m *memTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
