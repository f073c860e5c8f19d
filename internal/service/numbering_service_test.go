package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int, month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func newNumberingFixture(t *testing.T) (*memLetterStore, *memAuditStore, *numberingService) {
	t.Helper()
	store := newMemLetterStore()
	audits := &memAuditStore{}
	svc := &numberingService{
		letters: store,
		audits:  audits,
		tx:      &memTxManager{},
		now:     fixedClock(2025, time.October),
	}
	return store, audits, svc
}

func approvedLetter(store *memLetterStore, letterType string) model.Letter {
	approver := uuid.New()
	now := time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)
	return store.put(model.Letter{
		LetterType:  letterType,
		Status:      model.LetterApproved,
		RequesterID: uuid.New(),
		ApprovedBy:  &approver,
		ApprovedAt:  &now,
	})
}

func TestNextNumberEmptyScope(t *testing.T) {
	_, _, svc := newNumberingFixture(t)

	number, err := svc.NextNumber(context.Background(), "SKA", svc.now())
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/001", number)
}

func TestNextNumberRoundTrip(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	letter := approvedLetter(store, "SKA")
	assigned, err := svc.Assign(context.Background(), letter.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, assigned.LetterNumber)
	assert.Equal(t, "2025/10/SKA/001", *assigned.LetterNumber)

	next, err := svc.NextNumber(context.Background(), "SKA", svc.now())
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/002", next)
}

func TestNextNumberScopesAreIndependent(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	// Same type, different month; same month, different type.
	n1 := "2025/09/SKA/007"
	store.put(model.Letter{LetterType: "SKA", Status: model.LetterApproved, RequesterID: uuid.New(), LetterNumber: &n1})
	n2 := "2025/10/SKL/004"
	store.put(model.Letter{LetterType: "SKL", Status: model.LetterApproved, RequesterID: uuid.New(), LetterNumber: &n2})

	number, err := svc.NextNumber(context.Background(), "SKA", svc.now())
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/001", number)
}

func TestAssignRequiresApprovedStatus(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	pending := store.put(model.Letter{
		LetterType:  "SKA",
		Status:      model.LetterPending,
		RequesterID: uuid.New(),
	})

	_, err := svc.Assign(context.Background(), pending.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Contains(t, err.Error(), "only approved letters")
}

func TestAssignTwiceFailsAndKeepsNumber(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	letter := approvedLetter(store, "SKA")
	first, err := svc.Assign(context.Background(), letter.ID, nil)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), letter.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Contains(t, err.Error(), "already has a number")

	reloaded, err := store.FindByID(context.Background(), letter.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LetterNumber)
	assert.Equal(t, *first.LetterNumber, *reloaded.LetterNumber)
}

func TestAssignUnknownLetter(t *testing.T) {
	_, _, svc := newNumberingFixture(t)

	_, err := svc.Assign(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCancelLeavesPermanentGap(t *testing.T) {
	store, _, svc := newNumberingFixture(t)
	ctx := context.Background()

	letterA := approvedLetter(store, "SKA")
	letterB := approvedLetter(store, "SKA")
	letterC := approvedLetter(store, "SKA")

	a, err := svc.Assign(ctx, letterA.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/001", *a.LetterNumber)

	b, err := svc.Assign(ctx, letterB.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/002", *b.LetterNumber)

	cancelled, err := svc.Cancel(ctx, letterA.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cancelled.LetterNumber)

	// The freed 001 is not reused; the scope keeps counting off its max.
	c, err := svc.Assign(ctx, letterC.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/003", *c.LetterNumber)
}

func TestCancelKeepsApprovalMetadata(t *testing.T) {
	store, _, svc := newNumberingFixture(t)
	ctx := context.Background()

	letter := approvedLetter(store, "SKA")
	_, err := svc.Assign(ctx, letter.ID, nil)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, letter.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cancelled.LetterNumber)
	assert.Equal(t, model.LetterApproved, cancelled.Status)
	assert.NotNil(t, cancelled.ApprovedBy)
	assert.NotNil(t, cancelled.ApprovedAt)
}

func TestCancelUnnumberedLetter(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	letter := approvedLetter(store, "SKA")
	_, err := svc.Cancel(context.Background(), letter.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Contains(t, err.Error(), "does not have a number")
}

func TestEditConflictsWithOtherLetter(t *testing.T) {
	store, _, svc := newNumberingFixture(t)
	ctx := context.Background()

	letterA := approvedLetter(store, "SKA")
	letterB := approvedLetter(store, "SKA")

	a, err := svc.Assign(ctx, letterA.ID, nil)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, letterB.ID, nil)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, letterB.ID, *a.LetterNumber, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEditAllowsArbitraryUnusedNumber(t *testing.T) {
	store, _, svc := newNumberingFixture(t)
	ctx := context.Background()

	letter := approvedLetter(store, "SKA")
	_, err := svc.Assign(ctx, letter.ID, nil)
	require.NoError(t, err)

	// Outside the letter's own scope, even a foreign format is accepted.
	edited, err := svc.Edit(ctx, letter.ID, "1999/01/ZZZ/042", nil)
	require.NoError(t, err)
	assert.Equal(t, "1999/01/ZZZ/042", *edited.LetterNumber)

	edited, err = svc.Edit(ctx, letter.ID, "LEGACY-7", nil)
	require.NoError(t, err)
	assert.Equal(t, "LEGACY-7", *edited.LetterNumber)
}

func TestEditToOwnNumberIsNotAConflict(t *testing.T) {
	store, _, svc := newNumberingFixture(t)
	ctx := context.Background()

	letter := approvedLetter(store, "SKA")
	assigned, err := svc.Assign(ctx, letter.ID, nil)
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, letter.ID, *assigned.LetterNumber, nil)
	require.NoError(t, err)
	assert.Equal(t, *assigned.LetterNumber, *edited.LetterNumber)
}

func TestEditRejectsEmptyNumber(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	letter := approvedLetter(store, "SKA")
	_, err := svc.Edit(context.Background(), letter.ID, "", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestSequenceWidensPast999(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	n := "2025/10/SKA/999"
	store.put(model.Letter{LetterType: "SKA", Status: model.LetterApproved, RequesterID: uuid.New(), LetterNumber: &n})

	letter := approvedLetter(store, "SKA")
	assigned, err := svc.Assign(context.Background(), letter.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025/10/SKA/1000", *assigned.LetterNumber)
}

func TestStatisticsAggregatesAcrossMonths(t *testing.T) {
	store, _, svc := newNumberingFixture(t)

	for _, number := range []string{
		"2025/01/SKA/001",
		"2025/01/SKA/002",
		"2025/03/SKA/005",
		"2025/10/SKL/001",
		"2024/12/SKA/099", // outside the requested year
	} {
		n := number
		letterType := "SKA"
		if n == "2025/10/SKL/001" {
			letterType = "SKL"
		}
		store.put(model.Letter{LetterType: letterType, Status: model.LetterApproved, RequesterID: uuid.New(), LetterNumber: &n})
	}

	stats, err := svc.Statistics(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 2025, stats.Year)
	assert.Equal(t, 4, stats.TotalLetters)

	ska := stats.ByType["SKA"]
	assert.Equal(t, 3, ska.Count)
	// Max ordinal across the whole year, months conflated — legacy format.
	require.NotNil(t, ska.LastNumber)
	assert.Equal(t, 5, *ska.LastNumber)

	skl := stats.ByType["SKL"]
	assert.Equal(t, 1, skl.Count)
	require.NotNil(t, skl.LastNumber)
	assert.Equal(t, 1, *skl.LastNumber)
}

func TestStatisticsDefaultsToCurrentYear(t *testing.T) {
	_, _, svc := newNumberingFixture(t)

	stats, err := svc.Statistics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, stats.Year)
	assert.Equal(t, 0, stats.TotalLetters)
}

func TestConcurrentAssignsAreDistinctAndGapFree(t *testing.T) {
	store, _, svc := newNumberingFixture(t)
	ctx := context.Background()

	const n = 10
	letters := make([]model.Letter, n)
	for i := range letters {
		letters[i] = approvedLetter(store, "SKA")
	}

	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assigned, err := svc.Assign(ctx, letters[i].ID, nil)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = *assigned.LetterNumber
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "assign %d", i)
	}

	seen := make(map[string]bool, n)
	for _, number := range results {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("2025/10/SKA/%03d", i)], "missing ordinal %d", i)
	}
}

func TestAssignWritesAuditEntry(t *testing.T) {
	store, audits, svc := newNumberingFixture(t)

	actor := uuid.New()
	letter := approvedLetter(store, "SKA")
	_, err := svc.Assign(context.Background(), letter.ID, &actor)
	require.NoError(t, err)

	assert.Contains(t, audits.actions(), model.ActionAssignLetterNumber)
}
