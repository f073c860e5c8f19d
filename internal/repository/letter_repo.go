package repository

import (
	"context"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LetterFilter narrows List results. Zero values mean "no constraint".
type LetterFilter struct {
	RequesterID *uuid.UUID
	Status      string
	LetterType  string
}

// LetterRepository is the record store for letters. Number-prefix queries
// back the numbering engine; FindByNumber backs its uniqueness checks.
type LetterRepository interface {
	Create(ctx context.Context, letter *model.Letter) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Letter, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Letter, error)
	List(ctx context.Context, filter LetterFilter, page, limit int) ([]model.Letter, int64, error)
	Update(ctx context.Context, letter *model.Letter) error
	Delete(ctx context.Context, id uuid.UUID) error

	// NumbersWithPrefix returns every assigned letter number starting with
	// the literal prefix (e.g. "2025/10/SKA/").
	NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
	// FindByNumber returns the letter holding exactly number, or
	// gorm.ErrRecordNotFound.
	FindByNumber(ctx context.Context, number string) (*model.Letter, error)
	// NumberedInYear returns all letters whose number falls in the given
	// year ("{year}/..."), for statistics.
	NumberedInYear(ctx context.Context, year int) ([]model.Letter, error)
	// LockScope serializes concurrent writers on an arbitrary key for the
	// duration of the surrounding transaction.
	LockScope(ctx context.Context, key string) error
}

type letterRepository struct {
	db *gorm.DB
}

func NewLetterRepository(db *gorm.DB) LetterRepository {
	return &letterRepository{db: db}
}

func (r *letterRepository) Create(ctx context.Context, letter *model.Letter) error {
	return GetDB(ctx, r.db).Create(letter).Error
}

func (r *letterRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Letter, error) {
	var letter model.Letter
	if err := GetDB(ctx, r.db).First(&letter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &letter, nil
}

func (r *letterRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Letter, error) {
	var letter model.Letter
	if err := GetDB(ctx, r.db).Preload("Requester").Preload("Approver").Preload("Rejector").
		First(&letter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &letter, nil
}

func (r *letterRepository) List(ctx context.Context, filter LetterFilter, page, limit int) ([]model.Letter, int64, error) {
	var letters []model.Letter
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.RequesterID != nil {
			q = q.Where("requester_id = ?", *filter.RequesterID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.LetterType != "" {
			q = q.Where("letter_type = ?", filter.LetterType)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.Letter{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := applyFilter(db.Preload("Requester").Preload("Approver").Preload("Rejector"))
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&letters).Error; err != nil {
		return nil, 0, err
	}

	return letters, total, nil
}

func (r *letterRepository) Update(ctx context.Context, letter *model.Letter) error {
	return GetDB(ctx, r.db).Save(letter).Error
}

func (r *letterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Letter{}, "id = ?", id).Error
}

func (r *letterRepository) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	if err := GetDB(ctx, r.db).Model(&model.Letter{}).
		Where("letter_number LIKE ?", prefix+"%").
		Pluck("letter_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *letterRepository) FindByNumber(ctx context.Context, number string) (*model.Letter, error) {
	var letter model.Letter
	if err := GetDB(ctx, r.db).First(&letter, "letter_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &letter, nil
}

func (r *letterRepository) NumberedInYear(ctx context.Context, year int) ([]model.Letter, error) {
	var letters []model.Letter
	prefix := fmt.Sprintf("%d/", year)
	if err := GetDB(ctx, r.db).Select("letter_type", "letter_number").
		Where("letter_number LIKE ?", prefix+"%").
		Find(&letters).Error; err != nil {
		return nil, err
	}
	return letters, nil
}

// LockScope takes a transaction-scoped Postgres advisory lock keyed on the
// hashed string. Released automatically at commit/rollback.
func (r *letterRepository) LockScope(ctx context.Context, key string) error {
	return GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
