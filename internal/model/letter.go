package model

import (
	"time"

	"github.com/google/uuid"
)

// Letter status enum constants
const (
	LetterPending   = "pending"
	LetterApproved  = "approved"
	LetterRejected  = "rejected"
	LetterCompleted = "completed"
)

// Letter represents a student's request for an official campus letter.
// LetterNumber stays nil until the request is approved and the numbering
// engine assigns one; it is unique across all letters whenever present.
type Letter struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LetterNumber      *string    `gorm:"type:varchar(50);uniqueIndex" json:"letter_number"`
	LetterType        string     `gorm:"type:varchar(10);not null;index" json:"letter_type"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequesterID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester         *User      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	SupplementaryData string     `gorm:"type:jsonb" json:"supplementary_data"` // JSON snapshot validated against the type's required fields at creation
	Purpose           string     `gorm:"type:text" json:"purpose"`
	Notes             string     `gorm:"type:text" json:"notes"`
	ApprovedBy        *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver          *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at"`
	RejectedBy        *uuid.UUID `gorm:"type:uuid" json:"rejected_by"`
	Rejector          *User      `gorm:"foreignKey:RejectedBy" json:"rejector,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at"`
	RejectionReason   string     `gorm:"type:text" json:"rejection_reason"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
