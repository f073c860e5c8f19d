package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateLetterRequest = "CREATE_LETTER_REQUEST"
	ActionDeleteLetterRequest = "DELETE_LETTER_REQUEST"
	ActionApproveLetter       = "APPROVE_LETTER"
	ActionRejectLetter        = "REJECT_LETTER"

	// Numbering actions
	ActionAssignLetterNumber = "ASSIGN_LETTER_NUMBER"
	ActionAssignNumberFailed = "ASSIGN_NUMBER_FAILED"
	ActionCancelLetterNumber = "CANCEL_LETTER_NUMBER"
	ActionEditLetterNumber   = "EDIT_LETTER_NUMBER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/letter number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
