package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeRadianValidated    NotificationType = "radian_validated"
	TypeRadianHabilitation NotificationType = "radian_habilitation"
	TypeEdiPayslipsReady   NotificationType = "edi_payslips_generated"
)

// Notification represents a notification entity
type Notification struct {
	ID          string
	CompanyID   string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
