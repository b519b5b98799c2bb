package models

import (
	"time"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
)

// EnvelopeTracking maps a signing-provider envelope back to the devis it was
// sent for, and records the best-effort notification to the requesting site.
type EnvelopeTracking struct {
	ID                 uint                 `gorm:"column:id;primaryKey;autoIncrement"`
	EnvelopeID         string               `gorm:"column:envelope_id;not null;uniqueIndex:uq_envelope_tracking_envelope_id"`
	DevisID            uint                 `gorm:"column:devis_id;not null;index"`
	Devis              *Devis               `gorm:"foreignKey:DevisID"`
	CallbackURL        *string              `gorm:"column:callback_url"`
	RequesterHost      *string              `gorm:"column:requester_host"`
	Status             enums.EnvelopeStatus `gorm:"column:status;type:text;not null;default:'sent'"`
	SignedAt           *time.Time           `gorm:"column:signed_at"`
	NotifiedAt         *time.Time           `gorm:"column:notified_at"`
	NotificationStatus *string              `gorm:"column:notification_status"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (EnvelopeTracking) TableName() string { return "envelope_tracking" }
