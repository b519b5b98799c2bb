package models

import (
	"time"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/types"
)

// Devis is a quote issued to a client. Pricing fields persist the leasing
// computation results; SignedData freezes the whole commercial content once
// the devis reaches the signed state.
type Devis struct {
	ID       uint              `gorm:"column:id;primaryKey;autoIncrement"`
	Numero   string            `gorm:"column:numero;not null;uniqueIndex:uq_devis_numero"`
	ClientID uint              `gorm:"column:client_id;not null"`
	Client   *Client           `gorm:"foreignKey:ClientID"`
	Statut   enums.DevisStatus `gorm:"column:statut;type:text;not null;default:'Brouillon'"`
	Objet    *string           `gorm:"column:objet"`
	Remise   float64           `gorm:"column:remise;not null;default:0"`

	MontantHT  float64 `gorm:"column:montant_ht;not null;default:0"`
	MontantTVA float64 `gorm:"column:montant_tva;not null;default:0"`
	MontantTTC float64 `gorm:"column:montant_ttc;not null;default:0"`

	IsLocation              bool     `gorm:"column:is_location;not null;default:false"`
	FirstContributionAmount *float64 `gorm:"column:first_contribution_amount"`
	MonthlyTotalHT          *float64 `gorm:"column:monthly_total_ht"`
	MonthlyTotalTTC         *float64 `gorm:"column:monthly_total_ttc"`
	LocationTotalHT         *float64 `gorm:"column:location_total_ht"`
	LocationTotalTTC        *float64 `gorm:"column:location_total_ttc"`

	ScenarioRetenu *enums.Scenario        `gorm:"column:scenario_retenu;type:text"`
	EnvelopeID     *string                `gorm:"column:envelope_id"`
	SignedAt       *time.Time             `gorm:"column:signed_at"`
	SignedData     *types.SignedSnapshot  `gorm:"column:signed_data;type:jsonb;serializer:json"`
	Lignes         []DevisLine            `gorm:"foreignKey:DevisID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (Devis) TableName() string { return "devis" }

// IsSigned reports whether the devis carries the signed status.
func (d *Devis) IsSigned() bool {
	return d.Statut == enums.DevisStatusSigne
}
