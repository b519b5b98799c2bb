package models

import "time"

// VatRate is a registry entry for a French VAT percentage (20.0, 10.0, ...).
type VatRate struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Taux      float64   `gorm:"column:taux;not null;uniqueIndex:uq_vat_rates_taux"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (VatRate) TableName() string { return "vat_rates" }
