package models

import "time"

// Article is a catalog item. PrixVente is recomputed from the purchase cost
// and the margin rate in force at save time, then persisted; later margin
// changes do not ripple into existing articles until they are re-saved.
type Article struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Nom         string    `gorm:"column:nom;not null"`
	Reference   *string   `gorm:"column:reference"`
	Description *string   `gorm:"column:description"`
	PrixAchat   float64   `gorm:"column:prix_achat;not null;default:0"`
	PrixVente   float64   `gorm:"column:prix_vente;not null;default:0"`
	TauxTVAID   *uint     `gorm:"column:taux_tva_id"`
	TauxTVA     *VatRate  `gorm:"foreignKey:TauxTVAID"`
	Fournisseur *string   `gorm:"column:fournisseur"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (Article) TableName() string { return "articles" }
