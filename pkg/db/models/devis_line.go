package models

import "time"

// DevisLine is one article position on a devis. The *Fige columns hold the
// frozen unit price, VAT rate, and amounts captured at signature time; they
// stay NULL while the devis is still editable.
type DevisLine struct {
	ID         uint     `gorm:"column:id;primaryKey;autoIncrement"`
	DevisID    uint     `gorm:"column:devis_id;not null;index"`
	ArticleID  uint     `gorm:"column:article_id;not null"`
	Article    *Article `gorm:"foreignKey:ArticleID"`
	Quantite    float64  `gorm:"column:quantite;not null;default:1"`
	TauxTVAID   *uint    `gorm:"column:taux_tva_id"`
	TauxTVA     *VatRate `gorm:"foreignKey:TauxTVAID"`
	Commentaire *string  `gorm:"column:commentaire"`

	PrixUnitaireFige *float64 `gorm:"column:prix_unitaire_fige"`
	TauxFige         *float64 `gorm:"column:taux_fige"`
	MontantHTFige    *float64 `gorm:"column:montant_ht_fige"`
	MontantTVAFige   *float64 `gorm:"column:montant_tva_fige"`
	MontantTTCFige   *float64 `gorm:"column:montant_ttc_fige"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (DevisLine) TableName() string { return "devis_lines" }

// IsFrozen reports whether signature-time amounts were captured.
func (l *DevisLine) IsFrozen() bool {
	return l.PrixUnitaireFige != nil
}
