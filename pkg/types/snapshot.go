package types

// SignedSnapshot is the immutable record frozen onto a devis at the moment it
// becomes signed. It captures everything needed to re-render the signed
// document even if the catalog, VAT rates, or company configuration change
// afterwards.
type SignedSnapshot struct {
	Lines    []SnapshotLine   `json:"lines"`
	Totals   SnapshotTotals   `json:"totals"`
	Remise   float64          `json:"remise"`
	Params   SnapshotParams   `json:"params"`
	Company  SnapshotCompany  `json:"company"`
	Location SnapshotLocation `json:"location"`
}

// SnapshotLine freezes one devis line with the unit price and VAT rate that
// were in effect at sign time.
type SnapshotLine struct {
	ArticleID      uint    `json:"article_id"`
	Nom            string  `json:"nom"`
	Reference      string  `json:"reference"`
	Quantite       float64 `json:"quantite"`
	TauxTVA        float64 `json:"taux_tva"`
	PrixUnitaireHT float64 `json:"prix_unitaire_ht"`
	MontantHT      float64 `json:"montant_ht"`
	MontantTVA     float64 `json:"montant_tva"`
	MontantTTC     float64 `json:"montant_ttc"`
	Commentaire    string  `json:"commentaire"`
}

type SnapshotTotals struct {
	HT             float64 `json:"ht"`
	TVA            float64 `json:"tva"`
	TTC            float64 `json:"ttc"`
	TTCAfterRemise float64 `json:"ttc_after_remise"`
}

// SnapshotParams captures the pricing configuration in effect at sign time.
type SnapshotParams struct {
	MarginRate               float64 `json:"margin_rate"`
	MarginRateLocation       float64 `json:"margin_rate_location"`
	LocationSubscriptionCost float64 `json:"location_subscription_cost"`
	LocationInterestsCost    float64 `json:"location_interests_cost"`
	LocationTime             int     `json:"location_time"`
	GeneralConditionsSales   string  `json:"general_conditions_sales"`
}

type SnapshotCompany struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Zip          string `json:"zip"`
	City         string `json:"city"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	IBAN         string `json:"iban"`
	TVA          string `json:"tva"`
	SIRET        string `json:"siret"`
	APRM         string `json:"aprm"`
}

// SnapshotLocation freezes the leasing shape chosen on the devis.
type SnapshotLocation struct {
	IsLocation              bool     `json:"is_location"`
	FirstContributionAmount *float64 `json:"first_contribution_amount"`
	MonthlyTotalHT          *float64 `json:"location_monthly_total_ht"`
	MonthlyTotalTTC         *float64 `json:"location_monthly_total"`
	TotalHT                 *float64 `json:"location_total_ht"`
	TotalTTC                *float64 `json:"location_total"`
}
