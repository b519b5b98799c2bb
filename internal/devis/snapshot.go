package devis

import (
	"github.com/lucasmoreno-dev/devisio-backend/internal/pricing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/types"
)

// computedLine pairs a persisted line with its resolved article, VAT rate,
// and the amounts priced under both margin selections.
type computedLine struct {
	line     models.DevisLine
	article  models.Article
	vatRate  float64
	direct   pricing.LineAmounts
	location pricing.LineAmounts
}

// computation is the full pricing result for one devis: per-line amounts,
// aggregates for both margin selections, and the three payment scenarios.
type computation struct {
	lines     []computedLine
	direct    pricing.Totals
	location  pricing.Totals
	scenarios pricing.ScenarioSet
}

func leasingParamsFrom(cfg *models.Parameters) pricing.LeasingParams {
	return pricing.LeasingParams{
		SubscriptionTTC: cfg.LocationSubscriptionCost,
		MaintenanceTTC:  cfg.LocationInterestsCost,
		Duration:        cfg.LocationTime,
	}
}

// compute prices every line under both margins and derives the scenario set.
func compute(lines []computedLine, remise float64, apport float64, cfg *models.Parameters) computation {
	directAmounts := make([]pricing.LineAmounts, len(lines))
	locationAmounts := make([]pricing.LineAmounts, len(lines))
	for i, line := range lines {
		directAmounts[i] = line.direct
		locationAmounts[i] = line.location
	}

	direct := pricing.Aggregate(directAmounts)
	location := pricing.Aggregate(locationAmounts)
	return computation{
		lines:     lines,
		direct:    direct,
		location:  location,
		scenarios: pricing.ComputeScenarios(direct, location, remise, leasingParamsFrom(cfg), apport),
	}
}

// chosenLeasing returns the leasing figures matching the devis' down-payment
// shape: with apport when a first contribution is set, without otherwise.
func (c computation) chosenLeasing(apport float64) pricing.LeasingFigures {
	if apport > 0 {
		return c.scenarios.LocationAvecApport
	}
	return c.scenarios.LocationSansApport
}

// buildSnapshot assembles the immutable signed record. Every amount crosses
// the snapshot boundary here, so this is where rounding happens.
func buildSnapshot(d *models.Devis, comp computation, cfg *models.Parameters) *types.SignedSnapshot {
	snapshot := &types.SignedSnapshot{
		Lines: make([]types.SnapshotLine, 0, len(comp.lines)),
		Totals: types.SnapshotTotals{
			HT:             pricing.Round2(comp.direct.HT),
			TVA:            pricing.Round2(comp.direct.TVA),
			TTC:            pricing.Round2(comp.direct.TTC),
			TTCAfterRemise: pricing.Round2(comp.scenarios.DirectTTCAfterRemise),
		},
		Remise: pricing.Round2(d.Remise),
		Params: types.SnapshotParams{
			MarginRate:               cfg.MarginRate,
			MarginRateLocation:       cfg.MarginRateLocation,
			LocationSubscriptionCost: cfg.LocationSubscriptionCost,
			LocationInterestsCost:    cfg.LocationInterestsCost,
			LocationTime:             cfg.LocationTime,
			GeneralConditionsSales:   deref(cfg.GeneralConditionsSales),
		},
		Company: types.SnapshotCompany{
			Name:         deref(cfg.CompanyName),
			AddressLine1: deref(cfg.AddressLine1),
			AddressLine2: deref(cfg.AddressLine2),
			Zip:          deref(cfg.Zip),
			City:         deref(cfg.City),
			Phone:        deref(cfg.Phone),
			Email:        deref(cfg.Email),
			IBAN:         deref(cfg.IBAN),
			TVA:          deref(cfg.TVANumber),
			SIRET:        deref(cfg.SIRET),
			APRM:         deref(cfg.APRM),
		},
		Location: types.SnapshotLocation{IsLocation: d.IsLocation},
	}

	for _, line := range comp.lines {
		snapshot.Lines = append(snapshot.Lines, types.SnapshotLine{
			ArticleID:      line.article.ID,
			Nom:            line.article.Nom,
			Reference:      deref(line.article.Reference),
			Quantite:       line.line.Quantite,
			TauxTVA:        line.vatRate,
			PrixUnitaireHT: pricing.Round2(line.direct.UnitPriceHT),
			MontantHT:      pricing.Round2(line.direct.HT),
			MontantTVA:     pricing.Round2(line.direct.TVA),
			MontantTTC:     pricing.Round2(line.direct.TTC),
			Commentaire:    deref(line.line.Commentaire),
		})
	}

	if d.IsLocation {
		apport := 0.0
		if d.FirstContributionAmount != nil {
			apport = *d.FirstContributionAmount
		}
		figures := comp.chosenLeasing(apport)
		snapshot.Location.FirstContributionAmount = d.FirstContributionAmount
		snapshot.Location.MonthlyTotalHT = roundPtr(figures.MonthlyHT)
		snapshot.Location.MonthlyTotalTTC = roundPtr(figures.MonthlyTTC)
		snapshot.Location.TotalHT = roundPtr(figures.TotalHT)
		snapshot.Location.TotalTTC = roundPtr(figures.TotalTTC)
	}

	return snapshot
}

// freezeLines copies each line's sign-time unit price, rate, and amounts into
// the *Fige columns so later catalog edits cannot alter a signed document.
func freezeLines(comp computation) []models.DevisLine {
	frozen := make([]models.DevisLine, len(comp.lines))
	for i, line := range comp.lines {
		row := line.line
		row.PrixUnitaireFige = ptr(pricing.Round2(line.direct.UnitPriceHT))
		row.TauxFige = ptr(line.vatRate)
		row.MontantHTFige = ptr(pricing.Round2(line.direct.HT))
		row.MontantTVAFige = ptr(pricing.Round2(line.direct.TVA))
		row.MontantTTCFige = ptr(pricing.Round2(line.direct.TTC))
		frozen[i] = row
	}
	return frozen
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func ptr(value float64) *float64 {
	return &value
}

func roundPtr(value float64) *float64 {
	return ptr(pricing.Round2(value))
}
