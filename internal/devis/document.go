package devis

import (
	"context"
	"sort"
	"time"

	"github.com/lucasmoreno-dev/devisio-backend/internal/pricing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/types"
)

// DocumentPayload is everything a renderer needs to lay out the devis
// document. For a signed devis it is served from the frozen snapshot; live
// devis are recomputed from the catalog on every call.
type DocumentPayload struct {
	Numero         string                 `json:"numero"`
	Statut         enums.DevisStatus      `json:"statut"`
	Objet          string                 `json:"objet"`
	Client         *models.Client         `json:"client"`
	Company        types.SnapshotCompany  `json:"company"`
	Lines          []types.SnapshotLine   `json:"lines"`
	Totals         types.SnapshotTotals   `json:"totals"`
	Remise         float64                `json:"remise"`
	VATRecap       []VATRecapEntry        `json:"vat_recap"`
	Scenarios      *ScenarioView          `json:"scenarios,omitempty"`
	ScenarioRetenu *enums.Scenario        `json:"scenario_retenu,omitempty"`
	Location       types.SnapshotLocation `json:"location"`
	Conditions     string                 `json:"conditions"`
	SignedAt       *time.Time             `json:"signed_at,omitempty"`
}

// VATRecapEntry is one row of the per-rate VAT recap table.
type VATRecapEntry struct {
	Taux float64 `json:"taux"`
	HT   float64 `json:"ht"`
	TVA  float64 `json:"tva"`
	TTC  float64 `json:"ttc"`
}

// ScenarioView presents the three payment scenarios. When a scenario is
// locked on the devis, Authoritative names it.
type ScenarioView struct {
	Direct             ScenarioDirectView  `json:"direct"`
	LocationSansApport ScenarioLeasingView `json:"location_sans_apport"`
	LocationAvecApport ScenarioLeasingView `json:"location_avec_apport"`
	Authoritative      *enums.Scenario     `json:"authoritative,omitempty"`
}

type ScenarioDirectView struct {
	HT             float64 `json:"ht"`
	TVA            float64 `json:"tva"`
	TTC            float64 `json:"ttc"`
	TTCAfterRemise float64 `json:"ttc_after_remise"`
}

type ScenarioLeasingView struct {
	Apport     float64 `json:"apport"`
	TotalHT    float64 `json:"total_ht"`
	TotalTTC   float64 `json:"total_ttc"`
	MonthlyHT  float64 `json:"monthly_ht"`
	MonthlyTTC float64 `json:"monthly_ttc"`
}

// DocumentPayload assembles the display payload for one devis.
func (s *Service) DocumentPayload(ctx context.Context, id uint) (*DocumentPayload, error) {
	d, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.IsSigned() && d.SignedData != nil {
		return documentFromSnapshot(d), nil
	}

	cfg, err := s.params.Get(ctx)
	if err != nil {
		return nil, err
	}
	computed, err := s.buildLinesFromPersisted(ctx, d.Lignes)
	if err != nil {
		return nil, err
	}
	comp := compute(computed, d.Remise, apportOf(d), cfg)

	snapshot := buildSnapshot(d, comp, cfg)
	payload := &DocumentPayload{
		Numero:         d.Numero,
		Statut:         d.Statut,
		Objet:          deref(d.Objet),
		Client:         d.Client,
		Company:        snapshot.Company,
		Lines:          snapshot.Lines,
		Totals:         snapshot.Totals,
		Remise:         snapshot.Remise,
		VATRecap:       vatRecap(comp.direct),
		Scenarios:      scenarioView(comp.scenarios, d.ScenarioRetenu),
		ScenarioRetenu: d.ScenarioRetenu,
		Location:       snapshot.Location,
		Conditions:     snapshot.Params.GeneralConditionsSales,
		SignedAt:       d.SignedAt,
	}
	return payload, nil
}

// documentFromSnapshot renders a signed devis from its frozen record only.
// Current catalog prices, VAT rates, and company configuration are ignored.
func documentFromSnapshot(d *models.Devis) *DocumentPayload {
	snapshot := d.SignedData
	byRate := map[float64]VATRecapEntry{}
	rates := make([]float64, 0)
	for _, line := range snapshot.Lines {
		entry, ok := byRate[line.TauxTVA]
		if !ok {
			entry = VATRecapEntry{Taux: line.TauxTVA}
			rates = append(rates, line.TauxTVA)
		}
		entry.HT = pricing.Round2(entry.HT + line.MontantHT)
		entry.TVA = pricing.Round2(entry.TVA + line.MontantTVA)
		entry.TTC = pricing.Round2(entry.TTC + line.MontantTTC)
		byRate[line.TauxTVA] = entry
	}
	sort.Float64s(rates)
	recap := make([]VATRecapEntry, 0, len(rates))
	for _, rate := range rates {
		recap = append(recap, byRate[rate])
	}

	return &DocumentPayload{
		Numero:         d.Numero,
		Statut:         d.Statut,
		Objet:          deref(d.Objet),
		Client:         d.Client,
		Company:        snapshot.Company,
		Lines:          snapshot.Lines,
		Totals:         snapshot.Totals,
		Remise:         snapshot.Remise,
		VATRecap:       recap,
		ScenarioRetenu: d.ScenarioRetenu,
		Location:       snapshot.Location,
		Conditions:     snapshot.Params.GeneralConditionsSales,
		SignedAt:       d.SignedAt,
	}
}

func vatRecap(totals pricing.Totals) []VATRecapEntry {
	recap := make([]VATRecapEntry, 0, len(totals.ByRate))
	for _, rate := range totals.Rates() {
		sub := totals.ByRate[rate]
		recap = append(recap, VATRecapEntry{
			Taux: rate,
			HT:   pricing.Round2(sub.HT),
			TVA:  pricing.Round2(sub.TVA),
			TTC:  pricing.Round2(sub.TTC),
		})
	}
	return recap
}

// ScenarioViewFrom converts a computed scenario set into its display shape.
func ScenarioViewFrom(set pricing.ScenarioSet, locked *enums.Scenario) *ScenarioView {
	return scenarioView(set, locked)
}

func scenarioView(set pricing.ScenarioSet, locked *enums.Scenario) *ScenarioView {
	return &ScenarioView{
		Direct: ScenarioDirectView{
			HT:             pricing.Round2(set.DirectTotals.HT),
			TVA:            pricing.Round2(set.DirectTotals.TVA),
			TTC:            pricing.Round2(set.DirectTotals.TTC),
			TTCAfterRemise: pricing.Round2(set.DirectTTCAfterRemise),
		},
		LocationSansApport: leasingView(set.LocationSansApport),
		LocationAvecApport: leasingView(set.LocationAvecApport),
		Authoritative:      locked,
	}
}

func leasingView(figures pricing.LeasingFigures) ScenarioLeasingView {
	return ScenarioLeasingView{
		Apport:     pricing.Round2(figures.Apport),
		TotalHT:    pricing.Round2(figures.TotalHT),
		TotalTTC:   pricing.Round2(figures.TotalTTC),
		MonthlyHT:  pricing.Round2(figures.MonthlyHT),
		MonthlyTTC: pricing.Round2(figures.MonthlyTTC),
	}
}
