package pricing

// standardVATUplift is the fixed multiplier applied to the leasing HT total.
// Leasing fees are already tax-inclusive by construction; the uplift is a
// commercial simplification, not a re-taxation from the VAT registry.
const standardVATUplift = 0.20

// LeasingParams carries the configuration knobs the leasing scenarios read.
type LeasingParams struct {
	SubscriptionTTC float64
	MaintenanceTTC  float64
	Duration        int
}

// LeasingFigures is the output of one leasing computation.
type LeasingFigures struct {
	Apport     float64
	TotalHT    float64
	TotalTTC   float64
	MonthlyHT  float64
	MonthlyTTC float64
}

// ScenarioSet bundles the three payment presentations computed from the same
// devis. Callers pick which one to display; all three stay available for
// comparison until a scenario is locked.
type ScenarioSet struct {
	DirectTotals         Totals
	DirectTTCAfterRemise float64
	LocationTotals       Totals
	LocationSansApport   LeasingFigures
	LocationAvecApport   LeasingFigures
}

// ComputeLeasing derives the leasing totals from tax-inclusive inputs.
// Duration 0 yields zero monthly figures rather than dividing by zero.
func ComputeLeasing(articlesTTC float64, params LeasingParams, apport float64) LeasingFigures {
	totalHT := articlesTTC + params.SubscriptionTTC + params.MaintenanceTTC - apport
	if totalHT < 0 {
		totalHT = 0
	}
	totalTTC := totalHT * (1 + standardVATUplift)

	figures := LeasingFigures{
		Apport:   apport,
		TotalHT:  totalHT,
		TotalTTC: totalTTC,
	}
	if params.Duration > 0 {
		figures.MonthlyHT = totalHT / float64(params.Duration)
		figures.MonthlyTTC = totalTTC / float64(params.Duration)
	}
	return figures
}

// ComputeScenarios produces all three payment presentations. directTotals and
// locationTotals come from the same lines priced with the direct and leasing
// margins respectively; both recaps stay available for document rendering.
func ComputeScenarios(directTotals, locationTotals Totals, remise float64, params LeasingParams, apport float64) ScenarioSet {
	return ScenarioSet{
		DirectTotals:         directTotals,
		DirectTTCAfterRemise: ApplyDiscount(directTotals.TTC, remise),
		LocationTotals:       locationTotals,
		LocationSansApport:   ComputeLeasing(locationTotals.TTC, params, 0),
		LocationAvecApport:   ComputeLeasing(locationTotals.TTC, params, apport),
	}
}
