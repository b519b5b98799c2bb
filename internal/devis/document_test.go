package devis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasmoreno-dev/devisio-backend/internal/pricing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
)

func TestDocumentPayload_LiveDevis(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{
		ClientID: f.client.ID,
		Remise:   40,
		Lines:    f.oneLine(2),
	})
	require.NoError(t, err)

	payload, err := f.svc.DocumentPayload(ctx, d.ID)
	require.NoError(t, err)

	assert.Equal(t, d.Numero, payload.Numero)
	assert.Equal(t, enums.DevisStatusBrouillon, payload.Statut)
	require.NotNil(t, payload.Client)
	assert.Equal(t, f.client.Nom, payload.Client.Nom)

	require.Len(t, payload.Lines, 1)
	assert.InDelta(t, 100, payload.Lines[0].PrixUnitaireHT, 1e-9)
	assert.InDelta(t, 200, payload.Lines[0].MontantHT, 1e-9)

	assert.InDelta(t, 240, payload.Totals.TTC, 1e-9)
	assert.InDelta(t, 200, payload.Totals.TTCAfterRemise, 1e-9)

	require.Len(t, payload.VATRecap, 1)
	assert.InDelta(t, 0.20, payload.VATRecap[0].Taux, 1e-9)
	assert.InDelta(t, 40, payload.VATRecap[0].TVA, 1e-9)

	require.NotNil(t, payload.Scenarios)
	assert.Nil(t, payload.Scenarios.Authoritative)
	assert.Nil(t, payload.SignedAt)
}

func TestDocumentPayload_SignedServedFromSnapshot(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(2)})
	require.NoError(t, err)
	_, err = f.svc.Sign(ctx, d.ID, nil)
	require.NoError(t, err)

	// A later catalog change must not leak into the signed document.
	require.NoError(t, f.conn.Model(&f.article).Update("prix_vente", 999).Error)

	payload, err := f.svc.DocumentPayload(ctx, d.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.DevisStatusSigne, payload.Statut)
	require.Len(t, payload.Lines, 1)
	assert.InDelta(t, 100, payload.Lines[0].PrixUnitaireHT, 1e-9)
	assert.InDelta(t, 240, payload.Totals.TTC, 1e-9)
	require.NotNil(t, payload.SignedAt)

	require.Len(t, payload.VATRecap, 1)
	assert.InDelta(t, 40, payload.VATRecap[0].TVA, 1e-9)
}

func TestScenarioViewFrom_RoundsFigures(t *testing.T) {
	set := pricing.ScenarioSet{
		DirectTotals:         pricing.Totals{HT: 100.005, TVA: 20.001, TTC: 120.006},
		DirectTTCAfterRemise: 110.004,
		LocationSansApport:   pricing.LeasingFigures{TotalHT: 300, TotalTTC: 360, MonthlyHT: 25, MonthlyTTC: 30},
	}

	locked := enums.ScenarioDirect
	view := ScenarioViewFrom(set, &locked)

	assert.InDelta(t, 100.01, view.Direct.HT, 1e-9)
	assert.InDelta(t, 110.0, view.Direct.TTCAfterRemise, 1e-9)
	assert.InDelta(t, 30, view.LocationSansApport.MonthlyTTC, 1e-9)
	require.NotNil(t, view.Authoritative)
	assert.Equal(t, enums.ScenarioDirect, *view.Authoritative)
}
