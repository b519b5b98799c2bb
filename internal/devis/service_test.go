package devis

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/internal/catalog"
	"github.com/lucasmoreno-dev/devisio-backend/internal/params"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

type fixtures struct {
	svc     *Service
	conn    *gorm.DB
	client  models.Client
	rate20  models.VatRate
	article models.Article
}

var testDBSeq atomic.Int64

func newFixtures(t *testing.T) *fixtures {
	t.Helper()
	dsn := fmt.Sprintf("file:devis_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Client{},
		&models.VatRate{},
		&models.Article{},
		&models.Devis{},
		&models.DevisLine{},
		&models.Parameters{},
		&models.EnvelopeTracking{},
	))

	cfg := models.Parameters{
		MarginRate:               1.4,
		MarginRateLocation:       1.0,
		LocationSubscriptionCost: 50,
		LocationInterestsCost:    10,
		LocationTime:             12,
	}
	require.NoError(t, conn.Create(&cfg).Error)

	client := models.Client{Nom: "Boulangerie Dupont"}
	require.NoError(t, conn.Create(&client).Error)

	rate20 := models.VatRate{Taux: 0.20}
	require.NoError(t, conn.Create(&rate20).Error)

	article := models.Article{
		Nom:       "Four professionnel",
		PrixAchat: 100,
		PrixVente: 100,
		TauxTVAID: &rate20.ID,
	}
	require.NoError(t, conn.Create(&article).Error)

	paramsSvc, err := params.NewService(params.ServiceParams{Repo: params.NewRepository(conn)})
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalog.NewRepository(conn),
		Params: paramsSvc,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Catalog: catalogSvc,
		Params:  paramsSvc,
		Tx:      db.NewFromConn(conn),
		Logger:  logger.New(logger.Options{ServiceName: "devis-test", Level: logger.ParseLevel("error")}),
	})
	require.NoError(t, err)

	return &fixtures{
		svc:     svc,
		conn:    conn,
		client:  client,
		rate20:  rate20,
		article: article,
	}
}

func (f *fixtures) oneLine(qty float64) []LineInput {
	return []LineInput{{ArticleID: f.article.ID, Quantite: qty}}
}

func errCode(t *testing.T, err error) apperrors.Code {
	t.Helper()
	appErr := apperrors.As(err)
	require.NotNil(t, appErr, "expected an application error, got %v", err)
	return appErr.Code()
}

func TestCreate_ComputesTotals(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{
		ClientID: f.client.ID,
		Lines:    f.oneLine(2),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.DevisStatusBrouillon, d.Statut)
	assert.InDelta(t, 200, d.MontantHT, 1e-9)
	assert.InDelta(t, 40, d.MontantTVA, 1e-9)
	assert.InDelta(t, 240, d.MontantTTC, 1e-9)
	assert.Nil(t, d.SignedData)
	assert.Nil(t, d.SignedAt)
	require.Len(t, d.Lignes, 1)
	assert.False(t, d.Lignes[0].IsFrozen())
	assert.NotEmpty(t, d.Numero)
}

func TestCreate_DirectlySignedFreezesSnapshot(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	signed := enums.DevisStatusSigne
	d, err := f.svc.Create(ctx, CreateInput{
		ClientID: f.client.ID,
		Statut:   &signed,
		Remise:   40,
		Lines:    f.oneLine(2),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.DevisStatusSigne, d.Statut)
	require.NotNil(t, d.SignedData)
	require.NotNil(t, d.SignedAt)
	assert.InDelta(t, 240, d.SignedData.Totals.TTC, 1e-9)
	assert.InDelta(t, 200, d.SignedData.Totals.TTCAfterRemise, 1e-9)
	require.Len(t, d.Lignes, 1)
	assert.True(t, d.Lignes[0].IsFrozen())
	assert.InDelta(t, 100, *d.Lignes[0].PrixUnitaireFige, 1e-9)
	assert.InDelta(t, 0.20, *d.Lignes[0].TauxFige, 1e-9)
}

func TestUpdate_TransitionToSignedFreezes(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(1)})
	require.NoError(t, err)

	signed := enums.DevisStatusSigne
	updated, err := f.svc.Update(ctx, d.ID, UpdateInput{
		ClientID: f.client.ID,
		Statut:   &signed,
		Remise:   40,
		Lines:    f.oneLine(2),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.DevisStatusSigne, updated.Statut)
	require.NotNil(t, updated.SignedData)
	require.NotNil(t, updated.SignedAt)
	assert.InDelta(t, 200, updated.SignedData.Totals.HT, 1e-9)
	assert.InDelta(t, 200, updated.MontantHT, 1e-9)
	require.Len(t, updated.SignedData.Lines, 1)
	assert.InDelta(t, 2, updated.SignedData.Lines[0].Quantite, 1e-9)
}

func TestUpdateAndDelete_SignedConflict(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	signed := enums.DevisStatusSigne
	d, err := f.svc.Create(ctx, CreateInput{
		ClientID: f.client.ID,
		Statut:   &signed,
		Lines:    f.oneLine(1),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, d.ID, UpdateInput{ClientID: f.client.ID, Lines: f.oneLine(3)})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, errCode(t, err))

	err = f.svc.Delete(ctx, d.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, errCode(t, err))

	// The stored snapshot must be untouched by the rejected update.
	reloaded, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.SignedData)
	require.Len(t, reloaded.SignedData.Lines, 1)
	assert.InDelta(t, 1, reloaded.SignedData.Lines[0].Quantite, 1e-9)
}

func TestSign_IdempotentOnRepeatedCallback(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(2)})
	require.NoError(t, err)

	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	signed, err := f.svc.Sign(ctx, d.ID, &first)
	require.NoError(t, err)
	require.NotNil(t, signed.SignedAt)
	require.NotNil(t, signed.SignedData)
	assert.True(t, signed.SignedAt.Equal(first))

	// Catalog price changes after signing must not leak into the snapshot.
	require.NoError(t, f.conn.Model(&models.Article{}).
		Where("id = ?", f.article.ID).
		Update("prix_vente", 999).Error)

	second := first.Add(48 * time.Hour)
	again, err := f.svc.Sign(ctx, d.ID, &second)
	require.NoError(t, err)
	assert.True(t, again.SignedAt.Equal(first), "signed_at must not move on a duplicate callback")
	assert.Equal(t, signed.SignedData.Totals, again.SignedData.Totals)
	assert.Equal(t, signed.SignedData.Lines, again.SignedData.Lines)
}

func TestSign_NoTransitionOutOfTerminalStates(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(1)})
	require.NoError(t, err)

	declined, err := f.svc.ApplyTerminalStatus(ctx, d.ID, enums.DevisStatusRefuse)
	require.NoError(t, err)
	assert.Equal(t, enums.DevisStatusRefuse, declined.Statut)

	after, err := f.svc.Sign(ctx, d.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.DevisStatusRefuse, after.Statut)
	assert.Nil(t, after.SignedData)

	still, err := f.svc.ApplyTerminalStatus(ctx, d.ID, enums.DevisStatusAnnule)
	require.NoError(t, err)
	assert.Equal(t, enums.DevisStatusRefuse, still.Statut)
}

func TestSelectScenario_LockOnFirstWrite(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(1)})
	require.NoError(t, err)

	locked, err := f.svc.SelectScenario(ctx, d.ID, enums.ScenarioDirect)
	require.NoError(t, err)
	require.NotNil(t, locked.ScenarioRetenu)
	assert.Equal(t, enums.ScenarioDirect, *locked.ScenarioRetenu)

	_, err = f.svc.SelectScenario(ctx, d.ID, enums.ScenarioLocationAvecApport)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, errCode(t, err))

	reloaded, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ScenarioRetenu)
	assert.Equal(t, enums.ScenarioDirect, *reloaded.ScenarioRetenu)

	// Re-selecting the locked scenario stays a no-op.
	_, err = f.svc.SelectScenario(ctx, d.ID, enums.ScenarioDirect)
	require.NoError(t, err)
}

func TestScenarios_LeasingFigures(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	apport := 100.0
	d, err := f.svc.Create(ctx, CreateInput{
		ClientID:                f.client.ID,
		IsLocation:              true,
		FirstContributionAmount: &apport,
		Lines:                   f.oneLine(2),
	})
	require.NoError(t, err)

	_, set, err := f.svc.Scenarios(ctx, d.ID)
	require.NoError(t, err)

	assert.InDelta(t, 240, set.DirectTotals.TTC, 1e-9)
	assert.InDelta(t, 300, set.LocationSansApport.TotalHT, 1e-9)
	assert.InDelta(t, 360, set.LocationSansApport.TotalTTC, 1e-9)
	assert.InDelta(t, 25, set.LocationSansApport.MonthlyHT, 1e-9)
	assert.InDelta(t, 30, set.LocationSansApport.MonthlyTTC, 1e-9)
	assert.InDelta(t, 200, set.LocationAvecApport.TotalHT, 1e-9)
	assert.InDelta(t, 240, set.LocationAvecApport.TotalTTC, 1e-9)

	// The devis persists the with-apport shape since a contribution is set.
	require.NotNil(t, d.LocationTotalHT)
	assert.InDelta(t, 200, *d.LocationTotalHT, 1e-9)
	require.NotNil(t, d.MonthlyTotalTTC)
	assert.InDelta(t, 20, *d.MonthlyTotalTTC, 1e-9)
}

func TestLineRate_RawValueCreatesRegistryEntry(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	raw := 0.10
	d, err := f.svc.Create(ctx, CreateInput{
		ClientID: f.client.ID,
		Lines: []LineInput{{
			ArticleID:  f.article.ID,
			Quantite:   1,
			TauxValeur: &raw,
		}},
	})
	require.NoError(t, err)

	assert.InDelta(t, 100, d.MontantHT, 1e-9)
	assert.InDelta(t, 10, d.MontantTVA, 1e-9)

	var rate models.VatRate
	require.NoError(t, f.conn.Where("taux = ?", raw).First(&rate).Error)
	require.Len(t, d.Lignes, 1)
	require.NotNil(t, d.Lignes[0].TauxTVAID)
	assert.Equal(t, rate.ID, *d.Lignes[0].TauxTVAID)
}

func TestNextNumero_SkipsExisting(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	first, err := f.svc.NextNumero(ctx)
	require.NoError(t, err)

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(1)})
	require.NoError(t, err)
	assert.Equal(t, first, d.Numero)

	second, err := f.svc.NextNumero(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDelete_RemovesLines(t *testing.T) {
	f := newFixtures(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, CreateInput{ClientID: f.client.ID, Lines: f.oneLine(2)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, d.ID))

	_, err = f.svc.Get(ctx, d.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, errCode(t, err))

	var count int64
	require.NoError(t, f.conn.Model(&models.DevisLine{}).
		Where("devis_id = ?", d.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}
