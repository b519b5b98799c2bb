package devis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/internal/pricing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

// Catalog is the surface the devis workflow needs from the catalog feature.
type Catalog interface {
	ArticleMap(ctx context.Context, ids []uint) (map[uint]models.Article, error)
	GetRate(ctx context.Context, id uint) (*models.VatRate, error)
	FindOrCreateRate(ctx context.Context, taux float64) (*models.VatRate, error)
}

// ParamsProvider yields the company configuration record.
type ParamsProvider interface {
	Get(ctx context.Context) (*models.Parameters, error)
}

// TxRunner wraps a function in a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the devis service.
type ServiceParams struct {
	Repo    Repository
	Catalog Catalog
	Params  ParamsProvider
	Tx      TxRunner
	Logger  *logger.Logger
	Clock   func() time.Time
}

// Service owns the devis lifecycle: pricing, the signing state machine, and
// the immutable snapshot captured when a devis becomes signed.
type Service struct {
	repo    Repository
	catalog Catalog
	params  ParamsProvider
	tx      TxRunner
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a devis service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if params.Params == nil {
		return nil, errors.New("params provider is required")
	}
	if params.Tx == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:    params.Repo,
		catalog: params.Catalog,
		params:  params.Params,
		tx:      params.Tx,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// LineInput carries one devis line. The VAT rate resolution order is the
// explicit registry reference, then a raw value (reusing or creating its
// registry entry), then the article's own rate.
type LineInput struct {
	ArticleID   uint
	Quantite    float64
	TauxTVAID   *uint
	TauxValeur  *float64
	Commentaire *string
}

// CreateInput carries the fields accepted when creating a devis. Statut is
// caller-supplied to support back-filling already-finalized devis; creating
// one directly in the signed state freezes its snapshot immediately.
type CreateInput struct {
	Numero                  string
	ClientID                uint
	Objet                   *string
	Statut                  *enums.DevisStatus
	Remise                  float64
	IsLocation              bool
	FirstContributionAmount *float64
	Lines                   []LineInput
}

// UpdateInput carries the fields accepted when updating a devis.
type UpdateInput struct {
	ClientID                uint
	Objet                   *string
	Statut                  *enums.DevisStatus
	Remise                  float64
	IsLocation              bool
	FirstContributionAmount *float64
	Lines                   []LineInput
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Devis, error) {
	if input.ClientID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "client is required")
	}
	status := enums.DevisStatusBrouillon
	if input.Statut != nil {
		if !input.Statut.IsValid() {
			return nil, apperrors.New(apperrors.CodeValidation, "unknown devis status")
		}
		status = *input.Statut
	}
	if input.Remise < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "remise must not be negative")
	}

	numero := input.Numero
	if numero == "" {
		next, err := s.NextNumero(ctx)
		if err != nil {
			return nil, err
		}
		numero = next
	}

	cfg, err := s.params.Get(ctx)
	if err != nil {
		return nil, err
	}
	computed, err := s.buildLinesFromInput(ctx, input.Lines, cfg)
	if err != nil {
		return nil, err
	}

	d := &models.Devis{
		Numero:                  numero,
		ClientID:                input.ClientID,
		Statut:                  status,
		Objet:                   input.Objet,
		Remise:                  input.Remise,
		IsLocation:              input.IsLocation,
		FirstContributionAmount: input.FirstContributionAmount,
	}

	comp := compute(computed, d.Remise, apportOf(d), cfg)
	s.applyComputation(d, comp)

	lines := plainLines(comp)
	if status == enums.DevisStatusSigne {
		s.freeze(d, comp, cfg, s.now())
		lines = freezeLines(comp)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, d); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating devis")
		}
		return repo.ReplaceLines(ctx, d.ID, lines)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, d.ID)
}

// Update replaces the devis fields and lines atomically. A signed devis can
// no longer change; a status moving into the signed state in the same call
// freezes the snapshot together with the new lines.
func (s *Service) Update(ctx context.Context, id uint, input UpdateInput) (*models.Devis, error) {
	d, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsSigned() {
		return nil, apperrors.New(apperrors.CodeConflict, "devis is signed and can no longer change")
	}
	if input.Remise < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "remise must not be negative")
	}

	status := d.Statut
	if input.Statut != nil {
		if !input.Statut.IsValid() {
			return nil, apperrors.New(apperrors.CodeValidation, "unknown devis status")
		}
		status = *input.Statut
	}

	cfg, err := s.params.Get(ctx)
	if err != nil {
		return nil, err
	}
	computed, err := s.buildLinesFromInput(ctx, input.Lines, cfg)
	if err != nil {
		return nil, err
	}

	if input.ClientID != 0 {
		d.ClientID = input.ClientID
	}
	d.Objet = input.Objet
	d.Remise = input.Remise
	d.IsLocation = input.IsLocation
	d.FirstContributionAmount = input.FirstContributionAmount
	d.Statut = status

	comp := compute(computed, d.Remise, apportOf(d), cfg)
	s.applyComputation(d, comp)

	lines := plainLines(comp)
	if status == enums.DevisStatusSigne {
		s.freeze(d, comp, cfg, s.now())
		lines = freezeLines(comp)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, d); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "saving devis")
		}
		return repo.ReplaceLines(ctx, d.ID, lines)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, d.ID)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	d, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if d.IsSigned() {
		return apperrors.New(apperrors.CodeConflict, "devis is signed and cannot be deleted")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "deleting devis")
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Devis, error) {
	return s.mustGet(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Devis, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing devis")
	}
	return list, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID uint) ([]models.Devis, error) {
	list, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing devis by client")
	}
	return list, nil
}

// NextNumero produces the next free devis number.
func (s *Service) NextNumero(ctx context.Context) (string, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "counting devis")
	}

	year := s.now().Year()
	for n := count + 1; ; n++ {
		numero := fmt.Sprintf("DEV-%d-%04d", year, n)
		exists, err := s.repo.NumeroExists(ctx, numero)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeInternal, err, "checking devis numero")
		}
		if !exists {
			return numero, nil
		}
	}
}

// SelectScenario locks the payment scenario on first write. Re-selecting the
// same scenario is a no-op; requesting a different one conflicts.
func (s *Service) SelectScenario(ctx context.Context, id uint, scenario enums.Scenario) (*models.Devis, error) {
	if !scenario.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown scenario")
	}

	d, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsSigned() {
		return nil, apperrors.New(apperrors.CodeConflict, "devis is signed and can no longer change")
	}
	if d.ScenarioRetenu != nil {
		if *d.ScenarioRetenu == scenario {
			return d, nil
		}
		return nil, apperrors.New(apperrors.CodeConflict, "a scenario is already locked for this devis")
	}

	d.ScenarioRetenu = &scenario
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, d); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "saving devis scenario")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Sign finalizes a devis from a provider callback. Idempotent: an already
// signed devis returns unchanged, and declined or voided devis never leave
// their terminal state.
func (s *Service) Sign(ctx context.Context, id uint, signedAt *time.Time) (*models.Devis, error) {
	d, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Statut.IsTerminal() {
		return d, nil
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
	s.applyComputation(d, comp)

	stamp := s.now()
	if signedAt != nil {
		stamp = *signedAt
	}
	s.freeze(d, comp, cfg, stamp)
	lines := freezeLines(comp)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, d); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "saving signed devis")
		}
		return repo.ReplaceLines(ctx, d.ID, lines)
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithDevisID(ctx, d.ID)
	s.logg.Info(ctx, "devis signed")
	return s.Get(ctx, d.ID)
}

// ApplyTerminalStatus moves a devis into the declined or voided state.
// Devis already in a terminal state stay where they are.
func (s *Service) ApplyTerminalStatus(ctx context.Context, id uint, status enums.DevisStatus) (*models.Devis, error) {
	if status != enums.DevisStatusRefuse && status != enums.DevisStatusAnnule {
		return nil, apperrors.New(apperrors.CodeValidation, "status must be declined or voided")
	}

	d, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Statut.IsTerminal() {
		return d, nil
	}

	d.Statut = status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Save(ctx, d); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "saving devis status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MarkPendingSignature stamps the envelope reference and moves the devis to
// the pending-signature state. Runs inside the caller's transaction.
func (s *Service) MarkPendingSignature(ctx context.Context, tx *gorm.DB, id uint, envelopeID string) error {
	repo := s.repo.WithTx(tx)
	d, err := repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading devis")
	}
	if d == nil {
		return apperrors.New(apperrors.CodeNotFound, "devis not found")
	}
	if d.IsSigned() {
		return apperrors.New(apperrors.CodeConflict, "devis is already signed")
	}

	d.EnvelopeID = &envelopeID
	d.Statut = enums.DevisStatusEnAttente
	if err := repo.Save(ctx, d); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "saving devis envelope")
	}
	return nil
}

// Scenarios recomputes the three payment presentations for display.
func (s *Service) Scenarios(ctx context.Context, id uint) (*models.Devis, pricing.ScenarioSet, error) {
	d, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, pricing.ScenarioSet{}, err
	}

	cfg, err := s.params.Get(ctx)
	if err != nil {
		return nil, pricing.ScenarioSet{}, err
	}
	computed, err := s.buildLinesFromPersisted(ctx, d.Lignes)
	if err != nil {
		return nil, pricing.ScenarioSet{}, err
	}

	comp := compute(computed, d.Remise, apportOf(d), cfg)
	return d, comp.scenarios, nil
}

func (s *Service) mustGet(ctx context.Context, id uint) (*models.Devis, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading devis")
	}
	if d == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "devis not found")
	}
	return d, nil
}

// freeze writes the signed state onto the devis: status, timestamp, snapshot,
// and live totals overwritten with the frozen ones so both agree.
func (s *Service) freeze(d *models.Devis, comp computation, cfg *models.Parameters, signedAt time.Time) {
	snapshot := buildSnapshot(d, comp, cfg)
	d.Statut = enums.DevisStatusSigne
	d.SignedAt = &signedAt
	d.SignedData = snapshot
	d.MontantHT = snapshot.Totals.HT
	d.MontantTVA = snapshot.Totals.TVA
	d.MontantTTC = snapshot.Totals.TTC
}

// applyComputation refreshes the live totals and leasing figures.
func (s *Service) applyComputation(d *models.Devis, comp computation) {
	d.MontantHT = pricing.Round2(comp.direct.HT)
	d.MontantTVA = pricing.Round2(comp.direct.TVA)
	d.MontantTTC = pricing.Round2(comp.direct.TTC)

	if d.IsLocation {
		figures := comp.chosenLeasing(apportOf(d))
		d.MonthlyTotalHT = roundPtr(figures.MonthlyHT)
		d.MonthlyTotalTTC = roundPtr(figures.MonthlyTTC)
		d.LocationTotalHT = roundPtr(figures.TotalHT)
		d.LocationTotalTTC = roundPtr(figures.TotalTTC)
	} else {
		d.MonthlyTotalHT = nil
		d.MonthlyTotalTTC = nil
		d.LocationTotalHT = nil
		d.LocationTotalTTC = nil
	}
}

// buildLinesFromInput prices incoming lines. Articles are loaded once into a
// map so pricing never issues per-line queries.
func (s *Service) buildLinesFromInput(ctx context.Context, inputs []LineInput, cfg *models.Parameters) ([]computedLine, error) {
	ids := make([]uint, 0, len(inputs))
	for _, input := range inputs {
		ids = append(ids, input.ArticleID)
	}
	articles, err := s.catalog.ArticleMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	computed := make([]computedLine, 0, len(inputs))
	for _, input := range inputs {
		article, ok := articles[input.ArticleID]
		if !ok {
			return nil, apperrors.New(apperrors.CodeNotFound, "article not found").
				WithDetails(map[string]any{"article_id": input.ArticleID})
		}

		rateID, rateValue, err := s.resolveLineRate(ctx, input, article)
		if err != nil {
			return nil, err
		}

		line, err := s.priceLine(article, input.Quantite, rateValue, cfg)
		if err != nil {
			return nil, err
		}
		line.line = models.DevisLine{
			ArticleID:   input.ArticleID,
			Quantite:    input.Quantite,
			TauxTVAID:   rateID,
			Commentaire: input.Commentaire,
		}
		computed = append(computed, line)
	}
	return computed, nil
}

// buildLinesFromPersisted prices the lines already stored on the devis, used
// by the callback-driven sign path and scenario display.
func (s *Service) buildLinesFromPersisted(ctx context.Context, lines []models.DevisLine) ([]computedLine, error) {
	cfg, err := s.params.Get(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ArticleID)
	}
	articles, err := s.catalog.ArticleMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	computed := make([]computedLine, 0, len(lines))
	for _, row := range lines {
		article, ok := articles[row.ArticleID]
		if !ok {
			return nil, apperrors.New(apperrors.CodeNotFound, "article not found").
				WithDetails(map[string]any{"article_id": row.ArticleID})
		}

		rateValue := 0.0
		if row.TauxTVAID != nil {
			rate, err := s.catalog.GetRate(ctx, *row.TauxTVAID)
			if err != nil {
				return nil, err
			}
			rateValue = rate.Taux
		} else if article.TauxTVA != nil {
			rateValue = article.TauxTVA.Taux
		}

		line, err := s.priceLine(article, row.Quantite, rateValue, cfg)
		if err != nil {
			return nil, err
		}
		line.line = row
		computed = append(computed, line)
	}
	return computed, nil
}

// resolveLineRate applies the line VAT resolution order and returns the
// registry id to persist plus the decimal rate to price with.
func (s *Service) resolveLineRate(ctx context.Context, input LineInput, article models.Article) (*uint, float64, error) {
	if input.TauxTVAID != nil {
		rate, err := s.catalog.GetRate(ctx, *input.TauxTVAID)
		if err != nil {
			return nil, 0, err
		}
		return &rate.ID, rate.Taux, nil
	}
	if input.TauxValeur != nil {
		rate, err := s.catalog.FindOrCreateRate(ctx, *input.TauxValeur)
		if err != nil {
			return nil, 0, err
		}
		return &rate.ID, rate.Taux, nil
	}
	if article.TauxTVAID != nil && article.TauxTVA != nil {
		return article.TauxTVAID, article.TauxTVA.Taux, nil
	}
	return nil, 0, nil
}

// priceLine computes one line under both margin selections.
func (s *Service) priceLine(article models.Article, quantite, rateValue float64, cfg *models.Parameters) (computedLine, error) {
	direct, err := pricing.PriceLine(article.PrixVente, quantite, rateValue)
	if err != nil {
		return computedLine{}, err
	}

	locationUnit, err := pricing.ResolveSellPrice(article.PrixAchat, cfg.MarginRateLocation)
	if err != nil {
		return computedLine{}, err
	}
	location, err := pricing.PriceLine(locationUnit, quantite, rateValue)
	if err != nil {
		return computedLine{}, err
	}

	return computedLine{
		article:  article,
		vatRate:  rateValue,
		direct:   direct,
		location: location,
	}, nil
}

func plainLines(comp computation) []models.DevisLine {
	lines := make([]models.DevisLine, len(comp.lines))
	for i, line := range comp.lines {
		lines[i] = line.line
	}
	return lines
}

func apportOf(d *models.Devis) float64 {
	if d.FirstContributionAmount == nil {
		return 0
	}
	return *d.FirstContributionAmount
}
