package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/lucasmoreno-dev/devisio-backend/internal/pricing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
)

// ParamsProvider yields the company configuration record.
type ParamsProvider interface {
	Get(ctx context.Context) (*models.Parameters, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo   Repository
	Params ParamsProvider
}

// Service orchestrates article and VAT-rate operations.
type Service struct {
	repo   Repository
	params ParamsProvider
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Params == nil {
		return nil, errors.New("params provider is required")
	}
	return &Service{repo: params.Repo, params: params.Params}, nil
}

// ArticleInput carries article fields for create and update. The VAT rate
// may arrive as a registry reference or as a raw value; TauxTVAID wins when
// both are present, and a raw value reuses or creates its registry entry.
type ArticleInput struct {
	Nom         string
	Reference   *string
	Description *string
	PrixAchat   float64
	TauxTVAID   *uint
	TauxValeur  *float64
	Fournisseur *string
}

func (s *Service) CreateArticle(ctx context.Context, input ArticleInput) (*models.Article, error) {
	article := &models.Article{}
	if err := s.applyArticleInput(ctx, article, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateArticle(ctx, article); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating article")
	}
	return article, nil
}

func (s *Service) UpdateArticle(ctx context.Context, id uint, input ArticleInput) (*models.Article, error) {
	article, err := s.repo.FindArticleByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading article")
	}
	if article == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "article not found")
	}
	if err := s.applyArticleInput(ctx, article, input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateArticle(ctx, article); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating article")
	}
	return article, nil
}

// applyArticleInput validates the input, resolves the VAT reference, and
// recomputes the persisted sell price from the margin rate in force now.
// Later margin changes leave the stored price untouched until a re-save.
func (s *Service) applyArticleInput(ctx context.Context, article *models.Article, input ArticleInput) error {
	if strings.TrimSpace(input.Nom) == "" {
		return apperrors.New(apperrors.CodeValidation, "article name is required")
	}

	cfg, err := s.params.Get(ctx)
	if err != nil {
		return err
	}
	sellPrice, err := pricing.ResolveSellPrice(input.PrixAchat, cfg.MarginRate)
	if err != nil {
		return err
	}

	rate, err := s.resolveRate(ctx, input.TauxTVAID, input.TauxValeur)
	if err != nil {
		return err
	}

	article.Nom = strings.TrimSpace(input.Nom)
	article.Reference = input.Reference
	article.Description = input.Description
	article.PrixAchat = input.PrixAchat
	article.PrixVente = sellPrice
	article.Fournisseur = input.Fournisseur
	if rate != nil {
		article.TauxTVAID = &rate.ID
		article.TauxTVA = rate
	} else {
		article.TauxTVAID = nil
		article.TauxTVA = nil
	}
	return nil
}

// resolveRate applies the VAT resolution order: explicit registry id first,
// then a raw value (reusing or creating its registry entry), else none.
func (s *Service) resolveRate(ctx context.Context, rateID *uint, rawValue *float64) (*models.VatRate, error) {
	if rateID != nil {
		rate, err := s.repo.FindRateByID(ctx, *rateID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading vat rate")
		}
		if rate == nil {
			return nil, apperrors.New(apperrors.CodeNotFound, "vat rate not found")
		}
		return rate, nil
	}
	if rawValue != nil {
		return s.FindOrCreateRate(ctx, *rawValue)
	}
	return nil, nil
}

func (s *Service) DeleteArticle(ctx context.Context, id uint) error {
	article, err := s.repo.FindArticleByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading article")
	}
	if article == nil {
		return apperrors.New(apperrors.CodeNotFound, "article not found")
	}

	count, err := s.repo.CountLinesForArticle(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "counting article references")
	}
	if count > 0 {
		return apperrors.New(apperrors.CodeConflict, "article is referenced by devis lines")
	}

	if err := s.repo.DeleteArticle(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting article")
	}
	return nil
}

func (s *Service) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	article, err := s.repo.FindArticleByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading article")
	}
	if article == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "article not found")
	}
	return article, nil
}

func (s *Service) ListArticles(ctx context.Context) ([]models.Article, error) {
	list, err := s.repo.ListArticles(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing articles")
	}
	return list, nil
}

// ArticleMap exposes the batch article lookup for the devis pricing path.
func (s *Service) ArticleMap(ctx context.Context, ids []uint) (map[uint]models.Article, error) {
	result, err := s.repo.ArticleMap(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading articles")
	}
	return result, nil
}

func (s *Service) CreateRate(ctx context.Context, taux float64) (*models.VatRate, error) {
	if taux < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "vat rate must not be negative")
	}

	existing, err := s.repo.FindRateByValue(ctx, taux)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "looking up vat rate")
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.CodeConflict, "vat rate already exists")
	}

	rate := &models.VatRate{Taux: taux}
	if err := s.repo.CreateRate(ctx, rate); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating vat rate")
	}
	return rate, nil
}

// GetRate loads a registry entry by id.
func (s *Service) GetRate(ctx context.Context, id uint) (*models.VatRate, error) {
	rate, err := s.repo.FindRateByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading vat rate")
	}
	if rate == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "vat rate not found")
	}
	return rate, nil
}

// FindOrCreateRate reuses the registry entry for a raw rate value, creating
// it when missing.
func (s *Service) FindOrCreateRate(ctx context.Context, taux float64) (*models.VatRate, error) {
	if taux < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "vat rate must not be negative")
	}

	existing, err := s.repo.FindRateByValue(ctx, taux)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "looking up vat rate")
	}
	if existing != nil {
		return existing, nil
	}

	rate := &models.VatRate{Taux: taux}
	if err := s.repo.CreateRate(ctx, rate); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating vat rate")
	}
	return rate, nil
}

// DeleteRate refuses to remove a rate that any article or devis line still
// references. The registry enforces this, not a database constraint alone.
func (s *Service) DeleteRate(ctx context.Context, id uint) error {
	rate, err := s.repo.FindRateByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading vat rate")
	}
	if rate == nil {
		return apperrors.New(apperrors.CodeNotFound, "vat rate not found")
	}

	references, err := s.repo.CountRateReferences(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "counting vat rate references")
	}
	if references > 0 {
		return apperrors.New(apperrors.CodeConflict, "vat rate is referenced")
	}

	if err := s.repo.DeleteRate(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting vat rate")
	}
	return nil
}

func (s *Service) ListRates(ctx context.Context) ([]models.VatRate, error) {
	list, err := s.repo.ListRates(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing vat rates")
	}
	return list, nil
}
