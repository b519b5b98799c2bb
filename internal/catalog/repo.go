package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
)

// Repository handles article and VAT-rate persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateArticle(ctx context.Context, article *models.Article) error
	UpdateArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, id uint) error
	FindArticleByID(ctx context.Context, id uint) (*models.Article, error)
	ListArticles(ctx context.Context) ([]models.Article, error)
	ArticleMap(ctx context.Context, ids []uint) (map[uint]models.Article, error)
	CountLinesForArticle(ctx context.Context, articleID uint) (int64, error)

	CreateRate(ctx context.Context, rate *models.VatRate) error
	DeleteRate(ctx context.Context, id uint) error
	FindRateByID(ctx context.Context, id uint) (*models.VatRate, error)
	FindRateByValue(ctx context.Context, taux float64) (*models.VatRate, error)
	ListRates(ctx context.Context) ([]models.VatRate, error)
	CountRateReferences(ctx context.Context, rateID uint) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateArticle(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *repository) UpdateArticle(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *repository) DeleteArticle(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Article{}, id).Error
}

func (r *repository) FindArticleByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("TauxTVA").First(&article, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (r *repository) ListArticles(ctx context.Context) ([]models.Article, error) {
	var list []models.Article
	if err := r.db.WithContext(ctx).Preload("TauxTVA").Order("nom ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ArticleMap loads the referenced articles in one query. Callers resolve
// per-line articles from the map instead of issuing per-line lookups.
func (r *repository) ArticleMap(ctx context.Context, ids []uint) (map[uint]models.Article, error) {
	result := make(map[uint]models.Article, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var articles []models.Article
	if err := r.db.WithContext(ctx).
		Preload("TauxTVA").
		Where("id IN ?", ids).
		Find(&articles).Error; err != nil {
		return nil, err
	}
	for _, article := range articles {
		result[article.ID] = article
	}
	return result, nil
}

func (r *repository) CountLinesForArticle(ctx context.Context, articleID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DevisLine{}).
		Where("article_id = ?", articleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateRate(ctx context.Context, rate *models.VatRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *repository) DeleteRate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.VatRate{}, id).Error
}

func (r *repository) FindRateByID(ctx context.Context, id uint) (*models.VatRate, error) {
	var rate models.VatRate
	if err := r.db.WithContext(ctx).First(&rate, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func (r *repository) FindRateByValue(ctx context.Context, taux float64) (*models.VatRate, error) {
	var rate models.VatRate
	if err := r.db.WithContext(ctx).Where("taux = ?", taux).First(&rate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func (r *repository) ListRates(ctx context.Context) ([]models.VatRate, error) {
	var list []models.VatRate
	if err := r.db.WithContext(ctx).Order("taux ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// CountRateReferences counts articles and devis lines pointing at the rate.
func (r *repository) CountRateReferences(ctx context.Context, rateID uint) (int64, error) {
	var articleCount int64
	if err := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("taux_tva_id = ?", rateID).
		Count(&articleCount).Error; err != nil {
		return 0, err
	}

	var lineCount int64
	if err := r.db.WithContext(ctx).
		Model(&models.DevisLine{}).
		Where("taux_tva_id = ?", rateID).
		Count(&lineCount).Error; err != nil {
		return 0, err
	}
	return articleCount + lineCount, nil
}
