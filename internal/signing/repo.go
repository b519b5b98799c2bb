package signing

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
)

// Repository handles envelope tracking persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tracking *models.EnvelopeTracking) error
	Update(ctx context.Context, tracking *models.EnvelopeTracking) error
	FindByEnvelopeID(ctx context.Context, envelopeID string) (*models.EnvelopeTracking, error)
	ListByDevis(ctx context.Context, devisID uint) ([]models.EnvelopeTracking, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tracking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tracking *models.EnvelopeTracking) error {
	return r.db.WithContext(ctx).Create(tracking).Error
}

func (r *repository) Update(ctx context.Context, tracking *models.EnvelopeTracking) error {
	return r.db.WithContext(ctx).Save(tracking).Error
}

func (r *repository) FindByEnvelopeID(ctx context.Context, envelopeID string) (*models.EnvelopeTracking, error) {
	if envelopeID == "" {
		return nil, nil
	}
	var tracking models.EnvelopeTracking
	if err := r.db.WithContext(ctx).
		Where("envelope_id = ?", envelopeID).
		First(&tracking).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tracking, nil
}

func (r *repository) ListByDevis(ctx context.Context, devisID uint) ([]models.EnvelopeTracking, error) {
	var list []models.EnvelopeTracking
	if err := r.db.WithContext(ctx).
		Where("devis_id = ?", devisID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
