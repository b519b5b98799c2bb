package params

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
)

// Repository handles the singleton parameters row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	First(ctx context.Context) (*models.Parameters, error)
	Create(ctx context.Context, params *models.Parameters) error
	Update(ctx context.Context, params *models.Parameters) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a parameters repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) First(ctx context.Context) (*models.Parameters, error) {
	var params models.Parameters
	if err := r.db.WithContext(ctx).Order("id ASC").First(&params).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &params, nil
}

func (r *repository) Create(ctx context.Context, params *models.Parameters) error {
	return r.db.WithContext(ctx).Create(params).Error
}

func (r *repository) Update(ctx context.Context, params *models.Parameters) error {
	return r.db.WithContext(ctx).Save(params).Error
}
