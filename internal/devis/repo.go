package devis

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
)

// Repository handles devis persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, devis *models.Devis) error
	Save(ctx context.Context, devis *models.Devis) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Devis, error)
	List(ctx context.Context) ([]models.Devis, error)
	ListByClient(ctx context.Context, clientID uint) ([]models.Devis, error)
	Count(ctx context.Context) (int64, error)
	NumeroExists(ctx context.Context, numero string) (bool, error)
	ReplaceLines(ctx context.Context, devisID uint, lines []models.DevisLine) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a devis repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, devis *models.Devis) error {
	return r.db.WithContext(ctx).Create(devis).Error
}

func (r *repository) Save(ctx context.Context, devis *models.Devis) error {
	// Session with FullSaveAssociations disabled: lines are replaced
	// explicitly so a partial association write can never slip through.
	return r.db.WithContext(ctx).Omit("Lignes", "Client").Save(devis).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Lignes").Delete(&models.Devis{ID: id}).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Devis, error) {
	var devis models.Devis
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Lignes", func(db *gorm.DB) *gorm.DB {
			return db.Order("devis_lines.id ASC")
		}).
		First(&devis, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &devis, nil
}

func (r *repository) List(ctx context.Context) ([]models.Devis, error) {
	var list []models.Devis
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uint) ([]models.Devis, error) {
	var list []models.Devis
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Where("client_id = ?", clientID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Devis{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) NumeroExists(ctx context.Context, numero string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Devis{}).
		Where("numero = ?", numero).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceLines deletes and recreates the devis lines in one shot. Callers
// run it inside the surrounding transaction so the devis never persists with
// lines half-replaced.
func (r *repository) ReplaceLines(ctx context.Context, devisID uint, lines []models.DevisLine) error {
	if err := r.db.WithContext(ctx).
		Where("devis_id = ?", devisID).
		Delete(&models.DevisLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].DevisID = devisID
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}
