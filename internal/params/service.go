package params

import (
	"context"
	"errors"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
)

// ServiceParams groups dependencies for the parameters service.
type ServiceParams struct {
	Repo Repository
}

// Service exposes the single company configuration record. The row is
// created lazily with zero defaults on first access.
type Service struct {
	repo Repository
}

// NewService builds a parameters service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Get returns the parameters row, creating an empty one if none exists yet.
func (s *Service) Get(ctx context.Context) (*models.Parameters, error) {
	current, err := s.repo.First(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading parameters")
	}
	if current != nil {
		return current, nil
	}

	fresh := &models.Parameters{}
	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating parameters")
	}
	return fresh, nil
}

// Input carries the updatable parameters fields.
type Input struct {
	CompanyName  *string
	AddressLine1 *string
	AddressLine2 *string
	Zip          *string
	City         *string
	Phone        *string
	Email        *string
	IBAN         *string
	TVANumber    *string
	SIRET        *string
	APRM         *string

	MarginRate               float64
	MarginRateLocation       float64
	LocationSubscriptionCost float64
	LocationInterestsCost    float64
	LocationTime             int
	GeneralConditionsSales   *string
}

// Update overwrites the parameters row with the provided values.
func (s *Service) Update(ctx context.Context, input Input) (*models.Parameters, error) {
	if input.MarginRate < 0 || input.MarginRateLocation < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "margin rates must not be negative")
	}
	if input.LocationTime < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "location time must not be negative")
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	current.CompanyName = input.CompanyName
	current.AddressLine1 = input.AddressLine1
	current.AddressLine2 = input.AddressLine2
	current.Zip = input.Zip
	current.City = input.City
	current.Phone = input.Phone
	current.Email = input.Email
	current.IBAN = input.IBAN
	current.TVANumber = input.TVANumber
	current.SIRET = input.SIRET
	current.APRM = input.APRM
	current.MarginRate = input.MarginRate
	current.MarginRateLocation = input.MarginRateLocation
	current.LocationSubscriptionCost = input.LocationSubscriptionCost
	current.LocationInterestsCost = input.LocationInterestsCost
	current.LocationTime = input.LocationTime
	current.GeneralConditionsSales = input.GeneralConditionsSales

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating parameters")
	}
	return current, nil
}
