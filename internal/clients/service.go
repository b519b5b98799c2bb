package clients

import (
	"context"
	"errors"
	"strings"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
)

// ServiceParams groups dependencies for the clients service.
type ServiceParams struct {
	Repo Repository
}

// Service orchestrates client operations.
type Service struct {
	repo Repository
}

// NewService builds a clients service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Input carries client fields for create and update.
type Input struct {
	Nom          string
	Contact      *string
	AddressLine1 *string
	AddressLine2 *string
	Zip          *string
	City         *string
	Phone        *string
	Email        *string
	TVANumber    *string
	SIRET        *string
}

func (s *Service) Create(ctx context.Context, input Input) (*models.Client, error) {
	if strings.TrimSpace(input.Nom) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client name is required")
	}

	client := &models.Client{
		Nom:          strings.TrimSpace(input.Nom),
		Contact:      input.Contact,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		Zip:          input.Zip,
		City:         input.City,
		Phone:        input.Phone,
		Email:        input.Email,
		TVANumber:    input.TVANumber,
		SIRET:        input.SIRET,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		if db.IsUniqueViolation(err, "uq_clients_email") {
			return nil, apperrors.New(apperrors.CodeConflict, "client email already in use")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating client")
	}
	return client, nil
}

func (s *Service) Update(ctx context.Context, id uint, input Input) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading client")
	}
	if client == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "client not found")
	}
	if strings.TrimSpace(input.Nom) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client name is required")
	}

	client.Nom = strings.TrimSpace(input.Nom)
	client.Contact = input.Contact
	client.AddressLine1 = input.AddressLine1
	client.AddressLine2 = input.AddressLine2
	client.Zip = input.Zip
	client.City = input.City
	client.Phone = input.Phone
	client.Email = input.Email
	client.TVANumber = input.TVANumber
	client.SIRET = input.SIRET

	if err := s.repo.Update(ctx, client); err != nil {
		if db.IsUniqueViolation(err, "uq_clients_email") {
			return nil, apperrors.New(apperrors.CodeConflict, "client email already in use")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating client")
	}
	return client, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading client")
	}
	if client == nil {
		return apperrors.New(apperrors.CodeNotFound, "client not found")
	}

	count, err := s.repo.CountDevis(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "counting client devis")
	}
	if count > 0 {
		return apperrors.New(apperrors.CodeConflict, "client has existing devis")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting client")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading client")
	}
	if client == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "client not found")
	}
	return client, nil
}

func (s *Service) List(ctx context.Context) ([]models.Client, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing clients")
	}
	return list, nil
}
