package signing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/esign"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/metrics"
)

// DevisWorkflow is the surface the coordinator needs from the devis feature.
type DevisWorkflow interface {
	Get(ctx context.Context, id uint) (*models.Devis, error)
	MarkPendingSignature(ctx context.Context, tx *gorm.DB, id uint, envelopeID string) error
	Sign(ctx context.Context, id uint, signedAt *time.Time) (*models.Devis, error)
	ApplyTerminalStatus(ctx context.Context, id uint, status enums.DevisStatus) (*models.Devis, error)
}

// TxRunner wraps a function in a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the signing coordinator.
type ServiceParams struct {
	Repo      Repository
	Devis     DevisWorkflow
	Envelopes esign.EnvelopeSender
	Forwarder Forwarder
	Tx        TxRunner
	Logger    *logger.Logger
	Metrics   *metrics.SigningMetrics
	Clock     func() time.Time
}

// Service coordinates the e-signature workflow: it registers envelopes sent
// to the provider and applies status callbacks to the devis state machine
// exactly once.
type Service struct {
	repo      Repository
	devis     DevisWorkflow
	envelopes esign.EnvelopeSender
	forwarder Forwarder
	tx        TxRunner
	logg      *logger.Logger
	metrics   *metrics.SigningMetrics
	now       func() time.Time
}

// NewService builds a signing coordinator.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Devis == nil {
		return nil, errors.New("devis workflow is required")
	}
	if params.Envelopes == nil {
		return nil, errors.New("envelope sender is required")
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
		repo:      params.Repo,
		devis:     params.Devis,
		envelopes: params.Envelopes,
		forwarder: params.Forwarder,
		tx:        params.Tx,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// SendInput describes one send-for-signature request.
type SendInput struct {
	DevisID       uint
	SignerName    string
	SignerEmail   string
	DocumentPDF   []byte
	WebhookURL    string
	RequesterHost string
	CallbackURL   *string
}

// SendForSignature submits the document to the provider and, only once the
// provider confirms the envelope, commits the tracking row and the devis
// pending-signature transition together. A provider failure leaves the devis
// untouched.
func (s *Service) SendForSignature(ctx context.Context, input SendInput) (*models.EnvelopeTracking, error) {
	d, err := s.devis.Get(ctx, input.DevisID)
	if err != nil {
		return nil, err
	}
	if d.IsSigned() {
		return nil, apperrors.New(apperrors.CodeConflict, "devis is already signed")
	}

	envelopeID, err := s.envelopes.CreateEnvelope(ctx, esign.EnvelopeSpec{
		EmailSubject: "Devis " + d.Numero,
		DocumentName: "devis-" + d.Numero + ".pdf",
		DocumentPDF:  input.DocumentPDF,
		SignerName:   input.SignerName,
		SignerEmail:  input.SignerEmail,
		WebhookURL:   input.WebhookURL,
	})
	if err != nil {
		s.metrics.IncEnvelopeSent("error")
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "signing provider rejected the envelope")
	}

	tracking := &models.EnvelopeTracking{
		EnvelopeID:  envelopeID,
		DevisID:     d.ID,
		CallbackURL: input.CallbackURL,
		Status:      enums.EnvelopeStatusSent,
	}
	if input.RequesterHost != "" {
		tracking.RequesterHost = &input.RequesterHost
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, tracking); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating envelope tracking")
		}
		return s.devis.MarkPendingSignature(ctx, tx, d.ID, envelopeID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncEnvelopeSent("ok")
	ctx = s.logg.WithEnvelopeID(s.logg.WithDevisID(ctx, d.ID), envelopeID)
	s.logg.Info(ctx, "devis sent for signature")
	return tracking, nil
}

// RegisterEnvelope stores a tracking row for an envelope created elsewhere.
// Call it only after the provider has confirmed envelope creation.
func (s *Service) RegisterEnvelope(ctx context.Context, devisID uint, envelopeID, requesterHost string, callbackURL *string) (*models.EnvelopeTracking, error) {
	if envelopeID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "envelope id is required")
	}
	if _, err := s.devis.Get(ctx, devisID); err != nil {
		return nil, err
	}

	tracking := &models.EnvelopeTracking{
		EnvelopeID:  envelopeID,
		DevisID:     devisID,
		CallbackURL: callbackURL,
		Status:      enums.EnvelopeStatusSent,
	}
	if requesterHost != "" {
		tracking.RequesterHost = &requesterHost
	}
	if err := s.repo.Create(ctx, tracking); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating envelope tracking")
	}
	return tracking, nil
}

// CallbackResult is what the webhook endpoint reports back to the provider.
type CallbackResult struct {
	Status     string `json:"status"`
	EnvelopeID string `json:"envelope_id"`
}

const (
	callbackProcessed = "processed"
	callbackIgnored   = "ignored"
)

// OnCallback applies one provider status callback. Unknown envelopes are
// ignored rather than erroring, since the provider retries on non-2xx. The
// devis transition is durable before any forwarding attempt.
func (s *Service) OnCallback(ctx context.Context, payload CallbackPayload) (CallbackResult, error) {
	ctx = s.logg.WithEnvelopeID(ctx, payload.EnvelopeID)

	tracking, err := s.repo.FindByEnvelopeID(ctx, payload.EnvelopeID)
	if err != nil {
		return CallbackResult{}, apperrors.Wrap(apperrors.CodeInternal, err, "loading envelope tracking")
	}
	if tracking == nil {
		s.metrics.IncCallbackIgnored()
		s.logg.Warn(ctx, "callback for unknown envelope ignored")
		return CallbackResult{Status: callbackIgnored, EnvelopeID: payload.EnvelopeID}, nil
	}

	ctx = s.logg.WithDevisID(ctx, tracking.DevisID)

	switch payload.Status {
	case enums.EnvelopeStatusCompleted:
		d, err := s.devis.Sign(ctx, tracking.DevisID, payload.SignedAt)
		if err != nil {
			return CallbackResult{}, err
		}
		if d.IsSigned() {
			tracking.SignedAt = d.SignedAt
			s.metrics.IncDevisSigned()
		}
	case enums.EnvelopeStatusDeclined:
		if _, err := s.devis.ApplyTerminalStatus(ctx, tracking.DevisID, enums.DevisStatusRefuse); err != nil {
			return CallbackResult{}, err
		}
	case enums.EnvelopeStatusVoided:
		if _, err := s.devis.ApplyTerminalStatus(ctx, tracking.DevisID, enums.DevisStatusAnnule); err != nil {
			return CallbackResult{}, err
		}
	default:
		return CallbackResult{}, apperrors.New(apperrors.CodeValidation, "callback status not handled")
	}

	tracking.Status = payload.Status
	if err := s.repo.Update(ctx, tracking); err != nil {
		return CallbackResult{}, apperrors.Wrap(apperrors.CodeInternal, err, "updating envelope tracking")
	}

	s.metrics.IncCallback(payload.Status.String())
	s.logg.Info(ctx, "signing callback applied")

	// The state transition is committed; forwarding failures are recorded
	// but never bubble up to the provider.
	s.forwardIfConfigured(ctx, tracking)

	return CallbackResult{Status: callbackProcessed, EnvelopeID: payload.EnvelopeID}, nil
}

func (s *Service) forwardIfConfigured(ctx context.Context, tracking *models.EnvelopeTracking) {
	if s.forwarder == nil || tracking.CallbackURL == nil || *tracking.CallbackURL == "" {
		return
	}

	payload := ForwardPayload{
		EnvelopeID: tracking.EnvelopeID,
		DevisID:    tracking.DevisID,
		Status:     tracking.Status.String(),
	}
	if tracking.SignedAt != nil {
		payload.SignedAt = tracking.SignedAt.UTC().Format(time.RFC3339)
	}

	stamp := s.now()
	tracking.NotifiedAt = &stamp
	status := "success"
	if err := s.forwarder.Forward(ctx, *tracking.CallbackURL, payload); err != nil {
		status = "failed"
		s.logg.Warn(ctx, "callback forwarding failed: "+err.Error())
	}
	tracking.NotificationStatus = &status
	s.metrics.IncNotifyForwarding(status)

	if err := s.repo.Update(ctx, tracking); err != nil {
		s.logg.Error(ctx, "recording forwarding result failed", err)
	}
}

// ListForDevis returns the tracking rows referencing a devis, newest first.
func (s *Service) ListForDevis(ctx context.Context, devisID uint) ([]models.EnvelopeTracking, error) {
	list, err := s.repo.ListByDevis(ctx, devisID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing envelope tracking")
	}
	return list, nil
}

// EnvelopeStatus returns the tracking row for one envelope.
func (s *Service) EnvelopeStatus(ctx context.Context, envelopeID string) (*models.EnvelopeTracking, error) {
	tracking, err := s.repo.FindByEnvelopeID(ctx, envelopeID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading envelope tracking")
	}
	if tracking == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "envelope not found")
	}
	return tracking, nil
}
