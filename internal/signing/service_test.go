package signing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/db/models"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/esign"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

type stubRepo struct {
	rows    map[string]*models.EnvelopeTracking
	creates int
	updates int
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: make(map[string]*models.EnvelopeTracking)}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(_ context.Context, tracking *models.EnvelopeTracking) error {
	r.creates++
	copied := *tracking
	r.rows[tracking.EnvelopeID] = &copied
	return nil
}

func (r *stubRepo) Update(_ context.Context, tracking *models.EnvelopeTracking) error {
	r.updates++
	copied := *tracking
	r.rows[tracking.EnvelopeID] = &copied
	return nil
}

func (r *stubRepo) FindByEnvelopeID(_ context.Context, envelopeID string) (*models.EnvelopeTracking, error) {
	row, ok := r.rows[envelopeID]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *stubRepo) ListByDevis(_ context.Context, devisID uint) ([]models.EnvelopeTracking, error) {
	var list []models.EnvelopeTracking
	for _, row := range r.rows {
		if row.DevisID == devisID {
			list = append(list, *row)
		}
	}
	return list, nil
}

type stubWorkflow struct {
	devis          map[uint]*models.Devis
	signCalls      int
	terminalCalls  int
	pendingCalls   int
	lastSignedAt   *time.Time
	lastTerminal   enums.DevisStatus
	lastEnvelopeID string
}

func newStubWorkflow(devis ...*models.Devis) *stubWorkflow {
	w := &stubWorkflow{devis: make(map[uint]*models.Devis)}
	for _, d := range devis {
		w.devis[d.ID] = d
	}
	return w
}

func (w *stubWorkflow) Get(_ context.Context, id uint) (*models.Devis, error) {
	d, ok := w.devis[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "devis not found")
	}
	return d, nil
}

func (w *stubWorkflow) MarkPendingSignature(_ context.Context, _ *gorm.DB, id uint, envelopeID string) error {
	w.pendingCalls++
	w.lastEnvelopeID = envelopeID
	d := w.devis[id]
	d.Statut = enums.DevisStatusEnAttente
	d.EnvelopeID = &envelopeID
	return nil
}

func (w *stubWorkflow) Sign(_ context.Context, id uint, signedAt *time.Time) (*models.Devis, error) {
	w.signCalls++
	w.lastSignedAt = signedAt
	d := w.devis[id]
	if !d.Statut.IsTerminal() {
		stamp := time.Now()
		if signedAt != nil {
			stamp = *signedAt
		}
		d.Statut = enums.DevisStatusSigne
		d.SignedAt = &stamp
	}
	return d, nil
}

func (w *stubWorkflow) ApplyTerminalStatus(_ context.Context, id uint, status enums.DevisStatus) (*models.Devis, error) {
	w.terminalCalls++
	w.lastTerminal = status
	d := w.devis[id]
	if !d.Statut.IsTerminal() {
		d.Statut = status
	}
	return d, nil
}

type stubSender struct {
	envelopeID string
	err        error
	calls      int
}

func (s *stubSender) CreateEnvelope(context.Context, esign.EnvelopeSpec) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.envelopeID, nil
}

type stubForwarder struct {
	calls    int
	lastURL  string
	lastBody ForwardPayload
	err      error
}

func (f *stubForwarder) Forward(_ context.Context, url string, payload ForwardPayload) error {
	f.calls++
	f.lastURL = url
	f.lastBody = payload
	return f.err
}

type noopTx struct{}

func (noopTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func newTestService(t *testing.T, repo Repository, workflow DevisWorkflow, sender esign.EnvelopeSender, forwarder Forwarder) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Devis:     workflow,
		Envelopes: sender,
		Forwarder: forwarder,
		Tx:        noopTx{},
		Logger:    logger.New(logger.Options{ServiceName: "signing-test", Level: logger.ParseLevel("error")}),
	})
	require.NoError(t, err)
	return svc
}

func TestOnCallback_UnknownEnvelopeIgnored(t *testing.T) {
	repo := newStubRepo()
	workflow := newStubWorkflow()
	svc := newTestService(t, repo, workflow, &stubSender{}, nil)

	result, err := svc.OnCallback(context.Background(), CallbackPayload{
		EnvelopeID: "env-missing",
		Status:     enums.EnvelopeStatusCompleted,
	})
	require.NoError(t, err)

	assert.Equal(t, callbackIgnored, result.Status)
	assert.Equal(t, "env-missing", result.EnvelopeID)
	assert.Zero(t, workflow.signCalls)
	assert.Zero(t, workflow.terminalCalls)
	assert.Zero(t, repo.updates)
}

func TestOnCallback_CompletedSignsDevis(t *testing.T) {
	repo := newStubRepo()
	d := &models.Devis{ID: 5, Statut: enums.DevisStatusEnAttente}
	workflow := newStubWorkflow(d)
	require.NoError(t, repo.Create(context.Background(), &models.EnvelopeTracking{
		EnvelopeID: "env-5",
		DevisID:    5,
		Status:     enums.EnvelopeStatusSent,
	}))
	svc := newTestService(t, repo, workflow, &stubSender{}, nil)

	signedAt := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)
	result, err := svc.OnCallback(context.Background(), CallbackPayload{
		EnvelopeID: "env-5",
		Status:     enums.EnvelopeStatusCompleted,
		SignedAt:   &signedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, callbackProcessed, result.Status)
	assert.Equal(t, 1, workflow.signCalls)
	require.NotNil(t, workflow.lastSignedAt)
	assert.True(t, workflow.lastSignedAt.Equal(signedAt))
	assert.Equal(t, enums.DevisStatusSigne, d.Statut)

	stored := repo.rows["env-5"]
	assert.Equal(t, enums.EnvelopeStatusCompleted, stored.Status)
	require.NotNil(t, stored.SignedAt)
}

func TestOnCallback_DeclinedAndVoided(t *testing.T) {
	for status, expected := range map[enums.EnvelopeStatus]enums.DevisStatus{
		enums.EnvelopeStatusDeclined: enums.DevisStatusRefuse,
		enums.EnvelopeStatusVoided:   enums.DevisStatusAnnule,
	} {
		repo := newStubRepo()
		d := &models.Devis{ID: 9, Statut: enums.DevisStatusEnAttente}
		workflow := newStubWorkflow(d)
		require.NoError(t, repo.Create(context.Background(), &models.EnvelopeTracking{
			EnvelopeID: "env-9",
			DevisID:    9,
			Status:     enums.EnvelopeStatusSent,
		}))
		svc := newTestService(t, repo, workflow, &stubSender{}, nil)

		result, err := svc.OnCallback(context.Background(), CallbackPayload{
			EnvelopeID: "env-9",
			Status:     status,
		})
		require.NoError(t, err)
		assert.Equal(t, callbackProcessed, result.Status)
		assert.Equal(t, expected, workflow.lastTerminal)
		assert.Equal(t, expected, d.Statut)
	}
}

func TestOnCallback_ForwardingFailureDoesNotFailCallback(t *testing.T) {
	repo := newStubRepo()
	d := &models.Devis{ID: 3, Statut: enums.DevisStatusEnAttente}
	workflow := newStubWorkflow(d)
	callbackURL := "https://partner.example.fr/notify"
	require.NoError(t, repo.Create(context.Background(), &models.EnvelopeTracking{
		EnvelopeID:  "env-3",
		DevisID:     3,
		CallbackURL: &callbackURL,
		Status:      enums.EnvelopeStatusSent,
	}))
	forwarder := &stubForwarder{err: errors.New("connection refused")}
	svc := newTestService(t, repo, workflow, &stubSender{}, forwarder)

	result, err := svc.OnCallback(context.Background(), CallbackPayload{
		EnvelopeID: "env-3",
		Status:     enums.EnvelopeStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, callbackProcessed, result.Status)

	assert.Equal(t, 1, forwarder.calls)
	assert.Equal(t, callbackURL, forwarder.lastURL)

	stored := repo.rows["env-3"]
	require.NotNil(t, stored.NotificationStatus)
	assert.Equal(t, "failed", *stored.NotificationStatus)
	require.NotNil(t, stored.NotifiedAt)
}

func TestOnCallback_ForwardingSuccessRecorded(t *testing.T) {
	repo := newStubRepo()
	d := &models.Devis{ID: 4, Statut: enums.DevisStatusEnAttente}
	workflow := newStubWorkflow(d)
	callbackURL := "https://partner.example.fr/notify"
	require.NoError(t, repo.Create(context.Background(), &models.EnvelopeTracking{
		EnvelopeID:  "env-4",
		DevisID:     4,
		CallbackURL: &callbackURL,
		Status:      enums.EnvelopeStatusSent,
	}))
	forwarder := &stubForwarder{}
	svc := newTestService(t, repo, workflow, &stubSender{}, forwarder)

	_, err := svc.OnCallback(context.Background(), CallbackPayload{
		EnvelopeID: "env-4",
		Status:     enums.EnvelopeStatusCompleted,
	})
	require.NoError(t, err)

	assert.Equal(t, "env-4", forwarder.lastBody.EnvelopeID)
	assert.Equal(t, uint(4), forwarder.lastBody.DevisID)
	assert.Equal(t, "completed", forwarder.lastBody.Status)

	stored := repo.rows["env-4"]
	require.NotNil(t, stored.NotificationStatus)
	assert.Equal(t, "success", *stored.NotificationStatus)
}

func TestSendForSignature_ProviderFailureLeavesStateUntouched(t *testing.T) {
	repo := newStubRepo()
	d := &models.Devis{ID: 8, Numero: "DEV-2025-0008", Statut: enums.DevisStatusBrouillon}
	workflow := newStubWorkflow(d)
	sender := &stubSender{err: errors.New("provider unavailable")}
	svc := newTestService(t, repo, workflow, sender, nil)

	_, err := svc.SendForSignature(context.Background(), SendInput{
		DevisID:     8,
		SignerName:  "Claire Martin",
		SignerEmail: "claire@example.fr",
		DocumentPDF: []byte("%PDF"),
	})
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeDependency, appErr.Code())

	assert.Zero(t, repo.creates)
	assert.Zero(t, workflow.pendingCalls)
	assert.Equal(t, enums.DevisStatusBrouillon, d.Statut)
}

func TestSendForSignature_CommitsTrackingAndPendingStatus(t *testing.T) {
	repo := newStubRepo()
	d := &models.Devis{ID: 8, Numero: "DEV-2025-0008", Statut: enums.DevisStatusBrouillon}
	workflow := newStubWorkflow(d)
	sender := &stubSender{envelopeID: "env-new"}
	svc := newTestService(t, repo, workflow, sender, nil)

	callbackURL := "https://partner.example.fr/notify"
	tracking, err := svc.SendForSignature(context.Background(), SendInput{
		DevisID:       8,
		SignerName:    "Claire Martin",
		SignerEmail:   "claire@example.fr",
		DocumentPDF:   []byte("%PDF"),
		RequesterHost: "portal.example.fr",
		CallbackURL:   &callbackURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "env-new", tracking.EnvelopeID)
	assert.Equal(t, uint(8), tracking.DevisID)
	assert.Equal(t, enums.EnvelopeStatusSent, tracking.Status)
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 1, workflow.pendingCalls)
	assert.Equal(t, enums.DevisStatusEnAttente, d.Statut)
}

func TestSendForSignature_SignedDevisConflicts(t *testing.T) {
	repo := newStubRepo()
	d := &models.Devis{ID: 2, Statut: enums.DevisStatusSigne}
	workflow := newStubWorkflow(d)
	sender := &stubSender{envelopeID: "env-x"}
	svc := newTestService(t, repo, workflow, sender, nil)

	_, err := svc.SendForSignature(context.Background(), SendInput{DevisID: 2, SignerName: "A", SignerEmail: "a@b.fr", DocumentPDF: []byte("%PDF")})
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code())
	assert.Zero(t, sender.calls)
}
