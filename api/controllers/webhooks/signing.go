package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	"github.com/lucasmoreno-dev/devisio-backend/internal/signing"
	pkgerrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

// SigningCallbackService applies one parsed provider callback.
type SigningCallbackService interface {
	OnCallback(ctx context.Context, payload signing.CallbackPayload) (signing.CallbackResult, error)
}

type callbackGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// SigningWebhook receives provider status callbacks. The provider retries on
// non-2xx, so unknown envelopes and duplicate deliveries both acknowledge
// with 200; only malformed payloads are rejected.
func SigningWebhook(svc SigningCallbackService, guard callbackGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "signing service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		payload, err := signing.ParseCallback(r.Header.Get("Content-Type"), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		eventID := payload.EnvelopeID + ":" + payload.Status.String()
		if guard != nil {
			seen, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if seen {
				responses.WriteRaw(w, http.StatusOK, signing.CallbackResult{
					Status:     "ignored",
					EnvelopeID: payload.EnvelopeID,
				})
				return
			}
		}

		result, err := svc.OnCallback(ctx, payload)
		if err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, eventID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, result)
	}
}
