package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/printveda/printveda-backend/api/responses"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
)

const callbackBodyLimit = 1 << 20

// PhonePeCallbackService applies a verified callback delivery.
type PhonePeCallbackService interface {
	HandleCallback(ctx context.Context, xVerify, encodedBody string) error
}

type phonePeCallbackBody struct {
	Response string `json:"response"`
}

// PhonePeCallback receives the server-to-server settlement callback. The
// body is `{"response": "<base64>"}` signed via the X-VERIFY header.
func PhonePeCallback(svc PhonePeCallbackService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "callback service unavailable"))
			return
		}

		xVerify := r.Header.Get("X-VERIFY")
		if xVerify == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-VERIFY header missing"))
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, callbackBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var body phonePeCallbackBody
		if err := json.Unmarshal(raw, &body); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback body"))
			return
		}
		if strings.TrimSpace(body.Response) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "callback response missing"))
			return
		}

		if err := svc.HandleCallback(ctx, xVerify, body.Response); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
