// Package auth resolves an inbound request's bearer credential to a live
// AuthKey and builds the AdmissionContext the dispatcher and telemetry
// sink carry for the rest of the request's lifetime. It generalizes the
// teacher's llm provider API-key handling (a single static key per
// Provider) into a per-request, per-caller credential lookup.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	apperrors "github.com/axgate/llmgw/pkg/errors"
)

// ExtractToken reads the inbound credential from the first non-empty of
// Authorization (Bearer scheme), x-api-key, x-goog-api-key.
func ExtractToken(header http.Header) string {
	if v := header.Get("Authorization"); v != "" {
		if rest, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
		return strings.TrimSpace(v)
	}
	if v := header.Get("x-api-key"); v != "" {
		return strings.TrimSpace(v)
	}
	if v := header.Get("x-goog-api-key"); v != "" {
		return strings.TrimSpace(v)
	}
	return ""
}

// Authenticator resolves credentials against the AuthKey repository.
type Authenticator struct {
	keys   repository.AuthKeyRepository
	logger *zap.Logger
}

func New(keys repository.AuthKeyRepository, logger *zap.Logger) *Authenticator {
	return &Authenticator{keys: keys, logger: logger}
}

// Authenticate extracts the credential from header, resolves it to an
// AuthKey, and checks it authorizes modelName right now. It returns an
// UNAUTHORIZED AppError for every rejection reason (missing credential,
// unknown key, disabled/expired key, model not in the allowlist). All
// share one code and status; the message says "missing bearer
// credential", "unknown credential", or, for a disabled, expired or
// non-allowlisted key, that it does not authorize the named model.
func (a *Authenticator) Authenticate(ctx context.Context, header http.Header, remoteIP, userAgent, modelName string, dialect valueobject.Dialect, reqCaps valueobject.CapabilitySet) (*entity.AuthKey, *valueobject.AdmissionContext, error) {
	token := ExtractToken(header)
	if token == "" {
		return nil, nil, apperrors.NewUnauthorizedError("missing bearer credential")
	}

	key, err := a.keys.FindByKey(ctx, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewUnauthorizedError("unknown credential")
		}
		return nil, nil, err
	}

	if !key.Authorizes(modelName, time.Now()) {
		return nil, nil, apperrors.NewUnauthorizedError("credential does not authorize model " + modelName)
	}

	admission := &valueobject.AdmissionContext{
		AuthKeyID:            key.ID,
		ModelName:            modelName,
		RemoteIP:             remoteIP,
		UserAgent:            userAgent,
		Dialect:              dialect,
		RequiredCapabilities: reqCaps,
	}
	return key, admission, nil
}

// RecordUsage bumps the key's usage_count and last_used_at after dispatch
// concludes. Failures are logged, never surfaced — a bookkeeping miss
// must not turn a completed request into an error response.
func (a *Authenticator) RecordUsage(ctx context.Context, authKeyID uint) {
	if authKeyID == 0 {
		return
	}
	if err := a.keys.RecordUsage(ctx, authKeyID, time.Now()); err != nil {
		a.logger.Warn("failed to record auth key usage", zap.Uint("auth_key_id", authKeyID), zap.Error(err))
	}
}
