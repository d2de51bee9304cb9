package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hawiya/internal/apikeys/models"
	"hawiya/internal/platform/metrics"
	id "hawiya/pkg/domain"
	dErrors "hawiya/pkg/domain-errors"
	"hawiya/pkg/platform/httputil"
)

// Registry is the key management surface exposed over HTTP.
type Registry interface {
	Create(ctx context.Context, params models.CreateParams) (models.Account, string, error)
	Revoke(ctx context.Context, accountID id.APIKeyID) error
}

// APIKeysHandler serves key provisioning and revocation. These are
// administrative endpoints; the validation quota gate does not apply.
type APIKeysHandler struct {
	logger   *slog.Logger
	registry Registry
	metrics  *metrics.Metrics
}

func NewAPIKeysHandler(registry Registry, logger *slog.Logger, m *metrics.Metrics) *APIKeysHandler {
	return &APIKeysHandler{logger: logger, registry: registry, metrics: m}
}

type createKeyRequest struct {
	Name           string            `json:"name"`
	QuotaPerMinute *int              `json:"quota_per_minute,omitempty"`
	QuotaPerDay    *int              `json:"quota_per_day,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// createKeyResponse deliberately excludes the stored hash. Key is the raw
// secret, returned exactly once at creation.
type createKeyResponse struct {
	ID             id.APIKeyID       `json:"id"`
	Name           string            `json:"name"`
	KeyPrefix      string            `json:"key_prefix"`
	CreatedAt      time.Time         `json:"created_at"`
	QuotaPerMinute int               `json:"quota_per_minute"`
	QuotaPerDay    int               `json:"quota_per_day"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Key            string            `json:"key"`
}

func (h *APIKeysHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, rawKey, err := h.registry.Create(ctx, models.CreateParams{
		Name:           req.Name,
		QuotaPerMinute: req.QuotaPerMinute,
		QuotaPerDay:    req.QuotaPerDay,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "api key creation failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementKeysCreated()
	}

	httputil.WriteJSON(w, http.StatusCreated, createKeyResponse{
		ID:             account.ID,
		Name:           account.Name,
		KeyPrefix:      account.KeyPrefix,
		CreatedAt:      account.CreatedAt,
		QuotaPerMinute: account.QuotaPerMinute,
		QuotaPerDay:    account.QuotaPerDay,
		Metadata:       account.Metadata,
		Key:            rawKey,
	})
}

func (h *APIKeysHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, err := id.ParseAPIKeyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid api key id"))
		return
	}

	if err := h.registry.Revoke(ctx, accountID); err != nil {
		h.logger.WarnContext(ctx, "api key revocation failed",
			"api_key_id", accountID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementKeysRevoked()
	}

	w.WriteHeader(http.StatusNoContent)
}
