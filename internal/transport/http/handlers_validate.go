package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hawiya/internal/audit"
	"hawiya/internal/nationalid"
	"hawiya/internal/platform/metrics"
	dErrors "hawiya/pkg/domain-errors"
	"hawiya/pkg/platform/httputil"
	"hawiya/pkg/requestcontext"
)

var tracer = otel.Tracer("hawiya/transport")

type validateRequest struct {
	NationalID     string `json:"national_id"`
	StrictChecksum bool   `json:"strict_checksum"`
}

// ValidateHandler serves the national ID validation endpoint.
type ValidateHandler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder *audit.Recorder
}

func NewValidateHandler(logger *slog.Logger, m *metrics.Metrics, recorder *audit.Recorder) *ValidateHandler {
	return &ValidateHandler{logger: logger, metrics: m, recorder: recorder}
}

func (h *ValidateHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "validate_national_id",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	start := time.Now()

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.NationalID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "national_id is required"))
		return
	}

	result := nationalid.Validate(req.NationalID, req.StrictChecksum, requestcontext.Now(ctx))
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Bool("validation.valid", result.Valid),
		attribute.Bool("validation.strict", req.StrictChecksum),
		attribute.Int("validation.reason_count", len(result.Reasons)),
	)

	if h.metrics != nil {
		h.metrics.RecordValidation(result.Valid, duration.Seconds())
	}
	h.recordAudit(r, req, result, duration)

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusBadRequest
	}
	httputil.WriteJSON(w, status, result)
}

func (h *ValidateHandler) recordAudit(r *http.Request, req validateRequest, result nationalid.Result, duration time.Duration) {
	if h.recorder == nil {
		return
	}

	ctx := r.Context()
	keyID := audit.AnonymousKeyID
	if accountID := requestcontext.APIKeyID(ctx); !accountID.IsNil() {
		keyID = accountID.String()
	}

	reasons := make([]string, 0, len(result.Reasons))
	for _, reason := range result.Reasons {
		reasons = append(reasons, string(reason))
	}

	h.recorder.Record(audit.Entry{
		APIKeyID:         keyID,
		MaskedNationalID: audit.MaskNationalID(req.NationalID),
		Valid:            result.Valid,
		Reasons:          reasons,
		Strict:           req.StrictChecksum,
		Duration:         duration,
		ClientIP:         requestcontext.ClientIP(ctx),
		UserAgent:        requestcontext.UserAgent(ctx),
	})
}
