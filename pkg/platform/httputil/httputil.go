package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/requestcontext"
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination computes the page window for total items.
func NewPagination(page, limit, total int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type errorEnvelope struct {
	Success          bool              `json:"success"`
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
	Details          map[string]any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteSuccess writes data inside the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, envelope{Success: true, Data: data})
}

// WritePage writes a list and its pagination inside the success envelope.
func WritePage(w http.ResponseWriter, data any, page *Pagination) {
	WriteJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: page})
}

// WriteError centralizes domain error translation to HTTP responses.
// Unknown errors become a generic 500 without internal detail.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		resp := errorEnvelope{
			Error:   DomainCodeToHTTPCode(domainErr.Code),
			Fields:  domainErr.Fields,
			Details: domainErr.Details,
		}
		if domainErr.Code != dErrors.CodeInternal {
			resp.ErrorDescription = domainErr.Message
		} else {
			resp.ErrorDescription = "internal server error"
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), resp)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, errorEnvelope{
		Error:            DomainCodeToHTTPCode(dErrors.CodeInternal),
		ErrorDescription: "internal server error",
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeTenantNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeInvariantViolation, dErrors.CodeTenantRequired:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeLicenseExpired,
		dErrors.CodeFeatureNotAvailable, dErrors.CodePlanLimitReached:
		return http.StatusForbidden
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the JSON error string.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_failed"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "permission_denied"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeRateLimited:
		return "rate_limit_exceeded"
	case dErrors.CodeTenantRequired, dErrors.CodeTenantNotFound, dErrors.CodeLicenseExpired,
		dErrors.CodeFeatureNotAvailable, dErrors.CodePlanLimitReached:
		return string(code)
	default:
		return "internal_error"
	}
}

// RequireUserID extracts the authenticated user ID from context.
func RequireUserID(ctx context.Context, logger *slog.Logger, requestID string) (id.UserID, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
				"request_id", requestID)
		}
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}
