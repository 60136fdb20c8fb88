package aggregator

import (
	"encoding/json"
	"fmt"
	"net/http"

	"finlink/internal/fault"
)

// ErrorResponse represents an error body from the provider API
type ErrorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Error codes the provider documents for credential failures.
const (
	codeRateLimit        = "RATE_LIMIT_EXCEEDED"
	codeInvalidToken     = "INVALID_ACCESS_TOKEN"
	codeItemLoginNeeded  = "ITEM_LOGIN_REQUIRED"
	codeUserRevoked      = "USER_PERMISSION_REVOKED"
	codeItemNotSupported = "ITEM_NOT_SUPPORTED"
)

// classifyAPIError turns a non-200 provider response into a
// fault-classified error so callers can pick retry vs deactivate.
func classifyAPIError(status int, body []byte) error {
	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorCode == "" {
		base := fmt.Errorf("API request failed with status %d: %s", status, string(body))
		if status >= http.StatusInternalServerError {
			return fault.Retryable(fault.KindProviderDown, base)
		}
		if status == http.StatusTooManyRequests {
			return fault.Retryable(fault.KindRateLimit, base)
		}
		return base
	}

	base := fmt.Errorf("API error (status %d): %s - %s", status, apiErr.ErrorCode, apiErr.ErrorMessage)

	switch apiErr.ErrorCode {
	case codeRateLimit:
		return fault.Retryable(fault.KindRateLimit, base)
	case codeInvalidToken, codeItemLoginNeeded:
		return fault.Terminal(fault.KindInvalidCredentials, base)
	case codeUserRevoked:
		return fault.Terminal(fault.KindItemRevoked, base)
	case codeItemNotSupported:
		return fault.Terminal(fault.KindMalformedItem, base)
	}

	if status >= http.StatusInternalServerError {
		return fault.Retryable(fault.KindProviderDown, base)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fault.Terminal(fault.KindInvalidCredentials, base)
	}
	return base
}
