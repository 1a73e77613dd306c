package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
)

// APIError is a failed provider API call reduced to what an operator needs:
// the HTTP status, the provider's error type and its message.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.StatusCode != 0:
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Type, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	default:
		return e.Message
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// normalizeAPIError converts SDK errors into *APIError.
// Anthropic and OpenAI SDKs report HTTP failures with different shapes; other
// errors (network, timeouts, cancellation) pass through unchanged.
func normalizeAPIError(err error) error {
	if err == nil {
		return nil
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		apiErr := &APIError{StatusCode: anthropicErr.StatusCode, Message: anthropicErr.Error(), Err: err}
		// RawJSON carries the structured body; fall back to the SDK message when it doesn't parse.
		var resp anthropic.ErrorResponse
		if jsonErr := json.Unmarshal([]byte(anthropicErr.RawJSON()), &resp); jsonErr == nil && resp.Error.Message != "" {
			apiErr.Type = resp.Error.Type
			apiErr.Message = resp.Error.Message
		}
		return apiErr
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return &APIError{
			StatusCode: openaiErr.HTTPStatusCode,
			Type:       openaiErr.Type,
			Message:    openaiErr.Message,
			Err:        err,
		}
	}

	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		msg := requestErr.HTTPStatus
		if requestErr.Err != nil {
			msg = requestErr.Err.Error()
		}
		return &APIError{StatusCode: requestErr.HTTPStatusCode, Message: msg, Err: err}
	}

	return err
}
