package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "openai api error",
			err: &openai.APIError{
				HTTPStatusCode: http.StatusTooManyRequests,
				Type:           "rate_limit_error",
				Message:        "Rate limit reached",
			},
			want: "429 rate_limit_error: Rate limit reached",
		},
		{
			name: "openai request error",
			err: &openai.RequestError{
				HTTPStatus:     "502 Bad Gateway",
				HTTPStatusCode: http.StatusBadGateway,
				Err:            errors.New("upstream connect error"),
			},
			want: "502: upstream connect error",
		},
		{
			name: "openai request error without cause",
			err:  &openai.RequestError{HTTPStatus: "503 Service Unavailable", HTTPStatusCode: http.StatusServiceUnavailable},
			want: "503: 503 Service Unavailable",
		},
		{
			name: "other errors pass through",
			err:  context.DeadlineExceeded,
			want: context.DeadlineExceeded.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeAPIError(tt.err)
			assert.EqualError(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, normalizeAPIError(nil))
}
