package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureUnknown},
		{"offline", fmt.Errorf("%w: dial tcp: refused", ErrServerOffline), NetworkFailure},
		{"status", &StatusError{Code: 502}, ServerFailure},
		{"wrapped status", fmt.Errorf("fetch: %w", &StatusError{Code: 404}), ServerFailure},
		{"malformed", fmt.Errorf("%w: missing articles", ErrMalformedResponse), MalformedResponse},
		{"cache clear over offline", fmt.Errorf("%w: %w", ErrCacheClear, ErrServerOffline), CacheClearFailure},
		{"other", errors.New("boom"), FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 503, StatusCode(fmt.Errorf("x: %w", &StatusError{Code: 503})))
	assert.Equal(t, 0, StatusCode(ErrServerOffline))
}

func TestArticleByline(t *testing.T) {
	assert.Equal(t, "Wire · Ada", Article{Source: "Wire", Author: "Ada"}.Byline())
	assert.Equal(t, "Wire", Article{Source: "Wire"}.Byline())
}
