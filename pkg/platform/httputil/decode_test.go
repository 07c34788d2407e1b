package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "estatehub/pkg/domain-errors"
)

type plainRequest struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type preparedRequest struct {
	Name       string `json:"name"`
	normalized bool
}

func (r *preparedRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.normalized = true
}

func (r *preparedRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type domainErrRequest struct {
	ID string `json:"id"`
}

func (r *domainErrRequest) Normalize() {}

func (r *domainErrRequest) Validate() error {
	if r.ID == "" {
		return dErrors.Validation("invalid request", map[string]string{"id": "id is required"})
	}
	return nil
}

func decodeBody[T any](t *testing.T, body string, prepare bool) (*T, bool, map[string]any, int) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	} else {
		r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}
	w := httptest.NewRecorder()

	var (
		out *T
		ok  bool
	)
	if prepare {
		out, ok = DecodeAndPrepare[T](w, r, logger, context.Background(), "req-1")
	} else {
		out, ok = DecodeJSON[T](w, r, logger, context.Background(), "req-1")
	}

	var resp map[string]any
	if !ok {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return out, ok, resp, w.Code
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes a single object", func(t *testing.T) {
		out, ok, _, _ := decodeBody[plainRequest](t, `{"name":"loft","value":3}`, false)
		require.True(t, ok)
		assert.Equal(t, "loft", out.Name)
		assert.Equal(t, 3, out.Value)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, ok, resp, code := decodeBody[plainRequest](t, `{invalid`, false)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "bad_request", resp["error"])
		assert.Equal(t, "invalid request body", resp["error_description"])
	})

	t.Run("empty body", func(t *testing.T) {
		_, ok, resp, code := decodeBody[plainRequest](t, "", false)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "request body is required", resp["error_description"])
	})

	t.Run("trailing values are rejected", func(t *testing.T) {
		_, ok, resp, _ := decodeBody[plainRequest](t, `{"name":"a"}{"name":"b"}`, false)
		assert.False(t, ok)
		assert.Equal(t, "request body must contain a single JSON value", resp["error_description"])
	})

	t.Run("oversized body", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
		r.Body = http.MaxBytesReader(w, r.Body, 16)

		_, ok := DecodeJSON[plainRequest](w, r, logger, context.Background(), "req-1")

		assert.False(t, ok)
		assert.Contains(t, w.Body.String(), "request body too large")
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		out, ok, _, _ := decodeBody[preparedRequest](t, `{"name":"  loft  "}`, true)
		require.True(t, ok)
		assert.Equal(t, "loft", out.Name)
		assert.True(t, out.normalized)
	})

	t.Run("plain validation error becomes validation_failed", func(t *testing.T) {
		_, ok, resp, code := decodeBody[preparedRequest](t, `{"name":"   "}`, true)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "validation_failed", resp["error"])
		assert.Equal(t, "name is required", resp["error_description"])
	})

	t.Run("domain error keeps its fields", func(t *testing.T) {
		_, ok, resp, _ := decodeBody[domainErrRequest](t, `{"id":""}`, true)
		assert.False(t, ok)
		assert.Equal(t, "validation_failed", resp["error"])
		assert.Equal(t, map[string]any{"id": "id is required"}, resp["fields"])
	})

	t.Run("types without preparation pass through", func(t *testing.T) {
		out, ok, _, _ := decodeBody[plainRequest](t, `{"name":""}`, true)
		require.True(t, ok)
		assert.Empty(t, out.Name)
	})
}
