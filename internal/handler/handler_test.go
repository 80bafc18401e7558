package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopcomplex/recommendation-service/internal/domain"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
		{domain.ErrFitInProgress, http.StatusConflict, "fit_in_progress"},
		{domain.ErrModelNotFitted, http.StatusServiceUnavailable, "model_not_fitted"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout"},
		{fmt.Errorf("wrapped: %w", domain.ErrModelNotFitted), http.StatusServiceUnavailable, "model_not_fitted"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tt.err)

		if rec.Code != tt.wantStatus {
			t.Errorf("writeServiceError(%v) status = %d, want %d", tt.err, rec.Code, tt.wantStatus)
		}

		var body ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal error body: %v", err)
		}
		if body.Error != tt.wantCode {
			t.Errorf("writeServiceError(%v) code = %s, want %s", tt.err, body.Error, tt.wantCode)
		}
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query    string
		want     int
		wantOK   bool
	}{
		{"", 10, true},        // missing -> fallback
		{"limit=5", 5, true},
		{"limit=50", 50, true},
		{"limit=0", 0, false},  // below min
		{"limit=51", 0, false}, // above max
		{"limit=abc", 0, false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		rec := httptest.NewRecorder()

		got, ok := parseIntParam(rec, r, "limit", 10, 1, 50)
		if ok != tt.wantOK {
			t.Errorf("parseIntParam(%q) ok = %v, want %v", tt.query, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
		if !ok && rec.Code != http.StatusBadRequest {
			t.Errorf("parseIntParam(%q) wrote status %d, want 400", tt.query, rec.Code)
		}
	}
}

func TestParseFloatParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?min_price=19.99", nil)
	got, ok := parseFloatParam(httptest.NewRecorder(), r, "min_price")
	if !ok || got != 19.99 {
		t.Errorf("parseFloatParam = (%v, %v), want (19.99, true)", got, ok)
	}

	r = httptest.NewRequest(http.MethodGet, "/?min_price=-3", nil)
	rec := httptest.NewRecorder()
	if _, ok := parseFloatParam(rec, r, "min_price"); ok {
		t.Error("negative price accepted")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	got, ok = parseFloatParam(httptest.NewRecorder(), r, "min_price")
	if !ok || got != 0 {
		t.Errorf("missing param = (%v, %v), want (0, true)", got, ok)
	}
}
