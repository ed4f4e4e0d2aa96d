package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListRejectsBadPaging(t *testing.T) {
	h := NewHandler(nil, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"non-numeric limit", "limit=abc"},
		{"zero limit", "limit=0"},
		{"negative limit", "limit=-5"},
		{"oversized limit", "limit=500"},
		{"non-numeric offset", "offset=ten"},
		{"negative offset", "offset=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.List(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
