package fabric

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestActivate(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"accepted", http.StatusAccepted, false},
		{"ok", http.StatusOK, false},
		{"already active", http.StatusConflict, false},
		{"server error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			c := New(srv.URL)
			err := c.Activate(context.Background(), "fcav01prodengineering")

			if tt.wantErr {
				if !errors.Is(err, ErrActivation) {
					t.Errorf("got %v, want ErrActivation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Activate failed: %v", err)
			}
			if gotPath != "/capacities/fcav01prodengineering/resume" {
				t.Errorf("got path %q, want resume endpoint", gotPath)
			}
		})
	}
}

func TestDeactivate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/capacities/fcav01prodengineering/suspend" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Deactivate(context.Background(), "fcav01prodengineering"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
}

func TestDeactivateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := New(srv.URL)
	err := c.Deactivate(context.Background(), "fcav01prodengineering")
	if !errors.Is(err, ErrDeactivation) {
		t.Errorf("got %v, want ErrDeactivation", err)
	}
}
