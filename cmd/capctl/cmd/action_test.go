package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"capplane/pkg/api"

	"github.com/spf13/viper"
)

func TestActionCommand_Activate(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/capacities/fcav01testengineering/actions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req api.ManualActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Action != "activate" {
			t.Errorf("expected action activate, got %s", req.Action)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"action", "fcav01testengineering", "activate"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "Recorded activate") {
		t.Errorf("expected confirmation, got: %s", stdout.String())
	}
}

func TestActionCommand_UnknownAction(t *testing.T) {
	resetViper()

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"action", "fcav01testengineering", "reboot"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "Action must be activate or deactivate") {
		t.Errorf("expected validation message, got: %s", stdout.String())
	}
}

func TestActionCommand_NotFound(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"action", "nope", "deactivate"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "Request failed with status code: 404") {
		t.Errorf("expected 404 error, got: %s", stdout.String())
	}
}
