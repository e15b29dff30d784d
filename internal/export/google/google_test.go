package google

import (
	"context"
	"strings"
	"testing"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	clearCredentialEnv(t)

	_, err := New(context.Background(), "   ", "Transactions")
	if err == nil {
		t.Fatal("New() should fail without a spreadsheet ID")
	}
	if !strings.Contains(err.Error(), "spreadsheet ID") {
		t.Errorf("New() error = %v, want spreadsheet ID mention", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	clearCredentialEnv(t)

	_, err := New(context.Background(), "sheet-123", "")
	if err == nil {
		t.Fatal("New() should fail without service account credentials")
	}
	if !strings.Contains(err.Error(), "credentials") {
		t.Errorf("New() error = %v, want credentials mention", err)
	}
}

func TestNewFromEnv_ReadsSpreadsheetID(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("NewFromEnv() should fail without GOOGLE_SPREADSHEET_ID")
	}
}
