package preflight

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stitchfetch/internal/stitch"
	"stitchfetch/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_WillBeCreated(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope", "deeper"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
	if result := CheckDirectoryAccess("test", filepath.Join(f, "child")); result.Passed {
		t.Fatal("expected failure below a file")
	}
}

func TestCheckCredentials(t *testing.T) {
	if result := CheckCredentials(testsupport.NewConfig(t)); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckCredentials(testsupport.NewConfig(t, testsupport.WithoutCredentials()))
	if result.Passed {
		t.Fatal("expected failure without credentials")
	}
	if !strings.Contains(result.Detail, "stitch.api_key") {
		t.Fatalf("expected detail to name the key, got %q", result.Detail)
	}
}

func TestCheckScreens(t *testing.T) {
	if CheckScreens(nil).Passed {
		t.Fatal("expected failure with no screens")
	}
	if CheckScreens([]string{"a", "a"}).Passed {
		t.Fatal("expected failure for duplicate screens")
	}
	if !CheckScreens([]string{"a", "b"}).Passed {
		t.Fatal("expected pass for valid screens")
	}
}

func TestCheckStitchAPI(t *testing.T) {
	server := testsupport.NewStitchServer(t, "good-key", "proj")
	server.AddScreen("s1", "<html></html>", "png")

	good, err := stitch.New("good-key", server.BaseURL(), "proj")
	if err != nil {
		t.Fatal(err)
	}
	if result := CheckStitchAPI(context.Background(), good, "s1"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	result := CheckStitchAPI(context.Background(), good, "missing")
	if result.Passed || !strings.Contains(result.Detail, "not found") {
		t.Fatalf("expected not found failure, got %#v", result)
	}

	bad, err := stitch.New("bad-key", server.BaseURL(), "proj")
	if err != nil {
		t.Fatal(err)
	}
	result = CheckStitchAPI(context.Background(), bad, "s1")
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %#v", result)
	}
}

func TestSummarizeAPIErrorTimeout(t *testing.T) {
	got := summarizeAPIError("s1", context.DeadlineExceeded)
	if !strings.Contains(got, "timed out") {
		t.Fatalf("unexpected summary %q", got)
	}
	got = summarizeAPIError("s1", &stitch.APIError{StatusCode: http.StatusInternalServerError})
	if !strings.Contains(got, "500") {
		t.Fatalf("unexpected summary %q", got)
	}
	got = summarizeAPIError("s1", errors.New("boom"))
	if got != "boom" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestRunAll(t *testing.T) {
	server := testsupport.NewStitchServer(t, "test-key", "test-project")
	server.AddScreen("s1", "<html></html>", "")
	cfg := testsupport.NewConfig(t, testsupport.WithStitchServer(server.BaseURL()), testsupport.WithScreens("s1"))
	client, err := stitch.New(cfg.Stitch.APIKey, cfg.Stitch.BaseURL, cfg.Stitch.ProjectID)
	if err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, client)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %#v", results)
	}
	if !Passed(results) {
		t.Fatalf("expected all checks to pass, got %#v", results)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithoutCredentials(), testsupport.WithoutHistory())
	results = RunAll(context.Background(), cfg, nil)
	if len(results) != 3 {
		t.Fatalf("expected API and history checks to be skipped, got %#v", results)
	}
	if Passed(results) {
		t.Fatal("expected failures without credentials or screens")
	}
}
