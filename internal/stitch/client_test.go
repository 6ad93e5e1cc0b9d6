package stitch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stitchfetch/internal/stitch"
)

func TestNewRequiresKeyBaseAndProject(t *testing.T) {
	if _, err := stitch.New("", "https://example.com", "p"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := stitch.New("key", " ", "p"); err == nil {
		t.Fatal("expected error when base url missing")
	}
	if _, err := stitch.New("key", "https://example.com", ""); err == nil {
		t.Fatal("expected error when project missing")
	}
}

func TestGetScreenSendsKeyAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(stitch.APIKeyHeader); got != "secret" {
			t.Errorf("expected api key header, got %q", got)
		}
		if r.URL.Path != "/v1/projects/proj-1/screens/abc" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"projects/proj-1/screens/abc","title":"Home",
			"htmlCode":{"name":"h","downloadUrl":"http://x/a.html"},
			"screenshot":{"downloadUrl":"http://x/a.png"}}`))
	}))
	t.Cleanup(server.Close)

	client, err := stitch.New("secret", server.URL+"/v1/", "proj-1")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	screen, err := client.GetScreen(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetScreen returned error: %v", err)
	}
	if screen.Title != "Home" {
		t.Fatalf("unexpected title %q", screen.Title)
	}
	refs := screen.Artifacts()
	if len(refs) != 2 {
		t.Fatalf("expected 2 artifacts, got %#v", refs)
	}
	if refs[0].Role != stitch.RoleHTML || refs[0].URL != "http://x/a.html" {
		t.Fatalf("unexpected first artifact %#v", refs[0])
	}
	if refs[1].Role != stitch.RoleScreenshot || refs[1].URL != "http://x/a.png" {
		t.Fatalf("unexpected second artifact %#v", refs[1])
	}
}

func TestGetScreenEscapesIdentifiers(t *testing.T) {
	client, err := stitch.New("k", "https://example.com/v1", "p 1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := client.ScreenURL("a?b")
	want := "https://example.com/v1/projects/p%201/screens/a%3Fb"
	if got != want {
		t.Fatalf("ScreenURL = %q, want %q", got, want)
	}
}

func TestGetScreenAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	t.Cleanup(server.Close)

	client, err := stitch.New("bad", server.URL, "p")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.GetScreen(context.Background(), "abc")
	var apiErr *stitch.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Status != "PERMISSION_DENIED" {
		t.Fatalf("unexpected api error %#v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "API key not valid") {
		t.Fatalf("expected message in error, got %q", apiErr.Error())
	}
}

func TestGetScreenMalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html", body: `<html>not json`},
		{name: "trailing garbage", body: `{"htmlCode":{"downloadUrl":"http://x/a"}} not-json`},
		{name: "second value", body: `{"title":"a"}{"title":"b"}`},
		{name: "null", body: `null`},
		{name: "empty", body: ``},
		{name: "array", body: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			client, err := stitch.New("k", server.URL, "p")
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			screen, err := client.GetScreen(context.Background(), "abc")
			if err == nil || !strings.Contains(err.Error(), "decode screen metadata") {
				t.Fatalf("expected decode error, got screen=%+v err=%v", screen, err)
			}
		})
	}
}

func TestGetScreenNullIsEmptyMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null\n"))
	}))
	t.Cleanup(server.Close)

	client, err := stitch.New("k", server.URL, "p")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetScreen(context.Background(), "abc"); !errors.Is(err, stitch.ErrEmptyMetadata) {
		t.Fatalf("expected ErrEmptyMetadata, got %v", err)
	}
}

func TestGetScreenKeepsIdentifierVerbatim(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := stitch.New("k", server.URL, "p")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetScreen(context.Background(), " A"); err != nil {
		t.Fatalf("GetScreen returned error: %v", err)
	}
	if gotPath != "/projects/p/screens/%20A" {
		t.Fatalf("identifier was altered, path %q", gotPath)
	}
}

func TestWithTimeoutKeepsInjectedClient(t *testing.T) {
	var used bool
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used = true
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"title":"t"}`)),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})

	client, err := stitch.New("k", "https://stitch.invalid/v1", "p",
		stitch.WithHTTPClient(&http.Client{Transport: transport}),
		stitch.WithTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetScreen(context.Background(), "abc"); err != nil {
		t.Fatalf("GetScreen returned error: %v", err)
	}
	if !used {
		t.Fatal("injected transport was dropped by WithTimeout")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestGetScreenHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := stitch.New("k", server.URL, "p", stitch.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetScreen(context.Background(), "abc"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestArtifactsSkipsMissingReferences(t *testing.T) {
	tests := []struct {
		name   string
		screen *stitch.Screen
		want   []stitch.Role
	}{
		{name: "nil screen", screen: nil, want: nil},
		{name: "none", screen: &stitch.Screen{}, want: nil},
		{name: "html only", screen: &stitch.Screen{HTMLCode: &stitch.File{DownloadURL: "u"}}, want: []stitch.Role{stitch.RoleHTML}},
		{name: "screenshot only", screen: &stitch.Screen{Screenshot: &stitch.File{DownloadURL: "u"}}, want: []stitch.Role{stitch.RoleScreenshot}},
		{name: "empty url", screen: &stitch.Screen{HTMLCode: &stitch.File{DownloadURL: " "}}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := tt.screen.Artifacts()
			if len(refs) != len(tt.want) {
				t.Fatalf("got %d refs, want %d", len(refs), len(tt.want))
			}
			for i, role := range tt.want {
				if refs[i].Role != role {
					t.Fatalf("ref %d role = %s, want %s", i, refs[i].Role, role)
				}
			}
		})
	}
}

func TestRoleFileName(t *testing.T) {
	if stitch.RoleHTML.FileName() != "index.html" {
		t.Fatalf("unexpected html file name %q", stitch.RoleHTML.FileName())
	}
	if stitch.RoleScreenshot.FileName() != "screenshot.png" {
		t.Fatalf("unexpected screenshot file name %q", stitch.RoleScreenshot.FileName())
	}
}
