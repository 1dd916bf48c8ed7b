package cihost_http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mirrorship/mirrorship/internal/domain"
)

func TestLatestPipeline_MapsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("PRIVATE-TOKEN") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 7, "ref": "white/master", "status": "success", "web_url": "u"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 1, 2*time.Second)
	run, err := c.LatestPipeline(context.Background(), "white/master")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID != 7 || run.Status != domain.StatusSuccess {
		t.Errorf("unexpected run: %+v", run)
	}
}

func TestLatestPipeline_EmptyListIsOther(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 1, 2*time.Second)
	run, err := c.LatestPipeline(context.Background(), "main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != domain.StatusOther {
		t.Errorf("expected other, got %s", run.Status)
	}
}

func TestLatestPipeline_ClientErrorIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 1, 2*time.Second)
	if _, err := c.LatestPipeline(context.Background(), "main"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("4xx must not be retried, got %d calls", calls)
	}
}

func TestDownloadArtifact_WritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("deb-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "dist", "faraday-server_amd64.deb")
	c := New(srv.URL, "tok", 1, 2*time.Second)

	err := c.DownloadArtifact(context.Background(), "white/master", "package", "faraday-server_amd64.deb", dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if string(b) != "deb-bytes" {
		t.Errorf("unexpected content %q", b)
	}
}
