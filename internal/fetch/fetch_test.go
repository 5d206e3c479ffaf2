package fetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Timestamp,GHI\n2021-08-09 00:00:00,1\n"))
	}))
	defer srv.Close()

	dest := t.TempDir()
	path, err := New().Fetch(srv.URL+"/benin-malanville.csv", dest)
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(path) != "benin-malanville.csv" {
		t.Errorf("file name = %q, want benin-malanville.csv", filepath.Base(path))
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(body), "Timestamp,GHI") {
		t.Errorf("body = %q", body)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := New().Fetch(srv.URL+"/data.csv", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() < 2 {
		t.Errorf("calls = %d, want retry after 500", calls.Load())
	}
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New().Fetch(srv.URL+"/missing.csv", t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want no retry on 404", calls.Load())
	}
}

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	_, err := New().Fetch("gopher://example.com/data.csv", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme") {
		t.Errorf("err = %v, want unsupported scheme", err)
	}
}

func TestFetchRejectsURLWithoutFileName(t *testing.T) {
	_, err := New().Fetch("https://example.com/", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no file name") {
		t.Errorf("err = %v, want no file name", err)
	}
}
