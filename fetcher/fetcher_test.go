package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSimple(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<a href='/x'>x</a>"))
	}))
	defer srv.Close()

	Configure(Options{UserAgent: "hintnav-test"})
	res, err := Simple(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("Simple failed: %v", err)
	}
	if !strings.Contains(res.HTML, "href") {
		t.Errorf("unexpected body %q", res.HTML)
	}
	if res.FinalURL != srv.URL+"/new" {
		t.Errorf("expected final URL after redirect, got %q", res.FinalURL)
	}
	if gotUA != "hintnav-test" {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}
}

func TestSimpleErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := Simple(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404")
	}
}
