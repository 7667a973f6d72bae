package texturepack

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHashIsStableForSameContent(t *testing.T) {
	a := New([]byte("pack contents"))
	b := New([]byte("pack contents"))
	if a.Hash() != b.Hash() {
		t.Fatalf("Hash mismatch for identical content: %q != %q", a.Hash(), b.Hash())
	}
}

func TestHandlerServesZipBytes(t *testing.T) {
	pack := New([]byte("zip-bytes-here"))
	srv := httptest.NewServer(pack.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error: %v", err)
	}
	if string(body) != "zip-bytes-here" {
		t.Fatalf("body = %q, want %q", body, "zip-bytes-here")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("Content-Type = %q, want application/zip", ct)
	}
}
