package portfolio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pkt.systems/termfolio/schema"
)

func TestHTTPSourceFetches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing accept header")
		}
		_, _ = w.Write([]byte(`{"name":"Ada","title":{"en":"Engineer","es":"Ingeniera"}}`))
	})
	mux.HandleFunc("/api/skills", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"Go","category":"Languages","level":5}]`))
	})
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	mux.HandleFunc("/api/experience", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL+"/api", srv.Client())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	ctx := context.Background()
	profile, err := src.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Name != "Ada" || profile.Title.Text("es") != "Ingeniera" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	skills, err := src.Skills(ctx)
	if err != nil || len(skills) != 1 || skills[0].Level != 5 {
		t.Fatalf("unexpected skills %+v err=%v", skills, err)
	}
	projects, err := src.Projects(ctx)
	if err != nil || projects == nil {
		t.Fatalf("expected empty projects, got %v err=%v", projects, err)
	}
	if _, err := src.Experiences(ctx); !errors.Is(err, schema.ErrContentUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if _, err := src.Education(ctx); err == nil {
		t.Fatalf("expected 404 error")
	}
}

func TestNewHTTPSourceRejectsScheme(t *testing.T) {
	if _, err := NewHTTPSource("ftp://example.com", nil); err == nil {
		t.Fatalf("expected scheme error")
	}
}
