package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchMetadata(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected Accept header %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/19995":
			w.Write([]byte(`{
				"id": 19995,
				"title": "Avatar",
				"overview": "In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora.",
				"poster_path": "/kyeqWdyUXW608qlYkRqosgbbJyK.jpg",
				"genres": [{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]
			}`))
		case "/movie/19995/credits":
			w.Write([]byte(`{
				"id": 19995,
				"cast": [
					{"name": "Sam Worthington", "order": 0},
					{"name": "Zoe Saldana", "order": 1},
					{"name": "Sigourney Weaver", "order": 2},
					{"name": "Stephen Lang", "order": 3}
				]
			}`))
		default:
			http.NotFound(w, r)
		}
	})

	client := NewClient("secret", WithBaseURL(srv.URL), WithImageBaseURL("https://img.example/w500/"))
	md, err := client.FetchMetadata(context.Background(), 19995)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	if md.PosterURL != "https://img.example/w500/kyeqWdyUXW608qlYkRqosgbbJyK.jpg" {
		t.Errorf("unexpected poster %q", md.PosterURL)
	}
	if want := []string{"Action", "Adventure"}; !reflect.DeepEqual(md.Genres, want) {
		t.Errorf("genres = %v, want %v", md.Genres, want)
	}
	if want := []string{"Sam Worthington", "Zoe Saldana", "Sigourney Weaver"}; !reflect.DeepEqual(md.Cast, want) {
		t.Errorf("cast = %v, want %v", md.Cast, want)
	}
	if md.Overview == DefaultOverview {
		t.Error("expected overview from response")
	}
}

func TestClient_FetchMetadata_Defaults(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/1":
			w.Write([]byte(`{"id": 1, "title": "Obscure", "poster_path": null}`))
		case "/movie/1/credits":
			w.Write([]byte(`{"id": 1, "cast": []}`))
		}
	})

	md, err := NewClient("t", WithBaseURL(srv.URL), WithTopCast(5)).FetchMetadata(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	if md.PosterURL != PlaceholderPoster {
		t.Errorf("expected placeholder poster, got %q", md.PosterURL)
	}
	if md.Overview != DefaultOverview {
		t.Errorf("expected default overview, got %q", md.Overview)
	}
	if len(md.Genres) != 0 || len(md.Cast) != 0 {
		t.Errorf("expected empty genres and cast, got %v %v", md.Genres, md.Cast)
	}
}

func TestClient_FetchMetadata_NotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status_code": 34, "status_message": "The resource you requested could not be found."}`))
	})

	_, err := NewClient("t", WithBaseURL(srv.URL)).FetchMetadata(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.MovieID != 42 || fe.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected FetchError %+v", fe)
	}
}

func TestClient_FetchMetadata_Unauthorized(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_code": 7, "status_message": "Invalid API key: You must be granted a valid key."}`))
	})

	_, err := NewClient("bad", WithBaseURL(srv.URL)).FetchMetadata(context.Background(), 42)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", fe.StatusCode)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("401 must not be reported as not found")
	}
}

func TestClient_FetchMetadata_BadJSON(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := NewClient("t", WithBaseURL(srv.URL)).FetchMetadata(context.Background(), 7)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestClient_FetchMetadata_Canceled(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("t", WithBaseURL(srv.URL)).FetchMetadata(ctx, 7)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
