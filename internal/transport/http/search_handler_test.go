package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestSearchEndpointCapsResults(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			t.Errorf("unexpected backend path %s", r.URL.Path)
		}
		movies := make([]string, 0, 7)
		for i := 1; i <= 7; i++ {
			movies = append(movies, fmt.Sprintf(`{"title":"Alien %d"}`, i))
		}
		_, _ = w.Write([]byte(`{"movies":[` + strings.Join(movies, ",") + `]}`))
	})
	server := newTestServer(t, backend)

	var resp struct {
		Movies []struct {
			Title    string `json:"title"`
			Year     string `json:"year"`
			Overview string `json:"overview"`
		} `json:"movies"`
		GoogleURL string `json:"googleUrl"`
	}
	if status := postJSON(t, server.URL+"/api/search", searchRequest{Query: "  alien "}, &resp); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(resp.Movies) != 5 || resp.Movies[0].Title != "Alien 1" {
		t.Fatalf("expected five capped results, got %+v", resp.Movies)
	}
	if resp.Movies[0].Year != "N/A" || resp.Movies[0].Overview != "No overview available" {
		t.Fatalf("expected display defaults, got %+v", resp.Movies[0])
	}
	if resp.GoogleURL != "https://www.google.com/search?q=alien+movie" {
		t.Fatalf("unexpected google url %q", resp.GoogleURL)
	}
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called for an empty query")
	}))

	if status := postJSON(t, server.URL+"/api/search", searchRequest{Query: "   "}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestSearchEndpointBackendFailure(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"index offline"}`))
	}))

	var resp struct {
		Error errorPayload `json:"error"`
	}
	if status := postJSON(t, server.URL+"/api/search", searchRequest{Query: "heat"}, &resp); status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if resp.Error.Message == "" {
		t.Fatalf("expected error message")
	}
}

func TestGoogleLinkEndpoint(t *testing.T) {
	server := newTestServer(t, http.NotFoundHandler())

	resp, err := http.Get(server.URL + "/api/search/google?q=" + "The%20Thing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["url"] != "https://www.google.com/search?q=The+Thing+movie" {
		t.Fatalf("unexpected link %v", body)
	}
}
