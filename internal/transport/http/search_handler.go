package http

import (
	"encoding/json"
	"net/http"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/render"
)

// SearchHandler serves the free-text search path.
type SearchHandler struct {
	service *app.SearchService
}

func NewSearchHandler(service *app.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Movies    []render.Card `json:"movies"`
	GoogleURL string        `json:"googleUrl,omitempty"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid search payload")
		return
	}
	movies, err := h.service.Search(r.Context(), req.Query)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	googleURL, _ := app.GoogleSearchURL(req.Query, "movie")
	writeJSON(w, http.StatusOK, searchResponse{Movies: render.RenderAll(movies), GoogleURL: googleURL})
}

func (h *SearchHandler) Google(w http.ResponseWriter, r *http.Request) {
	link, err := app.GoogleSearchURL(r.URL.Query().Get("q"), "movie")
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}
