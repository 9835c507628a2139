package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/render"
)

// SessionHandler exposes the quiz operations as JSON endpoints.
type SessionHandler struct {
	service *app.QuizService
}

func NewSessionHandler(service *app.QuizService) *SessionHandler {
	return &SessionHandler{service: service}
}

type startRequest struct {
	FlowID string `json:"flowId"`
}

type selectRequest struct {
	Step  int    `json:"step"`
	Value string `json:"value"`
}

type stepRequest struct {
	Step int `json:"step"`
}

type advanceRequest struct {
	Direction int `json:"direction"`
}

type sessionResponse struct {
	View  app.View      `json:"view"`
	Moved *bool         `json:"moved,omitempty"`
	Card  *render.Card  `json:"card,omitempty"`
	Error *errorPayload `json:"error,omitempty"`
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start payload")
			return
		}
	}
	view, err := h.service.Start(r.Context(), req.FlowID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{View: view})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), mux.Vars(r)["id"])
	respond(w, view, err)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.service.End(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid select payload")
		return
	}
	view, err := h.service.Select(r.Context(), mux.Vars(r)["id"], req.Step, req.Value)
	respond(w, view, err)
}

func (h *SessionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid validate payload")
		return
	}
	view, err := h.service.Validate(r.Context(), mux.Vars(r)["id"], req.Step)
	respond(w, view, err)
}

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid advance payload")
		return
	}
	view, moved, err := h.service.Advance(r.Context(), mux.Vars(r)["id"], req.Direction)
	if err != nil {
		respond(w, view, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{View: view, Moved: &moved})
}

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Submit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond(w, view, err)
		return
	}
	resp := sessionResponse{View: view}
	if view.Result != nil {
		card := render.Render(*view.Result)
		resp.Card = &card
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Restart(r.Context(), mux.Vars(r)["id"])
	respond(w, view, err)
}

// respond writes the view, attaching the error and its status when err is set.
// Unknown sessions carry no view.
func respond(w http.ResponseWriter, view app.View, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, sessionResponse{View: view})
		return
	}
	status := statusFor(err)
	if status == http.StatusNotFound {
		writeError(w, status, err.Error())
		return
	}
	payload := newErrorPayload(err)
	writeJSON(w, status, sessionResponse{View: view, Error: &payload})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, struct {
		Error errorPayload `json:"error"`
	}{Error: errorPayload{Message: message}})
}
