package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/tsuzuri-dev/tsuzuri/pkg/diary"
	"github.com/tsuzuri-dev/tsuzuri/pkg/session"
)

type startResponse struct {
	DraftID string `json:"draftId"`
	State   string `json:"state"`
}

type askRequest struct {
	Text string `json:"text"`
}

type askResponse struct {
	Reply     string `json:"reply"`
	Audio     []byte `json:"audio,omitempty"`
	AudioMime string `json:"audioMime,omitempty"`
	Degraded  bool   `json:"degraded,omitempty"`
}

type finishRequest struct {
	Date string `json:"date,omitempty"`
}

type finishResponse struct {
	Content string `json:"content"`
}

type saveRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

type saveResponse struct {
	Path string `json:"path"`
}

type getResponse struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Start(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{
		DraftID: s.controller.DraftID().String(),
		State:   s.controller.State().String(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	reply, err := s.controller.SubmitUtterance(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := askResponse{Reply: reply.Text, Degraded: reply.Degraded}
	if reply.Audio != nil {
		resp.Audio = reply.Audio.Bytes
		resp.AudioMime = reply.Audio.MIMEType
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	content, err := s.controller.Finish(r.Context(), req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, finishResponse{Content: content})
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Abandon(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": s.controller.State().String()})
}

func (s *Server) handleDiarySave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	path, err := s.controller.Commit(r.Context(), req.Date, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Path: path})
}

func (s *Server) handleDiaryGet(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !diary.ValidDate(date) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, want YYYY-MM-DD"})
		return
	}

	content, _, err := s.store.Get(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A date with no entry reads as an empty entry.
	writeJSON(w, http.StatusOK, getResponse{Date: date, Content: content})
}

func (s *Server) handleDiaryDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.store.Delete(r.Context(), req.Date); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": req.Date})
}

func (s *Server) handleDiaryMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid year"})
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid month"})
		return
	}

	projection, err := s.store.ListMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, diary.ErrInvalidDate), errors.Is(err, diary.ErrInvalidMonth):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
