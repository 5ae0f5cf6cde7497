package server

import (
	"net/http"
	"strconv"

	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/store"
	"strategos-hq/riskengine/pkg/summary"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewSession
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	session, err := s.deps.Store.CreateSession(r.Context(), tenant, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, session, nil)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeFailure(w, r, model.NewInvalidInputError("limit", "must be a non-negative integer"))
			return
		}
	}

	sessions, err := s.deps.Store.ListSessions(r.Context(), tenant, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, sessions, map[string]any{"count": len(sessions)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	session, err := s.deps.Store.GetSession(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, session, nil)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	history, err := s.deps.Store.SnapshotHistory(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, history, nil)
}

func (s *Server) handleSessionReplay(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	events, err := s.deps.Replay.Session(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, events, nil)
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	history, err := s.deps.Store.SnapshotHistory(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	sum, err := summary.Summarize(history)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, sum, nil)
}
