package server

import (
	"net/http"

	"strategos-hq/riskengine/pkg/store"
)

type createRuleRequest struct {
	ModelVersionID string `json:"model_version_id,omitempty"`
	store.NewRule
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req createRuleRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	mvID, err := s.versionID(r.Context(), tenant, req.ModelVersionID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	rule, err := s.deps.Store.CreateRule(r.Context(), tenant, mvID, req.NewRule)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, rule, nil)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cfg, err := s.loadConfig(r, tenant)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg.Rules, map[string]any{
		"count":            len(cfg.Rules),
		"model_version_id": cfg.ModelVersion.ID,
	})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	rule, err := s.deps.Store.GetRule(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, rule, nil)
}

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewCondition
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	cond, err := s.deps.Store.AddCondition(r.Context(), tenant, urlParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, cond, nil)
}

func (s *Server) handleAddImpact(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewImpact
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	impact, err := s.deps.Store.AddImpact(r.Context(), tenant, urlParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, impact, nil)
}
