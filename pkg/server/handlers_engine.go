package server

import (
	"net/http"
	"strings"

	"strategos-hq/riskengine/pkg/expr"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/pipeline"
)

// tenant returns the tenant of the request from the tenant header.
func (s *Server) tenant(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(s.config.Server.TenantHeader))
	if tenant == "" {
		return "", model.NewInvalidInputError("tenant_id", "header "+s.config.Server.TenantHeader+" is required")
	}
	return tenant, nil
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	header := strings.TrimSpace(r.Header.Get(s.config.Server.TenantHeader))
	switch {
	case req.TenantID == "":
		req.TenantID = header
	case header != "" && header != req.TenantID:
		writeFailure(w, r, model.NewInvalidInputError("tenant_id", "does not match the "+s.config.Server.TenantHeader+" header"))
		return
	}
	req.Actor = r.Header.Get(s.config.Server.ActorHeader)

	res, err := s.deps.Pipeline.Execute(r.Context(), &req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, res, nil)
}

type validateExpressionRequest struct {
	Expression string `json:"expression"`
}

type validateExpressionResponse struct {
	Valid       bool     `json:"valid"`
	Identifiers []string `json:"identifiers,omitempty"`
	Code        string   `json:"code,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// handleValidateExpression compiles an expression without evaluating it. An
// invalid expression is a successful response with valid=false.
func (s *Server) handleValidateExpression(w http.ResponseWriter, r *http.Request) {
	var req validateExpressionRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	prog, err := expr.Compile(req.Expression)
	if err != nil {
		writeData(w, r, http.StatusOK, validateExpressionResponse{
			Code:  expr.Code(err),
			Error: err.Error(),
		}, nil)
		return
	}
	writeData(w, r, http.StatusOK, validateExpressionResponse{
		Valid:       true,
		Identifiers: prog.Identifiers(),
	}, nil)
}

func (s *Server) handleReplayAudit(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	res, err := s.deps.Replay.Replay(r.Context(), tenant, urlParam(r, "auditID"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, res, nil)
}
