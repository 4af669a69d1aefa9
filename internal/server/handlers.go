package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/hackathon-judge/internal/observability"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// CreateProjectResponse is the response for /create-project
type CreateProjectResponse struct {
	Message   string `json:"message"`
	ProjectID string `json:"project_id"`
}

// ProjectResponse is the response for /get-project/{id}
type ProjectResponse struct {
	Message string         `json:"message"`
	Project *types.Project `json:"project"`
}

// ProjectsResponse is the response for /get-all
type ProjectsResponse struct {
	Message  string          `json:"message"`
	Projects []types.Project `json:"projects"`
}

// SearchHit is a project with its distance to the query.
type SearchHit struct {
	types.Project
	Distance float64 `json:"distance"`
}

// SearchResponse is the response for /search
type SearchResponse struct {
	Message  string      `json:"message"`
	Projects []SearchHit `json:"projects"`
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &types.ValidationError{Message: "invalid request body: " + err.Error(), Cause: err}
	}
	return nil
}

// handleCreateProject persists a project and starts its analysis in the background
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	logger := observability.NewLogger(r.Context())

	var req types.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.submitter.Submit(r.Context(), req)
	if err != nil {
		logger.LogError("create_project", err)
		s.writeError(w, err)
		return
	}

	logger.LogInfof("create_project", "project_id=%s", id)
	s.jsonResponse(w, http.StatusOK, CreateProjectResponse{Message: "Project created", ProjectID: id})
}

// handleGetProject returns a single project
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := types.ValidateProjectID(id); err != nil {
		s.writeError(w, err)
		return
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		observability.NewLogger(r.Context()).LogError("get_project", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if project == nil {
		s.writeError(w, &types.NotFoundError{Resource: "project", ID: id})
		return
	}

	s.jsonResponse(w, http.StatusOK, ProjectResponse{Message: "successful", Project: project})
}

// handleGetAll returns every project, newest first
func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		observability.NewLogger(r.Context()).LogError("get_all", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []types.Project{}
	}

	s.jsonResponse(w, http.StatusOK, ProjectsResponse{Message: "successful", Projects: projects})
}

// handleSearch ranks projects by similarity to the query
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger := observability.NewLogger(r.Context())

	var req types.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	results, err := s.searcher.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		logger.LogError("search", err)
		s.writeError(w, err)
		return
	}

	hits := make([]SearchHit, len(results))
	for i, res := range results {
		hits[i] = SearchHit{Project: res.Project, Distance: res.Distance}
	}
	logger.LogInfof("search", "results=%d", len(hits))
	s.jsonResponse(w, http.StatusOK, SearchResponse{Message: "successful", Projects: hits})
}

// handleChat answers a judge's question about a project
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := s.chat.Ask(r.Context(), req)
	if err != nil {
		observability.NewLogger(r.Context()).LogError("chat", err)
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleSetHackathon replaces the hackathon configuration
func (s *Server) handleSetHackathon(w http.ResponseWriter, r *http.Request) {
	var req types.HackathonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	hackathon := req.ToHackathon()
	if err := s.store.SaveHackathon(r.Context(), hackathon); err != nil {
		observability.NewLogger(r.Context()).LogError("set_hackathon", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save hackathon")
		return
	}

	observability.NewLogger(r.Context()).LogInfof("set_hackathon", "themes=%d allowed=%t", len(hackathon.Themes()), hackathon.IsAllowed)
	s.jsonResponse(w, http.StatusOK, map[string]any{"message": "Hackathon saved", "hackathon": hackathon})
}

// handleUpdateReview sets a project's reviewed flag
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req types.ReviewUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	matched, err := s.store.SetReviewed(r.Context(), req.ProjectID, *req.IsReviewed)
	if err != nil {
		observability.NewLogger(r.Context()).LogError("update_review", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to update review status")
		return
	}
	if !matched {
		s.writeError(w, &types.NotFoundError{Resource: "project", ID: req.ProjectID})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Review status updated"})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		observability.NewLogger(r.Context()).LogError("health", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unreachable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusHandler returns a static per-agent status message.
func (s *Server) statusHandler(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.jsonResponse(w, http.StatusOK, map[string]string{"message": message})
	}
}
