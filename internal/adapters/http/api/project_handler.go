package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
	logger   *zap.Logger
}

func NewProjectHandler(projects *services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type addRoleRequest struct {
	Name string `json:"name"`
}

type roleResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ChannelID string `json:"channelId"`
}

type projectResponse struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	UploadMethod      string         `json:"uploadMethod"`
	Director          string         `json:"director"`
	ProductionCompany string         `json:"productionCompany"`
	Roles             []roleResponse `json:"roles"`
	CreatedAt         time.Time      `json:"createdAt"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	out := projectResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		UploadMethod:      p.UploadMethod,
		Director:          p.Director,
		ProductionCompany: p.ProductionCompany,
		Roles:             make([]roleResponse, 0, len(p.Roles)),
		CreatedAt:         p.CreatedAt,
	}
	for _, r := range p.Roles {
		out.Roles = append(out.Roles, roleResponse{ID: r.ID, Name: r.Name, ChannelID: r.ChannelID})
	}
	return out
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateProjectInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.projects.CreateProject(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req addRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	role, err := h.projects.AddRole(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func projectID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid project id", services.ErrInvalidInput)
	}
	return id, nil
}
