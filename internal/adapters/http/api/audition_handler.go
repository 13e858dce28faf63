package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

type AuditionHandler struct {
	auditions *services.AuditionSubmissionService
	logger    *zap.Logger
}

func NewAuditionHandler(auditions *services.AuditionSubmissionService, logger *zap.Logger) *AuditionHandler {
	return &AuditionHandler{auditions: auditions, logger: logger}
}

type auditionResponse struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"projectId"`
	Role            string    `json:"role"`
	FirstNameHe     string    `json:"firstNameHe,omitempty"`
	LastNameHe      string    `json:"lastNameHe,omitempty"`
	FirstNameEn     string    `json:"firstNameEn,omitempty"`
	LastNameEn      string    `json:"lastNameEn,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email"`
	Agency          string    `json:"agency,omitempty"`
	Age             *int      `json:"age,omitempty"`
	Height          *int      `json:"height,omitempty"`
	ProfilePictures []string  `json:"profilePictures,omitempty"`
	ShowreelURL     string    `json:"showreelUrl,omitempty"`
	VideoURL        string    `json:"videoUrl"`
	VideoType       string    `json:"videoType"`
	VideoStatus     string    `json:"videoStatus"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toAuditionResponse(a *domain.Audition) auditionResponse {
	return auditionResponse{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		Role:            a.Role,
		FirstNameHe:     a.FirstNameHe,
		LastNameHe:      a.LastNameHe,
		FirstNameEn:     a.FirstNameEn,
		LastNameEn:      a.LastNameEn,
		Phone:           a.Phone,
		Email:           a.Email,
		Agency:          a.Agency,
		Age:             a.Age,
		Height:          a.Height,
		ProfilePictures: a.ProfilePictures,
		ShowreelURL:     a.ShowreelURL,
		VideoURL:        a.VideoURL,
		VideoType:       a.VideoType,
		VideoStatus:     string(a.VideoStatus),
		CreatedAt:       a.CreatedAt,
	}
}

func (h *AuditionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitAuditionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	audition, err := h.auditions.SubmitAudition(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuditionResponse(audition))
}
