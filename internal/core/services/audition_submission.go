package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
)

const DefaultSubmitWait = 15 * time.Second

type SubmitAuditionInput struct {
	ProjectID       int64    `json:"projectId"`
	Role            string   `json:"role"`
	FirstNameHe     string   `json:"firstNameHe"`
	LastNameHe      string   `json:"lastNameHe"`
	FirstNameEn     string   `json:"firstNameEn"`
	LastNameEn      string   `json:"lastNameEn"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	Agency          string   `json:"agency"`
	Age             *int     `json:"age,omitempty"`
	Height          *int     `json:"height,omitempty"`
	ProfilePictures []string `json:"profilePictures,omitempty"`
	ShowreelURL     string   `json:"showreelUrl,omitempty"`
	VideoID         string   `json:"videoId"`
	VideoProvider   string   `json:"videoType"`
}

type AuditionSubmissionService struct {
	projects  ProjectRepository
	auditions AuditionRepository
	poller    *ReadinessPoller
	queue     Queue
	clock     Clock
	maxWait   time.Duration
	logger    *zap.Logger
}

func NewAuditionSubmissionService(
	projects ProjectRepository,
	auditions AuditionRepository,
	poller *ReadinessPoller,
	queue Queue,
	clock Clock,
	maxWait time.Duration,
	logger *zap.Logger,
) *AuditionSubmissionService {
	if maxWait <= 0 {
		maxWait = DefaultSubmitWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditionSubmissionService{
		projects:  projects,
		auditions: auditions,
		poller:    poller,
		queue:     queue,
		clock:     clock,
		maxWait:   maxWait,
		logger:    logger,
	}
}

// SubmitAudition stores the audition once the video is ready or the bounded
// wait expires. An expired wait stores a pending record and schedules a
// recheck instead of blocking the actor.
func (s *AuditionSubmissionService) SubmitAudition(ctx context.Context, input SubmitAuditionInput) (*domain.Audition, error) {
	if strings.TrimSpace(input.VideoID) == "" {
		return nil, fmt.Errorf("%w: video id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	project, err := s.projects.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	role, ok := project.FindRole(input.Role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRoleNotFound, input.Role)
	}

	log := s.logger.With(zap.Int64("project_id", project.ID), zap.String("role", role.Name), zap.String("video_id", input.VideoID), zap.String("provider", input.VideoProvider))

	wait, err := s.poller.WaitUntilReady(ctx, input.VideoProvider, input.VideoID, s.maxWait)
	if err != nil {
		return nil, err
	}

	videoStatus := domain.VideoStatusReady
	if !wait.Ready {
		videoStatus = domain.VideoStatusPending
	}

	now := s.clock.Now()
	stored, err := s.auditions.Insert(ctx, &domain.Audition{
		ProjectID:       project.ID,
		Role:            role.Name,
		FirstNameHe:     input.FirstNameHe,
		LastNameHe:      input.LastNameHe,
		FirstNameEn:     input.FirstNameEn,
		LastNameEn:      input.LastNameEn,
		Phone:           input.Phone,
		Email:           input.Email,
		Agency:          input.Agency,
		Age:             input.Age,
		Height:          input.Height,
		ProfilePictures: input.ProfilePictures,
		ShowreelURL:     input.ShowreelURL,
		VideoURL:        input.VideoID,
		VideoType:       input.VideoProvider,
		VideoStatus:     videoStatus,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("storing audition: %w", err)
	}

	if videoStatus == domain.VideoStatusPending {
		log.Warn("audition stored before video was ready", zap.Int64("audition_id", stored.ID), zap.Int("checks", wait.Checks))
		if err := s.scheduleRecheck(ctx, stored); err != nil {
			// the record is already stored; a missed recheck only leaves it pending
			log.Error("scheduling readiness recheck", zap.Error(err))
		}
	} else {
		log.Info("audition stored", zap.Int64("audition_id", stored.ID))
	}
	return stored, nil
}

func (s *AuditionSubmissionService) scheduleRecheck(ctx context.Context, audition *domain.Audition) error {
	if s.queue == nil {
		return errors.New("no queue configured")
	}
	payload, err := json.Marshal(ReadinessRecheckPayload{
		AuditionID: audition.ID,
		Provider:   audition.VideoType,
		VideoID:    audition.VideoURL,
		Attempt:    1,
	})
	if err != nil {
		return err
	}
	return s.queue.Publish(ctx, Message{
		MessageID: uuid.NewString(),
		Topic:     ReadinessRecheckTopic,
		Payload:   payload,
		Metadata:  map[string]string{"provider": audition.VideoType},
		DeliverAt: s.clock.Now().Add(RecheckBaseBackoff),
	})
}
