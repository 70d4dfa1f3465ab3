package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/models"
	"alfredoptarigan/skill-matcher/internal/repositories"
	"alfredoptarigan/skill-matcher/internal/services"
)

type MatchHandler struct {
	pipeline    *services.Pipeline
	recorder    services.Recorder
	matchRepo   repositories.MatchResultRepository
	userRepo    repositories.UserRepository
	maxFileSize int64
	logger      *zap.Logger
}

func NewMatchHandler(
	pipeline *services.Pipeline,
	recorder services.Recorder,
	matchRepo repositories.MatchResultRepository,
	userRepo repositories.UserRepository,
	maxFileSize int64,
	l *zap.Logger,
) *MatchHandler {
	return &MatchHandler{
		pipeline:    pipeline,
		recorder:    recorder,
		matchRepo:   matchRepo,
		userRepo:    userRepo,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(l),
	}
}

// HandleUpload runs the whole pipeline on a resume and a job description and
// records the result.
func (h *MatchHandler) HandleUpload(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, status, err := resolveUser(ctx, h.userRepo, c.FormValue("user_id"))
	if err != nil {
		return errorJSON(c, status, err.Error())
	}

	opts, err := matchOptions(c.FormValue("mode"), c.FormValue("threshold"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resumeFile, err := c.FormFile("resume_file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "'resume_file' is required")
	}
	resumeData, err := readFormFile(resumeFile, h.maxFileSize)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	resumeDoc, err := services.NewDocument(resumeFile.Filename, resumeData)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	var (
		jdDoc    services.Document
		jdSource string
	)
	if fh, ferr := c.FormFile("jd_file"); ferr == nil {
		data, err := readFormFile(fh, h.maxFileSize)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		jdDoc, err = services.NewDocument(fh.Filename, data)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		jdSource = fh.Filename
	} else if text := c.FormValue("jd_text"); strings.TrimSpace(text) != "" {
		jdDoc = services.TextDocument(text)
		jdSource = "text"
	} else {
		return errorJSON(c, fiber.StatusBadRequest, "provide a job description as 'jd_file' or 'jd_text'")
	}

	outcome, err := h.pipeline.Run(ctx, services.MatchRequest{
		Resume:    resumeDoc,
		Job:       jdDoc,
		Options:   opts,
		Enrich:    formBool(c, "enrich", false),
		Recommend: formBool(c, "recommend", false),
	})
	if err != nil {
		h.logger.Warn("match failed", zap.Error(err))
		return errorJSON(c, pipelineStatus(err), err.Error())
	}

	resume := resumeRecord(outcome.Resume, resumeFile.Filename, userID)
	jd := jobRecord(outcome.Job, jdSource, userID)
	result := &models.MatchResult{
		ID:                uuid.New(),
		UserID:            userID,
		ResumeID:          resume.ID,
		JobDescriptionID:  jd.ID,
		MatchedSkills:     pq.StringArray(outcome.Report.Matched),
		MissingSkills:     pq.StringArray(outcome.Report.Missing),
		MatchPercentage:   outcome.Report.MatchPercentage,
		Mode:              string(outcome.Report.Mode),
		Degraded:          outcome.Report.Degraded,
		LLMRecommendation: outcome.Recommendation,
		CreatedAt:         time.Now(),
		Resume:            resume,
		JobDescription:    jd,
	}

	if !h.recorder.Record(result) {
		return errorJSON(c, fiber.StatusServiceUnavailable, "match result could not be stored")
	}

	h.logger.Info("match recorded",
		zap.String("match_id", result.ID.String()),
		zap.String(logger.FieldMatchMode, result.Mode))

	return c.Status(fiber.StatusCreated).JSON(models.NewMatchResponse(result))
}

// HandleGetMatch returns a stored match result. Results are written in the
// background, so a fresh ID can briefly report 404.
func (h *MatchHandler) HandleGetMatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid match ID format")
	}

	result, err := h.matchRepo.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "match result not found")
		}
		h.logger.Error("failed to load match result", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to load match result")
	}

	return c.JSON(models.NewMatchResponse(result))
}
