package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/models"
	"alfredoptarigan/skill-matcher/internal/repositories"
	"alfredoptarigan/skill-matcher/internal/services"
)

type JobHandler struct {
	pipeline    *services.Pipeline
	recorder    services.Recorder
	userRepo    repositories.UserRepository
	maxFileSize int64
	logger      *zap.Logger
}

func NewJobHandler(
	pipeline *services.Pipeline,
	recorder services.Recorder,
	userRepo repositories.UserRepository,
	maxFileSize int64,
	l *zap.Logger,
) *JobHandler {
	return &JobHandler{
		pipeline:    pipeline,
		recorder:    recorder,
		userRepo:    userRepo,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(l),
	}
}

// HandleUploadJD extracts skills from a job description given as a file or
// as a "text" form value.
func (h *JobHandler) HandleUploadJD(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, status, err := resolveUser(ctx, h.userRepo, c.FormValue("user_id"))
	if err != nil {
		return errorJSON(c, status, err.Error())
	}

	var (
		doc    services.Document
		source string
	)
	if fh, ferr := c.FormFile("file"); ferr == nil {
		data, err := readFormFile(fh, h.maxFileSize)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		doc, err = services.NewDocument(fh.Filename, data)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		source = fh.Filename
	} else if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		doc = services.TextDocument(text)
		source = "text"
	} else {
		return errorJSON(c, fiber.StatusBadRequest, "provide a job description as 'file' or 'text'")
	}

	job, err := h.pipeline.AnalyzeJob(ctx, doc, formBool(c, "enrich", false))
	if err != nil {
		h.logger.Warn("job description extraction failed", append(logger.DocumentFields(source, string(doc.Kind)), zap.Error(err))...)
		return errorJSON(c, pipelineStatus(err), err.Error())
	}

	rec := jobRecord(job, source, userID)
	if !h.recorder.Record(rec) {
		return errorJSON(c, fiber.StatusServiceUnavailable, "job description could not be stored")
	}

	return c.JSON(models.JDUploadResponse{
		ID:         rec.ID.String(),
		Source:     source,
		Preview:    preview(job.Text),
		Skills:     job.Skills.SkillList(),
		SkillCount: job.Skills.Len(),
	})
}

// HandleMatchSkills compares two skill lists without any documents.
func (h *JobHandler) HandleMatchSkills(c *fiber.Ctx) error {
	var req models.SkillMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	opts, err := matchOptions(req.Mode, "")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if req.Threshold != nil {
		if err := validThreshold(*req.Threshold); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		opts.Threshold = *req.Threshold
	}

	report := h.pipeline.Match(c.UserContext(),
		services.NormalizeSkills(req.ResumeSkills),
		services.NormalizeSkills(req.JDSkills),
		opts)

	return c.JSON(report)
}
