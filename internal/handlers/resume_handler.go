package handlers

import (
	"context"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/models"
	"alfredoptarigan/skill-matcher/internal/repositories"
	"alfredoptarigan/skill-matcher/internal/services"
)

const maxResumeFiles = 2

type ResumeHandler struct {
	pipeline    *services.Pipeline
	recorder    services.Recorder
	userRepo    repositories.UserRepository
	maxFileSize int64
	logger      *zap.Logger
}

func NewResumeHandler(
	pipeline *services.Pipeline,
	recorder services.Recorder,
	userRepo repositories.UserRepository,
	maxFileSize int64,
	l *zap.Logger,
) *ResumeHandler {
	return &ResumeHandler{
		pipeline:    pipeline,
		recorder:    recorder,
		userRepo:    userRepo,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(l),
	}
}

// HandleUpload analyzes one or two resumes. Each file gets its own status;
// one bad file does not fail the request.
func (h *ResumeHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	files := form.File["files"]
	if len(files) == 0 || len(files) > maxResumeFiles {
		return errorJSON(c, fiber.StatusBadRequest, "upload 1 or 2 resumes in the 'files' field")
	}

	ctx := c.UserContext()
	userID, status, err := resolveUser(ctx, h.userRepo, c.FormValue("user_id"))
	if err != nil {
		return errorJSON(c, status, err.Error())
	}
	enrich := formBool(c, "enrich", false)

	results := make([]models.ResumeFileResult, 0, len(files))
	for _, fh := range files {
		results = append(results, h.processFile(ctx, fh, userID, enrich))
	}

	return c.JSON(models.ResumeUploadResponse{Results: results})
}

func (h *ResumeHandler) processFile(ctx context.Context, fh *multipart.FileHeader, userID *uuid.UUID, enrich bool) models.ResumeFileResult {
	result := models.ResumeFileResult{
		Filename: fh.Filename,
		SizeKB:   sizeKB(fh.Size),
	}

	kind, err := services.KindFromFilename(fh.Filename)
	if err != nil || kind == services.KindText {
		result.Status = models.StatusFailedValidation
		result.Error = "only PDF and DOCX resumes are supported"
		return result
	}
	result.ContentType = kind.ContentType()

	data, err := readFormFile(fh, h.maxFileSize)
	if err != nil {
		result.Status = models.StatusFailedValidation
		result.Error = err.Error()
		return result
	}

	analysis, err := h.pipeline.AnalyzeResume(ctx, services.Document{Filename: fh.Filename, Kind: kind, Data: data}, enrich)
	if err != nil {
		h.logger.Warn("resume extraction failed", append(logger.DocumentFields(fh.Filename, string(kind)), zap.Error(err))...)
		result.Status = models.StatusFailedExtraction
		result.Error = err.Error()
		return result
	}

	rec := resumeRecord(analysis, fh.Filename, userID)
	if !h.recorder.Record(rec) {
		result.Status = models.StatusFailedProcessing
		result.Error = "resume could not be stored"
		return result
	}

	result.ID = rec.ID.String()
	result.Status = models.StatusProcessed
	result.Preview = preview(analysis.Text)
	result.Candidate = candidateDTO(analysis.Fields)
	result.Skills = analysis.Skills.SkillList()
	return result
}
