package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"alfredoptarigan/skill-matcher/internal/models"
	"alfredoptarigan/skill-matcher/internal/services"
)

const previewLength = 1000

// ErrorHandler renders errors that escape a handler as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// pipelineStatus maps pipeline errors to HTTP status codes.
func pipelineStatus(err error) int {
	switch {
	case services.IsCallerError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrExtractionFailed):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func readFormFile(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return nil, fmt.Errorf("file %s too large. Max size: %d bytes", fh.Filename, maxSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return data, nil
}

// preview cuts text to previewLength runes, ending with "..." when cut.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength-3]) + "..."
}

func formBool(c *fiber.Ctx, key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.FormValue(key)))
	if err != nil {
		return def
	}
	return v
}

// matchOptions reads mode and threshold. Empty values keep the server
// defaults.
func matchOptions(mode, threshold string) (services.MatchOptions, error) {
	var opts services.MatchOptions

	if strings.TrimSpace(mode) != "" {
		m, err := services.ParseMatchMode(mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}

	if strings.TrimSpace(threshold) != "" {
		t, err := strconv.ParseFloat(strings.TrimSpace(threshold), 64)
		if err != nil {
			return opts, fmt.Errorf("invalid threshold %q", threshold)
		}
		if err := validThreshold(t); err != nil {
			return opts, err
		}
		opts.Threshold = t
	}

	return opts, nil
}

// validThreshold accepts (0, 1]. Zero is rejected since an unset threshold
// already means the configured default.
func validThreshold(t float64) error {
	if math.IsNaN(t) || t <= 0 || t > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", t)
	}
	return nil
}

func sizeKB(size int64) float64 {
	return math.Round(float64(size)/1024*100) / 100
}

func candidateDTO(f services.CandidateFields) *models.CandidateDTO {
	return &models.CandidateDTO{
		Name:        f.Name.String(),
		Email:       f.Email.String(),
		Phone:       f.Phone.String(),
		LinkedInURL: f.LinkedInURL.String(),
		GitHubURL:   f.GitHubURL.String(),
		Address:     f.Address.String(),
	}
}

func resumeRecord(a *services.ResumeAnalysis, filename string, userID *uuid.UUID) *models.Resume {
	return &models.Resume{
		ID:          uuid.New(),
		UserID:      userID,
		FileName:    filename,
		RawText:     a.Text,
		Name:        a.Fields.Name.String(),
		Email:       a.Fields.Email.String(),
		Phone:       a.Fields.Phone.String(),
		LinkedInURL: a.Fields.LinkedInURL.String(),
		GitHubURL:   a.Fields.GitHubURL.String(),
		Address:     a.Fields.Address.String(),
		Skills:      pq.StringArray(a.Skills.Sorted()),
		CreatedAt:   time.Now(),
	}
}

func jobRecord(a *services.JobAnalysis, source string, userID *uuid.UUID) *models.JobDescription {
	return &models.JobDescription{
		ID:        uuid.New(),
		UserID:    userID,
		Source:    source,
		JDText:    a.Text,
		Skills:    pq.StringArray(a.Skills.Sorted()),
		CreatedAt: time.Now(),
	}
}
