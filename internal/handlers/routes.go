package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Users   *UserHandler
	Resumes *ResumeHandler
	Jobs    *JobHandler
	Matches *MatchHandler
}

// Register mounts every endpoint on router.
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	router.Post("/users", h.Users.HandleCreate)
	router.Post("/resume/upload", h.Resumes.HandleUpload)
	router.Post("/job/upload-jd", h.Jobs.HandleUploadJD)
	router.Post("/job/match", h.Jobs.HandleMatchSkills)
	router.Post("/match/upload", h.Matches.HandleUpload)
	router.Get("/match/:id", h.Matches.HandleGetMatch)
}
