package handlers

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/models"
	"alfredoptarigan/skill-matcher/internal/repositories"
)

type UserHandler struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

func NewUserHandler(userRepo repositories.UserRepository, l *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, logger: logger.OrNop(l)}
}

func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "a valid email is required")
	}

	ctx := c.UserContext()
	if _, err := h.userRepo.FindByEmail(ctx, addr.Address); err == nil {
		return errorJSON(c, fiber.StatusConflict, "user already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		h.logger.Error("failed to look up user", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to create user")
	}

	user := &models.User{
		ID:        uuid.New(),
		Email:     addr.Address,
		FullName:  strings.TrimSpace(req.FullName),
		CreatedAt: time.Now(),
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to create user")
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// resolveUser parses an optional user_id and checks that the user exists.
func resolveUser(ctx context.Context, repo repositories.UserRepository, raw string) (*uuid.UUID, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, 0, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("invalid user_id format")
	}

	if _, err := repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.StatusNotFound, errors.New("user not found")
		}
		return nil, fiber.StatusInternalServerError, errors.New("failed to look up user")
	}

	return &id, 0, nil
}
