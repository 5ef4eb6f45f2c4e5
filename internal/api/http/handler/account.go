package handler

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/apperrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// AccountService defines the account lifecycle operations.
type AccountService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.Account, error)
	Verify(ctx context.Context, verificationToken string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (model.Session, error)
	Logout(ctx context.Context, accountID uuid.UUID) error
	GetCurrent(ctx context.Context, accountID uuid.UUID) (model.Account, error)
	UpdateAvatar(ctx context.Context, accountID uuid.UUID, image io.Reader, originalFilename string) (string, error)
}

// Account handles the /users endpoints.
type Account struct {
	service        AccountService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAccount creates a new Account handler.
func NewAccount(service AccountService, contextManager model.ContextManager, logger *logger.Logger) *Account {
	return &Account{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

type registeredUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL"`
	Verify       bool   `json:"verify"`
}

type registerResponse struct {
	User registeredUser `json:"user"`
}

type profile struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  profile `json:"user"`
}

type avatarResponse struct {
	AvatarURL string `json:"avatarURL"`
}

// Register handles POST /users/register.
func (h *Account) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	account, err := h.service.Register(c.UserContext(), model.RegisterParams{
		Email:        req.Email,
		Password:     req.Password,
		Subscription: model.Subscription(req.Subscription),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(registerResponse{User: registeredUser{
		ID:           account.ID.String(),
		Email:        account.Email,
		Subscription: string(account.Subscription),
		AvatarURL:    account.AvatarURL,
		Verify:       account.Verified,
	}})
}

// Login handles POST /users/login.
func (h *Account) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(loginResponse{
		Token: session.Token,
		User: profile{
			Email:        session.Account.Email,
			Subscription: string(session.Account.Subscription),
		},
	})
}

// Logout handles POST /users/logout.
func (h *Account) Logout(c *fiber.Ctx) error {
	accountID, err := h.accountID(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.UserContext(), accountID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Current handles GET /users/current.
func (h *Account) Current(c *fiber.Ctx) error {
	accountID, err := h.accountID(c)
	if err != nil {
		return err
	}

	account, err := h.service.GetCurrent(c.UserContext(), accountID)
	if err != nil {
		return err
	}

	return c.JSON(profile{
		Email:        account.Email,
		Subscription: string(account.Subscription),
	})
}

// UpdateAvatar handles PATCH /users/avatars with a multipart "avatar" file.
func (h *Account) UpdateAvatar(c *fiber.Ctx) error {
	accountID, err := h.accountID(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return apperrors.NewErrValidation("avatar file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Account handler: failed to open uploaded avatar",
			"account_id", accountID,
			"error", err.Error())
		return err
	}
	defer file.Close()

	avatarURL, err := h.service.UpdateAvatar(c.UserContext(), accountID, file, fileHeader.Filename)
	if err != nil {
		return err
	}

	return c.JSON(avatarResponse{AvatarURL: avatarURL})
}

// Verify handles GET /users/verify/:verificationToken.
func (h *Account) Verify(c *fiber.Ctx) error {
	if err := h.service.Verify(c.UserContext(), c.Params("verificationToken")); err != nil {
		return err
	}
	return c.JSON(messageResponse{Message: "Verification successful"})
}

// ResendVerification handles POST /users/verify.
func (h *Account) ResendVerification(c *fiber.Ctx) error {
	var req resendRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.service.ResendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(messageResponse{Message: "Verification email sent"})
}

func (h *Account) accountID(c *fiber.Ctx) (uuid.UUID, error) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(c.UserContext())
	if !ok {
		return uuid.Nil, apperrors.NewErrNotAuthorized()
	}
	return accountID, nil
}
