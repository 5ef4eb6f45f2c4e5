package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dtroode/accounts-server/internal/api/http/handler"
	"github.com/dtroode/accounts-server/internal/api/http/middleware"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// Router builds the HTTP application for account operations.
type Router struct {
	accountService handler.AccountService
	tokenService   middleware.TokenService
	storage        model.Storage
	contextManager model.ContextManager
	bodyLimit      int
	logger         *logger.Logger
}

// New creates new HTTP Router instance. bodyLimit caps request bodies in bytes.
func New(
	accountService handler.AccountService,
	tokenService middleware.TokenService,
	storage model.Storage,
	contextManager model.ContextManager,
	bodyLimit int,
	logger *logger.Logger,
) *Router {
	return &Router{
		accountService: accountService,
		tokenService:   tokenService,
		storage:        storage,
		contextManager: contextManager,
		bodyLimit:      bodyLimit,
		logger:         logger,
	}
}

// Register mounts every route and middleware and returns the application.
func (r *Router) Register() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             r.bodyLimit,
		ErrorHandler:          handler.ErrorHandler(r.logger),
		DisableStartupMessage: true,
	})

	logging := middleware.NewLogging(r.logger)
	app.Use(logging.Handle, recover.New())

	r.registerAccountRoutes(app)
	r.registerAvatarRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not found")
	})

	return app
}

func (r *Router) registerAccountRoutes(app *fiber.App) {
	accounts := handler.NewAccount(r.accountService, r.contextManager, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	users := app.Group("/users")
	users.Post("/register", accounts.Register)
	users.Post("/login", accounts.Login)
	users.Post("/logout", authenticate.Handle, accounts.Logout)
	users.Get("/current", authenticate.Handle, accounts.Current)
	users.Patch("/avatars", authenticate.Handle, accounts.UpdateAvatar)
	users.Get("/verify/:verificationToken", accounts.Verify)
	users.Post("/verify", accounts.ResendVerification)
}

func (r *Router) registerAvatarRoutes(app *fiber.App) {
	avatars := handler.NewAvatars(r.storage, r.logger)
	app.Get("/avatars/:name", avatars.Get)
}
