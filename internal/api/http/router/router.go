package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/veriflow/identity/internal/api/http/handler"
	"github.com/veriflow/identity/internal/api/http/middleware"
	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/model"
)

// Router wires handlers and middleware into a gin engine.
type Router struct {
	registration   handler.RegistrationService
	verification   handler.VerificationService
	credential     handler.CredentialService
	social         handler.SocialService
	sessionVerify  middleware.SessionVerifier
	contextManager model.ContextManager
	metrics        *metrics.Metrics
	frontendURL    string
	cookieMaxAge   int
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	registration handler.RegistrationService,
	verification handler.VerificationService,
	credential handler.CredentialService,
	social handler.SocialService,
	sessionVerify middleware.SessionVerifier,
	contextManager model.ContextManager,
	metrics *metrics.Metrics,
	frontendURL string,
	cookieMaxAge int,
	logger *logger.Logger,
) *Router {
	return &Router{
		registration:   registration,
		verification:   verification,
		credential:     credential,
		social:         social,
		sessionVerify:  sessionVerify,
		contextManager: contextManager,
		metrics:        metrics,
		frontendURL:    frontendURL,
		cookieMaxAge:   cookieMaxAge,
		logger:         logger,
	}
}

// Register builds the gin engine with all routes and middleware.
func (r *Router) Register() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.NewLogging(r.logger).Handler())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{r.frontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	authenticate := middleware.NewAuthenticate(r.sessionVerify, r.contextManager, r.logger)
	authHandler := handler.NewAuth(
		r.registration, r.verification, r.credential, r.social,
		r.contextManager, r.cookieMaxAge, r.logger,
	)

	api := engine.Group("/api/v1/auth")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/otp-verification", authHandler.VerifyOTP)
		api.POST("/login", authHandler.Login)
		api.POST("/password/forgot", authHandler.ForgotPassword)
		api.PUT("/password/reset/:token", authHandler.ResetPassword)
		api.POST("/social/:provider", authHandler.SocialAuth)

		authed := api.Group("", authenticate.Handler())
		{
			authed.GET("/logout", authHandler.Logout)
			authed.GET("/me", authHandler.GetCurrentUser)
		}
	}

	engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	return engine
}
