package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/model"
	"github.com/veriflow/identity/internal/service"
)

// RegistrationService admits new local registrations.
type RegistrationService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.Account, error)
}

// VerificationService validates submitted OTPs.
type VerificationService interface {
	Validate(ctx context.Context, ident model.Identifier, code int) (string, model.Account, error)
}

// CredentialService issues and consumes credentials.
type CredentialService interface {
	Login(ctx context.Context, email, password string) (string, model.Account, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (model.Account, error)
	IssueResetToken(ctx context.Context, email string) (string, error)
	ValidateAndConsume(ctx context.Context, rawSecret, newPassword string) (string, model.Account, error)
}

// SocialService authenticates through federated identity providers.
type SocialService interface {
	Authenticate(ctx context.Context, provider model.Provider, accessToken string) (string, model.Account, error)
}

const sessionCookieName = "token"

// Auth handles the HTTP endpoints of the identity core.
type Auth struct {
	registration   RegistrationService
	verification   VerificationService
	credential     CredentialService
	social         SocialService
	contextManager model.ContextManager
	cookieMaxAge   int
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	registration RegistrationService,
	verification VerificationService,
	credential CredentialService,
	social SocialService,
	contextManager model.ContextManager,
	cookieMaxAge int,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		registration:   registration,
		verification:   verification,
		credential:     credential,
		social:         social,
		contextManager: contextManager,
		cookieMaxAge:   cookieMaxAge,
		logger:         logger,
	}
}

type registerRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Password           string `json:"password"`
	VerificationMethod string `json:"verificationMethod"`
}

// Register admits a registration request and dispatches an OTP.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	account, err := h.registration.Register(c.Request.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Method:   model.VerificationMethod(req.VerificationMethod),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification code sent to " + account.Name + ". Please check your " + req.VerificationMethod + " for the verification code.",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	OTP   int    `json:"otp"`
}

// VerifyOTP validates a submitted code and opens a session on success.
func (h *Auth) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	token, account, err := h.verification.Validate(c.Request.Context(), model.Identifier{
		Email: req.Email,
		Phone: req.Phone,
	}, req.OTP)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account verified successfully",
		"token":   token,
		"user":    accountResponse(account),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a verified account by password.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	token, account, err := h.credential.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    accountResponse(account),
	})
}

// Logout clears the session cookie.
func (h *Auth) Logout(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the account behind the authenticated session.
func (h *Auth) GetCurrentUser(c *gin.Context) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "please login to access this resource")
		return
	}

	account, err := h.credential.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    accountResponse(account),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token and mails the reset link.
func (h *Auth) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	if _, err := h.credential.IssueResetToken(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset email sent successfully",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword consumes a reset token and sets the new password.
func (h *Auth) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	token, account, err := h.credential.ValidateAndConsume(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset successful",
		"token":   token,
		"user":    accountResponse(account),
	})
}

type socialAuthRequest struct {
	AccessToken string `json:"accessToken"`
}

// SocialAuth authenticates through a federated identity provider.
func (h *Auth) SocialAuth(c *gin.Context) {
	var req socialAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	token, account, err := h.social.Authenticate(c.Request.Context(), model.Provider(c.Param("provider")), req.AccessToken)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    accountResponse(account),
	})
}

func (h *Auth) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(sessionCookieName, token, h.cookieMaxAge, "/", "", true, true)
}

// accountResponse shapes the externally visible account fields; hashes,
// codes and reset material never leave the core.
func accountResponse(account model.Account) gin.H {
	return gin.H{
		"id":              account.ID,
		"name":            account.Name,
		"email":           account.Email,
		"phone":           account.Phone,
		"accountVerified": account.AccountVerified,
		"provider":        account.Provider,
		"createdAt":       account.CreatedAt,
	}
}
