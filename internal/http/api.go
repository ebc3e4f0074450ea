package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dashboard-api/internal/domain"
	"dashboard-api/internal/service"
	"dashboard-api/internal/storage"
)

// Config carries the HTTP policy knobs resolved from application config.
type Config struct {
	AllowedOrigins []string
	// TrustedProxies may set the client IP through X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
	// ProtectContent puts the text endpoints behind the session gate.
	ProtectContent bool
	Development    bool
	RateLimit      RateLimitConfig
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	texts   service.TextService
	tokens  service.TokenManager
	logger  *logrus.Logger
	cfg     Config
	limiter *rateLimiter
}

func NewHandler(users service.UserService, texts service.TextService, tokens service.TokenManager, logger *logrus.Logger, cfg Config) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	registerValidations()
	return &Handler{
		users:   users,
		texts:   texts,
		tokens:  tokens,
		logger:  logger,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	if err := router.SetTrustedProxies(h.cfg.TrustedProxies); err != nil {
		h.logger.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		h.requestLogger(),
		h.recovery(),
		corsMiddleware(h.cfg.AllowedOrigins),
		securityHeaders(!h.cfg.Development),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Status: "error", Message: "Route not found"})
	})

	api := router.Group("/api")
	api.Use(h.limiter.middleware())
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := api.Group("/auth")
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/change-password", h.requireAuth(), h.changePassword)
		auth.GET("/me", h.requireAuth(), h.me)

		content := api.Group("")
		if h.cfg.ProtectContent {
			content.Use(h.requireAuth())
		}
		content.POST("/submit-text", h.submitText)
		content.GET("/get-texts", h.getTexts)
		content.DELETE("/delete-text/:id", h.deleteText)

		api.GET("/archived-texts", h.requireAuth(), h.listArchived)
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email_address"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

type submitTextRequest struct {
	Content string `json:"content"`
}

type authData struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

type authResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Data    authData `json:"data"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	result, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		Status:  "success",
		Message: "Registration successful",
		Data:    authData{Token: result.Token, User: result.User},
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Status:  "success",
		Message: "Login successful",
		Data:    authData{Token: result.Token, User: result.User},
	})
}

func (h *Handler) changePassword(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), identity, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password changed successfully",
	})
}

func (h *Handler) me(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	user, err := h.users.GetCurrentUser(c.Request.Context(), identity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": user},
	})
}

func (h *Handler) submitText(c *gin.Context) {
	var req submitTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	text, err := h.texts.Create(c.Request.Context(), req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Text saved successfully",
		"savedText": textToResponse(*text),
	})
}

func (h *Handler) getTexts(c *gin.Context) {
	texts, err := h.texts.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]TextResponse, len(texts))
	for i := range texts {
		resp[i] = textToResponse(texts[i])
	}
	c.JSON(http.StatusOK, gin.H{"texts": resp})
}

func (h *Handler) deleteText(c *gin.Context) {
	result, err := h.texts.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{
		"message":     "Text deleted successfully",
		"deletedText": textToResponse(result.Text),
	}
	if result.Archived != "" && h.cfg.Development {
		resp["archived"] = result.Archived
	}
	if len(result.Warnings) > 0 {
		resp["warnings"] = result.Warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listArchived(c *gin.Context) {
	objects, err := h.texts.ListArchived(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Status: "error", Message: "Text archive is not configured"})
			return
		}
		h.respondError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, gin.H{"objects": resp})
}

type TextResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func textToResponse(text domain.Text) TextResponse {
	return TextResponse{
		ID:        text.ID,
		Content:   text.Content,
		CreatedAt: text.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
