package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/cache"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
	"github.com/sai-suraj143/Intelli-Prep/internal/store"
	"github.com/sai-suraj143/Intelli-Prep/internal/utils"
)

// SessionUserKey is the cookie-session key holding the logged-in email.
const SessionUserKey = "userEmail"

type AuthHandler struct {
	log   *zap.Logger
	store store.UserStore
	cache cache.SessionCache
}

func NewAuthHandler(userStore store.UserStore, sessionCache cache.SessionCache, log *zap.Logger) *AuthHandler {
	return &AuthHandler{log: log, store: userStore, cache: sessionCache}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}
	if !utils.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	}
	if !utils.IsComplexPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters with upper, lower, number and symbol"})
		return
	}

	user, err := h.store.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, store.ErrDuplicateRegistration) {
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}
	if err != nil {
		h.log.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	h.establish(c, *user)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.store.FindByCredentials(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	h.establish(c, *user)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to logout"})
		return
	}
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		h.log.Warn("failed to clear session cache", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// Me restores the active identity. The cookie session wins; the cached
// current-user slot covers the restore path when the store cannot serve
// the lookup. The slot is only ever handed to the caller whose cookie
// names the cached email, never to an anonymous client.
func (h *AuthHandler) Me(c *gin.Context) {
	if user, ok := c.Get("user"); ok {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}
	email, ok := sessions.Default(c).Get(SessionUserKey).(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	user, err := h.cache.Load(c.Request.Context())
	if errors.Is(err, cache.ErrNoActiveUser) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	if err != nil {
		h.log.Error("session cache load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to restore session"})
		return
	}
	if user.Email != email {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// establish writes the cookie session and refreshes the current-user
// cache slot after a successful login or registration.
func (h *AuthHandler) establish(c *gin.Context, user models.UserRecord) {
	session := sessions.Default(c)
	session.Set(SessionUserKey, user.Email)
	if err := session.Save(); err != nil {
		h.log.Error("failed to save cookie session", zap.Error(err))
	}
	if err := h.cache.Save(c.Request.Context(), user); err != nil {
		h.log.Warn("failed to save session cache", zap.Error(err))
	}
}
