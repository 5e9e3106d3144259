package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/capture"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
	"github.com/sai-suraj143/Intelli-Prep/internal/services"
	"github.com/sai-suraj143/Intelli-Prep/internal/session"
	"github.com/sai-suraj143/Intelli-Prep/internal/topics"
)

type SessionHandler struct {
	log      *zap.Logger
	sessions *session.Manager
	catalog  *topics.Catalog
	progress *services.ProgressService
}

func NewSessionHandler(sessions *session.Manager, catalog *topics.Catalog, progress *services.ProgressService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{log: log, sessions: sessions, catalog: catalog, progress: progress}
}

func (h *SessionHandler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": h.catalog.Topics})
}

type startRequest struct {
	TopicID string `json:"topicId" binding:"required"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	user := currentUser(c)
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topicId is required"})
		return
	}
	orc := h.sessions.Start(user.Email, req.TopicID)
	c.JSON(http.StatusCreated, sessionState(orc))
}

func (h *SessionHandler) Current(c *gin.Context) {
	orc, err := h.sessions.Get(currentUser(c).Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, sessionState(orc))
}

// BeginAnswer opens the answer recording. Microphone permission denial
// is surfaced to the caller; the session stays alive awaiting another
// attempt.
func (h *SessionHandler) BeginAnswer(c *gin.Context) {
	orc, err := h.sessions.Get(currentUser(c).Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	if err := orc.BeginAnswer(c.Request.Context()); err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "microphone permission denied"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionState(orc))
}

// EndAnswer receives the recorded audio blob, feeds it to the open
// capture and runs analysis. The response carries the scored answer
// and, after the final question, the session result with the updated
// user record.
func (h *SessionHandler) EndAnswer(c *gin.Context) {
	user := currentUser(c)
	orc, err := h.sessions.Get(user.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no audio file received"})
		return
	}
	defer file.Close()
	blob, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio file"})
		return
	}
	if err := orc.WriteAudio(blob); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	ans, res, err := orc.EndAnswer(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.respondRecorded(c, user, ans, res)
}

// Skip advances past the current question without an audio answer.
func (h *SessionHandler) Skip(c *gin.Context) {
	user := currentUser(c)
	orc, err := h.sessions.Get(user.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	ans, res, err := orc.Skip()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.respondRecorded(c, user, ans, res)
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	user := currentUser(c)
	orc, err := h.sessions.Get(user.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	if err := orc.Cancel(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.sessions.Drop(user.Email)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) respondRecorded(c *gin.Context, user models.UserRecord, ans models.Answer, res *models.SessionResult) {
	body := gin.H{"answer": ans}
	orc, err := h.sessions.Get(user.Email)
	if err == nil {
		body["session"] = sessionState(orc)
	}
	if res != nil {
		updated, err := h.progress.RecordCompletion(c.Request.Context(), user, *res)
		if err != nil {
			h.log.Error("failed to record session completion", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save progress"})
			return
		}
		h.sessions.Drop(user.Email)
		body["result"] = res
		body["user"] = updated
	}
	c.JSON(http.StatusOK, body)
}

func sessionState(orc *session.Orchestrator) gin.H {
	question, index, total := orc.CurrentQuestion()
	return gin.H{
		"topicId":  orc.TopicID(),
		"status":   orc.Status(),
		"phase":    orc.Phase(),
		"question": question,
		"index":    index,
		"total":    total,
	}
}

// currentUser returns the record the auth middleware loaded. Routes
// using it sit behind AuthRequired, so the value is always present.
func currentUser(c *gin.Context) models.UserRecord {
	user, _ := c.Get("user")
	rec, _ := user.(models.UserRecord)
	return rec
}
