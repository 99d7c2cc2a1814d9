package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docchat/internal/extract"
	"docchat/internal/models"
	"docchat/internal/service/sessions"
)

// SessionStore persists chat sessions keyed by id.
type SessionStore interface {
	Create(ctx context.Context, filePath string) (*models.ChatSession, error)
	Get(ctx context.Context, id string) (*models.ChatSession, error)
	AppendExchange(ctx context.Context, id string, userMsg, assistantMsg models.Message) (*models.ChatSession, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStore holds uploaded document bytes keyed by path.
type ObjectStore interface {
	Upload(path string, data []byte, contentType string) error
	Download(path string) ([]byte, error)
	Delete(path string) error
}

// Completer produces summaries and chat replies from the completion service.
type Completer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Continue(ctx context.Context, docText string, history []models.Message) (string, error)
}

// Handler wires HTTP routes to the session store, object storage and the
// completion service.
type Handler struct {
	sessions SessionStore
	objects  ObjectStore
	llm      Completer
}

// NewHandler constructs a Handler instance.
func NewHandler(sessionStore SessionStore, objects ObjectStore, llm Completer) *Handler {
	return &Handler{
		sessions: sessionStore,
		objects:  objects,
		llm:      llm,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/:name", h.health)
	api := router.Group("/api")
	api.POST("/summarize", h.summarize)
	api.POST("/start_chat", h.startChat)
	api.POST("/chat/:session_id", h.chat)
	api.DELETE("/end_chat/:session_id", h.endChat)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"detail": c.Param("name")})
}

const maxUploadBytes = 10 << 20 // 10 MB

// storeUpload reads the multipart file and pushes it to object storage
// under prefix. On failure it writes the error response and reports false.
func (h *Handler) storeUpload(c *gin.Context, prefix string) (models.StoredObject, []byte, bool) {
	var stored models.StoredObject
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return stored, nil, false
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return stored, nil, false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return stored, nil, false
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return stored, nil, false
	}

	name := filepath.Base(file.Filename)
	stored = models.StoredObject{
		Path:        prefix + uuid.NewString() + "_" + name,
		Name:        name,
		ContentType: detectContentType(data),
		Size:        int64(len(data)),
	}
	if err := h.objects.Upload(stored.Path, data, stored.ContentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return stored, nil, false
	}
	return stored, data, true
}

func detectContentType(data []byte) string {
	probe := data
	if len(probe) > 512 {
		probe = probe[:512]
	}
	return http.DetectContentType(probe)
}

// summarize extracts the uploaded document's text and returns a one-shot
// summary. Stateless; no session is created.
func (h *Handler) summarize(c *gin.Context) {
	stored, data, ok := h.storeUpload(c, "")
	if !ok {
		return
	}
	log.Printf("stored upload %s (%d bytes)", stored.Path, stored.Size)

	text, err := extract.Text(data, stored.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.llm.Summarize(c.Request.Context(), text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// startChat uploads the document and opens a session referencing it.
func (h *Handler) startChat(c *gin.Context) {
	stored, _, ok := h.storeUpload(c, "documents/")
	if !ok {
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), stored.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID})
}

// chat answers one user turn. Document text is re-derived from the stored
// file on every call.
func (h *Handler) chat(c *gin.Context) {
	message := strings.TrimSpace(c.PostForm("message"))
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	ctx := c.Request.Context()
	session, err := h.sessions.Get(ctx, c.Param("session_id"))
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := h.objects.Download(session.FilePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	text, err := extract.Text(data, session.FilePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	userMsg := models.Message{Role: models.RoleUser, Content: message}
	reply, err := h.llm.Continue(ctx, text, append(session.Messages, userMsg))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	assistantMsg := models.Message{Role: models.RoleAssistant, Content: reply}
	if _, err := h.sessions.AppendExchange(ctx, session.ID, userMsg, assistantMsg); err != nil {
		switch {
		case errors.Is(err, sessions.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		case errors.Is(err, sessions.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "session was updated concurrently, retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// endChat tears the session down. The row is removed even when the stored
// file cannot be, and the response says which of the two happened.
func (h *Handler) endChat(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := h.sessions.Get(ctx, c.Param("session_id"))
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message := "chat session ended"
	if err := h.objects.Delete(session.FilePath); err != nil {
		log.Printf("delete stored file %s: %v", session.FilePath, err)
		message = "chat session ended, stored file could not be removed"
	}
	if err := h.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
