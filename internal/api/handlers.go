package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"push-service/internal/logging"
	"push-service/internal/models"
	"push-service/internal/validation"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Sender runs one raw push request through the pipeline.
type Sender interface {
	Handle(ctx context.Context, requestID string, raw []byte) (models.SendResult, error)
}

// HistoryStore serves stored alerts and audit logs.
type HistoryStore interface {
	GetAlertsByUserID(ctx context.Context, userID string, limit, offset int) ([]models.Alert, int, error)
	GetNotificationLogs(ctx context.Context, userID string, limit, offset int) ([]models.NotificationLog, error)
}

// LiveFeed upgrades a request into a live alert stream for one user.
type LiveFeed interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string) error
}

type Handler struct {
	sender    Sender
	history   HistoryStore
	feed      LiveFeed
	logger    *logging.Logger
	configErr error
}

// NewHandler builds the HTTP handlers. A non-nil configErr turns every send
// into a 500 while the rest of the API keeps serving.
func NewHandler(sender Sender, history HistoryStore, feed LiveFeed, logger *logging.Logger, configErr error) *Handler {
	return &Handler{sender: sender, history: history, feed: feed, logger: logger, configErr: configErr}
}

func (h *Handler) SendPush(c *gin.Context) {
	requestID := RequestID(c)
	log := h.logger.WithRequestID(requestID)

	if h.configErr != nil || h.sender == nil {
		err := h.configErr
		if err == nil {
			err = errors.New("push pipeline is not configured")
		}
		log.Errorf("Push rejected: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Errorf("Failed to read request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	result, err := h.sender.Handle(c.Request.Context(), requestID, raw)
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			log.Warnf("Invalid push request: %v", err)
		} else {
			log.Errorf("Push request failed: %v", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Preflight answers CORS pre-flight requests.
func (h *Handler) Preflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetAlertsByUserID(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage is not configured"})
		return
	}
	userID := c.Param("user_id")
	limit, offset, ok := h.pagination(c)
	if !ok {
		return
	}

	alerts, total, err := h.history.GetAlertsByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to get alerts for user_id %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get alerts"})
		return
	}

	h.logger.Infof("Retrieved %d alerts for user_id %s", len(alerts), userID)
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": total, "limit": limit, "offset": offset})
}

func (h *Handler) GetLogsByUserID(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage is not configured"})
		return
	}
	userID := c.Param("user_id")
	limit, offset, ok := h.pagination(c)
	if !ok {
		return
	}

	logs, err := h.history.GetNotificationLogs(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to get notification logs for user_id %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notification logs"})
		return
	}

	h.logger.Infof("Retrieved %d notification logs for user_id %s", len(logs), userID)
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) LiveAlerts(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.feed.Serve(c.Writer, c.Request, userID); err != nil {
		h.logger.Errorf("WebSocket for user_id %s failed: %v", userID, err)
	}
}

func (h *Handler) pagination(c *gin.Context) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, 0, false
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return 0, 0, false
	}
	return min(limit, maxPageSize), offset, true
}
