package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/bartek5186/feedsync/internal/importer"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Importer interface {
	Import(ctx context.Context, req importer.Request) (*importer.ImportResult, error)
	Runs(ctx context.Context, user string, limit int) ([]db.ImportRun, error)
}

type Handler struct {
	imp     Importer
	log     zerolog.Logger
	started time.Time
}

func NewHandler(imp Importer, log zerolog.Logger) *Handler {
	return &Handler{imp: imp, log: log, started: time.Now()}
}

type importRequest struct {
	XMLFileURL string `json:"xml_file_url" binding:"required"`
	Format     string `json:"format"`
}

func (h *Handler) CreateImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	var format feed.Format
	if req.Format != "" {
		f, err := feed.ParseFormat(req.Format)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		format = f
	}

	user := c.GetString(ctxUserKey)
	res, err := h.imp.Import(c.Request.Context(), importer.Request{
		UserID: user,
		URL:    req.XMLFileURL,
		Format: format,
	})
	if err != nil {
		status := importStatus(err)
		h.log.Warn().Err(err).Str("user", user).Int("status", status).Msg("import rejected")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// importStatus: błędy zwracane przed zapisem do bazy.
func importStatus(err error) int {
	switch {
	case errors.Is(err, importer.ErrEmptyURL), errors.Is(err, importer.ErrNoUser):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrFormatMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) ListImports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.imp.Runs(c.Request.Context(), c.GetString(ctxUserKey), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list import runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if runs == nil {
		runs = []db.ImportRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}
