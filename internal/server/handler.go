package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"credit-backend/constants"
	"credit-backend/internal/common"
	"credit-backend/internal/entity"
	"credit-backend/internal/pipeline"
	"credit-backend/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ApplicationProcessor runs one submitted batch end to end.
type ApplicationProcessor interface {
	ProcessApplication(ctx context.Context, userID string, files []entity.UploadedDocument) (pipeline.Summary, error)
}

// ApplicationExporter produces the admin XLSX download.
type ApplicationExporter interface {
	ExportApplicationsXLSX(ctx context.Context, status *constants.ReviewStatus) ([]byte, error)
}

// Pinger is the liveness slice of the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// statusResponse is the only shape applicants ever see.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func failure(message string) statusResponse {
	return statusResponse{Status: "failure", Message: message}
}

type Handler struct {
	logger         *slog.Logger
	processor      ApplicationProcessor
	apps           repository.ApplicationRepository
	exporter       ApplicationExporter
	db             Pinger
	maxUploadBytes int64
}

func NewHandler(
	logger *slog.Logger,
	processor ApplicationProcessor,
	apps repository.ApplicationRepository,
	exporter ApplicationExporter,
	db Pinger,
	maxUploadBytes int64,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{
		logger:         logger,
		processor:      processor,
		apps:           apps,
		exporter:       exporter,
		db:             db,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.healthz)

	api := r.Group("/api/v1")
	api.POST("/applications", h.submitApplication)

	admin := api.Group("/admin")
	admin.GET("/applications", h.listApplications)
	admin.GET("/applications/export", h.exportApplications)
	admin.GET("/applications/:id", h.getApplication)
	admin.POST("/applications/:id/decision", h.decideApplication)
}

// submitApplication accepts a multipart batch (user_id field plus one or
// more files) and responds with a binary outcome. Per-document failures are
// recorded server-side only; the response never names a file or a reason.
func (h *Handler) submitApplication(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, failure("expected multipart form data"))
		return
	}

	userID := c.PostForm("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, failure("user_id is required"))
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, failure("at least one file is required"))
		return
	}

	files := make([]entity.UploadedDocument, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, failure("could not read uploaded file"))
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, failure("could not read uploaded file"))
			return
		}
		files = append(files, entity.UploadedDocument{
			Filename:    fh.Filename,
			ContentType: constants.NormalizeContentType(fh.Header.Get("Content-Type")),
			Data:        data,
		})
	}

	ctx := common.WithUserID(c.Request.Context(), userID)
	summary, err := h.processor.ProcessApplication(ctx, userID, files)
	if err != nil {
		h.logger.Error("http.submit.failed",
			"request_id", c.GetString("request_id"), "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, failure(summary.Message))
		return
	}

	status := "failure"
	if summary.Succeeded {
		status = "success"
	}
	c.JSON(http.StatusOK, statusResponse{Status: status, Message: summary.Message})
}

func (h *Handler) listApplications(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		apps []*entity.Application
		err  error
	)
	switch {
	case c.Query("user_id") != "":
		apps, err = h.apps.ListByUser(ctx, c.Query("user_id"))
	case c.Query("status") != "":
		apps, err = h.apps.ListByStatus(ctx, constants.ReviewStatus(c.Query("status")))
	default:
		apps, err = h.apps.ListAll(ctx)
	}
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, failure("status must be pending or completed"))
			return
		}
		h.logger.Error("http.admin.list_failed", "request_id", c.GetString("request_id"), "error", err)
		c.JSON(http.StatusInternalServerError, failure("could not list applications"))
		return
	}
	if apps == nil {
		apps = []*entity.Application{}
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) getApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, failure("invalid application id"))
		return
	}

	app, err := h.apps.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, failure("application not found"))
			return
		}
		h.logger.Error("http.admin.get_failed", "request_id", c.GetString("request_id"), "application_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, failure("could not load application"))
		return
	}
	c.JSON(http.StatusOK, app)
}

type decisionRequest struct {
	Approve *bool `json:"approve"`
}

func (h *Handler) decideApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, failure("invalid application id"))
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approve == nil {
		c.JSON(http.StatusBadRequest, failure("approve is required"))
		return
	}

	if err := h.apps.SetApproval(c.Request.Context(), id, *req.Approve); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, failure("application not found"))
			return
		}
		h.logger.Error("http.admin.decision_failed", "request_id", c.GetString("request_id"), "application_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, failure("could not record decision"))
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "Decision recorded."})
}

func (h *Handler) exportApplications(c *gin.Context) {
	var status *constants.ReviewStatus
	if q := c.Query("status"); q != "" {
		s := constants.ReviewStatus(q)
		if s != constants.ReviewStatusPending && s != constants.ReviewStatusCompleted {
			c.JSON(http.StatusBadRequest, failure("status must be pending or completed"))
			return
		}
		status = &s
	}

	data, err := h.exporter.ExportApplicationsXLSX(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("http.admin.export_failed", "request_id", c.GetString("request_id"), "error", err)
		c.JSON(http.StatusInternalServerError, failure("could not build export"))
		return
	}

	filename := fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) healthz(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
