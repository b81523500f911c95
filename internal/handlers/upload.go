package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gitpix/gitpix/internal/config"
	"github.com/gitpix/gitpix/internal/paste"
	"github.com/gitpix/gitpix/internal/uploader"
)

// UploadHandler serves POST /v1/uploads: one paste batch in, Markdown links out.
type UploadHandler struct {
	service  *uploader.Service
	maxBytes int64
	logger   *slog.Logger
}

// UploadItem is one pasted image: data is raw base64 or a data URL.
type UploadItem struct {
	Name string `json:"name"`
	Mime string `json:"mime,omitempty"`
	Data string `json:"data"`
}

// UploadRequest is the body for POST /v1/uploads.
type UploadRequest struct {
	Items []UploadItem `json:"items"`
}

// UploadResponse carries one Markdown link per success (input order) and the
// consolidated notice when any file failed.
type UploadResponse struct {
	Links  []string `json:"links"`
	Notice string   `json:"notice,omitempty"`
	Failed int      `json:"failed"`
}

// NewUploadHandler creates the upload handler.
func NewUploadHandler(log *slog.Logger, service *uploader.Service, cfg config.Config) *UploadHandler {
	if log == nil {
		log = slog.Default()
	}
	maxBytes := cfg.Upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxBytes
	}
	return &UploadHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   log.With(slog.String("handler", "upload")),
	}
}

// Register mounts POST /v1/uploads on the Echo instance.
func (h *UploadHandler) Register(e *echo.Echo) {
	e.POST("/v1/uploads", h.Upload)
}

// Upload decodes the batch payload, runs the upload pipeline, and returns
// the aggregated result. Malformed payloads are 400; invalid upload
// configuration is 422.
func (h *UploadHandler) Upload(c echo.Context) error {
	var req UploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "items are required")
	}

	files := make([]uploader.File, 0, len(req.Items))
	for i, item := range req.Items {
		content, err := paste.Decode(item.Data, h.maxBytes)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("item %d: %v", i, err))
		}
		mime := item.Mime
		if strings.TrimSpace(mime) == "" {
			mime = paste.MimeFromDataURL(item.Data)
		}
		files = append(files, uploader.File{
			Name:    strings.TrimSpace(item.Name),
			Mime:    paste.ResolveMime(mime, content),
			Content: content,
		})
	}

	result, err := h.service.UploadBatch(c.Request().Context(), files)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	links := result.Links
	if links == nil {
		links = []string{}
	}
	return c.JSON(http.StatusOK, UploadResponse{
		Links:  links,
		Notice: result.Notice,
		Failed: result.Failed,
	})
}
