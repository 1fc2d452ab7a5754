package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kiesman99/gridcompose/internal/api"
	"github.com/kiesman99/gridcompose/internal/grid"
)

// DefaultMaxUpload bounds the multipart body of a compose request
const DefaultMaxUpload = 64 << 20

// DefaultMaxPixels bounds the area of every decoded image and of the composed canvas
const DefaultMaxPixels = 50_000_000

// Config holds the server's tunables
type Config struct {
	MaxUpload int64
	MaxPixels int64
	Logger    *slog.Logger
}

// Server implements api.ServerInterface
type Server struct {
	startTime time.Time
	version   string
	maxUpload int64
	maxPixels int64
	logger    *slog.Logger
}

// NewServer creates a new server instance
func NewServer(version string, cfg Config) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		maxUpload: cfg.MaxUpload,
		maxPixels: cfg.MaxPixels,
		logger:    cfg.Logger,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	})
}

// ListLayouts returns every layout, optionally only those taking params.Slots images
func (s *Server) ListLayouts(w http.ResponseWriter, r *http.Request, params api.ListLayoutsParams) {
	list := api.LayoutList{Layouts: []api.Layout{}}
	for _, l := range grid.Layouts() {
		if params.Slots != nil && !l.Accepts(*params.Slots) {
			continue
		}
		list.Layouts = append(list.Layouts, toAPILayout(l))
	}
	s.writeJSON(w, http.StatusOK, list)
}

// GetLayout describes a single layout
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request, name string) {
	l, err := grid.ParseLayout(name)
	if err != nil {
		reqID := requestID(r)
		s.writeErrorResponse(w, http.StatusNotFound, api.LAYOUTNOTFOUND, err.Error(), &reqID, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPILayout(l))
}

// ComposeImages composes the uploaded images and returns the encoded canvas.
// The form carries the layout name, the images as repeated "image" parts
// in slot order and an optional output format.
func (s *Server) ComposeImages(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDFORM,
			"Invalid multipart form: "+err.Error(), &reqID, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	layout, err := grid.ParseLayout(r.FormValue("layout"))
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR, err.Error(), &reqID, nil)
		return
	}

	format := api.Png
	if f := r.FormValue("format"); f != "" {
		format = api.ComposeFormat(f)
	}
	if format != api.Png && format != api.Jpeg {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
			fmt.Sprintf("unsupported format %q", format), &reqID, nil)
		return
	}

	files := r.MultipartForm.File["image"]
	if !layout.Accepts(len(files)) {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
			fmt.Sprintf("layout %s takes %d images, got %d", layout, layout.Slots(), len(files)), &reqID,
			map[string]interface{}{"expected": layout.Slots(), "got": len(files)})
		return
	}

	// Headers first: nothing is decoded until every raster and the canvas fit.
	sizes := make([]image.Point, len(files))
	for i, fh := range files {
		cfg, err := decodePartConfig(fh)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDIMAGE,
				fmt.Sprintf("cannot decode image %d: %v", i, err), &reqID,
				map[string]interface{}{"slot": i, "filename": fh.Filename})
			return
		}
		if area := int64(cfg.Width) * int64(cfg.Height); area > s.maxPixels {
			s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
				fmt.Sprintf("image %d is %dx%d, over the %d pixel limit", i, cfg.Width, cfg.Height, s.maxPixels), &reqID,
				map[string]interface{}{"slot": i, "filename": fh.Filename, "max_pixels": s.maxPixels})
			return
		}
		sizes[i] = image.Pt(cfg.Width, cfg.Height)
	}

	canvasSize, _ := layout.Arrange(sizes)
	if area := int64(canvasSize.X) * int64(canvasSize.Y); area > s.maxPixels {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
			fmt.Sprintf("composed canvas would be %dx%d, over the %d pixel limit", canvasSize.X, canvasSize.Y, s.maxPixels), &reqID,
			map[string]interface{}{"max_pixels": s.maxPixels})
		return
	}

	images := make([]image.Image, len(files))
	for i, fh := range files {
		img, err := decodePart(fh)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDIMAGE,
				fmt.Sprintf("cannot decode image %d: %v", i, err), &reqID,
				map[string]interface{}{"slot": i, "filename": fh.Filename})
			return
		}
		images[i] = img
	}

	canvas, err := grid.Composite(images, layout)
	if err != nil {
		status, code := http.StatusInternalServerError, api.INTERNALERROR
		if errors.Is(err, grid.ErrEmptyCanvas) || errors.Is(err, grid.ErrSlotMismatch) || errors.Is(err, grid.ErrNoImages) {
			status, code = http.StatusBadRequest, api.VALIDATIONERROR
		}
		s.writeErrorResponse(w, status, code, err.Error(), &reqID, nil)
		return
	}

	var buf bytes.Buffer
	if err := grid.Encode(&buf, canvas, string(format)); err != nil {
		s.logger.Error("encoding composed image", "request_id", reqID, "error", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.INTERNALERROR,
			"Internal server error", &reqID, nil)
		return
	}

	size := canvas.Bounds().Size()
	s.logger.Info("composed", "request_id", reqID, "layout", layout.Name(),
		"images", len(images), "width", size.X, "height", size.Y)

	w.Header().Set("Content-Type", "image/"+string(format))
	w.Header().Set("X-Request-ID", reqID)
	w.Header().Set("X-Canvas-Size", fmt.Sprintf("%dx%d", size.X, size.Y))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("writing response", "request_id", reqID, "error", err)
	}
}

// ParamError handles parameters the router could not bind
func (s *Server) ParamError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := requestID(r)
	s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR, err.Error(), &reqID, nil)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	if requestID != nil {
		w.Header().Set("X-Request-ID", *requestID)
	}
	s.writeJSON(w, statusCode, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", "error", err)
	}
}

func toAPILayout(l grid.Layout) api.Layout {
	return api.Layout{Name: l.Name(), Description: l.Description(), Slots: l.Slots()}
}

func decodePartConfig(fh *multipart.FileHeader) (image.Config, error) {
	f, err := fh.Open()
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	return grid.DecodeConfig(f)
}

func decodePart(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return grid.Decode(f)
}

// requestID reuses the id set by middleware.RequestID, or mints one
func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
