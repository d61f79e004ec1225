package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/common"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// SessionService is the part of *session.Registry the handler drives.
type SessionService interface {
	Create(ctx context.Context, req mtypes.CreateSessionRequest) (mtypes.SessionDTO, error)
	Get(id common.ID) (mtypes.SessionDTO, error)
	List() []common.ID
	Delete(id common.ID) error
	UpdateModes(id common.ID, req mtypes.UpdateModeRequest) (mtypes.SessionDTO, error)
	Pick(id common.ID, req mtypes.PickRequest) (mtypes.PickResponse, error)
	ClearSelection(id common.ID) (mtypes.SessionDTO, error)
	Measure(id common.ID) (viewer.Measurement, error)
	WriteImage(id common.ID, w io.Writer) error
}

// SessionHandler exposes viewer sessions over HTTP.
type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// SessionList is the body of GET /sessions.
type SessionList struct {
	IDs []common.ID `json:"ids"`
}

// MeasurementResponse is the body of GET /sessions/:id/measurement.
type MeasurementResponse struct {
	Mode       mtypes.SelectionMode `json:"mode"`
	Value      float64              `json:"value"`
	Elements   []string             `json:"elements"`
	Name       string               `json:"name,omitempty"`
	Degenerate bool                 `json:"degenerate"`
	Text       string               `json:"text"`
}

// RegisterRoutes mounts the session resource under rg.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	s := rg.Group("/sessions")
	s.GET("", h.List)
	s.POST("", h.Create)
	s.GET("/:id", h.Get)
	s.DELETE("/:id", h.Delete)
	s.PUT("/:id/mode", h.UpdateMode)
	s.POST("/:id/picks", h.Pick)
	s.DELETE("/:id/picks", h.ClearSelection)
	s.GET("/:id/measurement", h.Measure)
	s.GET("/:id/image", h.Image)
}

// bind decodes the JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAppError(c, errors.New(errors.ErrCodeSourceTooLarge, "request body too large"))
			return false
		}
		writeAppError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return false
	}
	return true
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req mtypes.CreateSessionRequest
	if !bind(c, &req) {
		return
	}
	dto, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+string(dto.ID))
	writeJSON(c, http.StatusCreated, dto)
}

func (h *SessionHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, SessionList{IDs: h.svc.List()})
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	dto, err := h.svc.Get(id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		writeAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateMode changes render, colour and selection mode and the frame.
func (h *SessionHandler) UpdateMode(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req mtypes.UpdateModeRequest
	if !bind(c, &req) {
		return
	}
	dto, err := h.svc.UpdateModes(id, req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto)
}

// Pick selects by atom serial or by screen coordinate.
func (h *SessionHandler) Pick(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req mtypes.PickRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.Pick(id, req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *SessionHandler) ClearSelection(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	dto, err := h.svc.ClearSelection(id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto)
}

// Measure answers 409 while the selection is incomplete.
func (h *SessionHandler) Measure(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	m, err := h.svc.Measure(id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, MeasurementResponse{
		Mode:       m.Mode,
		Value:      m.Value,
		Elements:   m.Elements,
		Name:       m.Name,
		Degenerate: m.Degenerate,
		Text:       m.Text(),
	})
}

// Image streams the current scene as PNG.
func (h *SessionHandler) Image(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.WriteImage(id, &buf); err != nil {
		writeAppError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

//Personal.AI order the ending
