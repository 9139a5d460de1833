package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/jt808-server/internal/session"
	"github.com/taoyao-code/jt808-server/internal/storage"
	"github.com/taoyao-code/jt808-server/internal/storage/models"
)

// TerminalHandler 终端只读查询
type TerminalHandler struct {
	repo   storage.TerminalRepo
	sess   session.SessionManager
	logger *zap.Logger
}

func NewTerminalHandler(repo storage.TerminalRepo, sess session.SessionManager, logger *zap.Logger) *TerminalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TerminalHandler{repo: repo, sess: sess, logger: logger}
}

// TerminalView 对外展示的终端信息，不含鉴权码
type TerminalView struct {
	Phone           string        `json:"phone"`
	ProtocolVersion string        `json:"protocol_version"`
	ProvinceID      int           `json:"province_id"`
	CityID          int           `json:"city_id"`
	ManufacturerID  string        `json:"manufacturer_id"`
	TerminalModel   string        `json:"terminal_model"`
	TerminalID      string        `json:"terminal_id"`
	PlateColor      int16         `json:"plate_color"`
	PlateNumber     string        `json:"plate_number,omitempty"`
	VIN             string        `json:"vin,omitempty"`
	IMEI            string        `json:"imei,omitempty"`
	SoftwareVersion string        `json:"software_version,omitempty"`
	RegisteredAt    time.Time     `json:"registered_at"`
	LastAuthAt      *time.Time    `json:"last_auth_at,omitempty"`
	Online          bool          `json:"online"`
	Session         *session.Info `json:"session,omitempty"`
}

func newTerminalView(t *models.Terminal) TerminalView {
	return TerminalView{
		Phone:           t.Phone,
		ProtocolVersion: t.ProtocolVersion,
		ProvinceID:      t.ProvinceID,
		CityID:          t.CityID,
		ManufacturerID:  t.ManufacturerID,
		TerminalModel:   t.TerminalModel,
		TerminalID:      t.TerminalID,
		PlateColor:      t.PlateColor,
		PlateNumber:     t.PlateNumber,
		VIN:             t.VIN,
		IMEI:            t.IMEI,
		SoftwareVersion: t.SoftwareVersion,
		RegisteredAt:    t.RegisteredAt,
		LastAuthAt:      t.LastAuthAt,
	}
}

// GetTerminal GET /api/v1/terminals/:phone
func (h *TerminalHandler) GetTerminal(c *gin.Context) {
	phone := c.Param("phone")
	t, err := h.repo.GetTerminal(c.Request.Context(), phone)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "terminal not found"})
		return
	}
	if err != nil {
		h.logger.Error("get terminal failed", zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	view := newTerminalView(t)
	if info, ok := h.sess.Get(phone); ok {
		view.Session = &info
	}
	view.Online = h.sess.IsOnline(phone, time.Now())
	c.JSON(http.StatusOK, view)
}

// GetSession GET /api/v1/sessions/:phone
func (h *TerminalHandler) GetSession(c *gin.Context) {
	phone := c.Param("phone")
	info, ok := h.sess.Get(phone)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": info,
		"online":  h.sess.IsOnline(phone, time.Now()),
	})
}

// OnlineCount GET /api/v1/sessions
func (h *TerminalHandler) OnlineCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.sess.OnlineCount(time.Now())})
}
