package handlers

import (
	"net/http"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// QRHandler serves cross-device login. In the direct flow the displaying
// device is anonymous and polls; in the session flow a signed-in device shows
// a code that another device redeems.
type QRHandler struct {
	qr *services.QRService
}

func NewQRHandler(qr *services.QRService) *QRHandler {
	return &QRHandler{qr: qr}
}

type qrDirectLoginRequest struct {
	Token      string `json:"token"      form:"token"`
	DeviceType string `json:"deviceType" form:"deviceType"`
}

type qrSessionLoginRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// GenerateDirect is GET /qr/direct/generate?username=&deviceType=.
func (h *QRHandler) GenerateDirect(c *gin.Context) {
	deviceType := strings.TrimSpace(c.Query("deviceType"))
	if deviceType == "" {
		respondFailure(c, http.StatusBadRequest, "deviceType is required")
		return
	}
	qr, err := h.qr.GenerateDirectLoginQRCode(c, c.Query("username"), deviceType)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", qr)
}

// DirectLogin is POST /qr/direct/login, called by the signed-in scanning
// device. The token and device type come from the scanned URL and may be sent
// as query parameters or in the body.
func (h *QRHandler) DirectLogin(c *gin.Context) {
	var req qrDirectLoginRequest
	_ = c.ShouldBind(&req)
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.DeviceType == "" {
		req.DeviceType = c.Query("deviceType")
	}

	binding, err := h.qr.CompleteDirectLogin(c, middleware.CurrentUser(c), req.Token, req.DeviceType)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Device signed in", gin.H{
		"deviceId":   binding.DeviceID,
		"deviceType": binding.DeviceType,
	})
}

// CheckDirect is GET /qr/direct/check?deviceId=. A completed login is
// delivered once; until then, and after delivery, success is false.
func (h *QRHandler) CheckDirect(c *gin.Context) {
	result, found, err := h.qr.CheckDirectLoginStatus(c, c.Query("deviceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, envelope{Success: false, Message: "No login yet"})
		return
	}
	respondOK(c, "Login successful", gin.H{
		"token":    result.Token,
		"userId":   result.UserID,
		"username": result.Username,
	})
}

// Generate is GET /qr/generate for the signed-in caller.
func (h *QRHandler) Generate(c *gin.Context) {
	qr, err := h.qr.GenerateQRCode(c, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", qr)
}

// Login is POST /qr/login: redeems a session QR payload.
func (h *QRHandler) Login(c *gin.Context) {
	var req qrSessionLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.qr.AuthenticateDirectQR(c, strings.TrimSpace(req.Username), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Login successful", newLoginView(result))
}
