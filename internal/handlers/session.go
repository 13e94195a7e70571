package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
)

// SessionHandler exposes the device session and theme kept in the KVS
type SessionHandler struct {
	sessions *kvs.SessionStore
	logger   ectologger.Logger
}

func NewSessionHandler(sessions *kvs.SessionStore, logger ectologger.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type SignInRequest struct {
	User  kvs.SessionUser `json:"user" validate:"required"`
	Token string          `json:"token" validate:"required"`
}

type SessionResponse struct {
	User          *kvs.SessionUser `json:"user"`
	Authenticated bool             `json:"authenticated"`
}

type ThemeRequest struct {
	Theme kvs.Theme `json:"theme" validate:"required,oneof=light dark"`
}

type ThemeResponse struct {
	Theme kvs.Theme `json:"theme"`
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/session", h.Get)
	g.POST("/session", h.SignIn)
	g.DELETE("/session", h.SignOut)
	g.GET("/theme", h.GetTheme)
	g.PUT("/theme", h.SetTheme)
}

// Get handles GET /session
func (h *SessionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.sessions.CurrentUser(ctx)
	if err != nil {
		return h.internal(c, err, "failed to read session")
	}
	token, err := h.sessions.Token(ctx)
	if err != nil {
		return h.internal(c, err, "failed to read session")
	}

	return SuccessResponse(c, SessionResponse{User: user, Authenticated: user != nil && token != ""})
}

// SignIn handles POST /session
func (h *SessionHandler) SignIn(c echo.Context) error {
	req, err := BindRequest[SignInRequest](c)
	if err != nil {
		return err
	}

	if err := h.sessions.SignIn(c.Request().Context(), req.User, req.Token); err != nil {
		return h.internal(c, err, "failed to store session")
	}
	return CreatedResponse(c, SessionResponse{User: &req.User, Authenticated: true})
}

// SignOut handles DELETE /session
func (h *SessionHandler) SignOut(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context()); err != nil {
		return h.internal(c, err, "failed to clear session")
	}
	return NoContentResponse(c)
}

// GetTheme handles GET /theme
func (h *SessionHandler) GetTheme(c echo.Context) error {
	theme, err := h.sessions.Theme(c.Request().Context())
	if err != nil {
		return h.internal(c, err, "failed to read theme")
	}
	return SuccessResponse(c, ThemeResponse{Theme: theme})
}

// SetTheme handles PUT /theme
func (h *SessionHandler) SetTheme(c echo.Context) error {
	req, err := BindRequest[ThemeRequest](c)
	if err != nil {
		return err
	}

	if err := h.sessions.SetTheme(c.Request().Context(), req.Theme); err != nil {
		return h.internal(c, err, "failed to store theme")
	}
	return SuccessResponse(c, ThemeResponse(req))
}

func (h *SessionHandler) internal(c echo.Context, err error, message string) error {
	h.logger.WithContext(c.Request().Context()).WithError(err).Error(message)
	return httperror.NewHTTPError(http.StatusInternalServerError, message)
}
