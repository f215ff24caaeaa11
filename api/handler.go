// Package api maps the support flows onto HTTP. Access policy (who may call
// what) is enforced by the surrounding deployment; these handlers only
// translate between transport and flow outcomes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getvessel/vessel/domain"
	"github.com/getvessel/vessel/flow"
	"github.com/getvessel/vessel/provider"
	"github.com/getvessel/vessel/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionCookie = "vessel_session"
	stateCookie   = "vessel_oauth_state"
)

// AssertionSource verifies a provider callback into an identity assertion.
// provider.Verifier is the production implementation.
type AssertionSource interface {
	AuthURL(providerID, state string) (string, error)
	Callback(ctx context.Context, providerID, code string) (*domain.ProviderAssertion, error)
}

type Handler struct {
	recovery     *flow.RecoveryManager
	confirmation *flow.ConfirmationManager
	social       *flow.SocialManager
	sessions     *session.Manager
	assertions   AssertionSource
}

func NewHandler(recovery *flow.RecoveryManager, confirmation *flow.ConfirmationManager, social *flow.SocialManager, sessions *session.Manager, assertions AssertionSource) *Handler {
	return &Handler{
		recovery:     recovery,
		confirmation: confirmation,
		social:       social,
		sessions:     sessions,
		assertions:   assertions,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/recovery", h.HandleRecoveryRequest)
	g.GET("/recovery/:id/:code", h.HandleRecoveryResolve)
	g.POST("/recovery/:id/:code", h.HandleRecoveryReset)

	g.GET("/confirm/:id/:code", h.HandleConfirm)
	g.POST("/users/:id/confirmation", h.HandleSendConfirmation)

	g.GET("/auth/:provider", h.HandleSocialRedirect)
	g.GET("/auth/:provider/callback", h.HandleSocialCallback)

	g.POST("/logout", h.HandleLogout)
	g.GET("/links", h.HandleListLinks)
	g.DELETE("/links/:provider", h.HandleUnlink)
}

// HandleRecoveryRequest accepts an email and reports only whether a message
// went out. The answer carries no hint of whether the account exists.
func (h *Handler) HandleRecoveryRequest(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil || body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	if _, err := h.recovery.Request(c.Request().Context(), body.Email); err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accepted": true})
}

// HandleRecoveryResolve checks a mailed reset link without consuming it, so
// the reset form can be shown.
func (h *Handler) HandleRecoveryResolve(c echo.Context) error {
	_, user, err := h.recovery.ResolveToken(c.Request().Context(), c.Param("id"), c.Param("code"))
	if err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "email": user.Email})
}

func (h *Handler) HandleRecoveryReset(c echo.Context) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}

	ctx := c.Request().Context()
	token, _, err := h.recovery.ResolveToken(ctx, c.Param("id"), c.Param("code"))
	if err != nil {
		return h.flowError(c, err)
	}
	if err := h.recovery.Reset(ctx, token, body.Password); err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reset": true})
}

func (h *Handler) HandleConfirm(c echo.Context) error {
	result, err := h.confirmation.Confirm(c.Request().Context(), c.Param("id"), c.Param("code"))
	if err != nil {
		return h.flowError(c, err)
	}
	if !result.Confirmed {
		return c.JSON(http.StatusGone, echo.Map{"error": "link is invalid or expired"})
	}
	if result.SessionToken != "" {
		h.setSessionCookie(c, result.SessionToken)
	}
	return c.JSON(http.StatusOK, echo.Map{"confirmed": true})
}

func (h *Handler) HandleSendConfirmation(c echo.Context) error {
	sent, err := h.confirmation.SendConfirmation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sent": sent})
}

// HandleSocialRedirect starts the provider round trip. The random state is
// kept in a short-lived cookie and checked on the callback.
func (h *Handler) HandleSocialRedirect(c echo.Context) error {
	state, err := provider.NewState()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	authURL, err := h.assertions.AuthURL(c.Param("provider"), state)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) HandleSocialCallback(c echo.Context) error {
	stateParam := c.QueryParam("state")
	cookie, err := c.Cookie(stateCookie)
	if err != nil || stateParam == "" || cookie.Value != stateParam {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state mismatch"})
	}
	h.clearCookie(c, stateCookie)

	ctx := c.Request().Context()
	assertion, err := h.assertions.Callback(ctx, c.Param("provider"), c.QueryParam("code"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider callback rejected"})
	}

	// Snapshot the caller's state here; the flow branches on it exactly once.
	currentUserID := h.currentUserID(c)
	result, err := h.social.HandleCallback(ctx, assertion, currentUserID == "", currentUserID)
	if err != nil {
		return h.flowError(c, err)
	}

	if result.Status == flow.StatusAuthenticated {
		h.setSessionCookie(c, result.SessionToken)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": string(result.Status), "user_id": result.UserID})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	cookie, err := c.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		_ = h.sessions.Logout(c.Request().Context(), cookie.Value)
	}
	h.clearCookie(c, sessionCookie)
	return c.JSON(http.StatusOK, echo.Map{"logged_out": true})
}

func (h *Handler) HandleListLinks(c echo.Context) error {
	userID := h.currentUserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	links, err := h.social.Links(c.Request().Context(), userID)
	if err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"links": links})
}

func (h *Handler) HandleUnlink(c echo.Context) error {
	userID := h.currentUserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if err := h.social.Disconnect(c.Request().Context(), userID, c.Param("provider")); err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unlinked": true})
}

// currentUserID resolves the session cookie to a user, or "" for a guest.
func (h *Handler) currentUserID(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sess, err := h.sessions.Validate(c.Request().Context(), cookie.Value)
	if err != nil {
		return ""
	}
	return sess.UserID
}

func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// flowError translates flow outcomes to transport responses. NotFound and
// Expired collapse into one generic message so callers cannot probe which
// part failed.
func (h *Handler) flowError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTokenExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "link is invalid or expired"})
	case errors.Is(err, domain.ErrTokenConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "this link was already used"})
	case errors.Is(err, domain.ErrLinkConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "this account is already linked to another user"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
