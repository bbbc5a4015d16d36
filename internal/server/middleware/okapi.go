package middleware

import (
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	HeaderOkapiURL       = "X-Okapi-Url"
	HeaderOkapiTenant    = "X-Okapi-Tenant"
	HeaderOkapiToken     = "X-Okapi-Token"
	HeaderOkapiUserID    = "X-Okapi-User-Id"
	HeaderOkapiRequestID = "X-Okapi-Request-Id"
)

// OkapiMiddleware builds the collection.Context of the request from the Okapi
// headers. Okapi validates the token before the request reaches us, so the
// token is only decoded to find the user id when the header does not carry it.
func OkapiMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cc := c.(*AppContext)
		h := c.Request().Header

		tenant := strings.TrimSpace(h.Get(HeaderOkapiTenant))
		if tenant == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing " + HeaderOkapiTenant + " header"})
		}

		okapiURL := h.Get(HeaderOkapiURL)
		if okapiURL == "" {
			okapiURL = cc.App.DefaultOkapiURL
		}
		if okapiURL == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing " + HeaderOkapiURL + " header"})
		}

		token := h.Get(HeaderOkapiToken)
		userID := h.Get(HeaderOkapiUserID)
		if userID == "" && token != "" {
			userID = userIDFromToken(token)
		}

		requestID := h.Get(HeaderOkapiRequestID)
		if requestID == "" {
			requestID = util.NewCorrelationID()
		}

		cc.Okapi = collection.Context{
			OkapiURL:  okapiURL,
			Tenant:    tenant,
			Token:     token,
			UserID:    userID,
			RequestID: requestID,
		}
		return next(cc)
	}
}

func userIDFromToken(token string) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	if id, ok := claims["user_id"].(string); ok {
		return id
	}
	return ""
}
