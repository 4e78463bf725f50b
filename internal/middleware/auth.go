package middleware

import (
	"net/http"
	"strings"

	"distriflow/internal/apierror"
	"distriflow/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	TenantKey = "tenant_id"
)

// JWTClaims are the custom claims embedded in every access token. TenantID is
// bound at login and is the only tenant the token can ever act on.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route and attaches
// the claims plus the resolved tenant id to the request context. A request
// without a tenant is rejected even when the signature verifies.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("Token invalido o expirado"))
			return
		}

		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("Token sin tenant"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TenantKey, tenantID)
		c.Next()
	}
}

// RequirePermission gates a route on a (module, action) pair of the static
// matrix. It runs after JWTAuth, so an unauthenticated request never reaches
// the 403 path.
func RequirePermission(module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("Autenticacion requerida"))
			return
		}
		if !permission.Has(claims.Role, module, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.Unauthorized("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// WebhookAuth guards machine endpoints with a static bearer token. The tenant
// is resolved separately by the handler from the payload's store domain.
func WebhookAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token == "" || header != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("Token de webhook invalido"))
			return
		}
		c.Next()
	}
}

// GetClaims retrieves typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetTenantID retrieves the tenant bound to the request.
func GetTenantID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(TenantKey).(uuid.UUID)
	return id
}

// GetUserID parses the caller's user id from the claims.
func GetUserID(c *gin.Context) uuid.UUID {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil
	}
	id, _ := uuid.Parse(claims.UserID)
	return id
}
