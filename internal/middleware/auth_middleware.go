package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/pkg/util"
)

// Context keys for the authenticated account
const (
	IdentityKey  = "identity"
	TokenKey     = "access_token"
	AccountIDKey = "account_id"
	RoleKey      = "role"
)

// TokenVerifier validates a bearer token, including revocation
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*util.Claims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to ?token= for websocket upgrades
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authenticate validates the token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			if c.GetHeader("Authorization") != "" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "認証形式が正しくありません")
			} else {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "ログインが必要です")
			}
			c.Abort()
			return
		}

		claims, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case stderrors.Is(err, util.ErrExpiredToken):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "ログインの有効期限が切れました。再度ログインしてください")
			case stderrors.Is(err, util.ErrRevokedToken):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "ログアウト済みです。再度ログインしてください")
			case stderrors.Is(err, util.ErrInvalidToken):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "認証トークンが無効です")
			default:
				// Blacklist backend unreachable
				errors.RespondWithError(c, http.StatusServiceUnavailable, errors.InternalServerError, "認証サービスに接続できません")
			}
			c.Abort()
			return
		}

		if claims.TokenType != "" && claims.TokenType != util.TokenTypeAccess {
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "認証トークンが無効です")
			c.Abort()
			return
		}

		identity := claims.Identity()
		c.Set(IdentityKey, identity)
		c.Set(TokenKey, token)
		c.Set(AccountIDKey, identity.AccountID)
		c.Set(RoleKey, identity.Role)

		log.Debug("Account authenticated", map[string]interface{}{
			"account_id":   identity.AccountID,
			"account_type": identity.AccountType,
			"role":         identity.Role,
		})

		c.Next()
	}
}

// RequireRole allows only accounts whose role is one of roles
func (m *AuthMiddleware) RequireRole(code string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		identity, ok := GetIdentity(c)
		if !ok {
			errors.Unauthorized(c, "ログインが必要です")
			c.Abort()
			return
		}

		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}

		log.Warn("Insufficient permissions", map[string]interface{}{
			"account_id":     identity.AccountID,
			"role":           identity.Role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.RespondWithError(c, http.StatusForbidden, code, "この操作を行う権限がありません")
		c.Abort()
	}
}

// GetIdentity extracts the authenticated account from context
func GetIdentity(c *gin.Context) (util.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return util.Identity{}, false
	}
	identity, ok := v.(util.Identity)
	return identity, ok
}

// GetToken returns the raw bearer token of the request
func GetToken(c *gin.Context) (string, bool) {
	token := c.GetString(TokenKey)
	return token, token != ""
}
