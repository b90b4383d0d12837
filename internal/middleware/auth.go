package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/mantonx/moviedb/internal/api"
	"github.com/mantonx/moviedb/internal/config"
	"github.com/mantonx/moviedb/internal/types"
)

// SubjectKey is the gin context key holding the token subject of an
// authenticated write.
const SubjectKey = "auth_subject"

// SecurityFunc returns the current security settings. RequireWriteAccess calls
// it on every request so that a config reload takes effect immediately.
type SecurityFunc func() config.SecurityConfig

// JWTVerifier checks HS256 bearer tokens
type JWTVerifier struct {
	Secret []byte
}

// Parse validates the signature and registered claims of tokenString
func (v JWTVerifier) Parse(tokenString string) (*jwt.RegisteredClaims, error) {
	if len(v.Secret) == 0 {
		return nil, errors.New("missing jwt secret")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireWriteAccess guards mutating routes. With anonymous writes allowed
// it lets everything through; otherwise it demands a valid bearer token.
func RequireWriteAccess(security SecurityFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sec := security()
		if sec.AllowAnonymousWrites {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			api.RespondWithError(c, types.NewUnauthorizedError("authentication credentials were not provided"))
			return
		}

		claims, err := JWTVerifier{Secret: []byte(sec.JWTSecret)}.Parse(token)
		if err != nil {
			api.RespondWithError(c, types.NewUnauthorizedError("invalid or expired token").
				WithContext("reason", err.Error()))
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// ConfigSecurity reads the security section of the global configuration.
func ConfigSecurity() config.SecurityConfig {
	return config.Get().Security
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
