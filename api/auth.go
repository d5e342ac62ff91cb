package api

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bidhouse/market"
	"bidhouse/models"
)

const actorContextKey = "bidhouse.actor"

// Claims is the payload of an access token. The subject is the user ID.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParsePrivateKey decodes a base64 encoded ed25519 seed or full private key.
func ParsePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("fail to decode private key, err=%w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("fail to hash password, err=%w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// issueToken signs an access token for user and returns it with its claims.
func (impl *ServerImpl) issueToken(user *models.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(impl.config.Auth.ExpireDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    impl.config.Auth.Issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
			Audience:  []string{impl.config.Auth.Audience},
		},
	}
	token, err := jwt.NewWithClaims(&jwt.SigningMethodEd25519{}, claims).SignedString(impl.config.Auth.PrivateKey)
	if err != nil {
		return "", nil, fmt.Errorf("fail to sign token, err=%w", err)
	}
	return token, claims, nil
}

func (impl *ServerImpl) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return impl.config.Auth.PrivateKey.Public(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(impl.config.Auth.Issuer),
		jwt.WithAudience(impl.config.Auth.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// rawToken reads the bearer token, falling back to the session cookie.
func (impl *ServerImpl) rawToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	cookie, err := c.Cookie(impl.config.Auth.CookieName)
	if err != nil {
		return ""
	}
	return cookie
}

// authenticate resolves the caller. It returns errUnauthorized for a missing or invalid token.
func (impl *ServerImpl) authenticate(c *gin.Context) (*models.User, *Claims, error) {
	raw := impl.rawToken(c)
	if raw == "" {
		return nil, nil, errUnauthorized
	}
	claims, err := impl.parseToken(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if impl.revocations != nil {
		revoked, err := impl.revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("fail to check token revocation, err=%w", err)
		}
		if revoked {
			return nil, nil, fmt.Errorf("%w: token has been revoked", errUnauthorized)
		}
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: malformed subject", errUnauthorized)
	}
	var user models.User
	if err := impl.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown user", errUnauthorized)
		}
		return nil, nil, fmt.Errorf("fail to load user, err=%w", err)
	}
	return &user, claims, nil
}

// requireAuth rejects anonymous requests and stores the actor for the handlers.
func (impl *ServerImpl) requireAuth(c *gin.Context) {
	const op = "Authenticate"
	user, claims, err := impl.authenticate(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.Set(actorContextKey, market.Actor{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin})
	c.Set("claims", claims)
	c.Next()
}

func actorOf(c *gin.Context) market.Actor {
	return c.MustGet(actorContextKey).(market.Actor)
}

func (impl *ServerImpl) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(impl.config.Auth.CookieName, token, maxAge, "/", "", impl.config.Auth.SecureCookie, true)
}

// revoke remembers the token ID until the token would expire.
func (impl *ServerImpl) revoke(c *gin.Context, claims *Claims) error {
	if impl.revocations == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := impl.revocations.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
		return fmt.Errorf("fail to revoke token %s, err=%w", claims.ID, err)
	}
	return nil
}
