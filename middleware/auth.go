package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/services"
	"github.com/collegelover/college-lover-api/utils"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxUser   = "user"
)

// tokenFromRequest reads the session token from the Authorization header,
// then X-Auth-Token, then the token cookie.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := c.GetHeader("X-Auth-Token"); t != "" {
		return strings.TrimPrefix(t, "Bearer ")
	}
	if t, err := c.Cookie("token"); err == nil && t != "none" {
		return t
	}
	return ""
}

func authenticate(c *gin.Context, tokens *utils.TokenIssuer, db *gorm.DB) (*models.User, error) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil, utils.NewAuthError("Not authorized to access this route")
	}

	claims, err := tokens.VerifyToken(raw)
	if errors.Is(err, utils.ErrTokenExpired) {
		return nil, utils.NewAuthError("Token expired")
	}
	if err != nil {
		return nil, utils.NewAuthError("Not authorized to access this route")
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, utils.NewAuthError("Not authorized to access this route")
	}

	var user models.User
	err = db.WithContext(c.Request.Context()).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewAuthError("User no longer exists")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load session user")
	}
	return &user, nil
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ctxUserID, user.ID.String())
	c.Set(ctxRole, string(user.Role))
	c.Set(ctxUser, user)
}

// AuthMiddleware requires a valid session token for a user that still exists.
// The role comes from the stored account, not the token.
func AuthMiddleware(tokens *utils.TokenIssuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, tokens, db)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(tokens *utils.TokenIssuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := authenticate(c, tokens, db); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated account, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentActor returns the caller as a service actor.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{ID: user.ID, Role: user.Role}, true
}
