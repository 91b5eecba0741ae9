package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/collegelover/college-lover-api/middleware"
	"github.com/collegelover/college-lover-api/services"
	"github.com/collegelover/college-lover-api/utils"
)

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type AuthController struct {
	auth   *services.AuthService
	cookie CookieOptions
}

func NewAuthController(auth *services.AuthService, cookie CookieOptions) *AuthController {
	return &AuthController{auth: auth, cookie: cookie}
}

// sendSession sets the session cookie and writes the token with the user.
func (ac *AuthController) sendSession(c *gin.Context, status int, session *services.Session) {
	if ac.cookie.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie("token", session.Token, int(ac.cookie.TTL.Seconds()), "/", "", ac.cookie.Secure, true)
	ok(c, status, gin.H{"token": session.Token, "user": session.User})
}

type RegisterInput struct {
	Name     string  `json:"name" binding:"required,min=2,max=50"`
	Email    string  `json:"email" binding:"required,email,max=150"`
	Password string  `json:"password" binding:"required,min=6"`
	Semester flexInt `json:"semester"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	session, err := ac.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Semester: input.Semester.Value,
	})
	if err != nil {
		c.Error(err)
		return
	}
	ac.sendSession(c, http.StatusCreated, session)
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	session, err := ac.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		c.Error(err)
		return
	}
	ac.sendSession(c, http.StatusOK, session)
}

type SocialLoginInput struct {
	IDToken string `json:"idToken" binding:"required"`
}

func (ac *AuthController) SocialLogin(c *gin.Context) {
	var input SocialLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	session, err := ac.auth.SocialLogin(c.Request.Context(), input.IDToken)
	if err != nil {
		c.Error(err)
		return
	}
	ac.sendSession(c, http.StatusOK, session)
}

func (ac *AuthController) Me(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	user, err := ac.auth.Me(c.Request.Context(), a.ID)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

// Logout replaces the cookie with a short-lived placeholder. Issued tokens
// stay valid until they expire.
func (ac *AuthController) Logout(c *gin.Context) {
	c.SetCookie("token", "none", 5, "/", "", ac.cookie.Secure, true)
	ok(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type UpdateProfileInput struct {
	Name     *string `json:"name" binding:"omitempty,max=50"`
	Email    *string `json:"email" binding:"omitempty,max=150"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=2048"`
	Semester flexInt `json:"semester"`
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	user, found := middleware.CurrentUser(c)
	if !found {
		c.Error(utils.NewAuthError("Not authorized to access this route"))
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	view, err := ac.auth.UpdateProfile(c.Request.Context(), user.ID, services.ProfileInput{
		Name:     input.Name,
		Email:    input.Email,
		Avatar:   input.Avatar,
		Semester: input.Semester.Value,
	})
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": view})
}

type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func (ac *AuthController) UpdatePassword(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}

	var input UpdatePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	session, err := ac.auth.UpdatePassword(c.Request.Context(), a.ID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		c.Error(err)
		return
	}
	ac.sendSession(c, http.StatusOK, session)
}
