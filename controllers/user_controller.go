package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) List(c *gin.Context) {
	page, err := uc.users.List(c.Request.Context(), services.UserQuery{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count":       page.Count,
		"total":       page.Total,
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
		"users":       page.Users,
	})
}

func (uc *UserController) Get(c *gin.Context) {
	id, found := paramID(c, "id", "User")
	if !found {
		return
	}
	user, err := uc.users.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user.Public()})
}

type RoleInput struct {
	Role models.UserRole `json:"role" binding:"required,oneof=student admin"`
}

func (uc *UserController) UpdateRole(c *gin.Context) {
	id, found := paramID(c, "id", "User")
	if !found {
		return
	}
	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}
	user, err := uc.users.UpdateRole(c.Request.Context(), id, input.Role)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user.Public()})
}

func (uc *UserController) Delete(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "User")
	if !found {
		return
	}
	if err := uc.users.Delete(c.Request.Context(), a, id); err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}
