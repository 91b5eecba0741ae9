package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/services"
	"github.com/collegelover/college-lover-api/utils"
)

type MaterialController struct {
	materials *services.MaterialService
	uploads   *services.UploadService
}

func NewMaterialController(materials *services.MaterialService, uploads *services.UploadService) *MaterialController {
	return &MaterialController{materials: materials, uploads: uploads}
}

type MaterialInput struct {
	Title          *string               `json:"title" binding:"omitempty,max=200"`
	Subject        stringList            `json:"subject" binding:"omitempty,dive,max=100"`
	Semester       flexString            `json:"semester"`
	Department     *string               `json:"department" binding:"omitempty,max=50"`
	Description    *string               `json:"description" binding:"omitempty,max=1000"`
	Type           *models.MaterialType  `json:"type" binding:"omitempty,oneof=PDF PPT DOCX 'Lab Manual' Textbook Notes Link"`
	Size           *string               `json:"size" binding:"omitempty,max=50"`
	CourseCode     *string               `json:"courseCode" binding:"omitempty,max=50"`
	Credits        flexInt               `json:"credits"`
	GradingPattern flexInt               `json:"gradingPattern"`
	FileURL        *string               `json:"fileUrl"`
	Links          []models.MaterialLink `json:"links"`
}

func (in MaterialInput) toService() services.MaterialInput {
	return services.MaterialInput{
		Title:          in.Title,
		Subjects:       in.Subject,
		Semester:       in.Semester.Value,
		Department:     in.Department,
		Description:    in.Description,
		Type:           in.Type,
		Size:           in.Size,
		CourseCode:     in.CourseCode,
		Credits:        in.Credits.Value,
		GradingPattern: in.GradingPattern.Value,
		FileURL:        in.FileURL,
		Links:          in.Links,
	}
}

// List handles GET /materials.
func (mc *MaterialController) List(c *gin.Context) {
	q := services.MaterialQuery{
		Search:     c.Query("search"),
		Subject:    c.Query("subject"),
		Semester:   c.Query("semester"),
		Department: c.Query("department"),
		Type:       c.Query("type"),
		Sort:       c.Query("sort"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	}
	if raw, found := c.GetQuery("approved"); found {
		approved, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			c.Error(utils.NewValidationError("approved must be true or false"))
			return
		}
		q.Approved = &approved
	}

	page, err := mc.materials.List(c.Request.Context(), q)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count":       page.Count,
		"total":       page.Total,
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
		"materials":   page.Materials,
	})
}

func (mc *MaterialController) Get(c *gin.Context) {
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	m, err := mc.materials.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"material": m.View()})
}

func (mc *MaterialController) Create(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var input MaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	m, err := mc.materials.Create(c.Request.Context(), a, input.toService())
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"material": m.View()})
}

func (mc *MaterialController) Update(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	var input MaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(err)
		return
	}

	m, err := mc.materials.Update(c.Request.Context(), a, id, input.toService())
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"material": m.View()})
}

func (mc *MaterialController) Delete(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	if err := mc.materials.Delete(c.Request.Context(), a, id); err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Material deleted successfully"})
}

type ApproveInput struct {
	Approved *bool `json:"approved"`
}

func (mc *MaterialController) Approve(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, found := paramID(c, "id", "Material")
	if !found {
		return
	}
	var input ApproveInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.Error(err)
		return
	}

	m, err := mc.materials.SetApproval(c.Request.Context(), a, id, input.Approved)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"material": m.View()})
}

// Upload handles POST /materials/upload: a multipart "file" is stored and its
// public URL returned for use in a following create.
func (mc *MaterialController) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.Error(utils.NewValidationError("Please upload a file"))
		return
	}
	file, err := mc.uploads.Upload(c.Request.Context(), header)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"file": file})
}

func (mc *MaterialController) Stats(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	stats, err := mc.materials.Stats(c.Request.Context(), a)
	if err != nil {
		c.Error(err)
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": stats})
}
