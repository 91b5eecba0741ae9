package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

const DefaultMaterialLimit = 12

// MaterialQuery holds the listing filters. Approved nil means approved only.
type MaterialQuery struct {
	Search     string
	Subject    string
	Semester   string
	Department string
	Type       string
	Sort       string
	Page       int
	Limit      int
	Approved   *bool
}

type MaterialPage struct {
	Page
	Materials []models.MaterialView `json:"materials"`
}

var materialSorts = map[string]string{
	"newest":    "created_at DESC",
	"oldest":    "created_at ASC",
	"title":     "title ASC",
	"downloads": "downloads DESC",
	"popular":   "downloads DESC, created_at DESC",
}

func sortOrder(key string) string {
	if order, ok := materialSorts[key]; ok {
		return order
	}
	return materialSorts["newest"]
}

func orderSubjects(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderComments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// likePattern builds a case-insensitive substring pattern, escaping LIKE
// wildcards in the user's term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

func (s *MaterialService) filtered(ctx context.Context, q MaterialQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.Material{})

	approved := true
	if q.Approved != nil {
		approved = *q.Approved
	}
	db = db.Where("materials.approved = ?", approved)

	if term := strings.TrimSpace(q.Search); term != "" {
		p := likePattern(term)
		db = db.Where(
			`(LOWER(materials.title) LIKE ? ESCAPE '\' OR LOWER(materials.description) LIKE ? ESCAPE '\' OR LOWER(materials.semester) LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM material_subjects ms WHERE ms.material_id = materials.id AND LOWER(ms.name) LIKE ? ESCAPE '\'))`,
			p, p, p, p,
		)
	}
	if subject := strings.TrimSpace(q.Subject); subject != "" {
		db = db.Where("EXISTS (SELECT 1 FROM material_subjects ms WHERE ms.material_id = materials.id AND ms.name = ?)", subject)
	}
	if semester := strings.TrimSpace(q.Semester); semester != "" {
		db = db.Where(`LOWER(materials.semester) LIKE ? ESCAPE '\'`, likePattern(semester))
	}
	if q.Department != "" {
		db = db.Where("materials.department = ?", q.Department)
	}
	if q.Type != "" {
		db = db.Where("materials.type = ?", q.Type)
	}
	return db
}

// List returns one page of materials matching q.
func (s *MaterialService) List(ctx context.Context, q MaterialQuery) (*MaterialPage, error) {
	page, limit := clampPage(q.Page, q.Limit, DefaultMaterialLimit)

	var total int64
	if err := s.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, utils.Internal(err, "could not count materials")
	}

	offset, found := pageOffset(page, limit, total)
	if !found {
		return &MaterialPage{
			Page:      newPage(0, total, page, limit),
			Materials: []models.MaterialView{},
		}, nil
	}

	var materials []models.Material
	err := s.filtered(ctx, q).
		Preload("Subjects", orderSubjects).
		Preload("UploadedBy").
		Preload("Likes").
		Preload("Comments", orderComments).
		Preload("Comments.User").
		Order(sortOrder(q.Sort)).
		Offset(offset).
		Limit(limit).
		Find(&materials).Error
	if err != nil {
		return nil, utils.Internal(err, "could not list materials")
	}

	return &MaterialPage{
		Page:      newPage(len(materials), total, page, limit),
		Materials: models.MaterialViews(materials),
	}, nil
}
