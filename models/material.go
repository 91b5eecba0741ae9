package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MaterialType string

const (
	TypePDF       MaterialType = "PDF"
	TypePPT       MaterialType = "PPT"
	TypeDOCX      MaterialType = "DOCX"
	TypeLabManual MaterialType = "Lab Manual"
	TypeTextbook  MaterialType = "Textbook"
	TypeNotes     MaterialType = "Notes"
	TypeLink      MaterialType = "Link"
)

var MaterialTypes = []MaterialType{TypePDF, TypePPT, TypeDOCX, TypeLabManual, TypeTextbook, TypeNotes, TypeLink}

func (t MaterialType) Valid() bool {
	for _, v := range MaterialTypes {
		if v == t {
			return true
		}
	}
	return false
}

const DefaultDepartment = "General"

var Departments = []string{
	"Computer Science",
	"CSIT",
	"AI & ML",
	"Data analytics",
	"IoT",
	DefaultDepartment,
}

func IsDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}

// MaterialLink is a named alternate location for a material.
type MaterialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Material struct {
	ID             uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"_id"`
	Title          string                           `gorm:"size:200;not null" json:"title"`
	Semester       string                           `gorm:"size:50;not null;index" json:"semester"`
	Department     string                           `gorm:"size:50;not null;default:'General';index" json:"department"`
	Description    string                           `gorm:"size:1000" json:"description"`
	Type           MaterialType                     `gorm:"size:20;not null;default:'PDF'" json:"type"`
	Size           string                           `gorm:"size:50;default:'N/A'" json:"size"`
	CourseCode     string                           `gorm:"size:50" json:"courseCode"`
	Credits        int                              `gorm:"not null;default:0" json:"credits"`
	GradingPattern int                              `gorm:"not null;default:0" json:"gradingPattern"`
	FileURL        string                           `gorm:"type:text;not null" json:"fileUrl"`
	Links          datatypes.JSONSlice[MaterialLink] `json:"links"`
	UploadedByID   uuid.UUID                        `gorm:"type:uuid;not null;index" json:"uploadedById"`
	Approved       bool                             `gorm:"not null;default:false;index" json:"approved"`
	Downloads      int64                            `gorm:"not null;default:0" json:"downloads"`
	CreatedAt      time.Time                        `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time                        `gorm:"autoUpdateTime" json:"updatedAt"`

	UploadedBy User              `gorm:"foreignKey:UploadedByID;constraint:OnDelete:CASCADE;" json:"-"`
	Subjects   []MaterialSubject `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Likes      []MaterialLike    `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Comments   []Comment         `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// MaterialSubject is one subject tag. Position keeps the order the uploader
// typed them in.
type MaterialSubject struct {
	MaterialID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"size:100;primaryKey;index"`
	Position   int       `gorm:"not null;default:0"`
}

// MaterialLike records that an account likes a material. One row per pair.
type MaterialLike struct {
	MaterialID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	User User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Material) LikeCount() int {
	return len(m.Likes)
}

func (m *Material) CommentCount() int {
	return len(m.Comments)
}

func (m *Material) SubjectNames() []string {
	names := make([]string, 0, len(m.Subjects))
	for _, s := range m.Subjects {
		names = append(names, s.Name)
	}
	return names
}

// SetSubjects replaces the tag set, dropping blanks and repeats.
func (m *Material) SetSubjects(names []string) {
	seen := make(map[string]bool, len(names))
	subjects := make([]MaterialSubject, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		subjects = append(subjects, MaterialSubject{MaterialID: m.ID, Name: n, Position: len(subjects)})
	}
	m.Subjects = subjects
}

func (m *Material) LikedBy(userID uuid.UUID) bool {
	for _, l := range m.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

func (m *Material) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Semester = strings.TrimSpace(m.Semester)
	m.Department = strings.TrimSpace(m.Department)
	m.Description = strings.TrimSpace(m.Description)
	m.FileURL = strings.TrimSpace(m.FileURL)
	m.CourseCode = strings.TrimSpace(m.CourseCode)
	if m.Department == "" {
		m.Department = DefaultDepartment
	}
	if m.Type == "" {
		m.Type = TypePDF
	}
	if strings.TrimSpace(m.Size) == "" {
		m.Size = "N/A"
	}
}

func (m *Material) Validate() ValidationErrors {
	var errs ValidationErrors

	switch n := runeLen(m.Title); {
	case n == 0:
		errs.Add("title", "Please provide a title")
	case n > 200:
		errs.Add("title", "Title cannot exceed 200 characters")
	}
	if len(m.Subjects) == 0 {
		errs.Add("subject", "At least one subject/department is required")
	}
	for _, s := range m.Subjects {
		if runeLen(s.Name) > 100 {
			errs.Add("subject", "Subject cannot exceed 100 characters")
			break
		}
	}
	switch n := runeLen(m.Semester); {
	case n == 0:
		errs.Add("semester", "Please provide the semester")
	case n > 50:
		errs.Add("semester", "Semester cannot exceed 50 characters")
	}
	if runeLen(m.CourseCode) > 50 {
		errs.Add("courseCode", "Course code cannot exceed 50 characters")
	}
	if runeLen(m.Size) > 50 {
		errs.Add("size", "Size cannot exceed 50 characters")
	}
	if !IsDepartment(m.Department) {
		errs.Add("department", "Invalid department")
	}
	if runeLen(m.Description) > 1000 {
		errs.Add("description", "Description cannot exceed 1000 characters")
	}
	if !m.Type.Valid() {
		errs.Add("type", "Invalid material type")
	}
	if m.FileURL == "" {
		errs.Add("fileUrl", "Please provide a file URL or link")
	}
	if m.Credits < 0 {
		errs.Add("credits", "Credits cannot be negative")
	}
	if m.Downloads < 0 {
		errs.Add("downloads", "Downloads cannot be negative")
	}
	if m.UploadedByID == uuid.Nil {
		errs.Add("uploadedBy", "Material must have an uploader")
	}
	return errs
}
