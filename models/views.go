package models

import (
	"time"

	"github.com/google/uuid"
)

// UserView is the public projection of an account. It never carries the
// password hash or the external identity ids.
type UserView struct {
	ID           uuid.UUID      `json:"_id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         UserRole       `json:"role"`
	Avatar       string         `json:"avatar"`
	Semester     *int           `json:"semester"`
	AuthProvider AuthProvider   `json:"authProvider"`
	CreatedAt    time.Time      `json:"createdAt"`
	Bookmarks    []MaterialView `json:"bookmarks,omitempty"`
}

func (u *User) Public() UserView {
	return UserView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Avatar:       u.Avatar,
		Semester:     u.Semester,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
	}
}

type AuthorView struct {
	ID     uuid.UUID `json:"_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Avatar string    `json:"avatar"`
}

type CommentView struct {
	ID        uuid.UUID  `json:"_id"`
	User      AuthorView `json:"user"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (c *Comment) View() CommentView {
	return CommentView{
		ID:        c.ID,
		User:      AuthorView{ID: c.UserID, Name: c.User.Name, Avatar: c.User.Avatar},
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func CommentViews(comments []Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, comments[i].View())
	}
	return views
}

type MaterialView struct {
	ID             uuid.UUID      `json:"_id"`
	Title          string         `json:"title"`
	Subject        []string       `json:"subject"`
	Semester       string         `json:"semester"`
	Department     string         `json:"department"`
	Description    string         `json:"description"`
	Type           MaterialType   `json:"type"`
	Size           string         `json:"size"`
	CourseCode     string         `json:"courseCode"`
	Credits        int            `json:"credits"`
	GradingPattern int            `json:"gradingPattern"`
	FileURL        string         `json:"fileUrl"`
	Links          []MaterialLink `json:"links"`
	UploadedBy     AuthorView     `json:"uploadedBy"`
	Approved       bool           `json:"approved"`
	Downloads      int64          `json:"downloads"`
	Likes          []uuid.UUID    `json:"likes"`
	LikeCount      int            `json:"likeCount"`
	Comments       []CommentView  `json:"comments"`
	CommentCount   int            `json:"commentCount"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// View builds the response shape from whatever relations were preloaded.
func (m *Material) View() MaterialView {
	likes := make([]uuid.UUID, 0, len(m.Likes))
	for _, l := range m.Likes {
		likes = append(likes, l.UserID)
	}
	links := []MaterialLink(m.Links)
	if links == nil {
		links = []MaterialLink{}
	}
	return MaterialView{
		ID:             m.ID,
		Title:          m.Title,
		Subject:        m.SubjectNames(),
		Semester:       m.Semester,
		Department:     m.Department,
		Description:    m.Description,
		Type:           m.Type,
		Size:           m.Size,
		CourseCode:     m.CourseCode,
		Credits:        m.Credits,
		GradingPattern: m.GradingPattern,
		FileURL:        m.FileURL,
		Links:          links,
		UploadedBy: AuthorView{
			ID:     m.UploadedByID,
			Name:   m.UploadedBy.Name,
			Email:  m.UploadedBy.Email,
			Avatar: m.UploadedBy.Avatar,
		},
		Approved:     m.Approved,
		Downloads:    m.Downloads,
		Likes:        likes,
		LikeCount:    m.LikeCount(),
		Comments:     CommentViews(m.Comments),
		CommentCount: m.CommentCount(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func MaterialViews(materials []Material) []MaterialView {
	views := make([]MaterialView, 0, len(materials))
	for i := range materials {
		views = append(views, materials[i].View())
	}
	return views
}
