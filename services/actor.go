package services

import (
	"math"

	"github.com/google/uuid"

	"github.com/collegelover/college-lover-api/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanModify reports whether the actor owns the resource or is an admin.
func CanModify(actor Actor, ownerID uuid.UUID) bool {
	return actor.IsAdmin() || actor.ID == ownerID
}

// Publisher receives engagement events for live subscribers.
type Publisher interface {
	Publish(materialID, eventType string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

// Page is the pagination envelope shared by list operations.
type Page struct {
	Count       int   `json:"count"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

func newPage(count int, total int64, page, limit int) Page {
	return Page{
		Count:       count,
		Total:       total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}
}

func totalPages(total int64, limit int) int64 {
	n := total / int64(limit)
	if total%int64(limit) != 0 {
		n++
	}
	return n
}

// pageOffset returns the number of rows before page. It reports false when
// the page starts past the last of total rows.
func pageOffset(page, limit int, total int64) (int, bool) {
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	offset := (page - 1) * limit
	if int64(offset) >= total {
		return 0, false
	}
	return offset, true
}

// clampPage coerces page and limit to integers >= 1.
func clampPage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}
