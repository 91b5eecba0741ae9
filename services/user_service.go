package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

const DefaultUserLimit = 20

type UserQuery struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

type UserPage struct {
	Page
	Users []models.UserView `json:"users"`
}

// UserService is the admin view over accounts.
type UserService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewUserService(db *gorm.DB, log *logrus.Logger) *UserService {
	return &UserService{db: db, log: log}
}

func (s *UserService) filtered(ctx context.Context, q UserQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.User{})
	if term := strings.TrimSpace(q.Search); term != "" {
		p := likePattern(term)
		db = db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, p, p)
	}
	if q.Role != "" {
		db = db.Where("role = ?", q.Role)
	}
	return db
}

func (s *UserService) List(ctx context.Context, q UserQuery) (*UserPage, error) {
	page, limit := clampPage(q.Page, q.Limit, DefaultUserLimit)

	var total int64
	if err := s.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, utils.Internal(err, "could not count users")
	}

	offset, found := pageOffset(page, limit, total)
	if !found {
		return &UserPage{Page: newPage(0, total, page, limit), Users: []models.UserView{}}, nil
	}

	var users []models.User
	err := s.filtered(ctx, q).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, utils.Internal(err, "could not list users")
	}

	views := make([]models.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].Public())
	}
	return &UserPage{Page: newPage(len(users), total, page, limit), Users: views}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load user")
	}
	return &user, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, utils.NewValidationError("Invalid role")
	}

	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, utils.Internal(err, "could not update role")
	}
	user.Role = role
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user role changed")
	return user, nil
}

// Delete removes an account with its bookmarks, likes, comments and
// materials. An account cannot delete itself.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return utils.NewPolicyError("Cannot delete yourself")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []uuid.UUID
		if err := tx.Model(&models.Material{}).Where("uploaded_by_id = ?", user.ID).Pluck("id", &owned).Error; err != nil {
			return err
		}
		if err := deleteMaterials(tx, owned); err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.Bookmark{},
			&models.MaterialLike{},
			&models.Comment{},
		} {
			if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return utils.Internal(err, "could not delete user")
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "admin_id": actor.ID}).Info("user deleted")
	return nil
}
