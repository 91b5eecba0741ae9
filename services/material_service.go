package services

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
	"github.com/collegelover/college-lover-api/ws"
)

// MaterialInput carries material fields from a request. Nil fields are left
// unchanged on update.
type MaterialInput struct {
	Title          *string
	Subjects       []string
	Semester       *string
	Department     *string
	Description    *string
	Type           *models.MaterialType
	Size           *string
	CourseCode     *string
	Credits        *int
	GradingPattern *int
	FileURL        *string
	Links          []models.MaterialLink
}

func (in MaterialInput) apply(m *models.Material) {
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Subjects != nil {
		m.SetSubjects(in.Subjects)
	}
	if in.Semester != nil {
		m.Semester = *in.Semester
	}
	if in.Department != nil {
		m.Department = *in.Department
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.Type != nil {
		m.Type = *in.Type
	}
	if in.Size != nil {
		m.Size = *in.Size
	}
	if in.CourseCode != nil {
		m.CourseCode = *in.CourseCode
	}
	if in.Credits != nil {
		m.Credits = *in.Credits
	}
	if in.GradingPattern != nil {
		m.GradingPattern = *in.GradingPattern
	}
	if in.FileURL != nil {
		m.FileURL = *in.FileURL
	}
	if in.Links != nil {
		m.Links = in.Links
	}
}

type MaterialService struct {
	db        *gorm.DB
	storage   utils.Storage
	mailer    utils.Mailer
	publisher Publisher
	log       *logrus.Logger
}

type MaterialOption func(*MaterialService)

func WithStorage(st utils.Storage) MaterialOption {
	return func(s *MaterialService) { s.storage = st }
}

func WithMailer(m utils.Mailer) MaterialOption {
	return func(s *MaterialService) { s.mailer = m }
}

func WithPublisher(p Publisher) MaterialOption {
	return func(s *MaterialService) { s.publisher = p }
}

func NewMaterialService(db *gorm.DB, log *logrus.Logger, opts ...MaterialOption) *MaterialService {
	s := &MaterialService{db: db, log: log, publisher: noopPublisher{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads a material with its uploader, likers and comment authors.
func (s *MaterialService) Get(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var m models.Material
	err := s.db.WithContext(ctx).
		Preload("Subjects", orderSubjects).
		Preload("UploadedBy").
		Preload("Likes").
		Preload("Comments", orderComments).
		Preload("Comments.User").
		First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Material not found")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load material")
	}
	return &m, nil
}

func (s *MaterialService) find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Material, error) {
	var m models.Material
	err := tx.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Material not found")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load material")
	}
	return &m, nil
}

// Create stores a new material owned by actor. Admin uploads are approved
// immediately.
func (s *MaterialService) Create(ctx context.Context, actor Actor, in MaterialInput) (*models.Material, error) {
	m := models.Material{
		ID:           uuid.New(),
		UploadedByID: actor.ID,
		Approved:     actor.IsAdmin(),
	}
	in.apply(&m)
	m.Normalize()
	if errs := m.Validate(); len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
			return err
		}
		return tx.Create(&m.Subjects).Error
	})
	if err != nil {
		return nil, utils.Internal(err, "could not create material")
	}

	s.log.WithFields(logrus.Fields{"material_id": m.ID, "user_id": actor.ID, "approved": m.Approved}).Info("material created")
	if m.Approved {
		s.publisher.Publish(m.ID.String(), ws.EventMaterialListChanged, nil)
	}
	return s.Get(ctx, m.ID)
}

// Update edits a material's fields. The uploader and approval flag never
// change here.
func (s *MaterialService) Update(ctx context.Context, actor Actor, id uuid.UUID, in MaterialInput) (*models.Material, error) {
	m, err := s.find(ctx, s.db.Preload("Subjects", orderSubjects), id)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, m.UploadedByID) {
		return nil, utils.NewForbiddenError("Not authorized to update this material")
	}

	in.apply(m)
	m.Normalize()
	if errs := m.Validate(); len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(m).Omit(clause.Associations, "uploaded_by_id", "approved", "downloads", "created_at").Save(m).Error; err != nil {
			return err
		}
		if in.Subjects == nil {
			return nil
		}
		if err := tx.Where("material_id = ?", m.ID).Delete(&models.MaterialSubject{}).Error; err != nil {
			return err
		}
		return tx.Create(&m.Subjects).Error
	})
	if err != nil {
		return nil, utils.Internal(err, "could not update material")
	}

	s.log.WithFields(logrus.Fields{"material_id": m.ID, "user_id": actor.ID}).Info("material updated")
	return s.Get(ctx, m.ID)
}

// Delete removes a material with its likes, comments, subjects and bookmark
// entries, then its stored file if it lives in our bucket.
func (s *MaterialService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	m, err := s.find(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !CanModify(actor, m.UploadedByID) {
		return utils.NewForbiddenError("Not authorized to delete this material")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteMaterials(tx, []uuid.UUID{m.ID})
	})
	if err != nil {
		return utils.Internal(err, "could not delete material")
	}

	s.removeObject(ctx, m.FileURL)
	s.log.WithFields(logrus.Fields{"material_id": m.ID, "user_id": actor.ID}).Info("material deleted")
	s.publisher.Publish(m.ID.String(), ws.EventMaterialListChanged, nil)
	return nil
}

// deleteMaterials removes materials and every row that references them.
func deleteMaterials(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	for _, model := range []interface{}{
		&models.MaterialLike{},
		&models.Comment{},
		&models.MaterialSubject{},
		&models.Bookmark{},
	} {
		if err := tx.Where("material_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Material{}).Error
}

func (s *MaterialService) removeObject(ctx context.Context, fileURL string) {
	if s.storage == nil || !s.storage.Owns(fileURL) {
		return
	}
	if err := s.storage.Delete(ctx, fileURL); err != nil {
		s.log.WithError(err).WithField("url", fileURL).Warn("could not remove stored file")
	}
}

// SetApproval sets the moderation flag, defaulting to approved.
func (s *MaterialService) SetApproval(ctx context.Context, actor Actor, id uuid.UUID, approved *bool) (*models.Material, error) {
	if !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("User role %s is not authorized to access this route", actor.Role)
	}
	m, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	flag := true
	if approved != nil {
		flag = *approved
	}
	if err := s.db.WithContext(ctx).Model(m).Update("approved", flag).Error; err != nil {
		return nil, utils.Internal(err, "could not update approval")
	}

	s.log.WithFields(logrus.Fields{"material_id": m.ID, "approved": flag, "admin_id": actor.ID}).Info("material moderated")
	s.publisher.Publish(m.ID.String(), ws.EventMaterialListChanged, nil)

	full, err := s.Get(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	s.notifyAuthor(full)
	return full, nil
}

func (s *MaterialService) notifyAuthor(m *models.Material) {
	if s.mailer == nil || m.UploadedBy.Email == "" {
		return
	}
	status := "approved"
	if !m.Approved {
		status = "rejected"
	}
	subject := fmt.Sprintf("Your material was %s", status)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your material <b>%s</b> was %s by a moderator.</p>",
		html.EscapeString(m.UploadedBy.Name), html.EscapeString(m.Title), status)
	to := m.UploadedBy.Email

	go func() {
		if err := s.mailer.SendEmail(to, subject, body); err != nil {
			s.log.WithError(err).WithField("to", to).Warn("approval email failed")
		}
	}()
}
