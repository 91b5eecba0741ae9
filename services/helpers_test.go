package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/config"
	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{Env: "test", Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}}
	db, err := config.InitDB(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { config.CloseDB(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@uni.edu", name),
		Password:     hash,
		Role:         role,
		AuthProvider: models.ProviderLocal,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type materialSeed struct {
	title      string
	subjects   []string
	semester   string
	department string
	mtype      models.MaterialType
	approved   bool
	downloads  int64
	createdAt  time.Time
	owner      uuid.UUID
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func seedMaterial(t *testing.T, db *gorm.DB, s materialSeed) *models.Material {
	t.Helper()
	if s.subjects == nil {
		s.subjects = []string{"General"}
	}
	if s.semester == "" {
		s.semester = "1st Sem"
	}
	if s.department == "" {
		s.department = models.DefaultDepartment
	}
	if s.mtype == "" {
		s.mtype = models.TypePDF
	}
	if s.createdAt.IsZero() {
		s.createdAt = baseTime
	}
	m := &models.Material{
		ID:           uuid.New(),
		Title:        s.title,
		Semester:     s.semester,
		Department:   s.department,
		Type:         s.mtype,
		Size:         "1 MB",
		FileURL:      "https://example.com/" + s.title,
		UploadedByID: s.owner,
		Approved:     s.approved,
		Downloads:    s.downloads,
		CreatedAt:    s.createdAt,
	}
	m.SetSubjects(s.subjects)
	require.NoError(t, db.Omit("Subjects", "UploadedBy", "Likes", "Comments").Create(m).Error)
	require.NoError(t, db.Create(&m.Subjects).Error)
	return m
}

type publishedEvent struct {
	materialID string
	eventType  string
	data       interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(materialID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{materialID, eventType, data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

type fakeVerifier struct {
	identity *Identity
	err      error
}

func (f fakeVerifier) Verify(context.Context, string) (*Identity, error) {
	return f.identity, f.err
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 4)}
}

func (m *fakeMailer) SendEmail(to, subject, body string) error {
	m.sent <- sentMail{to, subject, body}
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

const fakeStorageBase = "https://files.test/storage/v1/object/public/materials/"

func (f *fakeStorage) Upload(_ context.Context, path string, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = b
	return fakeStorageBase + path, nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeStorage) Owns(url string) bool {
	return len(url) > len(fakeStorageBase) && url[:len(fakeStorageBase)] == fakeStorageBase
}

func ptr[T any](v T) *T {
	return &v
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
