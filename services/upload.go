package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

const MaxUploadSize = 20 << 20

// UploadedFile describes a stored material file, ready to be referenced by a
// new material.
type UploadedFile struct {
	FileURL  string              `json:"fileUrl"`
	Type     models.MaterialType `json:"type"`
	Size     string              `json:"size"`
	Pages    int                 `json:"pages,omitempty"`
	Filename string              `json:"filename"`
}

type UploadService struct {
	storage utils.Storage
	log     *logrus.Logger
}

func NewUploadService(storage utils.Storage, log *logrus.Logger) *UploadService {
	return &UploadService{storage: storage, log: log}
}

func (s *UploadService) Upload(ctx context.Context, header *multipart.FileHeader) (*UploadedFile, error) {
	if s.storage == nil {
		return nil, utils.NewPolicyError("File uploads are not configured")
	}
	if header.Size > MaxUploadSize {
		return nil, utils.NewValidationError("File cannot exceed %d MB", MaxUploadSize>>20)
	}

	ext := filepath.Ext(header.Filename)
	kind, err := utils.MaterialTypeFromExt(ext)
	if err != nil {
		return nil, utils.NewValidationError("Unsupported file type %q", ext)
	}

	file, err := header.Open()
	if err != nil {
		return nil, utils.Internal(err, "could not open upload")
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, MaxUploadSize+1)); err != nil {
		return nil, utils.Internal(err, "could not read upload")
	}
	if buf.Len() > MaxUploadSize {
		return nil, utils.NewValidationError("File cannot exceed %d MB", MaxUploadSize>>20)
	}

	out := &UploadedFile{
		Type:     kind,
		Size:     utils.HumanSize(int64(buf.Len())),
		Filename: header.Filename,
	}
	if kind == models.TypePDF {
		pages, err := CountPDFPages(buf.Bytes())
		if err != nil {
			return nil, utils.NewValidationError("File is not a readable PDF")
		}
		out.Pages = pages
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectPath := fmt.Sprintf("materials/%s%s", uuid.New(), ext)
	url, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), contentType)
	if err != nil {
		return nil, utils.Internal(err, "could not store file")
	}
	out.FileURL = url

	s.log.WithFields(logrus.Fields{"path": objectPath, "size": out.Size}).Info("material file uploaded")
	return out, nil
}

// CountPDFPages parses data as a PDF and returns its page count.
func CountPDFPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read PDF: %w", err)
	}
	return reader.NumPage(), nil
}
