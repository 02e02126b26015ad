package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/observability"
	"github.com/ssms-dev/ssms-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
)

// BatchUploadError reports which file in a multi-file upload failed, so
// callers can tell students exactly which attachment to fix.
type BatchUploadError struct {
	FileName string
	Err      error
}

func (e *BatchUploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.FileName, e.Err)
}

func (e *BatchUploadError) Unwrap() error {
	return e.Err
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService handles validation and persistence of uploads.
type UploadService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, userID *uint) (dto.UploadResponse, error)
	UploadBatch(ctx context.Context, files []*multipart.FileHeader, userID *uint) ([]dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/ssms-dev/ssms-api/internal/service/upload"),
	}
}

// preparedUpload is a fully validated file, ready to be stored. Splitting
// preparation from storage lets a batch validate every member before any
// bytes leave the process.
type preparedUpload struct {
	name     string
	mimeType string
	payload  []byte
	checksum string
}

func (s *uploadService) prepare(file *multipart.FileHeader) (preparedUpload, error) {
	if file == nil {
		return preparedUpload{}, errors.New("file is required")
	}

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return preparedUpload{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return preparedUpload{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return preparedUpload{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return preparedUpload{}, ErrUploadTooLarge
	}

	fileType := normalizeMime(mimetype.Detect(buf.Bytes()).String())
	if !isAllowedType(fileType) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		return preparedUpload{}, ErrUploadTypeNotAllowed
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		observability.UploadRejected().WithLabelValues("scan").Inc()
		return preparedUpload{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())

	return preparedUpload{
		name:     sanitizeFileName(file.Filename),
		mimeType: fileType,
		payload:  buf.Bytes(),
		checksum: hex.EncodeToString(checksum[:]),
	}, nil
}

// store sends a prepared file to storage and writes its audit record. The
// returned record ID lets a failing batch undo earlier members.
func (s *uploadService) store(ctx context.Context, prepared preparedUpload, userID *uint) (dto.UploadResponse, uint, error) {
	url, err := s.storage.Upload(ctx, prepared.name, bytes.NewReader(prepared.payload))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return dto.UploadResponse{}, 0, err
	}

	record := models.UploadRecord{
		FileName:  prepared.name,
		URL:       url,
		MimeType:  prepared.mimeType,
		SizeBytes: int64(len(prepared.payload)),
		Checksum:  prepared.checksum,
		UserID:    userID,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return dto.UploadResponse{}, 0, err
	}

	observability.UploadRequests().WithLabelValues(prepared.mimeType).Inc()

	return dto.UploadResponse{
		URL:       url,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
		FileName:  record.FileName,
	}, record.ID, nil
}

func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader, userID *uint) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file != nil {
		span.SetAttributes(
			attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
			attribute.Int64("upload.request_size", file.Size),
		)
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	prepared, err := s.prepare(file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		return dto.UploadResponse{}, err
	}

	span.SetAttributes(
		attribute.String("upload.sanitized_name", prepared.name),
		attribute.String("upload.detected_mime", prepared.mimeType),
		attribute.Int64("upload.size_bytes", int64(len(prepared.payload))),
	)
	if userID != nil {
		span.SetAttributes(attribute.Int("upload.user_id", int(*userID)))
	}

	response, _, err := s.store(ctx, prepared, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResponse{}, err
	}

	span.SetStatus(codes.Ok, "stored")
	return response, nil
}

// UploadBatch validates every file before storing any of them, so a rejected
// member aborts the batch with nothing written. If storage itself fails part
// way through, the records already written are removed again; no file from a
// failed batch stays referenced. The returned error names the offending file.
func (s *uploadService) UploadBatch(ctx context.Context, files []*multipart.FileHeader, userID *uint) ([]dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store_batch")
	span.SetAttributes(attribute.Int("upload.batch_size", len(files)))
	defer span.End()

	if len(files) == 0 {
		err := errors.New("at least one file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	prepared := make([]preparedUpload, 0, len(files))
	for _, file := range files {
		p, err := s.prepare(file)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch rejected")
			return nil, &BatchUploadError{FileName: batchFileName(file), Err: err}
		}
		prepared = append(prepared, p)
	}

	responses := make([]dto.UploadResponse, 0, len(files))
	recordIDs := make([]uint, 0, len(files))
	for i, p := range prepared {
		response, recordID, err := s.store(ctx, p, userID)
		if err != nil {
			s.rollback(ctx, recordIDs)
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch aborted")
			return nil, &BatchUploadError{FileName: batchFileName(files[i]), Err: err}
		}
		responses = append(responses, response)
		recordIDs = append(recordIDs, recordID)
	}

	span.SetStatus(codes.Ok, "stored")
	return responses, nil
}

func (s *uploadService) rollback(ctx context.Context, recordIDs []uint) {
	if len(recordIDs) == 0 {
		return
	}
	if err := s.repo.DeleteByIDs(ctx, recordIDs); err != nil {
		s.logger.Error().Err(err).Uints("record_ids", recordIDs).Msg("failed to remove records of aborted batch")
	}
}

func batchFileName(file *multipart.FileHeader) string {
	if file == nil {
		return ""
	}
	return file.Filename
}

func (s *uploadService) scan(payload []byte, mime string) error {
	if strings.Contains(mime, "zip") {
		reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
		if err != nil {
			return ErrUploadScanFailed
		}
		var totalUncompressed uint64
		for _, f := range reader.File {
			totalUncompressed += f.UncompressedSize64
			if totalUncompressed > uint64(s.maxSize*20) {
				return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
			}
		}
	}
	return nil
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if strings.HasPrefix(lower, "image/") {
		return "image"
	}
	switch lower {
	case "application/pdf":
		return "application/pdf"
	case "application/zip", "application/x-zip-compressed":
		return "application/zip"
	case "text/plain; charset=utf-8", "text/plain":
		return "text/plain"
	default:
		return lower
	}
}

func isAllowedType(m string) bool {
	if m == "image" {
		return true
	}
	switch m {
	case "application/pdf", "application/zip", "text/plain",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return true
	default:
		return false
	}
}
