package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	TempDir   string // where the working copy lives while the pipeline runs
}

// S3Store keeps every upload as an object under uploads/<job id>/ and hands the
// pipeline a temporary local copy, removed on Release.
type S3Store struct {
	client  *minio.Client
	bucket  string
	region  string
	tempDir string
	logger  *slog.Logger

	initOnce sync.Once
	initErr  error
}

func NewS3Store(cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucket: bucket, region: region, tempDir: cfg.TempDir, logger: logger}, nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Save(ctx context.Context, jobID, filename string, r io.Reader) (StoredFile, error) {
	name := cleanName(filename)
	ext := extOf(name)

	if err := s.ensureBucket(ctx); err != nil {
		return StoredFile{}, common.WrapAppError(common.CodeStorage, "ensure bucket", common.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(s.tempDir, "ref-upload-*."+ext)
	if err != nil {
		return StoredFile{}, common.WrapAppError(common.CodeStorage, "create temp file", common.ErrStorage, err)
	}
	size, sum, err := writeHashed(tmp, r)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close temp file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return StoredFile{}, common.WrapAppError(common.CodeStorage, "save upload", common.ErrStorage, err)
	}

	key := "uploads/" + jobID + "/" + name
	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.FPutObject(ctx, s.bucket, key, tmp.Name(), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"sha256": sum, "job-id": jobID},
	})
	if err != nil {
		_ = os.Remove(tmp.Name())
		return StoredFile{}, common.WrapAppError(common.CodeStorage, "upload object", common.ErrStorage, err)
	}

	s.logger.Info("storage.s3.saved", "job_id", jobID, "bucket", s.bucket, "key", key, "bytes", info.Size, "sha256", sum)
	return StoredFile{
		JobID:     jobID,
		Filename:  name,
		Ext:       ext,
		LocalPath: tmp.Name(),
		Size:      size,
		SHA256:    sum,
		ObjectKey: key,
	}, nil
}

// Release removes the working copy; the object stays in the bucket.
func (s *S3Store) Release(_ context.Context, f StoredFile) error {
	if f.LocalPath == "" {
		return nil
	}
	if err := os.Remove(f.LocalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("storage.s3.cleanup_failed", "job_id", f.JobID, "path", f.LocalPath, "error", err)
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
