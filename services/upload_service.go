package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/utils"
)

const maxImageWidth = 1280

// BlobUploader stores a finished object and returns its public URL
type BlobUploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// LocalUploader writes objects under dir; they are served at baseURL.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (u *LocalUploader) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if err := os.MkdirAll(u.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}
	f, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return u.baseURL + "/uploads/" + name, nil
}

// FirebaseStorageUploader writes objects to the app's default bucket.
type FirebaseStorageUploader struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebaseStorageUploader(bucket *gcs.BucketHandle, bucketName string) *FirebaseStorageUploader {
	return &FirebaseStorageUploader{bucket: bucket, bucketName: bucketName}
}

func (u *FirebaseStorageUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := u.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucketName, name), nil
}

// UploadService normalises images and hands them to a BlobUploader.
type UploadService struct {
	uploader BlobUploader
	log      *logrus.Entry
}

func NewUploadService(uploader BlobUploader, logger *logrus.Logger) *UploadService {
	return &UploadService{uploader: uploader, log: logger.WithField("service", "upload")}
}

// Upload stages src in a temp file, bounds its width and uploads it. The temp
// file is removed whatever happens.
func (s *UploadService) Upload(ctx context.Context, filename string, src io.Reader) (string, error) {
	original := utils.CleanFilename(filename)
	ext := strings.ToLower(filepath.Ext(original))
	if err := utils.ValidateImageExt(ext); err != nil {
		return "", validationError("%s", err.Error())
	}

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", internal("failed to stage upload", err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			s.log.WithError(err).WithField("path", tmp.Name()).Warn("failed to remove temp file")
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(src, utils.MaxUploadSize+1))
	if err != nil {
		return "", internal("failed to stage upload", err)
	}
	if n > utils.MaxUploadSize {
		return "", validationError("file too large, maximum is %d bytes", utils.MaxUploadSize)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", internal("failed to stage upload", err)
	}

	img, err := imaging.Decode(tmp, imaging.AutoOrientation(true))
	if err != nil {
		return "", validationError("file is not a readable image")
	}
	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return "", validationError("unsupported image format")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return "", internal("failed to encode image", err)
	}

	name := uuid.NewString() + ext
	size := buf.Len()
	url, err := s.uploader.Upload(ctx, name, mime.TypeByExtension(ext), &buf)
	if err != nil {
		return "", internal("failed to upload image", err)
	}
	s.log.WithFields(logrus.Fields{"object": name, "original": original, "bytes": size}).Info("image uploaded")
	return url, nil
}
