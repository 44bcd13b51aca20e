package avatar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/olehkozhan/contactbook/internal/tasks"
	"github.com/olehkozhan/contactbook/pkg/logger"
	"github.com/olehkozhan/contactbook/pkg/metrics"
)

const (
	// PublicPrefix is the URL path segment under which stored avatars are served.
	PublicPrefix = "avatars"

	defaultSize    = 250
	defaultQuality = 60
)

// Store moves uploaded avatar images into the public directory and schedules
// the square resize transform in the background.
type Store struct {
	dir     string
	size    int
	quality int
	runner  *tasks.Runner
	log     *zap.Logger
}

// StoreConfig bundles the options required to build a Store.
type StoreConfig struct {
	Dir     string
	Size    int
	Quality int
}

// NewStore constructs a Store, creating the avatar directory if needed.
func NewStore(cfg StoreConfig, runner *tasks.Runner) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("avatar store: directory is required")
	}
	if runner == nil {
		return nil, errors.New("avatar store: task runner is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("avatar store: create directory: %w", err)
	}

	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	return &Store{
		dir:     cfg.Dir,
		size:    size,
		quality: quality,
		runner:  runner,
		log:     logger.WithModule("avatar"),
	}, nil
}

// Save moves the uploaded temporary file into permanent storage named
// {userID}_{originalName} and schedules the resize. Saving the same name for
// the same account overwrites the previous file. The returned reference is
// the public URL path of the stored image.
func (s *Store) Save(userID, originalName, tempPath string) (string, error) {
	fileName := fmt.Sprintf("%s_%s", userID, filepath.Base(originalName))
	dest := filepath.Join(s.dir, fileName)

	if err := moveFile(tempPath, dest); err != nil {
		return "", fmt.Errorf("avatar store: store upload: %w", err)
	}

	// The response does not wait for the transform; a failed resize leaves
	// the original image in place.
	s.runner.Go("avatar-resize", func() error {
		if err := s.Resize(dest); err != nil {
			metrics.AvatarResizes.WithLabelValues("failure").Inc()
			s.log.Warn("avatar resize failed", zap.String("file", fileName), zap.Error(err))
			return nil
		}
		metrics.AvatarResizes.WithLabelValues("success").Inc()
		return nil
	})

	return path.Join(PublicPrefix, fileName), nil
}

// Resize rewrites the image in place as a square JPEG at reduced quality.
func (s *Store) Resize(imagePath string) error {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	resized := imaging.Resize(img, s.size, s.size, imaging.Lanczos)
	if err := imaging.Save(resized, imagePath, imaging.JPEGQuality(s.quality)); err != nil {
		return fmt.Errorf("save resized image: %w", err)
	}

	return nil
}

// moveFile renames src to dest, falling back to copy+remove when the rename
// crosses filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
