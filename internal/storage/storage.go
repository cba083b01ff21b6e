// AngelaMos | 2026
// storage.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/core"
)

var ErrForeignURL = errors.New("url does not belong to this storage")

// FileStorage stores uploaded objects and hands back a public URL.
type FileStorage interface {
	Upload(
		ctx context.Context,
		r io.Reader,
		size int64,
		name, contentType, folder string,
	) (string, error)
	Delete(ctx context.Context, url string) error
	Validate(name string, size int64) error
}

// Rules is the upload policy shared by every FileStorage implementation.
type Rules struct {
	MaxSize      int64
	AllowedTypes []string
}

func RulesFromConfig(cfg config.StorageConfig) Rules {
	types := make([]string, 0, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		types = append(types, strings.ToLower(t))
	}
	return Rules{MaxSize: cfg.MaxUploadSize, AllowedTypes: types}
}

// Validate returns a *core.ValidationError naming every violated rule.
func (r Rules) Validate(name string, size int64) error {
	verr := core.NewValidationError()

	if strings.TrimSpace(name) == "" {
		verr.Add("file name is required")
	}

	ext := strings.ToLower(path.Ext(name))
	if len(r.AllowedTypes) > 0 && !slices.Contains(r.AllowedTypes, ext) {
		verr.Add(fmt.Sprintf("file type %q is not allowed", ext))
	}

	switch {
	case size <= 0:
		verr.Add("file is empty")
	case r.MaxSize > 0 && size > r.MaxSize:
		verr.Add(fmt.Sprintf("file exceeds the %d byte limit", r.MaxSize))
	}

	return verr.OrNil()
}
