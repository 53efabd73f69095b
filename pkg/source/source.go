// Package source loads Ruby source files for coverage runs.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
)

// DefaultMaxSize is the default limit on the size of a loaded file.
const DefaultMaxSize int64 = 1 << 20

const languageRuby = "Ruby"

var (
	// ErrTooLarge is returned for files above the size limit.
	ErrTooLarge = errors.New("source file too large")
	// ErrNotRuby is returned for files detected as another language.
	ErrNotRuby = errors.New("source file is not Ruby")
	// ErrBinary is returned for binary files.
	ErrBinary = errors.New("source file is binary")
	// ErrNotRegular is returned for directories and other non-regular files.
	ErrNotRegular = errors.New("source path is not a regular file")
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	languageCheck bool
}

// WithLanguageCheck rejects files enry detects as a language other than Ruby.
// It is off by default: a file's name does not decide whether it is run.
func WithLanguageCheck(enabled bool) Option {
	return func(lo *loadOptions) { lo.languageCheck = enabled }
}

// Load reads the file at path. Files larger than maxSize bytes and binary
// files are rejected. A maxSize of zero or less disables the size check.
func Load(path string, maxSize int64, opts ...Option) ([]byte, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrTooLarge, path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(maxSize)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := Check(path, data); err != nil {
		return nil, err
	}

	if lo.languageCheck {
		if err := CheckLanguage(path, data); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// Check rejects binary content.
func Check(path string, data []byte) error {
	if enry.IsBinary(data) {
		return fmt.Errorf("%w: %s", ErrBinary, path)
	}

	return nil
}

// CheckLanguage rejects content enry detects as a language other than Ruby.
// Content enry cannot classify is accepted.
func CheckLanguage(path string, data []byte) error {
	lang := enry.GetLanguage(filepath.Base(path), data)
	if lang != "" && lang != languageRuby {
		return fmt.Errorf("%w: %s looks like %s", ErrNotRuby, path, lang)
	}

	return nil
}
