package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/foliage/pkg/source"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Ruby(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "script.rb", "if true; 1; end\n")

	data, err := source.Load(path, source.DefaultMaxSize)
	require.NoError(t, err)
	assert.Equal(t, "if true; 1; end\n", string(data))
}

func TestLoad_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		limit   int64
		want    error
	}{
		{"too large", "big.rb", "x = 1\n", 3, source.ErrTooLarge},
		{"binary", "blob.rb", "\x00\x01\x02\x03", 0, source.ErrBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, tt.file, tt.content)

			_, err := source.Load(path, tt.limit)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_RubyUnderAnyName(t *testing.T) {
	t.Parallel()

	const content = "a = 2\nif a > 4\n 1\nend\n"

	for _, name := range []string{"branch.rb", "branch", "Rakefile", "branch.txt", "check.sh"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := source.Load(writeFile(t, name, content), source.DefaultMaxSize)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
		})
	}
}

func TestLoad_LanguageCheck(t *testing.T) {
	t.Parallel()

	goPath := writeFile(t, "main.go", "package main\n\nfunc main() {}\n")

	_, err := source.Load(goPath, 0)
	require.NoError(t, err)

	_, err = source.Load(goPath, 0, source.WithLanguageCheck(true))
	require.ErrorIs(t, err, source.ErrNotRuby)

	rbPath := writeFile(t, "script.rb", "if true; 1; end\n")

	_, err = source.Load(rbPath, 0, source.WithLanguageCheck(true))
	require.NoError(t, err)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := source.Load(filepath.Join(t.TempDir(), "missing.rb"), 0)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = source.Load(t.TempDir(), 0)
	require.ErrorIs(t, err, source.ErrNotRegular)
}
