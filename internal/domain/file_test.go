package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileRecord(t *testing.T) {
	t.Parallel()

	uploadedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))

	record, err := NewFileRecord("id-1", "Lecture Notes.PDF", 2_621_440, uploadedAt)
	require.NoError(t, err)

	assert.Equal(t, "id-1", record.ID)
	assert.Equal(t, "Lecture Notes.PDF", record.Name)
	assert.Equal(t, 2.5, record.SizeMB)
	assert.Equal(t, "pdf", record.Type)
	assert.Equal(t, CategoryDocuments, record.Category)
	assert.False(t, record.IsTextFile)
	assert.Equal(t, time.UTC, record.Date.Location())
	assert.True(t, record.Date.Equal(uploadedAt))
}

func TestNewFileRecord_TextFile(t *testing.T) {
	t.Parallel()

	record, err := NewFileRecord("id-2", "notes.md", 120, time.Now())
	require.NoError(t, err)
	assert.True(t, record.IsTextFile)
	assert.Equal(t, CategoryOthers, record.Category)
	assert.Equal(t, 0.0, record.SizeMB)
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"pdf":  CategoryDocuments,
		"DOCX": CategoryDocuments,
		"jpg":  CategoryImages,
		"jpeg": CategoryImages,
		".png": CategoryImages,
		"gif":  CategoryImages,
		"doc":  CategoryOthers,
		"txt":  CategoryOthers,
		"tiff": CategoryOthers,
		"":     CategoryOthers,
	}
	for ext, want := range tests {
		assert.Equal(t, want, CategoryOf(ext), "extension %q", ext)
	}

	record, err := NewFileRecord("id-3", "diagram.GIF", 10, time.Now())
	require.NoError(t, err)
	assert.Equal(t, CategoryImages, record.Category)
}

func TestNewFileRecord_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewFileRecord("", "notes.txt", 1, time.Now())
	assert.ErrorIs(t, err, ErrEmptyFileID)

	_, err = NewFileRecord("id", "   ", 1, time.Now())
	assert.ErrorIs(t, err, ErrEmptyFileName)

	_, err = NewFileRecord("id", "notes.txt", -1, time.Now())
	assert.ErrorIs(t, err, ErrNegativeSize)
}

func TestSizeInMB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int64
		want  float64
	}{
		{0, 0},
		{MB, 1},
		{1_153_434, 1.1},
		{10 * MB, 10},
		{52_428, 0.0},
		{104_858, 0.1},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, SizeInMB(tc.bytes), "bytes=%d", tc.bytes)
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "txt", Extension("notes.TXT"))
	assert.Equal(t, "gz", Extension("archive.tar.gz"))
	assert.Equal(t, "", Extension("README"))
	assert.Equal(t, "png", FileContent{Name: "scan.PNG"}.Extension())
}

func TestIsTextExtension(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"txt", "md", ".csv", "JSON", "yml", "cfg"} {
		assert.True(t, IsTextExtension(ext), ext)
	}
	for _, ext := range []string{"pdf", "png", "docx", ""} {
		assert.False(t, IsTextExtension(ext), ext)
	}
}
