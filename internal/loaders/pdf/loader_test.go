package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
)

func TestLoader_Type(t *testing.T) {
	assert.Equal(t, domain.SourcePDF, New().Type())
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := New()

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
}

func TestLoader_Load_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text pretending"), 0600))

	_, err := New().Load(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestLoader_Load_TooShortForHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%P"), 0600))

	_, err := New().Load(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestLoader_Load_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Load(ctx, "whatever.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckPDF_AcceptsMagicHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 rest of file"), 0600))

	assert.NoError(t, checkPDF(path))
}
