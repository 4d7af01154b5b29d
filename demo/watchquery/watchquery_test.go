package watchquery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adalundhe/qgraph/demo/filequery"
	"github.com/adalundhe/qgraph/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	w, err := New([]string{dir}, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	e, err := engine.NewBuilder().Register(filequery.Class(), w).Build()
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	v, err := engine.Evaluate[[]byte](context.Background(), e, filequery.Contents{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(v))

	require.NoError(t, os.WriteFile(path, []byte("goodbye"), 0o644))

	require.Eventually(t, func() bool {
		return e.Graph().Validity(filequery.Contents{Path: path}) != 0
	}, 2*time.Second, 10*time.Millisecond)

	v, err = engine.Evaluate[[]byte](context.Background(), e, filequery.Contents{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "goodbye", string(v))
}
