package prefs

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGet(t *testing.T) {
	for _, name := range []string{"prefs.toml", "widget.yaml", "widget.yml"} {
		t.Run(name, func(t *testing.T) {
			s, err := Open(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)

			_, ok, err := s.Get("theme")
			require.NoError(t, err)
			assert.False(t, ok)

			v, err := s.GetOr("theme", "System")
			require.NoError(t, err)
			assert.Equal(t, "System", v)

			payload := `[{"id":"a","title":"quote \" and: colon"}]`
			require.NoError(t, s.Set("theme", "Dark"))
			require.NoError(t, s.Set("pinned_tasks", payload))

			reopened, err := Open(s.Path())
			require.NoError(t, err)
			v, ok, err = reopened.Get("theme")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Dark", v)

			v, err = reopened.GetOr("pinned_tasks", "[]")
			require.NoError(t, err)
			assert.Equal(t, payload, v)
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.toml"))
	require.NoError(t, err)

	require.NoError(t, s.Set("theme", "Light"))
	require.NoError(t, s.Set("theme", "Dark"))
	v, err := s.GetOr("theme", "System")
	require.NoError(t, err)
	assert.Equal(t, "Dark", v)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = = ="), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	v, err := s.GetOr("theme", "System")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, "System", v)
}

func TestStore_SetReplacesMalformedFile(t *testing.T) {
	for name, junk := range map[string]string{
		"prefs.toml":  "theme = = =",
		"widget.yaml": "\tpinned_tasks: [",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(junk), 0o644))

			var logs bytes.Buffer
			s, err := Open(path)
			require.NoError(t, err)
			s.WithLogger(log.New(&logs, "", 0))

			require.NoError(t, s.Set("theme", "Dark"))
			assert.Contains(t, logs.String(), "rewriting")

			v, ok, err := s.Get("theme")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Dark", v)
		})
	}
}

func TestOpen_RejectsUnknownExtension(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	assert.Error(t, err)

	_, err = Open("")
	assert.Error(t, err)
}
