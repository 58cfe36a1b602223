package console

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cagedesk/internal/pkg/fingerprint"
)

func TestFingerprintIsMintedOnce(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	first, err := store.Fingerprint()
	require.NoError(t, err)
	assert.True(t, fingerprint.Valid(first))
	assert.Contains(t, first, fingerprint.Prefix)

	reopened, err := NewLocalStore(dir)
	require.NoError(t, err)
	second, err := reopened.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSessionCache(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	sess, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, sess)

	want := CachedSession{Token: "tok", SessionID: "s1", Phone: "+919130368298", Name: "Shrikant Sathe",
		LoginTime: time.Date(2024, 6, 15, 4, 30, 0, 0, time.UTC)}
	require.NoError(t, store.SaveSession(want))

	got, err := store.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, store.ClearSession())
	require.NoError(t, store.ClearSession())
	got, err = store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCorruptSessionCacheIsDropped(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFile), []byte("{not json"), 0o600))

	got, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, got)
	_, err = os.Stat(filepath.Join(dir, sessionFile))
	assert.True(t, os.IsNotExist(err))
}
