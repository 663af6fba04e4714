package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, path string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(PreferencesPathKey, path)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "preferences.toml"))

	prefs := domain.Preferences{
		Theme:    domain.ThemeDark,
		ViewMode: domain.ViewMode3D,
		Sidebar:  domain.SidebarLayout{Collapsed: true, Width: 280},
		Dock:     domain.DockLayout{Position: domain.DockLeft, Visible: false},
	}
	require.NoError(t, repo.Save(context.Background(), prefs))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prefs, got)
}

func TestRepositoryMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "preferences.toml"))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), got)
}

func TestRepositoryPartialFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 1",
		"theme = \"Light\"",
		"",
		"[sidebar]",
		"collapsed = true",
		"",
	}, "\n")), 0o600))

	got, err := newTestRepository(t, path).Load(context.Background())
	require.NoError(t, err)

	want := domain.DefaultPreferences()
	want.Theme = domain.ThemeLight
	want.Sidebar.Collapsed = true
	assert.Equal(t, want, got)
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), domain.DefaultPreferences()))

	path := filepath.Join(homeDir, ".config", "clawsync", "preferences.toml")
	assert.Equal(t, path, repo.Path())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryLoadMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = ["), 0o600))

	_, err := newTestRepository(t, path).Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode preferences file")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 999\n"), 0o600))

	_, err := newTestRepository(t, path).Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported preferences schema version")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "preferences.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.DefaultPreferences())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, newTestRepository(t, path).Save(context.Background(), domain.DefaultPreferences()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "system")
}

func TestRepositoryConcurrentSavesAcrossInstancesLeaveValidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	repoA := newTestRepository(t, path)
	repoB := newTestRepository(t, path)

	light := domain.DefaultPreferences()
	light.Theme = domain.ThemeLight
	dark := domain.DefaultPreferences()
	dark.Theme = domain.ThemeDark

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(repo *Repository, prefs domain.Preferences) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), prefs)
		}
	}
	go write(repoA, light)
	go write(repoB, dark)

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := repoA.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, []domain.Theme{domain.ThemeLight, domain.ThemeDark}, got.Theme)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), tempFilePattern))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRepositoryWatchReportsExternalSaves(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	watched := newTestRepository(t, path)
	writer := newTestRepository(t, path)

	changes := make(chan domain.Preferences, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watched.Watch(ctx, func(prefs domain.Preferences) {
			select {
			case changes <- prefs:
			default:
			}
		})
	}()

	want := domain.DefaultPreferences()
	want.ViewMode = domain.ViewMode3D

	var got domain.Preferences
	require.Eventually(t, func() bool {
		assert.NoError(t, writer.Save(context.Background(), want))
		select {
		case got = <-changes:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, got)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
