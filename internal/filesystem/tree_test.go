package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/sitefs/internal/fsys"
	"github.com/taigrr/sitefs/internal/types"
)

var (
	allDummyFiles = fromSlash(
		".hidden/a.txt", ".hidden/b.js", ".hidden/c/d",
		"e.txt", "f.js", ".g",
		"folder/h.txt", "folder/i.js", "folder/.j",
	)
	visibleDummyFiles = fromSlash("e.txt", "f.js", "folder/h.txt", "folder/i.js")
)

func filters() map[string]*types.FilterConfig {
	return map[string]*types.FilterConfig{
		"default":        nil,
		"hidden off":     {IgnoreHidden: false},
		"ignore pattern": {IgnoreHidden: true, IgnorePattern: regexp.MustCompile(`\.js`)},
		"exclude":        {IgnoreHidden: true, Exclude: []string{"folder/i.js", "e.txt"}},
		"exclude dir":    {IgnoreHidden: false, Exclude: []string{".hidden"}},
	}
}

func TestService_ListDir(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	createDummyFolder(t, tmpDir)

	t.Run("defaults", func(t *testing.T) {
		files, err := svc.ListDir(t.Context(), tmpDir, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, visibleDummyFiles, files)
	})

	t.Run("hidden off", func(t *testing.T) {
		files, err := svc.ListDir(t.Context(), tmpDir, &types.FilterConfig{IgnoreHidden: false})
		require.NoError(t, err)
		assert.ElementsMatch(t, allDummyFiles, files)
	})

	t.Run("ignore pattern", func(t *testing.T) {
		files, err := svc.ListDir(t.Context(), tmpDir, &types.FilterConfig{
			IgnoreHidden:  true,
			IgnorePattern: regexp.MustCompile(`\.js`),
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, fromSlash("e.txt", "folder/h.txt"), files)
	})

	t.Run("exclude relative path", func(t *testing.T) {
		files, err := svc.ListDir(t.Context(), tmpDir, &types.FilterConfig{
			IgnoreHidden: true,
			Exclude:      []string{"folder/i.js"},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, fromSlash("e.txt", "f.js", "folder/h.txt"), files)
	})

	t.Run("exclude directory skips subtree", func(t *testing.T) {
		files, err := svc.ListDir(t.Context(), tmpDir, &types.FilterConfig{
			IgnoreHidden: true,
			Exclude:      []string{"folder"},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, fromSlash("e.txt", "f.js"), files)
	})

	t.Run("sync form matches", func(t *testing.T) {
		for name, filter := range filters() {
			async, err := svc.ListDir(t.Context(), tmpDir, filter)
			require.NoError(t, err, name)
			sync, err := svc.ListDirSync(tmpDir, filter)
			require.NoError(t, err, name)
			assert.Equal(t, sync, async, name)
		}
	})

	t.Run("listing order is stable", func(t *testing.T) {
		single := New(tmpDir, WithConcurrency(1))
		want, err := single.ListDir(t.Context(), tmpDir, nil)
		require.NoError(t, err)
		for range 10 {
			got, err := svc.ListDir(t.Context(), tmpDir, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})
}

func TestService_ListDirEmpty(t *testing.T) {
	tmpDir, svc := setupTestSite(t)

	files, err := svc.ListDir(t.Context(), tmpDir, nil)
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestService_ListDirErrors(t *testing.T) {
	tmpDir, svc := setupTestSite(t)

	_, err := svc.ListDir(t.Context(), filepath.Join(tmpDir, "missing"), nil)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	file := filepath.Join(tmpDir, "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = svc.ListDirSync(file, nil)
	assert.Equal(t, KindNotADirectory, KindOf(err))
}

func TestService_ListDirSymlinkIsLeaf(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	writeTree(t, tmpDir, map[string]string{"real/page.html": "x"})
	if err := os.Symlink(filepath.Join(tmpDir, "real"), filepath.Join(tmpDir, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := svc.ListDir(t.Context(), tmpDir, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, fromSlash("link", "real/page.html"), files)
}

func TestService_CopyDir(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	src := filepath.Join(tmpDir, "a")
	createDummyFolder(t, src)

	tests := []struct {
		name   string
		filter *types.FilterConfig
		want   []string
	}{
		{"defaults", nil, visibleDummyFiles},
		{"hidden off", &types.FilterConfig{IgnoreHidden: false}, allDummyFiles},
		{"ignore pattern", &types.FilterConfig{IgnoreHidden: true, IgnorePattern: regexp.MustCompile(`\.js`)}, fromSlash("e.txt", "folder/h.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(tmpDir, "out", tt.name)
			files, err := svc.CopyDir(t.Context(), src, dest, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, files)

			for _, rel := range tt.want {
				want, err := os.ReadFile(filepath.Join(src, rel))
				require.NoError(t, err)
				got, err := os.ReadFile(filepath.Join(dest, rel))
				require.NoError(t, err, rel)
				assert.Equal(t, string(want), string(got), rel)
			}

			// Nothing outside the result set was copied.
			copied, err := svc.ListDirSync(dest, &types.FilterConfig{})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, copied)
		})
	}
}

func TestService_CopyDirSync(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	src := filepath.Join(tmpDir, "a")
	dest := filepath.Join(tmpDir, "b", "c")
	createDummyFolder(t, src)

	files, err := svc.CopyDirSync(src, dest, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, visibleDummyFiles, files)

	data, err := os.ReadFile(filepath.Join(dest, "folder", "h.txt"))
	require.NoError(t, err)
	assert.Equal(t, "h", string(data))
}

func TestService_CopyDirSkipsEmptyDirectories(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	src := filepath.Join(tmpDir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))
	createHiddenOnlyFolder(t, src)

	dest := filepath.Join(tmpDir, "dest")
	files, err := svc.CopyDir(t.Context(), src, dest, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NoDirExists(t, filepath.Join(dest, "empty"))
	assert.NoDirExists(t, filepath.Join(dest, "folder"))
}

func TestService_ListDirMatchesCopyDir(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	src := filepath.Join(tmpDir, "src")
	createDummyFolder(t, src)

	for name, filter := range filters() {
		t.Run(name, func(t *testing.T) {
			listed, err := svc.ListDir(t.Context(), src, filter)
			require.NoError(t, err)
			copied, err := svc.CopyDir(t.Context(), src, filepath.Join(tmpDir, "out", name), filter)
			require.NoError(t, err)

			sort.Strings(listed)
			sort.Strings(copied)
			assert.Equal(t, listed, copied)
		})
	}
}

func TestService_CopyDirFailureReturnsNoPaths(t *testing.T) {
	fake := fsys.NewFake()
	fake.Dirs["/site"] = true
	fake.Dirs["/site/folder"] = true
	fake.Files["/site/e.txt"] = []byte("e")
	fake.Files["/site/folder/h.txt"] = []byte("h")
	fake.Files["/site/folder/i.js"] = []byte("i")
	injected := errors.New("disk on fire")
	fake.Errors["/site/folder/i.js"] = injected

	for _, concurrency := range []int{1, 8} {
		svc := New("/", WithFS(fake), WithConcurrency(concurrency))

		files, err := svc.CopyDir(context.Background(), "/site", "/out", nil)
		assert.ErrorIs(t, err, injected)
		assert.Nil(t, files)

		var pe *PathError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "copy", pe.Op)

		files, err = svc.CopyDirSync("/site", "/out", nil)
		assert.ErrorIs(t, err, injected)
		assert.Nil(t, files)
	}
}

func TestService_ListDirFailureInSubdirectory(t *testing.T) {
	fake := fsys.NewFake()
	fake.Dirs["/site"] = true
	fake.Dirs["/site/a"] = true
	fake.Dirs["/site/b"] = true
	fake.Files["/site/a/x"] = []byte("x")
	fake.Errors["/site/b"] = os.ErrPermission

	svc := New("/", WithFS(fake))
	files, err := svc.ListDir(context.Background(), "/site", nil)
	assert.Nil(t, files)
	assert.Equal(t, KindPermission, KindOf(err))
}

func TestService_EmptyDir(t *testing.T) {
	checkExists := map[string]bool{
		".hidden/a.txt": true,
		".hidden/b.js":  true,
		".hidden/c/d":   true,
		"e.txt":         false,
		"f.js":          false,
		".g":            true,
		"folder/h.txt":  false,
		"folder/i.js":   false,
		"folder/.j":     true,
	}

	run := func(t *testing.T, empty func(svc *Service, dir string) ([]string, error)) {
		tmpDir, svc := setupTestSite(t)
		target := filepath.Join(tmpDir, "test")
		createDummyFolder(t, target)

		files, err := empty(svc, target)
		require.NoError(t, err)
		assert.ElementsMatch(t, visibleDummyFiles, files)

		for rel, want := range checkExists {
			_, err := os.Stat(filepath.Join(target, filepath.FromSlash(rel)))
			assert.Equal(t, want, err == nil, rel)
		}
		// folder still holds .j, so it survives.
		assert.DirExists(t, filepath.Join(target, "folder"))
		assert.DirExists(t, target)
	}

	t.Run("context form", func(t *testing.T) {
		run(t, func(svc *Service, dir string) ([]string, error) {
			return svc.EmptyDir(t.Context(), dir, nil)
		})
	})
	t.Run("sync form", func(t *testing.T) {
		run(t, func(svc *Service, dir string) ([]string, error) {
			return svc.EmptyDirSync(dir, nil)
		})
	})
}

func TestService_EmptyDirPreservesHiddenOnlyTree(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	target := filepath.Join(tmpDir, "test")
	createHiddenOnlyFolder(t, target)

	files, err := svc.EmptyDir(t.Context(), target, nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.FileExists(t, filepath.Join(target, "folder", ".txt"))
	assert.FileExists(t, filepath.Join(target, "folder", ".js"))
}

func TestService_EmptyDirPrunesEmptiedDirectories(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	writeTree(t, tmpDir, map[string]string{
		"public/index.html":        "i",
		"public/posts/a/page.html": "a",
		"public/posts/b/page.html": "b",
		"public/keep/robots.txt":   "r",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "public", "was-empty"), 0o755))

	target := filepath.Join(tmpDir, "public")
	files, err := svc.EmptyDir(t.Context(), target, &types.FilterConfig{
		IgnoreHidden: true,
		Exclude:      []string{"keep/robots.txt"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, fromSlash("index.html", "posts/a/page.html", "posts/b/page.html"), files)

	assert.NoDirExists(t, filepath.Join(target, "posts"))
	assert.NoDirExists(t, filepath.Join(target, "was-empty"))
	assert.FileExists(t, filepath.Join(target, "keep", "robots.txt"))
	assert.DirExists(t, target)
}

func TestService_EmptyDirFailure(t *testing.T) {
	fake := fsys.NewFake()
	fake.Dirs["/site"] = true
	fake.Dirs["/site/folder"] = true
	fake.Files["/site/e.txt"] = []byte("e")
	fake.Files["/site/folder/h.txt"] = []byte("h")
	fake.Errors["/site/folder/h.txt"] = os.ErrPermission

	svc := New("/", WithFS(fake), WithConcurrency(1))
	files, err := svc.EmptyDir(context.Background(), "/site", nil)
	assert.Nil(t, files)
	assert.Equal(t, KindPermission, KindOf(err))

	// The failing directory was never pruned.
	assert.True(t, fake.Dirs["/site/folder"])
}

func TestService_Rmdir(t *testing.T) {
	t.Run("context form", func(t *testing.T) {
		tmpDir, svc := setupTestSite(t)
		target := filepath.Join(tmpDir, "test")
		createDummyFolder(t, target)

		require.NoError(t, svc.Rmdir(t.Context(), target))
		assert.NoDirExists(t, target)
	})

	t.Run("sync form", func(t *testing.T) {
		tmpDir, svc := setupTestSite(t)
		target := filepath.Join(tmpDir, "test")
		createDummyFolder(t, target)

		require.NoError(t, svc.RmdirSync(target))
		assert.NoDirExists(t, target)
	})

	t.Run("missing", func(t *testing.T) {
		tmpDir, svc := setupTestSite(t)
		err := svc.Rmdir(t.Context(), filepath.Join(tmpDir, "missing"))
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("removes everything through the fake", func(t *testing.T) {
		fake := fsys.NewFake()
		fake.Dirs["/site/.hidden/c"] = true
		fake.Dirs["/site/.hidden"] = true
		fake.Dirs["/site/folder"] = true
		fake.Dirs["/site"] = true
		fake.Files["/site/.hidden/c/d"] = []byte("d")
		fake.Files["/site/.g"] = []byte("g")
		fake.Files["/site/folder/.j"] = []byte("j")
		fake.Dirs["/other"] = true

		svc := New("/", WithFS(fake))
		require.NoError(t, svc.Rmdir(context.Background(), "/site"))

		assert.Empty(t, fake.Files)
		assert.Equal(t, map[string]bool{"/other": true}, fake.Dirs)
	})
}
