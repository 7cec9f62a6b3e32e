package enum

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTree writes files (path -> content) under a fresh root.
func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// collect runs an enumeration and returns the yielded paths relative to root.
func collect(t *testing.T, root string, cfg Config) []string {
	t.Helper()

	cfg.Root = root
	var (
		mu    sync.Mutex
		paths []string
	)
	err := NewFilesystemEnumerator(cfg).Enumerate(context.Background(), func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		mu.Lock()
		paths = append(paths, rel)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestEnumerate(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.txt":     "aaa",
		"sub/b.zip": "bbb",
		"sub/c.pdf": "ccc",
	})

	paths := collect(t, root, Config{})
	assert.Equal(t, []string{"a.txt", filepath.Join("sub", "b.zip"), filepath.Join("sub", "c.pdf")}, paths)
}

func TestEnumerateSkipsHidden(t *testing.T) {
	root := makeTree(t, map[string]string{
		"visible.txt":      "v",
		".hidden.txt":      "h",
		".git/config":      "c",
		"sub/.also-hidden": "h",
	})

	paths := collect(t, root, Config{})
	assert.Equal(t, []string{"visible.txt"}, paths)

	paths = collect(t, root, Config{IncludeHidden: true})
	assert.Contains(t, paths, ".hidden.txt")
	assert.Contains(t, paths, filepath.Join(".git", "config"))
}

func TestEnumerateMaxFileSize(t *testing.T) {
	root := makeTree(t, map[string]string{
		"small.txt": "tiny",
		"large.txt": string(make([]byte, 1000)),
	})

	paths := collect(t, root, Config{MaxFileSize: 100})
	assert.Equal(t, []string{"small.txt"}, paths)
}

func TestEnumerateGitignore(t *testing.T) {
	root := makeTree(t, map[string]string{
		".gitignore":  "*.log\nbuild/\n",
		"keep.txt":    "k",
		"noise.log":   "n",
		"build/out":   "o",
		"sub/app.log": "n",
	})

	paths := collect(t, root, Config{})
	assert.Equal(t, []string{"keep.txt"}, paths)
}

func TestEnumerateCallbackErrorStopsRun(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
	})

	boom := errors.New("callback failed")
	err := NewFilesystemEnumerator(Config{Root: root}).Enumerate(context.Background(), func(string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestEnumerateCancelledContext(t *testing.T) {
	root := makeTree(t, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFilesystemEnumerator(Config{Root: root}).Enumerate(ctx, func(string) error {
		return nil
	})
	assert.Error(t, err)
}

func TestEnumerateParallelWorkers(t *testing.T) {
	files := make(map[string]string, 50)
	for i := 0; i < 50; i++ {
		files[filepath.Join("d", string(rune('a'+i%26))+string(rune('0'+i/26))+".txt")] = "x"
	}
	root := makeTree(t, files)

	paths := collect(t, root, Config{Workers: 4})
	assert.Len(t, paths, len(files))
}
