package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/tools/txtar"

	"abstraktor/internal/source"
	"abstraktor/internal/targets"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const tree = `
-- raft/src/replication.c --
// ABSTRAKTOR_BLOCK_EVENT
x = 1;
-- raft/src/replication.h --
int x;
-- raft/src/nested/io.CC --
// ABSTRAKTOR_CONST: k
k();
-- raft/README.md --
// ABSTRAKTOR_CONST: ignored
doc
-- raft/.git/objects/pack.c --
// ABSTRAKTOR_CONST: hidden
hidden();
`

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range txtar.Parse([]byte(tree)).Files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
	}
	return root
}

func TestLoader_Discover(t *testing.T) {
	root := writeTree(t)
	loader := source.NewLoader()

	files, err := loader.Discover(context.Background(), filepath.Join(root, "raft"), []string{"c", ".H", ".cc"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "raft", "src", "nested", "io.CC"),
		filepath.Join(root, "raft", "src", "replication.c"),
		filepath.Join(root, "raft", "src", "replication.h"),
	}, files)
}

func TestLoader_Discover_SingleFile(t *testing.T) {
	root := writeTree(t)
	readme := filepath.Join(root, "raft", "README.md")
	files, err := source.NewLoader().Discover(context.Background(), readme, source.DefaultExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{readme}, files)
}

func TestLoader_Discover_Missing(t *testing.T) {
	_, err := source.NewLoader().Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), source.DefaultExtensions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestLoader_Collect(t *testing.T) {
	root := writeTree(t)
	sources, err := source.NewLoader().Collect(context.Background(), filepath.Join(root, "raft", "src"), []string{".c"})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, targets.Source{
		Path:    filepath.Join(root, "raft", "src", "replication.c"),
		Content: "// ABSTRAKTOR_BLOCK_EVENT\nx = 1;\n",
	}, sources[0])
}

func TestLoader_Load_FailsFast(t *testing.T) {
	root := writeTree(t)
	missing := filepath.Join(root, "missing.c")
	_, err := source.NewLoader().Load(context.Background(), []string{
		filepath.Join(root, "raft", "src", "replication.c"),
		missing,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestLoader_WriteRemove(t *testing.T) {
	ctx := context.Background()
	loader := source.NewLoader()
	path := filepath.Join(t.TempDir(), "out", "targets.json")

	require.NoError(t, loader.Write(ctx, path, []byte("[]\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	exists, err := loader.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, loader.Remove(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, loader.Remove(ctx, path))
}

func TestNormalizeExtensions(t *testing.T) {
	allowed := source.NormalizeExtensions([]string{"C", " .h ", "", "cpp"})
	assert.Len(t, allowed, 3)
	assert.True(t, source.Matches("a/b.c", allowed))
	assert.True(t, source.Matches("a/b.CPP", allowed))
	assert.False(t, source.Matches("a/b.go", allowed))
	assert.False(t, source.Matches("Makefile", allowed))
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "event.c")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 1)
	done := make(chan error, 1)
	go func() {
		done <- source.Watch(ctx, dir, []string{".c"}, 20*time.Millisecond, func(paths []string) {
			select {
			case changes <- paths:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("int x;\n"), 0o644)
		select {
		case got := <-changes:
			return assert.ObjectsAreEqual([]string{target}, got)
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	err := source.Watch(context.Background(), filepath.Join(t.TempDir(), "gone"), nil, 0, func([]string) {})
	assert.Error(t, err)
}
