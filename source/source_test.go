package source_test

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/source"
	_ "github.com/CodMac/uml-lens/x/csharp"
	_ "github.com/CodMac/uml-lens/x/java"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestNewFileRef(t *testing.T) {
	assert.Equal(t, source.FileRef{Path: "src/app/Foo.cs", Name: "Foo.cs"}, source.NewFileRef("src/app/Foo.cs"))
	assert.Equal(t, source.FileRef{Path: "Foo.cs", Name: "Foo.cs"}, source.NewFileRef("Foo.cs"))
}

func TestLocal_Fetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/Foo.cs", "class Foo {}")

	local := source.NewLocal(root)
	data, err := local.Fetch(context.Background(), source.NewFileRef("a/Foo.cs"))
	require.NoError(t, err)
	assert.Equal(t, "class Foo {}", string(data))

	_, err = local.Fetch(context.Background(), source.NewFileRef("missing.cs"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = local.Fetch(ctx, source.NewFileRef("a/Foo.cs"))
	assert.ErrorIs(t, err, context.Canceled)
}

func contentsJSON(text string) []byte {
	body, _ := json.Marshal(map[string]string{
		"type":     "file",
		"encoding": "base64",
		// GitHub 每 60 字符换行
		"content": base64.StdEncoding.EncodeToString([]byte(text))[:8] + "\n" + base64.StdEncoding.EncodeToString([]byte(text))[8:],
	})
	return body
}

func TestGitHub_FetchByOwnerAndName(t *testing.T) {
	var gotPath, gotRef, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRef = r.URL.Query().Get("ref")
		gotAuth = r.Header.Get("Authorization")
		w.Write(contentsJSON("namespace Foo { class Bar {} }"))
	}))
	defer srv.Close()

	gh := source.NewGitHub("acme/widgets", "main", "secret")
	gh.BaseURL = srv.URL

	data, err := gh.Fetch(context.Background(), source.NewFileRef("src/Bar.cs"))
	require.NoError(t, err)
	assert.Equal(t, "namespace Foo { class Bar {} }", string(data))
	assert.Equal(t, "/repos/acme/widgets/contents/src/Bar.cs", gotPath)
	assert.Equal(t, "main", gotRef)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "github://acme/widgets@main", gh.Key())
}

func TestGitHub_FetchByRepositoryID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		// 数组响应取第一个文件块
		w.Write([]byte(`[{"type":"file","encoding":"base64","content":"` + base64.StdEncoding.EncodeToString([]byte("class A {}")) + `"}]`))
	}))
	defer srv.Close()

	gh := source.NewGitHub("123456", "", "")
	gh.BaseURL = srv.URL

	data, err := gh.Fetch(context.Background(), source.NewFileRef("A.cs"))
	require.NoError(t, err)
	assert.Equal(t, "class A {}", string(data))
	assert.Equal(t, "/repositories/123456/contents/A.cs", gotPath)
	assert.Equal(t, "github://123456@HEAD", gh.Key())
}

func TestGitHub_FetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/contents/dir":
			w.Write([]byte(`{"type":"dir"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
		}
	}))
	defer srv.Close()

	gh := source.NewGitHub("acme/widgets", "", "")
	gh.BaseURL = srv.URL

	_, err := gh.Fetch(context.Background(), source.NewFileRef("missing.cs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = gh.Fetch(context.Background(), source.NewFileRef("dir"))
	assert.ErrorIs(t, err, source.ErrEmptyContent)
}

func TestGitHub_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/git/trees/dev", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		w.Write([]byte(`{"tree":[
			{"path":"src","type":"tree"},
			{"path":"src/B.cs","type":"blob"},
			{"path":"src/A.cs","type":"blob"},
			{"path":"README.md","type":"blob"}
		],"truncated":false}`))
	}))
	defer srv.Close()

	gh := source.NewGitHub("acme/widgets", "dev", "")
	gh.BaseURL = srv.URL

	refs, err := gh.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)

	filtered, err := source.FilterRefs(refs, source.ScanOptions{Language: core.LangCSharp})
	require.NoError(t, err)
	assert.Equal(t, []source.FileRef{source.NewFileRef("src/A.cs"), source.NewFileRef("src/B.cs")}, filtered)
}

func TestCache_HitsAfterFirstFetch(t *testing.T) {
	var calls int32
	inner := source.ProviderFunc(func(ctx context.Context, ref source.FileRef) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("content of " + ref.Path), nil
	})

	cache, err := source.NewCache(filepath.Join(t.TempDir(), "cache.db"), inner)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		data, err := cache.Fetch(ctx, source.NewFileRef("a.cs"))
		require.NoError(t, err)
		assert.Equal(t, "content of a.cs", string(data))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	hits, misses := cache.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)

	require.NoError(t, cache.Purge(ctx))
	_, err = cache.Fetch(ctx, source.NewFileRef("a.cs"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_DoesNotStoreFailures(t *testing.T) {
	boom := errors.New("boom")
	var fail atomic.Bool
	fail.Store(true)
	inner := source.ProviderFunc(func(ctx context.Context, ref source.FileRef) ([]byte, error) {
		if fail.Load() {
			return nil, boom
		}
		return []byte("ok"), nil
	})

	cache, err := source.NewCache(filepath.Join(t.TempDir(), "cache.db"), inner)
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Fetch(context.Background(), source.NewFileRef("a.cs"))
	assert.ErrorIs(t, err, boom)

	fail.Store(false)
	data, err := cache.Fetch(context.Background(), source.NewFileRef("a.cs"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestCache_StoreFailureStillReturnsContent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	inner := source.ProviderFunc(func(ctx context.Context, ref source.FileRef) ([]byte, error) {
		return []byte("fresh"), nil
	})
	obsCore, logs := observer.New(zapcore.WarnLevel)

	cache, err := source.NewCache(dbPath, inner)
	require.NoError(t, err)
	defer cache.Close()
	cache.WithLogger(zap.New(obsCore))

	// 拒绝所有写入
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TRIGGER deny_insert BEFORE INSERT ON contents BEGIN SELECT RAISE(ABORT, 'read only'); END;`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	data, err := cache.Fetch(context.Background(), source.NewFileRef("a.cs"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
	assert.Equal(t, 1, logs.FilterMessage("store cache failed").Len())
}

func TestCache_ScopedByProviderKey(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	rootA, rootB := t.TempDir(), t.TempDir()
	writeFile(t, rootA, "x.cs", "A")
	writeFile(t, rootB, "x.cs", "B")

	cacheA, err := source.NewCache(dbPath, source.NewLocal(rootA))
	require.NoError(t, err)
	data, err := cacheA.Fetch(context.Background(), source.NewFileRef("x.cs"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
	require.NoError(t, cacheA.Close())

	cacheB, err := source.NewCache(dbPath, source.NewLocal(rootB))
	require.NoError(t, err)
	defer cacheB.Close()
	data, err = cacheB.Fetch(context.Background(), source.NewFileRef("x.cs"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "bin/\n*.g.cs\n")
	writeFile(t, root, "src/Zeta.cs", "")
	writeFile(t, root, "src/Alpha.cs", "")
	writeFile(t, root, "src/Model.g.cs", "")
	writeFile(t, root, "src/Main.java", "")
	writeFile(t, root, "src/notes.txt", "")
	writeFile(t, root, "bin/Out.cs", "")
	writeFile(t, root, "lib/.gitignore", "Local.cs\n")
	writeFile(t, root, "lib/Local.cs", "")
	writeFile(t, root, "lib/Shared.cs", "")

	refs, err := source.Scan(root, source.ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []source.FileRef{
		source.NewFileRef("lib/Shared.cs"),
		source.NewFileRef("src/Alpha.cs"),
		source.NewFileRef("src/Main.java"),
		source.NewFileRef("src/Zeta.cs"),
	}, refs)

	refs, err = source.Scan(root, source.ScanOptions{Language: core.LangCSharp, Filter: `^src/`})
	require.NoError(t, err)
	assert.Equal(t, []source.FileRef{source.NewFileRef("src/Alpha.cs"), source.NewFileRef("src/Zeta.cs")}, refs)

	refs, err = source.Scan(root, source.ScanOptions{Language: core.LangCSharp, IgnoreGitignore: true})
	require.NoError(t, err)
	assert.Len(t, refs, 6)

	_, err = source.Scan(root, source.ScanOptions{Filter: "("})
	assert.Error(t, err)
}
