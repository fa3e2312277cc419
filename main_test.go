package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestMain_Integration(t *testing.T) {
	// 1. 准备源码、配置与渲染服务
	src := t.TempDir()
	writeSource(t, src, "cs/Shapes.cs", `namespace Geo {
    public interface IShape { double Area(); }
    public abstract class Shape : IShape { }
}`)
	writeSource(t, src, "java/app/App.java", "package app;\npublic class App extends Base {}\n")
	writeSource(t, src, "java/app/Base.java", "package app;\nclass Base { int n; }\n")
	writeSource(t, src, "go/store/store.go", "package store\n\ntype Store struct {\n\tName string\n}\n")
	writeSource(t, src, "README.md", "# not source")

	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "umllens.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[output]\nname = \"arch\"\n"), 0644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/svg/") {
			w.Write([]byte("<svg/>"))
			return
		}
		w.Write([]byte("PNG"))
	}))
	defer srv.Close()

	out := t.TempDir()

	// 2. 生成 PlantUML
	require.NoError(t, execute(t, "generate", src, "--config", cfgPath, "--color", "off",
		"--out-dir", filepath.Join(out, "puml"), "--format", "plantuml", "--render=false"))

	data, err := os.ReadFile(filepath.Join(out, "puml", "arch.puml"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "@startuml\n"))
	assert.True(t, strings.HasSuffix(text, "\n@enduml"))
	for _, line := range []string{
		"namespace Geo {\n",
		"  interface IShape {\n",
		"    +Area() : double\n",
		"  abstract class Shape {\n",
		"namespace app {\n",
		"    -n : int\n",
		"namespace store {\n",
		"    +Name : string\n",
		"Geo.Shape ..|> Geo.IShape\n",
		"app.App --|> app.Base\n",
	} {
		assert.Contains(t, text, line)
	}

	// 3. Mermaid + 渲染
	require.NoError(t, execute(t, "generate", src, "--config", cfgPath, "--color", "off",
		"--out-dir", filepath.Join(out, "mermaid"), "--format", "mermaid", "--render", "--server", srv.URL))
	assert.FileExists(t, filepath.Join(out, "mermaid", "visualization.html"))
	png, err := os.ReadFile(filepath.Join(out, "mermaid", "arch.png"))
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(png))
	assert.FileExists(t, filepath.Join(out, "mermaid", "arch.svg"))

	// 4. JSONL, 只分析 Java
	require.NoError(t, execute(t, "generate", src, "--config", cfgPath, "--color", "off",
		"--out-dir", filepath.Join(out, "jsonl"), "--format", "jsonl", "--render=false", "--lang", "java"))
	types, err := os.ReadFile(filepath.Join(out, "jsonl", "type.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(types), "\n"))

	// 5. 单独渲染已有的 .puml
	require.NoError(t, execute(t, "render", filepath.Join(out, "puml", "arch.puml"), "--config", cfgPath,
		"--color", "off", "--server", srv.URL, "--out-dir", filepath.Join(out, "render")))
	svg, err := os.ReadFile(filepath.Join(out, "render", "arch.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(svg))
}

func TestMain_InvalidFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "umllens.toml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0644))

	err := execute(t, "generate", t.TempDir(), "--config", cfgPath, "--color", "off", "--format", "dot", "--lang", "")
	assert.Error(t, err)
}

func TestMain_WatchRejectsRemoteRepository(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "umllens.toml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0644))

	err := execute(t, "watch", t.TempDir(), "--config", cfgPath, "--color", "off", "--repo", "octo/demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--repo")
}
