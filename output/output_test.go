package output_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/output"
)

func buildSnapshot() *core.Snapshot {
	r := core.NewRegistry(nil)
	r.RegisterType(model.Declaration{
		Namespace: "Foo",
		Name:      "Bar",
		Kind:      model.Class,
		Members: []model.Member{
			{Access: "public", Text: "X : int"},
			{Access: "private", Text: "{static} Cache : List<int>"},
		},
		Bases:    []model.BaseRef{{Name: "IBaz", Relation: model.Unknown}},
		Location: &model.Location{FilePath: "src/Bar.cs", StartLine: 1, EndLine: 5},
	})
	r.RegisterType(model.Declaration{
		Namespace: "Foo",
		Name:      "IShape",
		Kind:      model.Interface,
		Members:   []model.Member{{Access: "public", Text: "Area() : double"}},
	})
	r.RegisterType(model.Declaration{
		Namespace:  "Foo",
		Name:       "Circle",
		Kind:       model.Class,
		Stereotype: "struct",
		Bases:      []model.BaseRef{{Name: "IShape", Relation: model.Unknown}},
	})
	r.RegisterType(model.Declaration{Name: "Outer", Kind: model.Class})
	r.RegisterType(model.Declaration{
		Name:  "Inner",
		Kind:  model.Class,
		Bases: []model.BaseRef{{Name: "Outer", Relation: model.Nest}},
	})
	return r.Snapshot()
}

func TestMermaidSerializer(t *testing.T) {
	got := output.NewMermaidSerializer(model.DefaultAccessTable()).Serialize(buildSnapshot())

	want := strings.Join([]string{
		"classDiagram",
		`  class n_Foo_Bar["Bar"] {`,
		"    +X : int",
		"    -Cache : List~int~$",
		"  }",
		`  class n_Foo_IShape["IShape"] {`,
		"    <<interface>>",
		"    +Area() : double",
		"  }",
		`  class n_Foo_Circle["Circle"] {`,
		"    <<struct>>",
		"  }",
		`  class n_Outer["Outer"] {`,
		"  }",
		`  class n_Inner["Inner"] {`,
		"  }",
		"  n_Foo_Bar ..|> n_IBaz",
		"  n_Foo_Circle ..|> n_Foo_IShape",
		"  n_Outer *-- n_Inner",
		"",
	}, "\n")
	assert.Equal(t, want, got)
	assert.Equal(t, "classDiagram\n", output.NewMermaidSerializer(model.DefaultAccessTable()).Serialize(nil))
}

func TestExporter_ByteCopies(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exp := output.NewExporter(dir, model.DefaultAccessTable())

	text := "@startuml\nclass A {\n}\n@enduml"
	path, err := exp.SaveDiagram("diagram", text)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "diagram.puml"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))

	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	path, err = exp.SavePNG("diagram", png)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	path, err = exp.SaveSVG("diagram", "<svg/>")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestExporter_ExportJsonL(t *testing.T) {
	dir := t.TempDir()
	types, edges, err := output.NewExporter(dir, model.DefaultAccessTable()).ExportJsonL(buildSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 5, types)
	assert.Equal(t, 3, edges)

	typeLines := readLines(t, filepath.Join(dir, "type.jsonl"))
	require.Len(t, typeLines, 5)
	var first output.TypeRecord
	require.NoError(t, json.Unmarshal([]byte(typeLines[0]), &first))
	assert.Equal(t, "Foo.Bar", first.QualifiedName)
	assert.Equal(t, model.Class, first.Kind)
	assert.Equal(t, []string{"src/Bar.cs"}, first.Files)
	assert.Len(t, first.Members, 2)

	edgeLines := readLines(t, filepath.Join(dir, "edge.jsonl"))
	require.Len(t, edgeLines, 3)
	assert.JSONEq(t, `{"Source":"Foo.Bar","Target":"IBaz","Relation":"IMPLEMENT","Resolved":false}`, edgeLines[0])
	assert.JSONEq(t, `{"Source":"Foo.Circle","Target":"Foo.IShape","Relation":"IMPLEMENT","Resolved":true}`, edgeLines[1])
	assert.JSONEq(t, `{"Source":"Inner","Target":"Outer","Relation":"NEST","Resolved":true}`, edgeLines[2])
}

func TestExporter_ExportMermaidHTML(t *testing.T) {
	dir := t.TempDir()
	types, edges, err := output.NewExporter(dir, model.DefaultAccessTable()).ExportMermaidHTML(buildSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 5, types)
	assert.Equal(t, 3, edges)

	data, err := os.ReadFile(filepath.Join(dir, "visualization.html"))
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, `<pre class="mermaid">`)
	assert.Contains(t, page, "classDiagram")
	assert.Contains(t, page, "&lt;&lt;interface&gt;&gt;")
	assert.Contains(t, page, "n_Foo_Bar ..|&gt; n_IBaz")
}

func TestParseOutType(t *testing.T) {
	for _, s := range []string{"plantuml", "jsonl", "mermaid"} {
		got, err := output.ParseOutType(s)
		require.NoError(t, err)
		assert.Equal(t, output.OutType(s), got)
	}
	_, err := output.ParseOutType("dot")
	assert.Error(t, err)
}
