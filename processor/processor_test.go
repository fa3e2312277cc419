package processor_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/processor"
	"github.com/CodMac/uml-lens/source"
	_ "github.com/CodMac/uml-lens/x/csharp"
)

// memory 是基于 map 的内容来源，缺失的路径返回 os.ErrNotExist
type memory map[string]string

func (m memory) Fetch(ctx context.Context, ref source.FileRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, ok := m[ref.Path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", ref.Path, os.ErrNotExist)
	}
	return []byte(text), nil
}

func refs(paths ...string) []source.FileRef {
	out := make([]source.FileRef, 0, len(paths))
	for _, p := range paths {
		out = append(out, source.NewFileRef(p))
	}
	return out
}

func TestGenerate_EndToEnd(t *testing.T) {
	files := memory{"Bar.cs": `namespace Foo { public class Bar : IBaz { public int X; } }`}
	proc := processor.NewProcessor(files, nil, 2, nil)

	result, err := proc.Generate(context.Background(), refs("Bar.cs"))
	require.NoError(t, err)

	assert.Equal(t, "@startuml\n"+
		"namespace Foo {\n"+
		"  class Bar {\n"+
		"    +X : int\n"+
		"  }\n"+
		"}\n"+
		"Foo.Bar ..|> IBaz\n"+
		"@enduml", result.Diagram)
	assert.Equal(t, 1, result.Files)
	assert.Empty(t, result.Failures)
	assert.Same(t, result.Registry, proc.Registry())
	assert.Equal(t, result.Diagram, proc.Diagram())
}

func TestGenerate_PartialFailure(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	files := memory{
		"A.cs":  `namespace N { class A {} }`,
		"C.cs":  `namespace N { class C {} }`,
		"D.txt": `not source`,
	}
	proc := processor.NewProcessor(files, nil, 4, zap.New(obs))

	result, err := proc.Generate(context.Background(), refs("A.cs", "B.cs", "C.cs", "D.txt"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "B.cs", result.Failures[0].File.Path)
	assert.ErrorIs(t, result.Failures[0], processor.ErrContentUnavailable)
	assert.ErrorIs(t, result.Failures[0], os.ErrNotExist)
	assert.Equal(t, "D.txt", result.Failures[1].File.Path)
	assert.ErrorIs(t, result.Failures[1], processor.ErrExtraction)

	_, okA := result.Registry.Lookup("N.A")
	_, okC := result.Registry.Lookup("N.C")
	assert.True(t, okA)
	assert.True(t, okC)
	assert.Equal(t, 2, logs.FilterMessage("skip file").Len())
}

func TestGenerate_PreservesFileOrderUnderConcurrency(t *testing.T) {
	var paths []string
	files := make(map[string]string)
	for i := 0; i < 8; i++ {
		p := fmt.Sprintf("T%d.cs", i)
		paths = append(paths, p)
		files[p] = fmt.Sprintf("namespace N { class T%d {} }", i)
	}
	// 越靠前的文件返回越慢
	slow := source.ProviderFunc(func(ctx context.Context, ref source.FileRef) ([]byte, error) {
		var idx int
		fmt.Sscanf(ref.Path, "T%d.cs", &idx)
		time.Sleep(time.Duration(8-idx) * 5 * time.Millisecond)
		return []byte(files[ref.Path]), nil
	})

	proc := processor.NewProcessor(slow, nil, 8, nil)
	result, err := proc.Generate(context.Background(), refs(paths...))
	require.NoError(t, err)

	ns, ok := result.Registry.Namespace("N")
	require.True(t, ok)
	require.Len(t, ns.Types, 8)
	for i, qn := range ns.Types {
		assert.Equal(t, fmt.Sprintf("N.T%d", i), qn)
	}

	last := -1
	for i := 0; i < 8; i++ {
		pos := strings.Index(result.Diagram, fmt.Sprintf("class T%d {", i))
		assert.Greater(t, pos, last)
		last = pos
	}
}

func TestGenerate_MergesPartialDeclarations(t *testing.T) {
	files := memory{
		"Part1.cs": `namespace N { public partial class P { public int A; } }`,
		"Part2.cs": `namespace N { public partial class P { private int B; } }`,
	}
	proc := processor.NewProcessor(files, nil, 2, nil)
	result, err := proc.Generate(context.Background(), refs("Part1.cs", "Part2.cs"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Registry.Len())
	entry, ok := result.Registry.Lookup("N.P")
	require.True(t, ok)
	assert.Equal(t, []model.Member{
		{Access: "public", Text: "A : int"},
		{Access: "private", Text: "B : int"},
	}, entry.Members)
	assert.Equal(t, []string{"Part1.cs", "Part2.cs"}, entry.Files)
}

func TestGenerate_KindConflictKeepsFirst(t *testing.T) {
	files := memory{
		"A.cs": `namespace N { class Shape {} }`,
		"B.cs": `namespace N { interface Shape {} }`,
	}
	proc := processor.NewProcessor(files, nil, 1, nil)
	result, err := proc.Generate(context.Background(), refs("A.cs", "B.cs"))
	require.NoError(t, err)

	entry, ok := result.Registry.Lookup("N.Shape")
	require.True(t, ok)
	assert.Equal(t, model.Class, entry.Kind)
	require.Len(t, result.Registry.Conflicts(), 1)
	assert.Contains(t, result.Diagram, "class Shape {")
}

func TestGenerate_CancellationKeepsPreviousRegistry(t *testing.T) {
	files := memory{"A.cs": `namespace N { class A {} }`}
	proc := processor.NewProcessor(files, nil, 2, nil)

	first, err := proc.Generate(context.Background(), refs("A.cs"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancelling := source.ProviderFunc(func(ctx context.Context, ref source.FileRef) ([]byte, error) {
		cancel()
		return nil, ctx.Err()
	})
	proc.Provider = cancelling

	_, err = proc.Generate(ctx, refs("A.cs", "B.cs"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Same(t, first.Registry, proc.Registry())
	assert.Equal(t, first.Diagram, proc.Diagram())
}

func TestRegenerate_ReflectsRegistryMutation(t *testing.T) {
	files := memory{"A.cs": `namespace N { class A {} }`}
	proc := processor.NewProcessor(files, nil, 1, nil)

	assert.Equal(t, "@startuml\n@enduml", proc.Regenerate())

	result, err := proc.Generate(context.Background(), refs("A.cs"))
	require.NoError(t, err)
	assert.Equal(t, result.Diagram, proc.Regenerate())

	proc.Registry().RegisterType(model.Declaration{
		Namespace: "N",
		Name:      "B",
		Kind:      model.Class,
		Bases:     []model.BaseRef{{Name: "A", Relation: model.Extend}},
	})
	text := proc.Regenerate()
	assert.NotEqual(t, result.Diagram, text)
	assert.Contains(t, text, "  class B {\n")
	assert.Contains(t, text, "N.B --|> N.A\n")
	assert.Equal(t, text, proc.Diagram())
}

func TestGenerate_UnsupportedLanguage(t *testing.T) {
	proc := processor.NewProcessor(memory{"x.rb": "class X; end"}, nil, 1, nil)
	result, err := proc.Generate(context.Background(), refs("x.rb"))
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0], core.ErrUnsupportedLanguage)
	assert.Equal(t, "@startuml\n@enduml", result.Diagram)
}

func TestGenerate_FilterLevelDropsBuiltinBases(t *testing.T) {
	files := memory{"Repo.cs": `namespace N { class Repo : System.IDisposable, IStore {} }`}
	proc := processor.NewProcessor(files, nil, 1, nil)

	result, err := proc.Generate(context.Background(), refs("Repo.cs"))
	require.NoError(t, err)
	assert.Contains(t, result.Diagram, "N.Repo ..|> System.IDisposable\n")

	proc.FilterLevel = core.LevelBalanced
	text := proc.Regenerate()
	assert.NotContains(t, text, "IDisposable")
	assert.Contains(t, text, "N.Repo ..|> IStore\n")

	proc.FilterLevel = core.LevelPure
	assert.NotContains(t, proc.Regenerate(), "..|>")
}
