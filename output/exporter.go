package output

import (
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
)

type OutType string

const (
	PlantUML OutType = "plantuml"
	JsonL    OutType = "jsonl"
	Mermaid  OutType = "mermaid"
)

// ParseOutType 校验输出格式名称
func ParseOutType(s string) (OutType, error) {
	switch t := OutType(s); t {
	case PlantUML, JsonL, Mermaid:
		return t, nil
	}
	return "", fmt.Errorf("unknown output format %q (plantuml, jsonl, mermaid)", s)
}

// Exporter 将已生成的产物写入输出目录
type Exporter struct {
	outputDir string
	access    model.AccessTable
}

func NewExporter(outputDir string, access model.AccessTable) *Exporter {
	return &Exporter{outputDir: outputDir, access: access}
}

func (p *Exporter) OutputDir() string { return p.outputDir }

// ==========================================
// 1. 字节拷贝 (Diagram / PNG / SVG)
// ==========================================

// SaveDiagram 原样保存图文本为 <name>.puml
func (p *Exporter) SaveDiagram(name, text string) (string, error) {
	return p.write(name+".puml", []byte(text))
}

// SavePNG 保存渲染得到的位图
func (p *Exporter) SavePNG(name string, data []byte) (string, error) {
	return p.write(name+".png", data)
}

// SaveSVG 保存渲染得到的矢量图
func (p *Exporter) SaveSVG(name, svg string) (string, error) {
	return p.write(name+".svg", []byte(svg))
}

func (p *Exporter) write(fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(p.outputDir, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ==========================================
// 2. 结构化导出 (JSONL / Mermaid)
// ==========================================

// ExportJsonL 写出 type.jsonl 与 edge.jsonl，返回类型数与关系数
func (p *Exporter) ExportJsonL(snap *core.Snapshot) (int, int, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return 0, 0, err
	}
	typePath := filepath.Join(p.outputDir, "type.jsonl")
	edgePath := filepath.Join(p.outputDir, "edge.jsonl")

	typeFile, err := os.Create(typePath)
	if err != nil {
		return 0, 0, err
	}
	defer typeFile.Close()

	edgeFile, err := os.Create(edgePath)
	if err != nil {
		return 0, 0, err
	}
	defer edgeFile.Close()

	typeCount, err := WriteTypes(typeFile, snap)
	if err != nil {
		return typeCount, 0, fmt.Errorf("write %s: %w", typePath, err)
	}
	edgeCount, err := WriteEdges(edgeFile, snap)
	if err != nil {
		return typeCount, edgeCount, fmt.Errorf("write %s: %w", edgePath, err)
	}
	return typeCount, edgeCount, nil
}

// ExportMermaidHTML 写出可直接在浏览器中打开的 visualization.html
func (p *Exporter) ExportMermaidHTML(snap *core.Snapshot) (int, int, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return 0, 0, err
	}
	htmlPath := filepath.Join(p.outputDir, "visualization.html")

	f, err := os.Create(htmlPath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	text := NewMermaidSerializer(p.access).Serialize(snap)

	fmt.Fprintln(f, `<!DOCTYPE html><html><head><meta charset="UTF-8"><script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script></head>
<body><pre class="mermaid">`)
	fmt.Fprint(f, html.EscapeString(text))
	if _, err := fmt.Fprintln(f, `</pre><script>mermaid.initialize({startOnLoad:true, maxTextSize:1000000});</script></body></html>`); err != nil {
		return 0, 0, err
	}

	return countTypes(snap), len(snap.Edges), nil
}

func countTypes(snap *core.Snapshot) int {
	var walk func(ns *core.NamespaceView) int
	walk = func(ns *core.NamespaceView) int {
		n := len(ns.Types)
		for _, nested := range ns.Nested {
			n += walk(nested)
		}
		return n
	}
	total := 0
	for _, ns := range snap.Namespaces {
		total += walk(ns)
	}
	return total
}
