package output

import (
	"encoding/json"
	"io"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
)

type JSONLWriter struct {
	encoder *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{encoder: json.NewEncoder(w)}
}

func (w *JSONLWriter) Write(v interface{}) error { return w.encoder.Encode(v) }

// TypeRecord 是 type.jsonl 中的一行
type TypeRecord struct {
	QualifiedName string            `json:"QualifiedName"`
	Name          string            `json:"Name"`
	Namespace     string            `json:"Namespace,omitempty"`
	Outer         string            `json:"Outer,omitempty"`
	Kind          model.ElementKind `json:"Kind"`
	Abstract      bool              `json:"Abstract,omitempty"`
	Stereotype    string            `json:"Stereotype,omitempty"`
	Members       []model.Member    `json:"Members,omitempty"`
	Files         []string          `json:"Files,omitempty"`
}

// EdgeRecord 是 edge.jsonl 中的一行；Resolved 为 false 表示目标未注册
type EdgeRecord struct {
	model.Edge
	Resolved bool `json:"Resolved"`
}

func newTypeRecord(t *core.TypeEntry) TypeRecord {
	return TypeRecord{
		QualifiedName: t.QualifiedName,
		Name:          t.Name,
		Namespace:     t.Namespace,
		Outer:         t.Outer,
		Kind:          t.Kind,
		Abstract:      t.Abstract,
		Stereotype:    t.Stereotype,
		Members:       t.Members,
		Files:         t.Files,
	}
}

func newEdgeRecord(e core.ResolvedEdge) EdgeRecord {
	return EdgeRecord{
		Edge:     model.Edge{Source: e.Source.QualifiedName, Target: e.TargetName, Relation: e.Relation},
		Resolved: e.Target != nil,
	}
}

// WriteTypes 按快照顺序写出所有类型
func WriteTypes(w io.Writer, snap *core.Snapshot) (int, error) {
	writer := NewJSONLWriter(w)
	count := 0
	var walk func(ns *core.NamespaceView) error
	walk = func(ns *core.NamespaceView) error {
		for _, t := range ns.Types {
			if err := writer.Write(newTypeRecord(t)); err != nil {
				return err
			}
			count++
		}
		for _, nested := range ns.Nested {
			if err := walk(nested); err != nil {
				return err
			}
		}
		return nil
	}
	for _, ns := range snap.Namespaces {
		if err := walk(ns); err != nil {
			return count, err
		}
	}
	return count, nil
}

// WriteEdges 按快照顺序写出所有关系
func WriteEdges(w io.Writer, snap *core.Snapshot) (int, error) {
	writer := NewJSONLWriter(w)
	count := 0
	for _, e := range snap.Edges {
		if err := writer.Write(newEdgeRecord(e)); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
