package java

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/parser"
)

func init() {
	core.RegisterExtractor(core.LangJava, NewJavaCollector(), ".java")
}

// Collector 收集 Java 文件中的类型声明
type Collector struct{}

func NewJavaCollector() *Collector {
	return &Collector{}
}

type fileContext struct {
	filePath    string
	packageName string
	source      []byte
	decls       []*model.Declaration
}

// ==========================================
// 1. 核心生命周期 (Core Workflow)
// ==========================================

func (c *Collector) Extract(fileName string, content []byte) ([]*model.Declaration, error) {
	tree, err := parser.ParseWith(tree_sitter_java.Language(), content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	defer tree.Close()

	fCtx := &fileContext{filePath: fileName, source: content}
	root := tree.RootNode()

	// 第一步：提取包名
	c.processPackage(root, fCtx)

	// 第二步：顶层类型及其内部类型
	for _, child := range parser.NamedChildren(root) {
		if isTypeDeclaration(child.Kind()) {
			c.collectType(child, fCtx, "")
		}
	}
	return fCtx.decls, nil
}

func (c *Collector) processPackage(root *sitter.Node, fCtx *fileContext) {
	pkg := parser.FindChildOfKind(root, "package_declaration")
	if pkg == nil {
		return
	}
	if ident := parser.FindChildOfKind(pkg, "scoped_identifier"); ident != nil {
		fCtx.packageName = parser.CompactContent(ident, fCtx.source)
	} else if ident := parser.FindChildOfKind(pkg, "identifier"); ident != nil {
		fCtx.packageName = parser.CompactContent(ident, fCtx.source)
	}
}

// ==========================================
// 2. 类型识别 (Type Identification)
// ==========================================

func (c *Collector) collectType(node *sitter.Node, fCtx *fileContext, outer string) {
	name := parser.FieldContent(node, "name", fCtx.source)
	if name == "" {
		return
	}

	mods := c.extractModifiers(node, fCtx.source)
	start, end := parser.Lines(node)
	decl := &model.Declaration{
		Namespace: fCtx.packageName,
		Name:      name,
		Outer:     outer,
		Kind:      model.Class,
		Location:  &model.Location{FilePath: fCtx.filePath, StartLine: start, EndLine: end},
	}

	switch node.Kind() {
	case "interface_declaration":
		decl.Kind = model.Interface
	case "annotation_type_declaration":
		decl.Kind = model.Interface
		decl.Stereotype = "annotation"
	case "enum_declaration":
		decl.Stereotype = "enum"
	case "record_declaration":
		decl.Stereotype = "record"
	}
	decl.Abstract = decl.Kind == model.Class && contains(mods, "abstract")
	decl.Bases = c.extractHeritage(node, decl.Kind, fCtx.source)
	if outer != "" {
		decl.Bases = append(decl.Bases, model.BaseRef{Name: outer, Relation: model.Nest})
	}

	// record 的组件等价于 private final 字段
	if node.Kind() == "record_declaration" {
		for _, p := range parser.ChildrenOfKind(node.ChildByFieldName("parameters"), "formal_parameter") {
			decl.Members = append(decl.Members, model.DataMember("private",
				parser.FieldContent(p, "name", fCtx.source), parser.FieldContent(p, "type", fCtx.source), model.MemberFlags{}))
		}
	}

	var nested []*sitter.Node
	for _, member := range c.bodyMembers(node) {
		if isTypeDeclaration(member.Kind()) {
			nested = append(nested, member)
			continue
		}
		decl.Members = append(decl.Members, c.collectMembers(member, decl, fCtx)...)
	}

	fCtx.decls = append(fCtx.decls, decl)
	for _, n := range nested {
		c.collectType(n, fCtx, model.BuildQualifiedName(outer, name))
	}
}

// bodyMembers 展开 enum_body 中的 enum_body_declarations
func (c *Collector) bodyMembers(node *sitter.Node) []*sitter.Node {
	var result []*sitter.Node
	for _, child := range parser.NamedChildren(node.ChildByFieldName("body")) {
		if child.Kind() == "enum_body_declarations" {
			result = append(result, parser.NamedChildren(child)...)
			continue
		}
		result = append(result, child)
	}
	return result
}

// extractHeritage 解析 extends / implements
func (c *Collector) extractHeritage(node *sitter.Node, kind model.ElementKind, src []byte) []model.BaseRef {
	var refs []model.BaseRef
	if super := node.ChildByFieldName("superclass"); super != nil {
		for _, t := range parser.NamedChildren(super) {
			refs = append(refs, model.BaseRef{Name: parser.CompactContent(t, src), Relation: model.Extend})
		}
	}

	ifaceRel := model.Implement
	if kind == model.Interface {
		ifaceRel = model.Extend
	}
	for _, name := range c.extractInterfaceList(c.findInterfacesNode(node), src) {
		refs = append(refs, model.BaseRef{Name: name, Relation: ifaceRel})
	}
	return refs
}

func (c *Collector) findInterfacesNode(node *sitter.Node) *sitter.Node {
	if n := node.ChildByFieldName("interfaces"); n != nil {
		return n
	}
	if n := node.ChildByFieldName("extends"); n != nil {
		return n
	}
	return parser.FindChildOfKind(node, "extends_interfaces")
}

func (c *Collector) extractInterfaceList(node *sitter.Node, src []byte) []string {
	if node == nil {
		return nil
	}
	target := node
	if node.Kind() != "type_list" {
		if listNode := parser.FindChildOfKind(node, "type_list"); listNode != nil {
			target = listNode
		}
	}
	var results []string
	for _, child := range parser.NamedChildren(target) {
		if strings.Contains(child.Kind(), "type") {
			results = append(results, parser.CompactContent(child, src))
		}
	}
	return results
}

// ==========================================
// 3. 成员 (Members)
// ==========================================

func (c *Collector) collectMembers(node *sitter.Node, owner *model.Declaration, fCtx *fileContext) []model.Member {
	src := fCtx.source
	mods := c.extractModifiers(node, src)
	access := c.accessOf(mods, owner)
	flags := model.MemberFlags{Static: contains(mods, "static"), Abstract: contains(mods, "abstract")}

	switch node.Kind() {
	case "field_declaration", "constant_declaration":
		if owner.Kind == model.Interface {
			flags.Static = true
		}
		typ := parser.FieldContent(node, "type", src)
		var result []model.Member
		for _, d := range parser.ChildrenOfKind(node, "variable_declarator") {
			result = append(result, model.DataMember(access, parser.FieldContent(d, "name", src), typ, flags))
		}
		return result
	case "method_declaration":
		return []model.Member{model.CallableMember(access, parser.FieldContent(node, "name", src),
			c.extractParameters(node, src), parser.FieldContent(node, "type", src), flags)}
	case "constructor_declaration", "compact_constructor_declaration":
		return []model.Member{model.CallableMember(access, parser.FieldContent(node, "name", src),
			c.extractParameters(node, src), "", flags)}
	case "annotation_type_element_declaration":
		return []model.Member{model.CallableMember("public", parser.FieldContent(node, "name", src),
			nil, parser.FieldContent(node, "type", src), model.MemberFlags{})}
	case "enum_constant":
		return []model.Member{model.DataMember("public", parser.FieldContent(node, "name", src), "", model.MemberFlags{})}
	}
	return nil
}

func (c *Collector) extractParameters(node *sitter.Node, src []byte) []string {
	var params []string
	for _, p := range parser.ChildrenOfKind(node.ChildByFieldName("parameters"), "formal_parameter", "spread_parameter") {
		if p.Kind() == "spread_parameter" {
			// spread_parameter 没有 name 字段: (type) ... (variable_declarator)
			typ := ""
			for _, child := range parser.NamedChildren(p) {
				if strings.Contains(child.Kind(), "type") {
					typ = parser.CompactContent(child, src)
				}
			}
			name := parser.FieldContent(parser.FindChildOfKind(p, "variable_declarator"), "name", src)
			params = append(params, model.Param(name, typ+"..."))
			continue
		}
		params = append(params, model.Param(parser.FieldContent(p, "name", src), parser.FieldContent(p, "type", src)))
	}
	return params
}

// ==========================================
// 4. 原子辅助函数 (Atomic Helpers)
// ==========================================

func (c *Collector) extractModifiers(n *sitter.Node, src []byte) []string {
	var mods []string
	if mNode := parser.FindChildOfKind(n, "modifiers"); mNode != nil {
		for i := uint(0); i < mNode.ChildCount(); i++ {
			child := mNode.Child(i)
			if child == nil || strings.Contains(child.Kind(), "annotation") {
				continue
			}
			if txt := parser.Content(child, src); txt != "" {
				mods = append(mods, txt)
			}
		}
	}
	return mods
}

// accessOf 取显式访问修饰符；接口成员默认 public，其余为包可见 ("")
func (c *Collector) accessOf(mods []string, owner *model.Declaration) string {
	for _, m := range mods {
		switch m {
		case "public", "private", "protected":
			return m
		}
	}
	if owner.Kind == model.Interface {
		return "public"
	}
	return ""
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	}
	return false
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
