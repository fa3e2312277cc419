package model

// --- 类型种类 (Type Kinds) ---

// ElementKind 是表示类型实体种类的字符串常量
type ElementKind string

const (
	Class     ElementKind = "CLASS"     // 类 (C#, Java, Go struct)
	Interface ElementKind = "INTERFACE" // 接口 (C#, Java, Go)
)

// Keyword 返回 PlantUML 中对应的关键字
func (k ElementKind) Keyword() string {
	if k == Interface {
		return "interface"
	}
	return "class"
}

// Location 描述了声明在源码中的位置
type Location struct {
	FilePath  string `json:"FilePath"`
	StartLine int    `json:"StartLine"`
	EndLine   int    `json:"EndLine"`
}

// Member 描述了类型中的一个成员（字段、属性、方法等）
type Member struct {
	Access string `json:"Access"` // Access: 源码中的访问修饰符 (e.g., "public", "protected internal", "")
	Text   string `json:"Text"`   // Text: 已格式化的成员描述 (e.g., "X : int", "Run(times : int) : void")
}

// BaseRef 描述了类型对基类或接口的一次引用
type BaseRef struct {
	Name     string       `json:"Name"`     // Name: 源码中书写的名称
	Relation RelationKind `json:"Relation"` // Relation: 继承 / 实现 / 嵌套 / 未知
}

// Declaration 是 Extractor 的输出：一个文件中的一次类型声明
type Declaration struct {
	Namespace  string      `json:"Namespace"`            // Namespace: 点分隔的命名空间/包名, 全局命名空间为空
	Name       string      `json:"Name"`                 // Name: 类型短名称
	Outer      string      `json:"Outer,omitempty"`      // Outer: 点分隔的外部类型链 (e.g., "A.B")，顶层类型为空
	Kind       ElementKind `json:"Kind"`                 // Kind: CLASS / INTERFACE
	Abstract   bool        `json:"Abstract,omitempty"`   // Abstract: 是否为抽象类
	Stereotype string      `json:"Stereotype,omitempty"` // Stereotype: struct / record / enum 等
	Members    []Member    `json:"Members,omitempty"`
	Bases      []BaseRef   `json:"Bases,omitempty"`
	Location   *Location   `json:"Location,omitempty"`
}

// BuildQualifiedName 构建限定名称 (Qualified Name, QN)
func BuildQualifiedName(parentQN, name string) string {
	if parentQN == "" || parentQN == "." {
		return name
	}
	return parentQN + "." + name
}
