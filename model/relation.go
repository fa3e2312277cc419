package model

// --- 类型关系种类 (Relation Kinds) ---

// RelationKind 是表示类型间关系的字符串常量
type RelationKind string

const (
	// Extend 继承: 类与类、接口与接口之间的继承, Go 的结构体/接口嵌入
	// e.g., [Java: Source(Class) -> Target(Class)]
	Extend RelationKind = "EXTEND"

	// Implement 实现: 类实现接口
	// e.g., [Java: Source(Class) -> Target(Interface)]
	Implement RelationKind = "IMPLEMENT"

	// Nest 嵌套: 内部类型指向其外部类型
	// e.g., [C#: Source(Inner) -> Target(Outer)]
	Nest RelationKind = "NEST"

	// Unknown 未知: 语法上无法区分继承与实现 (C# 的 base_list)，在序列化时根据目标推断
	Unknown RelationKind = "UNKNOWN"
)

// Edge 是一条导出的关系
type Edge struct {
	Source   string       `json:"Source"`   // Source: 发起方的 QN
	Target   string       `json:"Target"`   // Target: 指向方 QN，未注册时为书写名称
	Relation RelationKind `json:"Relation"`
}
