package diagram

import "github.com/CodMac/uml-lens/model"

// Notation 描述生成文本的全部固定记号，作为值注入给序列化器
type Notation struct {
	StartMarker    string
	EndMarker      string
	Indent         string
	Access         model.AccessTable
	ExtendArrow    string
	ImplementArrow string
	NestArrow      string
}

// PlantUML 返回默认的 PlantUML 记号
func PlantUML() Notation {
	return Notation{
		StartMarker:    "@startuml",
		EndMarker:      "@enduml",
		Indent:         "  ",
		Access:         model.DefaultAccessTable(),
		ExtendArrow:    "--|>",
		ImplementArrow: "..|>",
		NestArrow:      "+--",
	}
}

// WithAccess 返回替换了访问修饰符表的记号
func (n Notation) WithAccess(table model.AccessTable) Notation {
	n.Access = table
	return n
}

func (n Notation) arrow(rel model.RelationKind) string {
	switch rel {
	case model.Implement:
		return n.ImplementArrow
	case model.Nest:
		return n.NestArrow
	default:
		return n.ExtendArrow
	}
}
