package model

import "strings"

// MemberFlags 描述会影响 UML 描述的成员修饰
type MemberFlags struct {
	Static   bool
	Abstract bool
}

func (f MemberFlags) prefix() string {
	switch {
	case f.Abstract:
		return "{abstract} "
	case f.Static:
		return "{static} "
	}
	return ""
}

// DataMember 构建字段/属性/常量的描述: "name : type"
func DataMember(access, name, typ string, flags MemberFlags) Member {
	text := name
	if typ = strings.TrimSpace(typ); typ != "" {
		text += " : " + typ
	}
	return Member{Access: access, Text: flags.prefix() + text}
}

// CallableMember 构建方法/构造函数的描述: "name(params) : result"，void 与空返回值省略
func CallableMember(access, name string, params []string, result string, flags MemberFlags) Member {
	text := name + "(" + strings.Join(params, ", ") + ")"
	if result = strings.TrimSpace(result); result != "" && result != "void" {
		text += " : " + result
	}
	return Member{Access: access, Text: flags.prefix() + text}
}

// Param 构建参数描述: "name : type"
func Param(name, typ string) string {
	name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
	switch {
	case name == "":
		return typ
	case typ == "":
		return name
	}
	return name + " : " + typ
}
