package csharp

import "github.com/CodMac/uml-lens/core"

func init() {
	core.RegisterNoiseFilter(core.LangCSharp, BuiltinTable)
}

// BuiltinTable 收录常作为基类或接口出现的 BCL 类型
var BuiltinTable = core.NewBuiltinSet(
	// System
	"object", "Object", "System.Object",
	"Exception", "System.Exception",
	"ApplicationException", "System.ApplicationException",
	"Attribute", "System.Attribute",
	"EventArgs", "System.EventArgs",
	"ValueType", "System.ValueType",
	"IDisposable", "System.IDisposable",
	"IAsyncDisposable", "System.IAsyncDisposable",
	"ICloneable", "System.ICloneable",
	"IComparable", "System.IComparable",
	"IEquatable", "System.IEquatable",
	"IFormattable", "System.IFormattable",
	"IServiceProvider", "System.IServiceProvider",

	// System.Collections
	"IEnumerable", "System.Collections.IEnumerable", "System.Collections.Generic.IEnumerable",
	"IEnumerator", "System.Collections.IEnumerator", "System.Collections.Generic.IEnumerator",
	"ICollection", "System.Collections.Generic.ICollection",
	"IList", "System.Collections.Generic.IList",
	"IDictionary", "System.Collections.Generic.IDictionary",
	"IReadOnlyCollection", "System.Collections.Generic.IReadOnlyCollection",
	"IReadOnlyList", "System.Collections.Generic.IReadOnlyList",
	"IComparer", "System.Collections.Generic.IComparer",
	"IEqualityComparer", "System.Collections.Generic.IEqualityComparer",

	// System.ComponentModel
	"INotifyPropertyChanged", "System.ComponentModel.INotifyPropertyChanged",
)
