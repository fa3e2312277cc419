package java

import "github.com/CodMac/uml-lens/core"

func init() {
	core.RegisterNoiseFilter(core.LangJava, BuiltinTable)
}

// --- Java 内置符号表 ---

// BuiltinTable 收录常作为父类或接口出现的 JDK 类型，短名称与 QN 均可匹配
var BuiltinTable = core.NewBuiltinSet(
	// === java.lang 核心类 (默认隐式导入) ===
	"Object", "java.lang.Object",
	"Enum", "java.lang.Enum",
	"Record", "java.lang.Record",
	"Number", "java.lang.Number",
	"Thread", "java.lang.Thread",
	"Throwable", "java.lang.Throwable",
	"Exception", "java.lang.Exception",
	"RuntimeException", "java.lang.RuntimeException",
	"Error", "java.lang.Error",
	"IllegalArgumentException", "java.lang.IllegalArgumentException",
	"IllegalStateException", "java.lang.IllegalStateException",
	"UnsupportedOperationException", "java.lang.UnsupportedOperationException",

	// === java.lang 接口 ===
	"Iterable", "java.lang.Iterable",
	"AutoCloseable", "java.lang.AutoCloseable",
	"Runnable", "java.lang.Runnable",
	"Comparable", "java.lang.Comparable",
	"CharSequence", "java.lang.CharSequence",
	"Cloneable", "java.lang.Cloneable",
	"Appendable", "java.lang.Appendable",

	// === java.io ===
	"Serializable", "java.io.Serializable",
	"Closeable", "java.io.Closeable",
	"Externalizable", "java.io.Externalizable",
	"IOException", "java.io.IOException",

	// === java.util ===
	"Comparator", "java.util.Comparator",
	"Collection", "java.util.Collection",
	"List", "java.util.List",
	"Set", "java.util.Set",
	"Map", "java.util.Map",
	"Queue", "java.util.Queue",
	"Deque", "java.util.Deque",
	"Iterator", "java.util.Iterator",
	"AbstractList", "java.util.AbstractList",
	"AbstractMap", "java.util.AbstractMap",
	"EventListener", "java.util.EventListener",
	"EventObject", "java.util.EventObject",

	// === java.util.function ===
	"Function", "java.util.function.Function",
	"BiFunction", "java.util.function.BiFunction",
	"Supplier", "java.util.function.Supplier",
	"Consumer", "java.util.function.Consumer",
	"Predicate", "java.util.function.Predicate",

	// === java.util.concurrent ===
	"Callable", "java.util.concurrent.Callable",
	"Future", "java.util.concurrent.Future",
	"Executor", "java.util.concurrent.Executor",
)
