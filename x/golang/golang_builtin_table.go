package golang

import "github.com/CodMac/uml-lens/core"

func init() {
	core.RegisterNoiseFilter(core.LangGo, BuiltinTable)
}

// BuiltinTable 收录常被嵌入的预声明与标准库类型
var BuiltinTable = core.NewBuiltinSet(
	"error", "any", "comparable",
	"fmt.Stringer",
	"io.Reader", "io.Writer", "io.Closer", "io.ReadCloser", "io.WriteCloser", "io.ReadWriter", "io.ReadWriteCloser",
	"context.Context",
	"sync.Mutex", "sync.RWMutex", "sync.WaitGroup", "sync.Once",
	"sort.Interface",
	"http.Handler", "http.ResponseWriter",
	"json.Marshaler", "json.Unmarshaler",
)
