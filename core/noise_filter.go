package core

import "fmt"

// FilterLevel 定义关系边过滤的严苛程度
type FilterLevel int

const (
	LevelRaw      FilterLevel = iota // 不进行任何过滤，保留所有关系（包括悬空引用）
	LevelBalanced                    // 过滤掉指向语言内置基础类型的悬空边（如 Object, IDisposable, error）
	LevelPure                        // 只保留已注册类型之间的关系 (Source -> Source)
)

// ParseFilterLevel 将 0/1/2 转换为 FilterLevel
func ParseFilterLevel(n int) (FilterLevel, error) {
	if n < int(LevelRaw) || n > int(LevelPure) {
		return LevelRaw, fmt.Errorf("filter level must be 0(Raw), 1(Balanced) or 2(Pure), got %d", n)
	}
	return FilterLevel(n), nil
}

// NoiseFilter 判断一条悬空边的目标是否为该语言的内置类型
type NoiseFilter interface {
	IsBuiltin(targetName string) bool
}

var noiseFilterMap = make(map[Language]NoiseFilter)

// RegisterNoiseFilter 注册一个语言与其对应的 NoiseFilter
func RegisterNoiseFilter(lang Language, noiseFilter NoiseFilter) {
	noiseFilterMap[lang] = noiseFilter
}

// GetNoiseFilter 根据语言类型获取对应的 NoiseFilter，未注册时不过滤
func GetNoiseFilter(lang Language) NoiseFilter {
	noiseFilter, ok := noiseFilterMap[lang]
	if !ok {
		return DefaultNoiseFilter{}
	}
	return noiseFilter
}

// DefaultNoiseFilter 不认为任何类型是内置类型
type DefaultNoiseFilter struct{}

func (DefaultNoiseFilter) IsBuiltin(string) bool { return false }

// BuiltinSet 是基于名称集合的 NoiseFilter，同时匹配短名称与 QN
type BuiltinSet map[string]struct{}

func NewBuiltinSet(names ...string) BuiltinSet {
	set := make(BuiltinSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s BuiltinSet) IsBuiltin(targetName string) bool {
	_, ok := s[bareTypeName(targetName)]
	return ok
}

// IsNoise 判断边在给定等级下是否应被丢弃。已解析的边永远保留。
func IsNoise(edge ResolvedEdge, level FilterLevel) bool {
	if edge.Target != nil || level == LevelRaw {
		return false
	}
	if level == LevelPure {
		return true
	}
	for _, file := range edge.Source.Files {
		if lang, ok := LanguageOf(file); ok && GetNoiseFilter(lang).IsBuiltin(edge.TargetName) {
			return true
		}
	}
	return false
}

// Filter 返回去除噪音边后的快照，命名空间与类型视图共享
func (s *Snapshot) Filter(level FilterLevel) *Snapshot {
	if s == nil || level == LevelRaw {
		return s
	}
	out := &Snapshot{Namespaces: s.Namespaces}
	for _, edge := range s.Edges {
		if !IsNoise(edge, level) {
			out.Edges = append(out.Edges, edge)
		}
	}
	return out
}
