package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zintix-labs/quadlab/errs"
)

// Key 是 Rule 在 Registry 內的名稱。
type Key string

const (
	KeyRectangleStart Key = "rectangle_start"
	KeyRectangleMid   Key = "rectangle_mid"
	KeyRectangleEnd   Key = "rectangle_end"
	KeyTrapezoid      Key = "trapezoid"
	KeySimpson13      Key = "simpson_1_3"
	KeySimpson38      Key = "simpson_3_8"
	KeyBarrel         Key = "barrel" // Simpson 1/3 的別名（Kepler 桶形公式）
)

// NewtonCotesKey 回傳 d 階 Newton–Cotes 在 Default() 內的名稱，例如 "newton_cotes_4"。
func NewtonCotesKey(d int) Key {
	return Key(fmt.Sprintf("newton_cotes_%d", d))
}

// ParseKey 正規化使用者輸入的名稱：去空白、轉小寫、"-" 與空白視為 "_"。
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.NewReplacer("-", "_", " ", "_", "/", "_").Replace(s)
	if s == "" {
		return "", errs.InvalidArgument("rule", "rule name is empty")
	}
	return Key(s), nil
}

// Registry 保存具名的 Rule。建立完成後只讀，可被多個 goroutine 共用。
type Registry struct {
	rules map[Key]Rule
}

func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[Key]Rule, 32),
	}
}

func (r *Registry) Register(key Key, rl Rule) error {
	if key == "" {
		return errs.NewFatal("empty rule key")
	}
	if rl == nil {
		return errs.NewFatal(fmt.Sprintf("nil rule for key %s", key))
	}
	if _, ok := r.rules[key]; ok {
		return errs.NewFatal(fmt.Sprintf("duplicate rule key %s", key))
	}
	r.rules[key] = rl
	return nil
}

func (r *Registry) Get(key Key) (Rule, bool) {
	rl, ok := r.rules[key]
	return rl, ok
}

// Lookup 與 Get 相同，但找不到時回傳 InvalidArgument。
func (r *Registry) Lookup(key Key) (Rule, error) {
	rl, ok := r.rules[key]
	if !ok {
		return nil, errs.InvalidArgument("integration_rule", "unknown integration rule %q", key)
	}
	return rl, nil
}

func (r *Registry) IsExist(key Key) bool {
	_, ok := r.rules[key]
	return ok
}

// Keys 回傳排序後的名稱，用來穩定輸出。
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.rules))
	for k := range r.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *Registry) Len() int {
	return len(r.rules)
}

// MergeRegistry merges multiple registries into a new one.
//
// Function values are not comparable, so a key present in two registries is an error
// even if both sides hold the same function.
func MergeRegistry(regs ...*Registry) (*Registry, error) {
	out := NewRegistry()
	origin := make(map[Key]int, 32)

	for i, r := range regs {
		if r == nil {
			continue
		}
		for key, rl := range r.rules {
			if _, ok := out.rules[key]; ok {
				return nil, errs.NewFatal(fmt.Sprintf("duplicate rule key %s (registry #%d and #%d)", key, origin[key], i))
			}
			out.rules[key] = rl
			origin[key] = i
		}
	}
	return out, nil
}

// Default 回傳內建公式的 Registry：三種矩形、梯形、Simpson 1/3（含 barrel 別名）、
// Simpson 3/8，以及 0..MaxNewtonCotesDegree 階的 Newton–Cotes。
func Default() *Registry {
	r := NewRegistry()
	builtin := []struct {
		key Key
		rl  Rule
	}{
		{KeyRectangleStart, RectangleStart},
		{KeyRectangleMid, RectangleMid},
		{KeyRectangleEnd, RectangleEnd},
		{KeyTrapezoid, Trapezoid},
		{KeySimpson13, Simpson13},
		{KeyBarrel, Simpson13},
		{KeySimpson38, Simpson38},
	}
	for _, b := range builtin {
		// 內建名稱不重複，不會失敗
		_ = r.Register(b.key, b.rl)
	}
	for d := 0; d <= MaxNewtonCotesDegree; d++ {
		nc, err := NewtonCotes(d)
		if err != nil {
			continue
		}
		_ = r.Register(NewtonCotesKey(d), nc)
	}
	return r
}
