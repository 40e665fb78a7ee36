package protocol

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TagValue is an optional tag value. HasValue false is a flag tag (`@key`),
// HasValue true with an empty Value is `@key=`.
type TagValue struct {
	Value    string
	HasValue bool
}

type Tag struct {
	Key   string
	Value TagValue
}

// StringTag builds a tag carrying a value.
func StringTag(key, value string) Tag {
	return Tag{Key: key, Value: TagValue{Value: value, HasValue: true}}
}

// FlagTag builds a tag without a value.
func FlagTag(key string) Tag {
	return Tag{Key: key}
}

// Tags is an ordered, read-only set of message tags. The zero value is an
// empty set. A repeated key keeps its first occurrence; later ones are ignored.
type Tags struct {
	m *orderedmap.OrderedMap[string, TagValue]
}

func NewTags(tags ...Tag) Tags {
	if len(tags) == 0 {
		return Tags{}
	}
	m := orderedmap.New[string, TagValue]()
	for _, tag := range tags {
		if _, seen := m.Get(tag.Key); !seen {
			m.Set(tag.Key, tag.Value)
		}
	}
	return Tags{m: m}
}

func (t Tags) Len() int {
	if t.m == nil {
		return 0
	}
	return t.m.Len()
}

func (t Tags) Get(key string) (TagValue, bool) {
	if t.m == nil {
		return TagValue{}, false
	}
	return t.m.Get(key)
}

// Value returns the tag value for key. ok is false for missing and flag tags.
func (t Tags) Value(key string) (string, bool) {
	v, ok := t.Get(key)
	if !ok || !v.HasValue {
		return "", false
	}
	return v.Value, true
}

func (t Tags) Keys() []string {
	if t.m == nil {
		return nil
	}
	keys := make([]string, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (t Tags) All() []Tag {
	if t.m == nil {
		return nil
	}
	out := make([]Tag, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Tag{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// Equal compares content; order is ignored.
func (t Tags) Equal(other Tags) bool {
	if t.Len() != other.Len() {
		return false
	}
	if t.m == nil {
		return true
	}
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		v, ok := other.Get(pair.Key)
		if !ok || v != pair.Value {
			return false
		}
	}
	return true
}
