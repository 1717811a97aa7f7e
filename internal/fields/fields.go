// Package fields discovers addressable paths in arbitrary JSON documents and
// resolves dotted paths against them.
package fields

import (
	"strconv"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
)

// MaxCandidates is how many discovered paths are offered for selection at once.
const MaxCandidates = 200

// Field is one discovered path with a sample value.
type Field struct {
	Path    string `json:"path"`
	Value   any    `json:"value"`
	IsArray bool   `json:"isArray"`
}

// Flatten walks v depth-first in key order and returns every scalar leaf and
// every array it finds. Only the first element of an array is inspected for
// nested fields.
func Flatten(v any) []Field {
	f := &flattener{seen: make(map[string]bool)}
	switch root := v.(type) {
	case nil:
		return nil
	case []any:
		f.emit("", root, true)
		if len(root) > 0 {
			if first, ok := root[0].(*jsondoc.Object); ok {
				f.walk(first, "")
			}
		}
	case *jsondoc.Object:
		f.walk(root, "")
	}
	return f.out
}

type flattener struct {
	out  []Field
	seen map[string]bool
}

func (f *flattener) emit(path string, v any, isArray bool) {
	if f.seen[path] {
		return
	}
	f.seen[path] = true
	f.out = append(f.out, Field{Path: path, Value: v, IsArray: isArray})
}

func (f *flattener) walk(obj *jsondoc.Object, prefix string) {
	for _, m := range obj.Members() {
		path := join(prefix, m.Key)
		switch val := m.Value.(type) {
		case []any:
			f.emit(path, val, true)
			if len(val) > 0 {
				if first, ok := val[0].(*jsondoc.Object); ok {
					f.walk(first, path)
				}
			}
		case *jsondoc.Object:
			f.walk(val, path)
		default:
			f.emit(path, val, false)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Resolve follows a dot-delimited path through objects and arrays (numeric
// segments index arrays). The empty path resolves to v itself.
func Resolve(v any, path string) (any, bool) {
	if path == "" {
		return v, v != nil
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case *jsondoc.Object:
			next, ok := node.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Lookup resolves path in a record, preferring a literal top-level key (which
// may itself contain dots) over a dotted walk.
func Lookup(record any, path string) (any, bool) {
	if obj, ok := record.(*jsondoc.Object); ok {
		if v, ok := obj.Get(path); ok {
			return v, true
		}
	}
	return Resolve(record, path)
}

// Filter keeps fields whose path contains search (case-insensitive) and, when
// arraysOnly is set, whose sample value is an array.
func Filter(list []Field, search string, arraysOnly bool) []Field {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]Field, 0, len(list))
	for _, f := range list {
		if arraysOnly && !f.IsArray {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(f.Path), needle) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// LastSegment returns the final component of a dotted path.
func LastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
