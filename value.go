package confstack

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the shape of a ConfigValue.
type Kind int

const (
	KindInteger Kind = iota
	KindString
	KindBool
	KindList
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindList:
		return "array"
	default:
		return "table"
	}
}

// MergePolicy selects how scalar conflicts are resolved during a merge.
type MergePolicy int

const (
	// RespectPriority lets the incoming value win unless the existing
	// value's definition is strictly higher priority. File-to-file folding
	// uses this, so later-loaded files override earlier ones while CLI- and
	// environment-sourced values resist the fold.
	RespectPriority MergePolicy = iota

	// AlwaysOverride makes the incoming value win unconditionally. Used for
	// CLI overlays, includes, and the credentials merge.
	AlwaysOverride
)

// ListItem is one element of a list value. Elements carry their own
// Definition because lists are concatenated across sources during merging.
type ListItem struct {
	Val        string
	Definition Definition
}

// ConfigValue is the recursive, provenance-tagged representation of
// configuration data as loaded from disk, before it is deserialized into a
// caller's target type. Lists hold strings only; tables hold nested values.
type ConfigValue struct {
	kind  Kind
	i     int64
	s     string
	b     bool
	list  []ListItem
	table map[string]*ConfigValue
	def   Definition
}

func IntegerValue(i int64, def Definition) *ConfigValue {
	return &ConfigValue{kind: KindInteger, i: i, def: def}
}

func StringValue(s string, def Definition) *ConfigValue {
	return &ConfigValue{kind: KindString, s: s, def: def}
}

func BoolValue(b bool, def Definition) *ConfigValue {
	return &ConfigValue{kind: KindBool, b: b, def: def}
}

func ListValue(items []ListItem, def Definition) *ConfigValue {
	return &ConfigValue{kind: KindList, list: items, def: def}
}

func TableValue(table map[string]*ConfigValue, def Definition) *ConfigValue {
	if table == nil {
		table = make(map[string]*ConfigValue)
	}
	return &ConfigValue{kind: KindTable, table: table, def: def}
}

// Kind returns the shape of the value.
func (cv *ConfigValue) Kind() Kind { return cv.kind }

// Definition returns where the value (or, for containers, the container
// itself) was defined.
func (cv *ConfigValue) Definition() Definition { return cv.def }

// Table returns the key map of a table value.
func (cv *ConfigValue) Table() (map[string]*ConfigValue, bool) {
	return cv.table, cv.kind == KindTable
}

// List returns the elements of a list value.
func (cv *ConfigValue) List() ([]ListItem, bool) {
	return cv.list, cv.kind == KindList
}

func (cv *ConfigValue) String() string {
	switch cv.kind {
	case KindInteger:
		return fmt.Sprintf("%d (from %s)", cv.i, cv.def)
	case KindString:
		return fmt.Sprintf("%s (from %s)", cv.s, cv.def)
	case KindBool:
		return fmt.Sprintf("%t (from %s)", cv.b, cv.def)
	case KindList:
		out := "["
		for i, item := range cv.list {
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%s (from %s)", item.Val, item.Definition)
		}
		return out + fmt.Sprintf("] (from %s)", cv.def)
	default:
		return fmt.Sprintf("%v (from %s)", cv.table, cv.def)
	}
}

// merge folds from into cv in place.
//
// Tables merge key-wise recursively and lists concatenate (existing elements
// first). A table or list may never merge with a value of another shape,
// regardless of policy. Scalar conflicts follow the MergePolicy.
func (cv *ConfigValue) merge(from *ConfigValue, policy MergePolicy) error {
	switch {
	case cv.kind == KindList && from.kind == KindList:
		cv.list = append(cv.list, from.list...)

	case cv.kind == KindTable && from.kind == KindTable:
		for key, value := range from.table {
			existing, ok := cv.table[key]
			if !ok {
				cv.table[key] = value
				continue
			}
			existingDef, valueDef := existing.def, value.def
			if err := existing.merge(value, policy); err != nil {
				return fmt.Errorf("failed to merge key `%s` between %s and %s: %w",
					key, existingDef, valueDef, err)
			}
		}

	case cv.kind == KindList || cv.kind == KindTable || from.kind == KindList || from.kind == KindTable:
		return &MergeError{
			Expected:    cv.kind.String(),
			Found:       from.kind.String(),
			ExpectedDef: cv.def,
			FoundDef:    from.def,
		}

	default:
		if policy == AlwaysOverride || !cv.def.HigherPriority(from.def) {
			*cv = *from
		}
	}
	return nil
}

// clone returns a deep copy of cv.
func (cv *ConfigValue) clone() *ConfigValue {
	out := *cv
	if cv.list != nil {
		out.list = append([]ListItem(nil), cv.list...)
	}
	if cv.table != nil {
		out.table = make(map[string]*ConfigValue, len(cv.table))
		for k, v := range cv.table {
			out.table[k] = v.clone()
		}
	}
	return &out
}

// fromRaw converts a freshly parsed value (as produced by the TOML, YAML or
// JSON decoders) into a ConfigValue tagged with def. Lists must contain
// strings only; floats and other exotic types are rejected.
func fromRaw(def Definition, raw any) (*ConfigValue, error) {
	switch v := raw.(type) {
	case string:
		return StringValue(v, def), nil
	case bool:
		return BoolValue(v, def), nil
	case int64:
		return IntegerValue(v, def), nil
	case int:
		return IntegerValue(int64(v), def), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("found configuration value of unknown type `%s`", v.String())
		}
		return IntegerValue(i, def), nil
	case []any:
		items := make([]ListItem, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("expected string but found %T in list", elem)
			}
			items = append(items, ListItem{Val: s, Definition: def})
		}
		return ListValue(items, def), nil
	case map[string]any:
		table := make(map[string]*ConfigValue, len(v))
		for key, elem := range v {
			value, err := fromRaw(def, elem)
			if err != nil {
				return nil, fmt.Errorf("failed to parse key `%s`: %w", key, err)
			}
			table[key] = value
		}
		return TableValue(table, def), nil
	default:
		return nil, fmt.Errorf("found configuration value of unknown type `%T`", raw)
	}
}

// ToRaw strips provenance, returning plain Go values suitable for encoding
// or for the weakly-typed Scan path.
func (cv *ConfigValue) ToRaw() any {
	switch cv.kind {
	case KindInteger:
		return cv.i
	case KindString:
		return cv.s
	case KindBool:
		return cv.b
	case KindList:
		out := make([]string, len(cv.list))
		for i, item := range cv.list {
			out[i] = item.Val
		}
		return out
	default:
		out := make(map[string]any, len(cv.table))
		for k, v := range cv.table {
			out[k] = v.ToRaw()
		}
		return out
	}
}
