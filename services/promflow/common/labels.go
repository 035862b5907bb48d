package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/tidwall/gjson"
)

// ErrInvalidLabels signals a labels value that is neither a name to value mapping nor a list of name/value pairs
var ErrInvalidLabels = errors.New("invalid labels")

// Labels is an ordered set of push labels. It decodes from either a mapping ({"a":"b"}) or a list of
// name/value pairs ([{"name":"a","value":"b"}]), keeping the order the entries were provided in.
type Labels []Label

// UnmarshalJSON accepts the mapping and the list forms
func (l *Labels) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidLabels)
	}

	parsed := gjson.ParseBytes(data)
	switch {
	case parsed.Type == gjson.Null:
		*l = nil
		return nil
	case parsed.IsObject():
		return l.fromJSONMapping(parsed)
	case parsed.IsArray():
		return l.fromJSONList(parsed)
	default:
		return fmt.Errorf("%w: expected an object or an array", ErrInvalidLabels)
	}
}

func (l *Labels) fromJSONMapping(parsed gjson.Result) error {
	labels := make(Labels, 0)
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("%w: value of label '%s' is not a string", ErrInvalidLabels, key.String())
			return false
		}
		labels = append(labels, Label{Name: key.String(), Value: value.String()})
		return true
	})
	if err != nil {
		return err
	}

	*l = labels
	return nil
}

func (l *Labels) fromJSONList(parsed gjson.Result) error {
	labels := make(Labels, 0)
	var err error
	parsed.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			err = fmt.Errorf("%w: list entries must be objects", ErrInvalidLabels)
			return false
		}
		labels = append(labels, Label{Name: item.Get("name").String(), Value: item.Get("value").String()})
		return true
	})
	if err != nil {
		return err
	}

	*l = labels
	return nil
}

// UnmarshalTOML accepts an inline table (Labels = { env = "test" }) or an array of
// inline tables (Labels = [{ Name = "env", Value = "test" }])
func (l *Labels) UnmarshalTOML(node *unstable.Node) error {
	switch node.Kind {
	case unstable.InlineTable:
		return l.fromTOMLTable(node)
	case unstable.Array:
		return l.fromTOMLList(node)
	default:
		return fmt.Errorf("%w: expected an inline table or an array, got %s", ErrInvalidLabels, node.Kind)
	}
}

func (l *Labels) fromTOMLTable(node *unstable.Node) error {
	labels := make(Labels, 0)
	it := node.Children()
	for it.Next() {
		kv := it.Node()
		if kv.Kind != unstable.KeyValue {
			continue
		}

		name := tomlKey(kv)
		value := kv.Value()
		if value.Kind != unstable.String {
			return fmt.Errorf("%w: value of label '%s' is not a string", ErrInvalidLabels, name)
		}
		labels = append(labels, Label{Name: name, Value: string(value.Data)})
	}

	*l = labels
	return nil
}

func (l *Labels) fromTOMLList(node *unstable.Node) error {
	labels := make(Labels, 0)
	it := node.Children()
	for it.Next() {
		entry := it.Node()
		if entry.Kind != unstable.InlineTable {
			return fmt.Errorf("%w: list entries must be inline tables", ErrInvalidLabels)
		}

		label := Label{}
		fields := entry.Children()
		for fields.Next() {
			kv := fields.Node()
			if kv.Kind != unstable.KeyValue {
				continue
			}

			switch tomlKey(kv) {
			case "Name":
				label.Name = string(kv.Value().Data)
			case "Value":
				label.Value = string(kv.Value().Data)
			}
		}
		labels = append(labels, label)
	}

	*l = labels
	return nil
}

// tomlKey joins the parts of a possibly dotted key
func tomlKey(kv *unstable.Node) string {
	parts := make([]string, 0, 1)
	key := kv.Key()
	for key.Next() {
		parts = append(parts, string(key.Node().Data))
	}

	return strings.Join(parts, ".")
}
