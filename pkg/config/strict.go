package config

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

// CheckIntegers walks a decoded yaml document alongside the Go type it is
// about to be decoded into and rejects non-integer scalars bound to integer
// fields. yaml.v3 silently truncates 20.7 into an int.
func CheckIntegers(node *yaml.Node, t reflect.Type) error {
	return checkNode(node, t, "")
}

func checkNode(node *yaml.Node, t reflect.Type, path string) error {
	if node == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := checkNode(child, t, path); err != nil {
				return err
			}
		}
		return nil
	case yaml.AliasNode:
		return checkNode(node.Alias, t, path)
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if node.Kind != yaml.ScalarNode {
			return nil
		}
		switch node.ShortTag() {
		case "!!int", "!!null":
			return nil
		}
		return &models.ConfigError{Field: path, Reason: fmt.Sprintf("must be a whole number, got %q", node.Value)}
	case reflect.Struct:
		if node.Kind != yaml.MappingNode {
			return nil
		}
		fields := yamlFields(t)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			ft, ok := fields[key]
			if !ok {
				continue
			}
			if err := checkNode(node.Content[i+1], ft, joinPath(path, key)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if node.Kind != yaml.SequenceNode {
			return nil
		}
		for i, child := range node.Content {
			if err := checkNode(child, t.Elem(), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// yamlFields maps yaml keys to field types following yaml.v3 tag rules.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("yaml")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if strings.Contains(opts, "inline") {
			for k, v := range yamlFields(derefType(f.Type)) {
				fields[k] = v
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields[name] = f.Type
	}
	return fields
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
