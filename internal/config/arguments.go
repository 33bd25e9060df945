package config

import (
	"reflect"
	"strings"
)

// ArgTag is the struct tag runner argument structs use, e.g.
//
//	URL string `arg:"url,required"`
const ArgTag = "arg"

// ArgumentField describes one `arg`-tagged field of a runner argument struct.
type ArgumentField struct {
	Name     string
	Required bool
	Index    int
	Type     reflect.Type
}

// ArgumentFields lists the tagged, exported fields of struct type t (or a
// pointer to it). Untagged fields and fields tagged "-" are skipped.
func ArgumentFields(t reflect.Type) []ArgumentField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []ArgumentField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(ArgTag)
		parts := strings.Split(tag, ",")
		if parts[0] == "" || parts[0] == "-" {
			continue
		}
		field := ArgumentField{Name: parts[0], Index: i, Type: f.Type}
		for _, opt := range parts[1:] {
			if opt == "required" {
				field.Required = true
			}
		}
		fields = append(fields, field)
	}
	return fields
}
