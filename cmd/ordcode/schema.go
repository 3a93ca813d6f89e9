package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Schema describes a composite key as an ordered list of typed fields.
type Schema struct {
	Fields []Field `toml:"fields" yaml:"fields"`
}

// Field is one schema entry.
type Field struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`

	kind     kind
	optional bool
}

type kind uint8

const (
	kindBool kind = iota
	kindU8
	kindU16
	kindU32
	kindU64
	kindI8
	kindI16
	kindI32
	kindI64
	kindF32
	kindF64
	kindChar
	kindStr
	kindBytes
)

var kindNames = map[string]kind{
	"bool":  kindBool,
	"u8":    kindU8,
	"u16":   kindU16,
	"u32":   kindU32,
	"u64":   kindU64,
	"i8":    kindI8,
	"i16":   kindI16,
	"i32":   kindI32,
	"i64":   kindI64,
	"f32":   kindF32,
	"f64":   kindF64,
	"char":  kindChar,
	"str":   kindStr,
	"bytes": kindBytes,
}

// LoadSchema reads a schema file; the extension selects TOML or YAML.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return parseSchema(data, "toml")
	case ".yaml", ".yml":
		return parseSchema(data, "yaml")
	default:
		return nil, fmt.Errorf("unsupported schema extension %q (want .toml, .yaml or .yml)", ext)
	}
}

func parseSchema(data []byte, format string) (*Schema, error) {
	var s Schema
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &s); err != nil {
			return nil, fmt.Errorf("parse toml schema: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse yaml schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown schema format %q", format)
	}

	if len(s.Fields) == 0 {
		return nil, errors.New("schema has no fields")
	}
	for i := range s.Fields {
		if err := s.Fields[i].resolve(); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

func (f *Field) resolve() error {
	t := strings.ToLower(strings.TrimSpace(f.Type))
	if inner, ok := strings.CutPrefix(t, "opt<"); ok {
		inner, ok = strings.CutSuffix(inner, ">")
		if !ok {
			return fmt.Errorf("field %q: malformed option type %q", f.Name, f.Type)
		}
		f.optional = true
		t = inner
	}

	k, ok := kindNames[t]
	if !ok {
		return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
	}
	f.kind = k

	return nil
}

// parse converts a command-line argument into the field's Go value.
// Optional fields accept "null" or "none" for an absent value, which is
// returned as nil.
func (f *Field) parse(arg string) (any, error) {
	if f.optional {
		switch strings.ToLower(arg) {
		case "null", "none":
			return nil, nil
		}
	}

	v, err := parseKind(f.kind, arg)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}

	return v, nil
}

func parseKind(k kind, arg string) (any, error) {
	switch k {
	case kindBool:
		return strconv.ParseBool(arg)
	case kindU8:
		v, err := strconv.ParseUint(arg, 0, 8)
		return uint8(v), err
	case kindU16:
		v, err := strconv.ParseUint(arg, 0, 16)
		return uint16(v), err
	case kindU32:
		v, err := strconv.ParseUint(arg, 0, 32)
		return uint32(v), err
	case kindU64:
		return strconv.ParseUint(arg, 0, 64)
	case kindI8:
		v, err := strconv.ParseInt(arg, 0, 8)
		return int8(v), err
	case kindI16:
		v, err := strconv.ParseInt(arg, 0, 16)
		return int16(v), err
	case kindI32:
		v, err := strconv.ParseInt(arg, 0, 32)
		return int32(v), err
	case kindI64:
		return strconv.ParseInt(arg, 0, 64)
	case kindF32:
		v, err := strconv.ParseFloat(arg, 32)
		return float32(v), err
	case kindF64:
		return strconv.ParseFloat(arg, 64)
	case kindChar:
		r, size := utf8.DecodeRuneInString(arg)
		if r == utf8.RuneError || size != len(arg) {
			return nil, fmt.Errorf("char needs exactly one character, got %q", arg)
		}
		return r, nil
	case kindStr:
		return arg, nil
	case kindBytes:
		return hex.DecodeString(arg)
	default:
		return nil, fmt.Errorf("unknown kind %d", k)
	}
}
