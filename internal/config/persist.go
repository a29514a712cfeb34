package config

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/tasker-notes/internal/vault"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindList
)

var settableKeys = map[string]valueKind{
	"vault.root":                      kindString,
	"suggest.min_match":               kindInt,
	"suggest.max_items":               kindInt,
	"suggest.symbols.due":             kindString,
	"suggest.symbols.start":           kindString,
	"suggest.symbols.scheduled":       kindString,
	"suggest.symbols.done":            kindString,
	"suggest.symbols.recurrence":      kindString,
	"suggest.symbols.priority_high":   kindString,
	"suggest.symbols.priority_medium": kindString,
	"suggest.symbols.priority_low":    kindString,
	"report.group_by":                 kindList,
	"report.format":                   kindString,
	"report.note":                     kindString,
	"report.export_dir":               kindString,
	"watch.debounce_ms":               kindInt,
	"log.json":                        kindBool,
}

// Keys lists the keys Set accepts, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set writes key=value into the YAML file at path, keeping the other keys.
// The value is converted to the key's type; the result must still validate.
func Set(path, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	kind, ok := settableKeys[key]
	if !ok {
		return errors.WithHint(
			errors.Wrapf(vault.ErrInvalid, "unknown config key %q", key),
			"valid keys: "+strings.Join(Keys(), ", "),
		)
	}
	typed, err := convert(kind, value)
	if err != nil {
		return errors.Wrapf(err, "config key %s", key)
	}

	doc := map[string]any{}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return errors.Wrapf(vault.ErrInvalid, "parse %s: %v", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !os.IsNotExist(err):
		return errors.Wrapf(err, "read %s", path)
	}
	setNested(doc, strings.Split(key, "."), typed)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := validateDocument(out); err != nil {
		return err
	}
	return vault.AtomicWriteFile(path, out, 0o644)
}

func convert(kind valueKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrapf(vault.ErrInvalid, "%q is not a number", value)
		}
		return n, nil
	case kindBool:
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		return b, nil
	case kindList:
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return value, nil
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, errors.Wrapf(vault.ErrInvalid, "%q is not a boolean", value)
	}
}

func setNested(doc map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := doc[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[part] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = value
}

// validateDocument decodes a candidate file over the defaults and validates
// the result, so Set never writes a config Load would reject.
func validateDocument(b []byte) error {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, "re-read config")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Mark(err, vault.ErrInvalid)
	}
	return nil
}

// Marshal renders cfg as yaml, json or toml.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "yml":
		return yaml.Marshal(cfg)
	case "json":
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "toml":
		return toml.Marshal(cfg)
	default:
		return nil, errors.WithHint(
			errors.Wrapf(vault.ErrInvalid, "unknown format %q", format),
			"use yaml, json or toml",
		)
	}
}
