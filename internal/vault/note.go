package vault

import (
	"os"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/tasker-notes/internal/task"
)

// Note is one Markdown file of the vault.
type Note struct {
	Path string
	Meta NoteMeta
	Body string
	// bodyLine is the 1-based file line the body starts on.
	bodyLine int
	parser   *task.Parser
}

// NoteMeta is the YAML front matter of a note. Keys other than title and tags
// are kept in Extra.
type NoteMeta struct {
	Title string         `yaml:"title,omitempty"`
	Tags  TagList        `yaml:"tags,omitempty"`
	Extra map[string]any `yaml:",inline"`
}

// TagList accepts either a YAML sequence or a comma separated scalar.
type TagList []string

func (l *TagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var out TagList
		for _, part := range strings.Split(node.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*l = out
		return nil
	default:
		return errors.Newf("tags: expected a list or a string at line %d", node.Line)
	}
}

func (n *Note) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	for _, have := range n.Meta.Tags {
		if strings.ToLower(strings.TrimPrefix(have, "#")) == tag {
			return true
		}
	}
	return false
}

func (v *Vault) readNote(path, rel string) (*Note, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n, err := ParseNote(rel, b)
	if err != nil {
		return nil, err
	}
	n.parser = v.parser
	return n, nil
}

// ParseNote splits optional front matter from the body.
func ParseNote(rel string, b []byte) (*Note, error) {
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	note := &Note{Path: rel, Body: s, bodyLine: 1}
	if !strings.HasPrefix(s, "---\n") {
		return note, nil
	}
	rest := s[len("---\n"):]
	var yamlPart string
	switch {
	case strings.HasPrefix(rest, "---\n"), rest == "---":
		yamlPart, rest = "", strings.TrimPrefix(strings.TrimPrefix(rest, "---"), "\n")
	default:
		idx := strings.Index(rest, "\n---\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n---") {
				return nil, errors.Wrapf(ErrInvalid, "%s: unterminated front matter", rel)
			}
			idx = len(rest) - len("\n---")
			yamlPart, rest = rest[:idx], ""
		} else {
			yamlPart, rest = rest[:idx], rest[idx+len("\n---\n"):]
		}
	}
	if strings.TrimSpace(yamlPart) != "" {
		if err := yaml.Unmarshal([]byte(yamlPart), &note.Meta); err != nil {
			return nil, errors.Wrapf(ErrInvalid, "%s: front matter: %v", rel, err)
		}
	}
	note.bodyLine = strings.Count(s[:len(s)-len(rest)], "\n") + 1
	note.Body = rest
	return note, nil
}

var headingRe = regexp.MustCompile(`^ {0,3}(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)

// Tasks parses the checkbox lines of the body. Each task carries the text of
// the nearest ATX heading above it. Fenced code blocks and generated report
// blocks are skipped.
func (n *Note) Tasks() []*task.Task {
	var out []*task.Task
	heading := ""
	inFence := false
	inReport := false
	fence := ""
	parser := n.parser
	if parser == nil {
		parser = task.DefaultParser
	}
	for i, line := range strings.Split(n.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		// Generated report blocks repeat tasks from other notes.
		switch {
		case trimmed == ReportStart:
			inReport = true
			continue
		case trimmed == ReportEnd:
			inReport = false
			continue
		case inReport:
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			if !inFence {
				inFence = true
				fence = trimmed[:3]
			} else if strings.HasPrefix(trimmed, fence) {
				inFence = false
				fence = ""
			}
			continue
		}
		if inFence {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			heading = strings.TrimSpace(m[2])
			continue
		}
		t, ok := parser.Parse(line, task.Location{
			Path:             n.Path,
			LineNumber:       n.bodyLine + i,
			PrecedingHeading: heading,
		})
		if ok {
			out = append(out, t)
		}
	}
	return out
}
