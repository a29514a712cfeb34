package group

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/amirbrooks/tasker-notes/internal/dates"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

// Property is a task attribute tasks can be grouped by.
type Property int

const (
	Backlink Property = iota
	Done
	Due
	Filename
	Folder
	Heading
	Path
	Scheduled
	Start
	Status
)

var propertyNames = [...]string{
	Backlink:  "backlink",
	Done:      "done",
	Due:       "due",
	Filename:  "filename",
	Folder:    "folder",
	Heading:   "heading",
	Path:      "path",
	Scheduled: "scheduled",
	Start:     "start",
	Status:    "status",
}

// Properties lists every property in name order.
func Properties() []Property {
	out := make([]Property, len(propertyNames))
	for i := range propertyNames {
		out[i] = Property(i)
	}
	return out
}

func (p Property) String() string {
	if p < 0 || int(p) >= len(propertyNames) {
		return "Property(" + strconv.Itoa(int(p)) + ")"
	}
	return propertyNames[p]
}

func (p Property) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func ParseProperty(s string) (Property, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range propertyNames {
		if n == name {
			return Property(i), nil
		}
	}
	return 0, errors.WithHint(
		errors.Newf("unknown grouping property %q", s),
		"valid properties: "+strings.Join(propertyNames[:], ", "),
	)
}

// Grouping is one level of a --by list.
type Grouping struct {
	Property Property `json:"property"`
	// Reverse sorts this level's group names in descending order.
	Reverse bool `json:"reverse,omitempty"`
}

func (g Grouping) String() string {
	if g.Reverse {
		return g.Property.String() + ":reverse"
	}
	return g.Property.String()
}

// ParseGrouping reads "PROPERTY" or "PROPERTY:reverse".
func ParseGrouping(s string) (Grouping, error) {
	name, modifier, hasModifier := strings.Cut(s, ":")
	p, err := ParseProperty(name)
	if err != nil {
		return Grouping{}, err
	}
	g := Grouping{Property: p}
	if hasModifier {
		switch strings.ToLower(strings.TrimSpace(modifier)) {
		case "reverse":
			g.Reverse = true
		default:
			return Grouping{}, errors.WithHint(
				errors.Newf("unknown grouping modifier %q in %q", modifier, s),
				"the only modifier is reverse, as in due:reverse",
			)
		}
	}
	return g, nil
}

// ParseGroupings parses each value in order.
func ParseGroupings(values []string) ([]Grouping, error) {
	out := make([]Grouping, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		g, err := ParseGrouping(value)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

const unknownLocation = "Unknown Location"

// NamesForTask returns the group names t belongs to under p. Every property
// yields exactly one name; missing values map to a fixed sentinel.
func NamesForTask(p Property, t *task.Task) []string {
	switch p {
	case Backlink:
		if bl := t.Backlink(); bl != "" {
			return []string{bl}
		}
		return []string{unknownLocation}
	case Done:
		return []string{dateName(t.DoneDate, "done")}
	case Due:
		return []string{dateName(t.DueDate, "due")}
	case Filename:
		if name := t.Filename(); name != "" {
			return []string{name}
		}
		return []string{unknownLocation}
	case Folder:
		return []string{t.Folder()}
	case Heading:
		if h := t.PrecedingHeading; h != "" {
			return []string{h}
		}
		return []string{"(No heading)"}
	case Path:
		if p := t.PathWithoutExtension(); p != "" {
			return []string{p}
		}
		return []string{unknownLocation}
	case Scheduled:
		return []string{dateName(t.Scheduled, "scheduled")}
	case Start:
		return []string{dateName(t.StartDate, "start")}
	case Status:
		return []string{t.Status.Label()}
	default:
		panic(errors.AssertionFailedf("unhandled grouping property %d", int(p)))
	}
}

func dateName(d *time.Time, kind string) string {
	if d == nil {
		return "No " + kind + " date"
	}
	return dates.DayLabel(*d)
}
