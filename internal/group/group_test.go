package group

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/tasker-notes/internal/task"
)

func fromLine(t *testing.T, line, path, heading string) *task.Task {
	t.Helper()
	tk, ok := task.Parse(line, task.Location{Path: path, PrecedingHeading: heading})
	require.True(t, ok, "not a task line: %q", line)
	return tk
}

func TestBy_Path(t *testing.T) {
	tasks := []*task.Task{
		fromLine(t, "- [ ] a", "file2.md", ""),
		fromLine(t, "- [ ] b", "file1.md", ""),
		fromLine(t, "- [ ] c", "file1.md", ""),
	}

	got := By([]Grouping{{Property: Path}}, tasks).String()

	assert.Equal(t, "\n"+
		"Group names: [file1]\n"+
		"#### file1\n"+
		"- [ ] b\n"+
		"- [ ] c\n"+
		"\n---\n\n"+
		"Group names: [file2]\n"+
		"#### file2\n"+
		"- [ ] a\n"+
		"\n---\n\n"+
		"3 tasks\n", got)
}

func TestBy_NoGroupings(t *testing.T) {
	tasks := []*task.Task{
		fromLine(t, "- [ ] a 📅 1970-01-01", "2.md", ""),
		fromLine(t, "- [ ] b 📅 1970-01-02", "3.md", ""),
		fromLine(t, "- [ ] c 📅 1970-01-02", "3.md", ""),
	}

	tree := By(nil, tasks)

	assert.Equal(t, "\n"+
		"Group names: []\n"+
		"- [ ] a 📅 1970-01-01\n"+
		"- [ ] b 📅 1970-01-02\n"+
		"- [ ] c 📅 1970-01-02\n"+
		"\n---\n\n"+
		"3 tasks\n", tree.String())
	assert.Empty(t, tree.Root.Names)
	assert.Len(t, tree.Root.Tasks, 3)
}

func TestBy_EmptyTasks(t *testing.T) {
	tree := By([]Grouping{{Property: Path}}, nil)

	require.NotNil(t, tree.Root)
	assert.Empty(t, tree.Root.Children)
	assert.Empty(t, tree.Root.Tasks)
	assert.Equal(t, 0, tree.TotalTasks())
	assert.Equal(t, "\nGroup names: []\n\n---\n\n0 tasks\n", tree.String())
}

func TestBy_SortsGroupNames(t *testing.T) {
	tasks := []*task.Task{
		fromLine(t, "- [ ] third file path", "d/e/f.md", ""),
		fromLine(t, "- [ ] second file path", "b/c/d.md", ""),
		fromLine(t, "- [ ] first file path, alphabetically", "a/b/c.md", ""),
	}

	got := By([]Grouping{{Property: Path}}, tasks).String()

	assert.Equal(t, "\n"+
		"Group names: [a/b/c]\n"+
		"#### a/b/c\n"+
		"- [ ] first file path, alphabetically\n"+
		"\n---\n\n"+
		"Group names: [b/c/d]\n"+
		"#### b/c/d\n"+
		"- [ ] second file path\n"+
		"\n---\n\n"+
		"Group names: [d/e/f]\n"+
		"#### d/e/f\n"+
		"- [ ] third file path\n"+
		"\n---\n\n"+
		"3 tasks\n", got)
}

func TestBy_NestedHeadingsAreSuppressed(t *testing.T) {
	tasks := []*task.Task{
		fromLine(t, "- [ ] Task 1 - but path is 2nd, alphabetically", "folder_b/folder_c/file_c.md", ""),
		fromLine(t, "- [ ] Task 2 - but path is 2nd, alphabetically", "folder_b/folder_c/file_d.md", ""),
		fromLine(t, "- [ ] Task 3 - but path is 1st, alphabetically", "folder_a/folder_b/file_c.md", ""),
	}

	tree := By([]Grouping{{Property: Folder}, {Property: Filename}}, tasks)

	assert.Equal(t, "\n"+
		"Group names: [folder_a/folder_b/,file_c]\n"+
		"#### folder_a/folder_b/\n"+
		"##### file_c\n"+
		"- [ ] Task 3 - but path is 1st, alphabetically\n"+
		"\n---\n\n"+
		"Group names: [folder_b/folder_c/,file_c]\n"+
		"#### folder_b/folder_c/\n"+
		"##### file_c\n"+
		"- [ ] Task 1 - but path is 2nd, alphabetically\n"+
		"\n---\n\n"+
		"Group names: [folder_b/folder_c/,file_d]\n"+
		"##### file_d\n"+
		"- [ ] Task 2 - but path is 2nd, alphabetically\n"+
		"\n---\n\n"+
		"3 tasks\n", tree.String())

	for _, leaf := range tree.Leaves() {
		assert.Len(t, leaf.Names, 2)
	}
}

func TestBy_Reverse(t *testing.T) {
	tasks := []*task.Task{
		fromLine(t, "- [ ] a 📅 2022-07-11", "x.md", ""),
		fromLine(t, "- [ ] b", "x.md", ""),
		fromLine(t, "- [ ] c 📅 2022-07-12", "x.md", ""),
	}

	tree := By([]Grouping{{Property: Due, Reverse: true}}, tasks)

	var names []string
	for _, leaf := range tree.Leaves() {
		names = append(names, leaf.Name())
	}
	assert.Equal(t, []string{"No due date", "2022-07-12 Tuesday", "2022-07-11 Monday"}, names)
}

func TestBy_CaseSensitiveOrder(t *testing.T) {
	tasks := []*task.Task{
		fromLine(t, "- [ ] a", "b.md", ""),
		fromLine(t, "- [ ] b", "B.md", ""),
		fromLine(t, "- [ ] c", "a.md", ""),
	}

	var names []string
	for _, leaf := range By([]Grouping{{Property: Filename}}, tasks).Leaves() {
		names = append(names, leaf.Name())
	}
	assert.Equal(t, []string{"B", "a", "b"}, names)
}

func TestNamesForTask(t *testing.T) {
	tests := []struct {
		property Property
		line     string
		path     string
		heading  string
		want     string
	}{
		{Backlink, "- [ ] xxx", "a/b/c.md", "heading", "c > heading"},
		{Backlink, "- [ ] xxx", "a/b/c.md", "", "c"},
		{Backlink, "- [ ] xxx", "", "", "Unknown Location"},
		{Done, "- [ ] a ✅ 1970-01-01", "", "", "1970-01-01 Thursday"},
		{Done, "- [ ] a", "", "", "No done date"},
		{Due, "- [ ] a 📅 1970-01-01", "", "", "1970-01-01 Thursday"},
		{Due, "- [ ] a", "", "", "No due date"},
		{Filename, "- [ ] a", "a/b/c.md", "", "c"},
		{Filename, "- [ ] a", "", "", "Unknown Location"},
		{Folder, "- [ ] a", "a/b/c.md", "", "a/b/"},
		{Folder, "- [ ] a", "a.md", "", "/"},
		{Heading, "- [ ] xxx", "", "", "(No heading)"},
		{Heading, "- [ ] xxx", "", "heading", "heading"},
		{Path, "- [ ] a", "a/b/c.md", "", "a/b/c"},
		{Path, "- [ ] a", "", "", "Unknown Location"},
		{Scheduled, "- [ ] a ⏳ 1970-01-01", "", "", "1970-01-01 Thursday"},
		{Scheduled, "- [ ] a", "", "", "No scheduled date"},
		{Start, "- [ ] a 🛫 1970-01-01", "", "", "1970-01-01 Thursday"},
		{Start, "- [ ] a", "", "", "No start date"},
		{Status, "- [ ] a", "", "", "Todo"},
		{Status, "- [x] a", "", "", "Done"},
	}
	for _, tt := range tests {
		t.Run(tt.property.String()+" "+tt.want, func(t *testing.T) {
			tk := fromLine(t, tt.line, tt.path, tt.heading)
			assert.Equal(t, []string{tt.want}, NamesForTask(tt.property, tk))
		})
	}
}

func TestNamesForTask_UnknownPropertyPanics(t *testing.T) {
	tk := fromLine(t, "- [ ] a", "", "")
	assert.Panics(t, func() { NamesForTask(Property(99), tk) })
}

func TestParseGrouping(t *testing.T) {
	g, err := ParseGrouping("Due:reverse")
	require.NoError(t, err)
	assert.Equal(t, Grouping{Property: Due, Reverse: true}, g)
	assert.Equal(t, "due:reverse", g.String())

	g, err = ParseGrouping(" folder ")
	require.NoError(t, err)
	assert.Equal(t, Grouping{Property: Folder}, g)

	_, err = ParseGrouping("priority")
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "backlink, done, due")

	_, err = ParseGrouping("due:sideways")
	require.Error(t, err)
}

func TestParseGroupings_SkipsBlanks(t *testing.T) {
	got, err := ParseGroupings([]string{"folder", "", "filename"})
	require.NoError(t, err)
	assert.Equal(t, []Grouping{{Property: Folder}, {Property: Filename}}, got)
}

func TestProperties_RoundTripNames(t *testing.T) {
	for _, p := range Properties() {
		parsed, err := ParseProperty(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}
