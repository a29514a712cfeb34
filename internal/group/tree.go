// Package group partitions tasks into a nested tree of named groups and
// renders it as text.
package group

import (
	"sort"
	"strconv"
	"strings"

	"github.com/amirbrooks/tasker-notes/internal/task"
)

// Node is one group. Names is the path of group names from the root, so its
// length is the node's depth. Only leaves hold tasks.
type Node struct {
	Names    []string     `json:"names"`
	Children []*Node      `json:"children,omitempty"`
	Tasks    []*task.Task `json:"tasks,omitempty"`
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Name is the node's own group name, empty for the root.
func (n *Node) Name() string {
	if len(n.Names) == 0 {
		return ""
	}
	return n.Names[len(n.Names)-1]
}

// Count is the number of tasks at or below n.
func (n *Node) Count() int {
	total := len(n.Tasks)
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

type Tree struct {
	Groupings []Grouping `json:"groupings"`
	Root      *Node      `json:"root"`
}

// By groups tasks by each grouping in turn. Group names at every level are
// sorted byte-wise; tasks keep their input order within a leaf. The tree
// always has a root, even when tasks is empty.
func By(groupings []Grouping, tasks []*task.Task) *Tree {
	root := &Node{Names: []string{}}
	if len(groupings) == 0 {
		root.Tasks = append([]*task.Task{}, tasks...)
	} else {
		root.Children = partition(groupings, 0, nil, tasks)
	}
	return &Tree{Groupings: groupings, Root: root}
}

func partition(groupings []Grouping, depth int, parent []string, tasks []*task.Task) []*Node {
	if len(tasks) == 0 {
		return nil
	}
	g := groupings[depth]
	buckets := map[string][]*task.Task{}
	var keys []string
	for _, t := range tasks {
		for _, name := range NamesForTask(g.Property, t) {
			if _, ok := buckets[name]; !ok {
				keys = append(keys, name)
			}
			buckets[name] = append(buckets[name], t)
		}
	}
	if g.Reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}

	nodes := make([]*Node, 0, len(keys))
	for _, key := range keys {
		names := make([]string, len(parent)+1)
		copy(names, parent)
		names[len(parent)] = key
		n := &Node{Names: names}
		if depth+1 < len(groupings) {
			n.Children = partition(groupings, depth+1, names, buckets[key])
		} else {
			n.Tasks = buckets[key]
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// Leaves returns the leaf nodes depth-first, left to right. A root without
// children is itself a leaf.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

func (t *Tree) TotalTasks() int {
	return t.Root.Count()
}

// Headings returns, for each leaf, the indexes of the group names that need a
// heading: those from the first level where the leaf's path differs from the
// previous leaf's path.
func (t *Tree) Headings() [][]int {
	leaves := t.Leaves()
	out := make([][]int, len(leaves))
	var previous []string
	for i, leaf := range leaves {
		out[i], previous = newLevels(previous, leaf.Names)
	}
	return out
}

// newLevels is one step of the heading fold: it returns the levels of names
// that are not shared with prev, and names as the next accumulator.
func newLevels(prev, names []string) ([]int, []string) {
	common := 0
	for common < len(prev) && common < len(names) && prev[common] == names[common] {
		common++
	}
	levels := make([]int, 0, len(names)-common)
	for level := common; level < len(names); level++ {
		levels = append(levels, level)
	}
	return levels, names
}

// HeadingPrefix is the Markdown heading marker for a nesting level; the top
// level renders as ####.
func HeadingPrefix(level int) string {
	return strings.Repeat("#", 4+level)
}

// String renders the tree in its plain text form:
//
//	Group names: [a,b]
//	#### a
//	##### b
//	- [ ] task
//
//	---
//
// per leaf, followed by the total task count.
func (t *Tree) String() string {
	var b strings.Builder
	b.WriteString("\n")
	headings := t.Headings()
	for i, leaf := range t.Leaves() {
		b.WriteString("Group names: [")
		b.WriteString(strings.Join(leaf.Names, ","))
		b.WriteString("]\n")
		for _, level := range headings[i] {
			b.WriteString(HeadingPrefix(level))
			b.WriteString(" ")
			b.WriteString(leaf.Names[level])
			b.WriteString("\n")
		}
		for _, tk := range leaf.Tasks {
			b.WriteString(tk.String())
			b.WriteString("\n")
		}
		b.WriteString("\n---\n\n")
	}
	b.WriteString(strconv.Itoa(t.TotalTasks()))
	b.WriteString(" tasks\n")
	return b.String()
}
