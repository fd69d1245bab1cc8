// Package graph builds the dependency graph of a sprint's tasks and orders
// them for scheduling.
package graph

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// ErrUnknownPredecessor is returned when a task references a predecessor that
// is not part of the graph.
var ErrUnknownPredecessor = errors.New("graph: unknown predecessor")

// CyclicDependencyError names a cycle in the dependency graph. The first task
// is repeated at the end of Cycle.
type CyclicDependencyError struct {
	Cycle []uint64
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "graph: cyclic dependency " + strings.Join(parts, " -> ")
}

// DepGraph is a directed graph over tasks. An edge a -> b means a must be
// placed before b: a is a predecessor of b, or a is a child of story b.
type DepGraph struct {
	nodes    map[uint64]*models.Task
	ids      []uint64
	preds    map[uint64][]uint64 // task -> effective predecessors
	children map[uint64][]uint64 // story -> children
	forward  map[uint64][]uint64 // before -> after
	indegree map[uint64]int
}

// Build creates the graph of tasks. Story predecessors are inherited by
// every descendant of the story.
func Build(tasks []models.Task) (*DepGraph, error) {
	g := &DepGraph{
		nodes:    make(map[uint64]*models.Task, len(tasks)),
		ids:      make([]uint64, 0, len(tasks)),
		preds:    make(map[uint64][]uint64, len(tasks)),
		children: make(map[uint64][]uint64),
		forward:  make(map[uint64][]uint64, len(tasks)),
		indegree: make(map[uint64]int, len(tasks)),
	}

	graphTasks := make([]models.Task, len(tasks))
	copy(graphTasks, tasks)
	for i := range graphTasks {
		id := graphTasks[i].ID
		if _, dup := g.nodes[id]; dup {
			continue
		}
		g.nodes[id] = &graphTasks[i]
		g.ids = append(g.ids, id)
		g.indegree[id] = 0
	}
	sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })

	explicit := make(map[uint64][]uint64, len(g.ids))
	for _, id := range g.ids {
		task := g.nodes[id]
		seen := make(map[uint64]struct{}, len(task.Predecessors))
		for _, predID := range task.PredecessorIDs() {
			if predID == id {
				return nil, &CyclicDependencyError{Cycle: []uint64{id, id}}
			}
			if _, ok := g.nodes[predID]; !ok {
				return nil, fmt.Errorf("%w: task %d depends on %d", ErrUnknownPredecessor, id, predID)
			}
			if _, dup := seen[predID]; dup {
				continue
			}
			seen[predID] = struct{}{}
			explicit[id] = append(explicit[id], predID)
		}
		if task.ParentID != nil {
			if _, ok := g.nodes[*task.ParentID]; ok {
				g.children[*task.ParentID] = append(g.children[*task.ParentID], id)
			}
		}
	}

	for _, id := range g.ids {
		preds, err := g.inheritedPredecessors(id, explicit)
		if err != nil {
			return nil, err
		}
		g.preds[id] = preds
		for _, p := range preds {
			g.addEdge(p, id)
		}
	}
	for story, kids := range g.children {
		for _, child := range kids {
			g.addEdge(child, story)
		}
	}

	return g, nil
}

// inheritedPredecessors merges the explicit predecessors of id with those of
// all its ancestor stories.
func (g *DepGraph) inheritedPredecessors(id uint64, explicit map[uint64][]uint64) ([]uint64, error) {
	seen := make(map[uint64]struct{})
	result := make([]uint64, 0, len(explicit[id]))
	visited := map[uint64]struct{}{id: {}}
	path := []uint64{id}

	current := id
	for {
		for _, p := range explicit[current] {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			result = append(result, p)
		}
		parent := g.nodes[current].ParentID
		if parent == nil {
			break
		}
		if _, ok := g.nodes[*parent]; !ok {
			break
		}
		if _, loop := visited[*parent]; loop {
			return nil, &CyclicDependencyError{Cycle: append(path, *parent)}
		}
		visited[*parent] = struct{}{}
		path = append(path, *parent)
		current = *parent
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (g *DepGraph) addEdge(from, to uint64) {
	for _, existing := range g.forward[from] {
		if existing == to {
			return
		}
	}
	g.forward[from] = append(g.forward[from], to)
	g.indegree[to]++
}

// Len returns the number of tasks in the graph.
func (g *DepGraph) Len() int { return len(g.ids) }

// Node returns the graph's copy of task id.
func (g *DepGraph) Node(id uint64) (models.Task, bool) {
	t, ok := g.nodes[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

// Predecessors returns the effective predecessors of id, including those
// inherited from ancestor stories.
func (g *DepGraph) Predecessors(id uint64) []uint64 {
	return cloneIDs(g.preds[id])
}

// Children returns the direct children of story id.
func (g *DepGraph) Children(id uint64) []uint64 {
	return cloneIDs(g.children[id])
}

// IsStory reports whether id has children in the graph.
func (g *DepGraph) IsStory(id uint64) bool {
	return len(g.children[id]) > 0
}

// TopologicalOrder returns every task so that each task comes after its
// predecessors and stories come after their children. Ties are broken by
// ascending ID.
func (g *DepGraph) TopologicalOrder() ([]uint64, error) {
	indegree := make(map[uint64]int, len(g.indegree))
	for id, n := range g.indegree {
		indegree[id] = n
	}

	ready := &idHeap{}
	for _, id := range g.ids {
		if indegree[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]uint64, 0, len(g.ids))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(uint64)
		order = append(order, id)
		for _, next := range g.forward[id] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(order) != len(g.ids) {
		return nil, &CyclicDependencyError{Cycle: g.findCycle(indegree)}
	}
	return order, nil
}

// findCycle walks the nodes Kahn's algorithm could not release and returns
// one cycle among them.
func (g *DepGraph) findCycle(indegree map[uint64]int) []uint64 {
	const (
		white = iota
		grey
		black
	)
	color := make(map[uint64]int)
	var stack []uint64
	var cycle []uint64

	var visit func(id uint64) bool
	visit = func(id uint64) bool {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range g.forward[id] {
			if indegree[next] == 0 {
				continue
			}
			switch color[next] {
			case grey:
				for i, s := range stack {
					if s == next {
						cycle = append(cloneIDs(stack[i:]), next)
						return true
					}
				}
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range g.ids {
		if indegree[id] > 0 && color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

type idHeap []uint64

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(uint64)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func cloneIDs(values []uint64) []uint64 {
	if len(values) == 0 {
		return make([]uint64, 0)
	}
	cp := make([]uint64, len(values))
	copy(cp, values)
	return cp
}
