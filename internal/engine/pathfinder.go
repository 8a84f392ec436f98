package engine

import (
	"container/heap"
	"context"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// PathNode is one abstract node of a similarity path. Identity is the
// case-folded (artist, title) pair because the oracle only accepts names;
// spelling variants therefore create distinct nodes. This is a known
// limitation and no fuzzy correction is attempted.
type PathNode struct {
	Artist string
	Title  string
	Match  float64 // similarity to the preceding node in its path; 0 for endpoints
}

// Key returns the node's case-folded identity key.
func (n PathNode) Key() string {
	return shared.NormalizeTrackKey(n.Artist, n.Title)
}

// PathResult is the outcome of a path search. Exhausting the budgets without
// a meeting point yields Found=false, never an error.
type PathResult struct {
	Path       []PathNode
	Iterations int
	Found      bool
}

// searchNode is a frontier entry: a node plus the full path from its origin.
type searchNode struct {
	node     PathNode
	key      string
	path     []PathNode
	g        float64 // accumulated path cost from origin
	priority float64 // g, plus the goal heuristic on the forward frontier
	seq      int     // insertion order tiebreaker
}

// nodeQueue is a min-heap over (priority, seq).
type nodeQueue []*searchNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*searchNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

type visitedEntry struct {
	g    float64
	path []PathNode
}

// frontier is one direction's search state. It is owned by a single search
// call and mutated only by that call's goroutine.
type frontier struct {
	open    nodeQueue
	visited map[string]visitedEntry
	seq     int
}

func newFrontier(origin PathNode) *frontier {
	f := &frontier{visited: make(map[string]visitedEntry)}
	heap.Push(&f.open, &searchNode{
		node: origin,
		key:  origin.Key(),
		path: []PathNode{origin},
	})
	return f
}

// popBatch pops up to n not-yet-visited nodes off the open heap.
func (f *frontier) popBatch(n int) []*searchNode {
	var batch []*searchNode
	for f.open.Len() > 0 && len(batch) < n {
		node := heap.Pop(&f.open).(*searchNode)
		if _, seen := f.visited[node.key]; !seen {
			batch = append(batch, node)
		}
	}
	return batch
}

func (f *frontier) push(node *searchNode) {
	f.seq++
	node.seq = f.seq
	heap.Push(&f.open, node)
}

// PathFinder runs bidirectional best-first search over the similarity graph
// the oracle reveals one query at a time. Edge weight is 1 - match. Each
// FindPath call owns its two frontiers; neighbor queries are issued
// concurrently per batch but all frontier mutation happens on the calling
// goroutine.
type PathFinder struct {
	oracle services.SimilarityOracle
	logger *log.Logger
	cfg    Config
}

// NewPathFinder creates a PathFinder over the given oracle.
func NewPathFinder(oracle services.SimilarityOracle, logger *log.Logger, cfg Config) *PathFinder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PathFinder{oracle: oracle, logger: logger, cfg: cfg}
}

// heuristic estimates remaining cost to the goal without overestimating:
// 0 at the goal itself, the true edge cost for a known direct neighbor of
// the goal, a conservative 0.3 for a known 2-hop neighbor, 0.5 otherwise.
func heuristic(key, endKey string, endNeighborhood map[string]float64, end2hop map[string]struct{}) float64 {
	if key == endKey {
		return 0
	}
	if match, ok := endNeighborhood[key]; ok {
		return 1 - match
	}
	if _, ok := end2hop[key]; ok {
		return 0.3
	}
	return 0.5
}

// joinPaths splices a forward path onto a reversed backward path at their
// shared meeting node (the forward copy of which is dropped).
func joinPaths(forward, backward []PathNode) []PathNode {
	complete := make([]PathNode, 0, len(forward)+len(backward)-1)
	complete = append(complete, forward[:len(forward)-1]...)
	for i := len(backward) - 1; i >= 0; i-- {
		complete = append(complete, backward[i])
	}
	return complete
}

type expansion struct {
	parent    *searchNode
	backward  bool
	neighbors []services.SimilarTrack
}

// FindPath searches for a path from start to end. onBatch, when non-nil, is
// called after every outer iteration with the batch count, total visited
// node count, and a node being expanded.
func (pf *PathFinder) FindPath(ctx context.Context, start, end PathNode, onBatch func(iteration, visited int, current PathNode)) PathResult {
	startKey, endKey := start.Key(), end.Key()

	pf.logger.Info("starting bidirectional search",
		"start", start.Artist+" - "+start.Title,
		"end", end.Artist+" - "+end.Title)

	if startKey == endKey {
		return PathResult{Path: []PathNode{start}, Found: true}
	}

	fwd := newFrontier(start)
	bwd := newFrontier(end)

	// Goal-side neighborhood for the forward heuristic, grown lazily as the
	// backward frontier reveals it.
	endNeighborhood := make(map[string]float64)
	end2hop := make(map[string]struct{})

	deadline := time.Now().Add(pf.cfg.SearchTimeout)
	iterations := 0

	for (fwd.open.Len() > 0 || bwd.open.Len() > 0) && iterations < pf.cfg.MaxIterations {
		if time.Now().After(deadline) {
			pf.logger.Warn("search time budget exhausted", "iterations", iterations)
			break
		}
		if ctx.Err() != nil {
			pf.logger.Warn("search cancelled", "iterations", iterations)
			break
		}

		iterations++

		batchF := fwd.popBatch(pf.cfg.BatchSize)
		batchB := bwd.popBatch(pf.cfg.BatchSize)
		if len(batchF) == 0 && len(batchB) == 0 {
			break
		}

		// Finalize this batch and check for a meeting point before any
		// neighbor fetches.
		for _, n := range batchF {
			fwd.visited[n.key] = visitedEntry{g: n.g, path: n.path}
			if entry, ok := bwd.visited[n.key]; ok {
				pf.logger.Info("frontiers met", "iterations", iterations, "key", n.key)
				return PathResult{Path: joinPaths(n.path, entry.path), Iterations: iterations, Found: true}
			}
		}
		for _, n := range batchB {
			bwd.visited[n.key] = visitedEntry{g: n.g, path: n.path}
			if entry, ok := fwd.visited[n.key]; ok {
				pf.logger.Info("frontiers met", "iterations", iterations, "key", n.key)
				return PathResult{Path: joinPaths(entry.path, n.path), Iterations: iterations, Found: true}
			}
		}

		expansions := pf.fetchNeighbors(ctx, batchF, batchB)

		// Single-writer: all open/visited mutation happens here, after the
		// concurrent fetches have completed.
		for _, exp := range expansions {
			if exp.backward {
				if exp.parent.key == endKey {
					for _, nb := range exp.neighbors {
						endNeighborhood[shared.NormalizeTrackKey(nb.Artist, nb.Title)] = nb.Match
					}
				} else if _, ok := endNeighborhood[exp.parent.key]; ok {
					for _, nb := range exp.neighbors {
						end2hop[shared.NormalizeTrackKey(nb.Artist, nb.Title)] = struct{}{}
					}
				}
			}

			front := fwd
			if exp.backward {
				front = bwd
			}

			for _, nb := range exp.neighbors {
				key := shared.NormalizeTrackKey(nb.Artist, nb.Title)
				if _, seen := front.visited[key]; seen {
					continue
				}

				node := PathNode{Artist: nb.Artist, Title: nb.Title, Match: nb.Match}
				g := exp.parent.g + (1 - nb.Match)

				priority := g
				if !exp.backward {
					priority = g + heuristic(key, endKey, endNeighborhood, end2hop)
				}

				path := make([]PathNode, 0, len(exp.parent.path)+1)
				path = append(path, exp.parent.path...)
				path = append(path, node)

				front.push(&searchNode{node: node, key: key, path: path, g: g, priority: priority})
			}
		}

		if onBatch != nil {
			current := start
			if len(batchF) > 0 {
				current = batchF[0].node
			} else if len(batchB) > 0 {
				current = batchB[0].node
			}
			onBatch(iterations, len(fwd.visited)+len(bwd.visited), current)
		}
	}

	// Budget exhausted: fall back to the cheapest key both sides finalized.
	bestCost := math.Inf(1)
	var bestF, bestB []PathNode
	for key, entryF := range fwd.visited {
		if entryB, ok := bwd.visited[key]; ok {
			if cost := entryF.g + entryB.g; cost < bestCost {
				bestCost = cost
				bestF, bestB = entryF.path, entryB.path
			}
		}
	}
	if bestF != nil {
		pf.logger.Info("late meeting point found", "iterations", iterations, "cost", bestCost)
		return PathResult{Path: joinPaths(bestF, bestB), Iterations: iterations, Found: true}
	}

	pf.logger.Warn("no path found", "iterations", iterations)
	return PathResult{Iterations: iterations, Found: false}
}

// fetchNeighbors issues the batch's oracle queries with bounded parallelism.
// A failed query drops that node's expansion and the batch continues.
func (pf *PathFinder) fetchNeighbors(ctx context.Context, batchF, batchB []*searchNode) []expansion {
	results := make([]expansion, len(batchF)+len(batchB))
	for i, n := range batchF {
		results[i] = expansion{parent: n}
	}
	for i, n := range batchB {
		results[len(batchF)+i] = expansion{parent: n, backward: true}
	}

	sem := make(chan struct{}, pf.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(exp *expansion) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			similar, err := pf.oracle.SimilarTracks(ctx, exp.parent.node.Artist, exp.parent.node.Title, pf.cfg.SimilarLimit)
			if err != nil {
				pf.logger.Warn("similarity query failed", "artist", exp.parent.node.Artist, "title", exp.parent.node.Title, "error", err)
				return
			}
			exp.neighbors = similar
		}(&results[i])
	}
	wg.Wait()

	return results
}
