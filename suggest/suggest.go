// Package suggest finds vocabulary words close to a mistyped command name.
package suggest

import (
	"hash/fnv"
	"math"
	"sort"

	"github.com/coder/hnsw"
)

const (
	dims = 64
	// maxDistance is the largest cosine distance still worth suggesting.
	maxDistance = 0.45
)

// Index is a nearest-neighbour index over character n-gram vectors.
type Index struct {
	graph *hnsw.Graph[string]
}

// NewIndex builds an index over words.
func NewIndex(words []string) *Index {
	g := hnsw.NewGraph[string]()
	nodes := make([]hnsw.Node[string], 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		nodes = append(nodes, hnsw.MakeNode(w, vectorize(w)))
	}
	if len(nodes) > 0 {
		g.Add(nodes...)
	}
	return &Index{graph: g}
}

// Len returns the number of indexed words.
func (idx *Index) Len() int { return idx.graph.Len() }

// Nearest returns up to k indexed words similar to word, closest first.
// word itself is never returned.
func (idx *Index) Nearest(word string, k int) []string {
	if word == "" || k <= 0 || idx.graph.Len() == 0 {
		return nil
	}
	query := vectorize(word)

	type hit struct {
		key  string
		dist float32
	}
	var hits []hit
	for _, n := range idx.graph.Search(query, k+1) {
		if n.Key == word {
			continue
		}
		d := hnsw.CosineDistance(query, n.Value)
		if d <= maxDistance {
			hits = append(hits, hit{key: n.Key, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].key < hits[j].key
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.key
	}
	return out
}

// vectorize hashes the unigrams and boundary-marked bigrams of w into a
// fixed-size, L2-normalized vector.
func vectorize(w string) []float32 {
	vec := make([]float32, dims)
	runes := []rune("^" + w + "$")
	for i, r := range runes {
		if r != '^' && r != '$' {
			vec[bucket(string(r))] += 0.5
		}
		if i+1 < len(runes) {
			vec[bucket(string(runes[i:i+2]))] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func bucket(gram string) int {
	h := fnv.New32a()
	h.Write([]byte(gram))
	return int(h.Sum32() % dims)
}
