package semantic

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
)

// Index is an in-memory HNSW index over document embeddings, with the
// document metadata needed to present a match without consulting the
// primary store. The index is rebuildable from the catalog, so it is
// persisted opportunistically rather than transactionally.
type Index struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[uint64]
	embedder Embedder
	dims     int

	// String IDs map to graph keys; deleted IDs orphan their node
	// rather than removing it, which sidesteps graph repair on the
	// last-node case.
	idMap   map[string]uint64
	keyMap  map[uint64]string
	meta    map[string]Metadata
	nextKey uint64

	closed bool
}

// indexMetadata is the gob-persisted sidecar for an index file.
type indexMetadata struct {
	IDMap   map[string]uint64
	Meta    map[string]Metadata
	NextKey uint64
	Dims    int
	Model   string
}

// NewIndex creates an empty index bound to an embedder.
func NewIndex(embedder Embedder) *Index {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &Index{
		graph:    graph,
		embedder: embedder,
		dims:     embedder.Dimensions(),
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		meta:     make(map[string]Metadata),
	}
}

// Add embeds text and indexes it under the metadata's ID. Re-adding an
// existing ID replaces its vector and metadata.
func (x *Index) Add(ctx context.Context, meta Metadata, text string) error {
	if meta.ID == "" {
		return fmt.Errorf("metadata with id is required")
	}

	vector, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", meta.ID, err)
	}
	if len(vector) != x.dims {
		return apperrors.New(apperrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding has %d dimensions, index expects %d", len(vector), x.dims), nil)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return fmt.Errorf("index is closed")
	}

	if existingKey, exists := x.idMap[meta.ID]; exists {
		// Lazy deletion: orphan the old node instead of removing it.
		delete(x.keyMap, existingKey)
		delete(x.idMap, meta.ID)
	}

	key := x.nextKey
	x.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalizeVectorInPlace(vec)

	x.graph.Add(hnsw.MakeNode(key, vec))
	x.idMap[meta.ID] = key
	x.keyMap[key] = meta.ID
	x.meta[meta.ID] = meta

	return nil
}

// Remove drops IDs from the index. Unknown IDs are ignored.
func (x *Index) Remove(ids ...string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return
	}

	for _, id := range ids {
		if key, exists := x.idMap[id]; exists {
			delete(x.keyMap, key)
			delete(x.idMap, id)
			delete(x.meta, id)
		}
	}
}

// Search embeds the query and returns the nearest documents that pass
// the option filters and threshold, best first.
func (x *Index) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	vector, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) != x.dims {
		return nil, apperrors.New(apperrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query embedding has %d dimensions, index expects %d", len(vector), x.dims), nil)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if len(x.idMap) == 0 {
		return []Result{}, nil
	}

	normalized := make([]float32, len(vector))
	copy(normalized, vector)
	normalizeVectorInPlace(normalized)

	// Overfetch so that filtered-out and orphaned neighbors do not
	// starve the result set.
	k := opts.Limit
	if k <= 0 {
		k = len(x.idMap)
	}
	fetch := min(k*4+16, x.graph.Len())

	nodes := x.graph.Search(normalized, fetch)

	results := make([]Result, 0, k)
	for _, node := range nodes {
		id, exists := x.keyMap[node.Key]
		if !exists {
			continue // orphaned by lazy deletion
		}

		meta := x.meta[id]
		if opts.Category != "" && meta.Category != opts.Category {
			continue
		}
		if opts.SourceOrg != "" && meta.SourceOrg != opts.SourceOrg {
			continue
		}

		distance := x.graph.Distance(normalized, node.Value)
		score := 1.0 - float64(distance)/2.0
		if score < opts.Threshold {
			continue
		}

		results = append(results, Result{ID: id, Score: score, Metadata: meta})
		if len(results) == k {
			break
		}
	}

	// Graph order is already nearest-first; keep it stable on ties.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Embedder returns the embedder the index was built with.
func (x *Index) Embedder() Embedder {
	return x.embedder
}

// Contains reports whether an ID is indexed.
func (x *Index) Contains(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, exists := x.idMap[id]
	return exists
}

// Count returns the number of indexed documents.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.idMap)
}

// Save persists the graph and its metadata sidecar atomically (temp
// file + rename).
func (x *Index) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return fmt.Errorf("index is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}

	if err := x.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return x.saveSidecar(path + ".meta")
}

func (x *Index) saveSidecar(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create sidecar file: %w", err)
	}

	sidecar := indexMetadata{
		IDMap:   x.idMap,
		Meta:    x.meta,
		NextKey: x.nextKey,
		Dims:    x.dims,
		Model:   x.embedder.ModelName(),
	}
	if err := gob.NewEncoder(file).Encode(sidecar); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close sidecar file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores a saved index. It fails when the saved vectors were
// produced with a different dimensionality than the current embedder;
// the caller should reindex from the catalog in that case.
func (x *Index) Load(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return fmt.Errorf("index is closed")
	}

	sidecarFile, err := os.Open(path + ".meta")
	if err != nil {
		return fmt.Errorf("open sidecar file: %w", err)
	}
	defer func() { _ = sidecarFile.Close() }()

	var sidecar indexMetadata
	if err := gob.NewDecoder(sidecarFile).Decode(&sidecar); err != nil {
		return fmt.Errorf("decode sidecar: %w", err)
	}
	if sidecar.Dims != x.dims {
		return apperrors.New(apperrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("saved index has %d dimensions, embedder has %d", sidecar.Dims, x.dims), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// coder/hnsw Import requires an io.ByteReader.
	if err := x.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	x.idMap = sidecar.IDMap
	x.meta = sidecar.Meta
	x.nextKey = sidecar.NextKey
	x.keyMap = make(map[uint64]string, len(sidecar.IDMap))
	for id, key := range x.idMap {
		x.keyMap[key] = id
	}

	return nil
}

// Close releases the graph. The embedder is owned by the caller and is
// not closed here.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return nil
	}
	x.closed = true
	x.graph = nil
	return nil
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
