// Package knowledge keeps successful conversions in a vector store so
// new inputs can be enriched with similar past work.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/testmorph/internal/embeddings"
)

const (
	collectionName = "conversions"
	persistFile    = "chromem.gob.gz"
)

// MinSimilarity is the floor below which stored conversions are not
// worth showing to the oracle as exemplars.
const MinSimilarity = 0.6

// Exemplar is one stored conversion, as returned by a similarity
// search.
type Exemplar struct {
	InputHash  string  `json:"input_hash"`
	InputCode  string  `json:"input_code"`
	OutputCode string  `json:"output_code"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
	Similarity float32 `json:"similarity"`
}

// Store wraps a chromem collection of successful conversions. The
// input code is what gets embedded; the converted output rides along
// as metadata.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewStore creates an empty in-memory knowledge store.
func NewStore(embedder embeddings.Embedder) (*Store, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{db: db, collection: col, embedFunc: ef}, nil
}

// Add upserts a conversion keyed by its input hash.
func (s *Store) Add(ctx context.Context, ex Exemplar) error {
	// chromem has no update, so drop any previous version first.
	if s.collection.Count() > 0 {
		if err := s.collection.Delete(ctx, nil, nil, ex.InputHash); err != nil {
			return fmt.Errorf("replacing conversion %s: %w", ex.InputHash, err)
		}
	}

	doc := chromem.Document{
		ID:      ex.InputHash,
		Content: ex.InputCode,
		Metadata: map[string]string{
			"output_code": ex.OutputCode,
			"strategy":    ex.Strategy,
			"confidence":  strconv.FormatFloat(ex.Confidence, 'f', 4, 64),
		},
	}
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("adding conversion %s: %w", ex.InputHash, err)
	}
	return nil
}

// Similar returns the conversions closest to the given input code,
// best first.
func (s *Store) Similar(ctx context.Context, inputCode string, limit int) ([]Exemplar, error) {
	if limit <= 0 {
		limit = 3
	}
	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, inputCode, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying similar conversions: %w", err)
	}

	exemplars := make([]Exemplar, len(results))
	for i, r := range results {
		confidence, _ := strconv.ParseFloat(r.Metadata["confidence"], 64)
		exemplars[i] = Exemplar{
			InputHash:  r.ID,
			InputCode:  r.Content,
			OutputCode: r.Metadata["output_code"],
			Strategy:   r.Metadata["strategy"],
			Confidence: confidence,
			Similarity: r.Similarity,
		}
	}
	return exemplars, nil
}

// Count returns how many conversions are stored.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Persist writes the store to dir.
func (s *Store) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating knowledge directory: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, persistFile), true, "")
}

// Load restores a previously persisted store. A missing file is not
// an error; the store just starts empty.
func (s *Store) Load(dir string) error {
	path := filepath.Join(dir, persistFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("importing knowledge store: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}
