package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/example/goal-engine/internal/models"
)

// ChromemStore keeps memories in a chromem-go collection, optionally
// persisted to disk as a gob file.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromem opens (or creates) the collection. An empty persistPath keeps
// everything in memory. The embedding func is chromem's; pass nil to use
// its default (OpenAI, keyed from the environment).
func NewChromem(persistPath, collection string, embed chromem.EmbeddingFunc) (*ChromemStore, error) {
	if collection == "" {
		collection = "engine-memories"
	}

	var db *chromem.DB
	var err error
	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open memory db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open memory collection: %w", err)
	}
	return &ChromemStore{db: db, collection: col}, nil
}

func (s *ChromemStore) Recall(ctx context.Context, query string, k int) ([]models.Memory, error) {
	if k <= 0 {
		k = 5
	}
	// chromem rejects queries asking for more results than documents exist.
	if n := s.collection.Count(); n == 0 {
		return nil, nil
	} else if k > n {
		k = n
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("memory query: %w", err)
	}

	mems := make([]models.Memory, 0, len(results))
	for _, r := range results {
		m := models.Memory{
			Summary: r.Content,
			Type:    r.Metadata["type"],
			Score:   float64(r.Similarity),
		}
		if tags := r.Metadata["tags"]; tags != "" {
			m.Tags = strings.Split(tags, ",")
		}
		mems = append(mems, m)
	}
	return mems, nil
}

func (s *ChromemStore) AddMemory(ctx context.Context, summary string, meta Meta) error {
	md := map[string]string{
		"type":       meta.Type,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if len(meta.Tags) > 0 {
		md["tags"] = strings.Join(meta.Tags, ",")
	}
	if meta.GoalID != "" {
		md["goal_id"] = meta.GoalID
	}
	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:       uuid.NewString(),
		Content:  summary,
		Metadata: md,
	})
	if err != nil {
		return fmt.Errorf("memory write: %w", err)
	}
	return nil
}

// Count reports how many memories are stored.
func (s *ChromemStore) Count() int { return s.collection.Count() }
