package patterns

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/store"
)

const remediationCollection = "maturityd_remediations"

// CorpusConfig holds configuration for the remediation corpus.
type CorpusConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory
	// only, which tests use.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// VectorSize is the embedding dimension (default: 64).
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *CorpusConfig) ApplyDefaults() {
	if c.VectorSize == 0 {
		c.VectorSize = 64
	}
}

// Remediation is one observed remediation attempt: an action applied
// against a blocking requirement, and whether the transition it unblocked
// eventually committed.
type Remediation struct {
	Requirement string
	Action      string
	ProjectType string
	Effort      int
	Succeeded   bool
}

// RemediationCorpus stores remediation history in an embedded vector
// database so blockers can be matched semantically rather than by exact
// requirement name.
type RemediationCorpus struct {
	db         *chromem.DB
	config     CorpusConfig
	logger     *zap.Logger
	vectorSize int
}

// NewRemediationCorpus creates a corpus, persistent when cfg.Path is set.
func NewRemediationCorpus(cfg CorpusConfig, logger *zap.Logger) (*RemediationCorpus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating corpus directory %s: %w", cfg.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	c := &RemediationCorpus{
		db:         db,
		config:     cfg,
		logger:     logger,
		vectorSize: cfg.VectorSize,
	}

	logger.Info("remediation corpus initialized",
		zap.String("path", cfg.Path),
		zap.Int("vector_size", cfg.VectorSize),
	)

	return c, nil
}

// embeddingFunc returns a deterministic local embedding. Character n-gram
// hashing is crude but keeps the daemon self-contained; the corpus needs
// stable similarity, not linguistic nuance.
func (c *RemediationCorpus) embeddingFunc() chromem.EmbeddingFunc {
	dim := c.vectorSize
	return func(_ context.Context, text string) ([]float32, error) {
		vector := make([]float32, dim)
		bytes := []byte(text)
		for i := 0; i+2 < len(bytes); i++ {
			h := uint32(bytes[i])<<16 | uint32(bytes[i+1])<<8 | uint32(bytes[i+2])
			h = h*2654435761 + 2246822519
			vector[h%uint32(dim)] += 1
		}

		var norm float64
		for _, v := range vector {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vector[0] = 1
			return vector, nil
		}
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
		return vector, nil
	}
}

func (c *RemediationCorpus) collection() (*chromem.Collection, error) {
	col, err := c.db.GetOrCreateCollection(remediationCollection, nil, c.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", remediationCollection, err)
	}
	return col, nil
}

// Record stores one remediation observation.
func (c *RemediationCorpus) Record(ctx context.Context, r Remediation) error {
	if r.Requirement == "" || r.Action == "" {
		return errors.New("requirement and action are required")
	}

	col, err := c.collection()
	if err != nil {
		return err
	}

	outcome := "failure"
	if r.Succeeded {
		outcome = "success"
	}

	doc := chromem.Document{
		ID:      uuid.New().String(),
		Content: r.Requirement + " " + r.Action,
		Metadata: map[string]string{
			"requirement":  r.Requirement,
			"action":       r.Action,
			"project_type": r.ProjectType,
			"outcome":      outcome,
			"effort":       strconv.Itoa(r.Effort),
		},
	}

	if err := col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("adding remediation: %w", err)
	}

	c.logger.Debug("remediation recorded",
		zap.String("requirement", r.Requirement),
		zap.String("action", r.Action),
		zap.String("outcome", outcome),
	)

	return nil
}

// Recommendations matches the blockers against the corpus and returns
// remediation actions ranked by historical success rate, then by effort.
func (c *RemediationCorpus) Recommendations(ctx context.Context, blockers []store.Blocker, limit int) ([]store.Recommendation, error) {
	if len(blockers) == 0 || limit <= 0 {
		return nil, nil
	}

	col, err := c.collection()
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	type tally struct {
		blocker   string
		action    string
		successes int
		total     int
		effort    int
	}
	tallies := make(map[string]*tally)

	for _, b := range blockers {
		k := 5
		if k > count {
			k = count
		}

		results, err := col.Query(ctx, b.Requirement+" "+b.Description, k, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("querying corpus: %w", err)
		}

		for _, res := range results {
			action := res.Metadata["action"]
			if action == "" {
				continue
			}
			key := b.Requirement + "\x00" + action
			tl, ok := tallies[key]
			if !ok {
				tl = &tally{blocker: b.Requirement, action: action, effort: math.MaxInt}
				tallies[key] = tl
			}
			tl.total++
			if res.Metadata["outcome"] == "success" {
				tl.successes++
			}
			if e, err := strconv.Atoi(res.Metadata["effort"]); err == nil && e < tl.effort {
				tl.effort = e
			}
		}
	}

	recs := make([]store.Recommendation, 0, len(tallies))
	for _, tl := range tallies {
		effort := tl.effort
		if effort == math.MaxInt {
			effort = 0
		}
		recs = append(recs, store.Recommendation{
			Blocker:     tl.blocker,
			Action:      tl.action,
			SuccessRate: float64(tl.successes) / float64(tl.total),
			Effort:      effort,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].SuccessRate != recs[j].SuccessRate {
			return recs[i].SuccessRate > recs[j].SuccessRate
		}
		if recs[i].Effort != recs[j].Effort {
			return recs[i].Effort < recs[j].Effort
		}
		return recs[i].Action < recs[j].Action
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
