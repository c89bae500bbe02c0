package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteProvider stores memories and their embeddings in a SQLite file and
// ranks them by cosine similarity to the query embedding.
type SQLiteProvider struct {
	db       *sql.DB
	embedder Embedder
}

// NewSQLiteProvider opens (or creates) the database at path.
func NewSQLiteProvider(ctx context.Context, path string, embedder Embedder) (*SQLiteProvider, error) {
	if embedder == nil {
		embedder = NewNoOpEmbedder(0)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &SQLiteProvider{db: db, embedder: embedder}
	if err := p.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return p, nil
}

func (p *SQLiteProvider) initSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS memories (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		text       TEXT NOT NULL,
		vector     BLOB,
		created_at INTEGER NOT NULL
	);`)
	return err
}

// Close closes the database connection.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

func (p *SQLiteProvider) Add(ctx context.Context, text string) (string, error) {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO memories (id, text, vector, created_at) VALUES (?, ?, ?, ?)`,
		id, text, encodeVector(vec), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert memory: %w", err)
	}
	return id, nil
}

func (p *SQLiteProvider) Get(ctx context.Context, query string) ([]string, error) {
	return p.GetRelevant(ctx, query, 1)
}

func (p *SQLiteProvider) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("failed to clear memories: %w", err)
	}
	return nil
}

type scoredMemory struct {
	text  string
	seq   int64
	score float64
}

// GetRelevant ranks by cosine similarity. When either side has a zero vector
// the entry is scored by keyword overlap instead; ties go to newer entries.
func (p *SQLiteProvider) GetRelevant(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultRelevantCount
	}
	queryVec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	terms := queryTerms(query)

	rows, err := p.db.QueryContext(ctx, `SELECT seq, text, vector FROM memories`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var scored []scoredMemory
	for rows.Next() {
		var m scoredMemory
		var blob []byte
		if err := rows.Scan(&m.seq, &m.text, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		if sim, ok := cosine(queryVec, vec); ok {
			m.score = sim
		} else {
			m.score = overlap(terms, m.text)
		}
		scored = append(scored, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].seq > scored[j].seq
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]string, 0, len(scored))
	for _, m := range scored {
		out = append(out, m.text)
	}
	return out, nil
}

func (p *SQLiteProvider) GetStats(ctx context.Context) (Stats, error) {
	var entries int
	var size sql.NullInt64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*), SUM(LENGTH(text)) FROM memories`).Scan(&entries, &size)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return Stats{Backend: "sqlite", Entries: entries, Bytes: size.Int64}, nil
}
