package lexicon

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const ddlLexicon = `
CREATE TABLE IF NOT EXISTS word_frequency (
    word       TEXT     PRIMARY KEY,
    frequency  SMALLINT NOT NULL CHECK (frequency BETWEEN 0 AND 100)
);

CREATE TABLE IF NOT EXISTS word_age (
    word       TEXT     PRIMARY KEY,
    age        SMALLINT NOT NULL CHECK (age BETWEEN 3 AND 7)
);

CREATE TABLE IF NOT EXISTS forbidden_words (
    word       TEXT     PRIMARY KEY
);
`

// Store is a PostgreSQL-backed lexicon source. The pipeline never queries it
// per request: [Store.Load] snapshots the tables into a [Lexicon] at startup.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, pings the server and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("lexicon store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("lexicon store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("lexicon store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("lexicon store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the lexicon tables if they do not exist. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlLexicon); err != nil {
		return fmt.Errorf("lexicon migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable. It backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Load reads all three tables concurrently and returns an immutable Lexicon.
// Words present only in word_age get DefaultFrequency.
func (s *Store) Load(ctx context.Context) (*Lexicon, error) {
	var (
		mu   sync.Mutex
		freq = map[string]int{}
		ages = map[string]int{}
		data = &Data{Words: map[string]Entry{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.scanPairs(gctx, "SELECT word, frequency FROM word_frequency", func(w string, v int) {
			mu.Lock()
			freq[w] = v
			mu.Unlock()
		})
	})
	g.Go(func() error {
		return s.scanPairs(gctx, "SELECT word, age FROM word_age", func(w string, v int) {
			mu.Lock()
			ages[w] = v
			mu.Unlock()
		})
	})
	g.Go(func() error {
		rows, err := s.pool.Query(gctx, "SELECT word FROM forbidden_words ORDER BY word")
		if err != nil {
			return fmt.Errorf("lexicon store: query forbidden_words: %w", err)
		}
		words, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("lexicon store: scan forbidden_words: %w", err)
		}
		mu.Lock()
		data.Forbidden = words
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for w, f := range freq {
		data.Words[w] = Entry{Frequency: f, Age: ages[w]}
	}
	for w, a := range ages {
		if _, ok := freq[w]; !ok {
			data.Words[w] = Entry{Frequency: DefaultFrequency, Age: a}
		}
	}
	return New(data), nil
}

func (s *Store) scanPairs(ctx context.Context, query string, fn func(string, int)) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("lexicon store: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			w string
			v int16
		)
		if err := rows.Scan(&w, &v); err != nil {
			return fmt.Errorf("lexicon store: scan: %w", err)
		}
		fn(w, int(v))
	}
	return rows.Err()
}

// Seed upserts d into the database in a single transaction.
func (s *Store) Seed(ctx context.Context, d *Data) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("lexicon store: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for w, e := range d.Words {
		batch.Queue(`INSERT INTO word_frequency (word, frequency) VALUES ($1, $2)
			ON CONFLICT (word) DO UPDATE SET frequency = EXCLUDED.frequency`, w, e.Frequency)
		if e.Age > 0 {
			batch.Queue(`INSERT INTO word_age (word, age) VALUES ($1, $2)
				ON CONFLICT (word) DO UPDATE SET age = EXCLUDED.age`, w, e.Age)
		}
	}
	for _, f := range d.Forbidden {
		batch.Queue(`INSERT INTO forbidden_words (word) VALUES ($1) ON CONFLICT DO NOTHING`, f)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("lexicon store: seed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("lexicon store: commit: %w", err)
	}
	return nil
}
