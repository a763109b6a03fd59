package lexicon_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/talktalk/internal/lexicon"
)

// testDSN returns the test database DSN or skips the test.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TALKTALK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TALKTALK_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestStore(t *testing.T) *lexicon.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS word_frequency",
		"DROP TABLE IF EXISTS word_age",
		"DROP TABLE IF EXISTS forbidden_words",
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("drop: %v", err)
		}
	}
	pool.Close()

	store, err := lexicon.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStore_SeedAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := &lexicon.Data{
		Words: map[string]lexicon.Entry{
			"엄마": {Frequency: 95, Age: 3},
			"학교": {Frequency: 80, Age: 6},
			"우주": {Frequency: 55},
		},
		Forbidden: []string{"담배"},
	}
	if err := store.Seed(ctx, seed); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Seeding twice must be idempotent.
	if err := store.Seed(ctx, seed); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	lex, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if words, forbidden := lex.Size(); words != 3 || forbidden != 1 {
		t.Errorf("Size=(%d,%d), want (3,1)", words, forbidden)
	}
	if got := lex.Frequency("학교에"); got != 80 {
		t.Errorf("Frequency=%d, want 80", got)
	}
	if lvl, ok := lex.AgeLevel("학교"); !ok || lvl != 6 {
		t.Errorf("AgeLevel=%d,%v, want 6,true", lvl, ok)
	}
	if _, ok := lex.AgeLevel("우주"); ok {
		t.Error("우주 should have no age level")
	}
	if _, ok := lex.ContainsForbidden("담배 피우기"); !ok {
		t.Error("expected forbidden match")
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestStore_SeedEmbedded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d, err := lexicon.EmbeddedData()
	if err != nil {
		t.Fatalf("EmbeddedData: %v", err)
	}
	if err := store.Seed(ctx, d); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	lex, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, _ := lexicon.Default()
	gw, gf := lex.Size()
	ww, wf := want.Size()
	if gw != ww || gf != wf {
		t.Errorf("Size=(%d,%d), want (%d,%d)", gw, gf, ww, wf)
	}
}
