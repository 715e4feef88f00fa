package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	values []string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*string)) = r.values[i]
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	row     fakeRow
	execErr error
	execs   []execCall
	queries []string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	return f.row
}

func TestPostgresStore_Get(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []string{"U1", "T1", "xoxb", "xapp", "secret", "sk-1"}}}
	store := NewPostgresStore(db)

	creds, err := store.Get(context.Background(), "U1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := Credentials{
		UserID:             "U1",
		TeamID:             "T1",
		SlackBotToken:      "xoxb",
		SlackAppLevelToken: "xapp",
		SlackSigningSecret: "secret",
		OpenAIAPIKey:       "sk-1",
	}
	if *creds != want {
		t.Errorf("Get() = %+v, want %+v", *creds, want)
	}
	if !strings.Contains(db.queries[0], "FROM keys") {
		t.Errorf("Unexpected query %q", db.queries[0])
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store := NewPostgresStore(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := store.Get(context.Background(), "U404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_GetError(t *testing.T) {
	store := NewPostgresStore(&fakeDB{row: fakeRow{err: errors.New("conn closed")}})

	_, err := store.Get(context.Background(), "U1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected wrapped driver error, got %v", err)
	}
}

func TestPostgresStore_Save(t *testing.T) {
	db := &fakeDB{}
	store := NewPostgresStore(db)

	err := store.Save(context.Background(), Credentials{UserID: "U1", TeamID: "T1", SlackBotToken: "xoxb"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if len(db.execs) != 1 {
		t.Fatalf("Expected one exec, got %d", len(db.execs))
	}
	call := db.execs[0]
	if !strings.Contains(call.sql, "ON CONFLICT (user_id) DO UPDATE") {
		t.Errorf("Expected upsert, got %q", call.sql)
	}
	if call.args[0] != "U1" || call.args[1] != "T1" || call.args[2] != "xoxb" {
		t.Errorf("Unexpected args %v", call.args)
	}
}

func TestPostgresStore_SaveValidation(t *testing.T) {
	db := &fakeDB{}
	store := NewPostgresStore(db)

	if err := store.Save(context.Background(), Credentials{}); err == nil {
		t.Error("Expected error for missing user id")
	}
	if len(db.execs) != 0 {
		t.Error("Expected no database call on invalid input")
	}
}

func TestPostgresStore_SaveError(t *testing.T) {
	store := NewPostgresStore(&fakeDB{execErr: errors.New("boom")})

	if err := store.Save(context.Background(), Credentials{UserID: "U1"}); err == nil {
		t.Error("Expected error from failing exec")
	}
}

func TestPostgresStore_SetOpenAIKey(t *testing.T) {
	db := &fakeDB{}
	store := NewPostgresStore(db)

	if err := store.SetOpenAIKey(context.Background(), "U1", "sk-new"); err != nil {
		t.Fatalf("SetOpenAIKey failed: %v", err)
	}
	if db.execs[0].args[0] != "U1" || db.execs[0].args[1] != "sk-new" {
		t.Errorf("Unexpected args %v", db.execs[0].args)
	}

	if err := store.SetOpenAIKey(context.Background(), "U1", ""); err == nil {
		t.Error("Expected error for empty key")
	}
	if err := store.SetOpenAIKey(context.Background(), "", "sk"); err == nil {
		t.Error("Expected error for empty user id")
	}
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	store := NewPostgresStore(db)

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if !strings.Contains(db.execs[0].sql, "CREATE TABLE IF NOT EXISTS keys") {
		t.Errorf("Unexpected schema statement %q", db.execs[0].sql)
	}
}

func TestStaticStore(t *testing.T) {
	store := NewStaticStore(Credentials{SlackBotToken: "xoxb", OpenAIAPIKey: "sk-env"})

	creds, err := store.Get(context.Background(), "U9")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if creds.UserID != "U9" || creds.OpenAIAPIKey != "sk-env" {
		t.Errorf("Unexpected credentials %+v", creds)
	}

	if err := store.Save(context.Background(), Credentials{UserID: "U9"}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly from Save, got %v", err)
	}
	if err := store.SetOpenAIKey(context.Background(), "U9", "sk"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly from SetOpenAIKey, got %v", err)
	}
}
