package credentials

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db querier
}

// Connect opens a pool against dsn and checks it is reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to database, Error: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Failed to ping database, Error: %w", err)
	}

	return pool, nil
}

func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the keys table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create keys table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Credentials, error) {
	query := `
	SELECT
	  user_id,
	  team_id,
	  slack_bot_token,
	  slack_app_level_token,
	  slack_signing_secret,
	  openai_api_key
	FROM keys
	WHERE user_id = $1`

	var c Credentials
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&c.UserID,
		&c.TeamID,
		&c.SlackBotToken,
		&c.SlackAppLevelToken,
		&c.SlackSigningSecret,
		&c.OpenAIAPIKey,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credentials for user %s: %w", userID, err)
	}

	return &c, nil
}

func (s *PostgresStore) Save(ctx context.Context, creds Credentials) error {
	if creds.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	query := `
	INSERT INTO keys (user_id, team_id, slack_bot_token, slack_app_level_token, slack_signing_secret, openai_api_key, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (user_id) DO UPDATE SET
	  team_id = EXCLUDED.team_id,
	  slack_bot_token = EXCLUDED.slack_bot_token,
	  slack_app_level_token = EXCLUDED.slack_app_level_token,
	  slack_signing_secret = EXCLUDED.slack_signing_secret,
	  openai_api_key = COALESCE(NULLIF(EXCLUDED.openai_api_key, ''), keys.openai_api_key),
	  updated_at = now()`

	_, err := s.db.Exec(ctx, query,
		creds.UserID,
		creds.TeamID,
		creds.SlackBotToken,
		creds.SlackAppLevelToken,
		creds.SlackSigningSecret,
		creds.OpenAIAPIKey,
	)
	if err != nil {
		return fmt.Errorf("failed to save credentials for user %s: %w", creds.UserID, err)
	}

	return nil
}

func (s *PostgresStore) SetOpenAIKey(ctx context.Context, userID, apiKey string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if apiKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}

	query := `
	INSERT INTO keys (user_id, openai_api_key, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (user_id) DO UPDATE SET
	  openai_api_key = EXCLUDED.openai_api_key,
	  updated_at = now()`

	if _, err := s.db.Exec(ctx, query, userID, apiKey); err != nil {
		return fmt.Errorf("failed to store OpenAI key for user %s: %w", userID, err)
	}

	return nil
}
