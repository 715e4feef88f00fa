package credentials

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("credentials not found")
	ErrReadOnly = errors.New("credential store is read-only")
)

// Credentials is one row of the keys table, looked up by Slack user id.
type Credentials struct {
	UserID             string
	TeamID             string
	SlackBotToken      string
	SlackAppLevelToken string
	SlackSigningSecret string
	OpenAIAPIKey       string
}

// Store is the credential store used by the bot and the OAuth callback.
type Store interface {
	// Get returns ErrNotFound when no row exists for the user.
	Get(ctx context.Context, userID string) (*Credentials, error)
	// Save inserts or replaces the Slack installation fields for creds.UserID.
	// An empty OpenAIAPIKey never overwrites a stored key.
	Save(ctx context.Context, creds Credentials) error
	SetOpenAIKey(ctx context.Context, userID, apiKey string) error
}

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks . Store
