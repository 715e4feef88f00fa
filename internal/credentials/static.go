package credentials

import "context"

// StaticStore serves the same credentials to every user. It is used when no
// database is configured and the bot runs off environment variables.
type StaticStore struct {
	creds Credentials
}

func NewStaticStore(creds Credentials) *StaticStore {
	return &StaticStore{creds: creds}
}

func (s *StaticStore) Get(ctx context.Context, userID string) (*Credentials, error) {
	c := s.creds
	c.UserID = userID
	return &c, nil
}

func (s *StaticStore) Save(ctx context.Context, creds Credentials) error {
	return ErrReadOnly
}

func (s *StaticStore) SetOpenAIKey(ctx context.Context, userID, apiKey string) error {
	return ErrReadOnly
}
