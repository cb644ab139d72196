package auth

import (
	"os"
	"time"

	"twcrawler/pkg/config"
)

// Environment variables holding the OAuth1 secrets
const (
	EnvConsumerKey    = config.EnvPrefix + "CONSUMER_KEY"
	EnvConsumerSecret = config.EnvPrefix + "CONSUMER_SECRET"
	EnvAccessToken    = config.EnvPrefix + "ACCESS_TOKEN"
	EnvAccessSecret   = config.EnvPrefix + "ACCESS_SECRET"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve builds credentials from the environment. The environment has no
// notion of a profile name, so any requested name is echoed back.
func (e *EnvironmentStore) Retrieve(name string) (*Credentials, error) {
	creds := &Credentials{
		Name:           name,
		ConsumerKey:    os.Getenv(EnvConsumerKey),
		ConsumerSecret: os.Getenv(EnvConsumerSecret),
		AccessToken:    os.Getenv(EnvAccessToken),
		AccessSecret:   os.Getenv(EnvAccessSecret),
		LastModified:   time.Now(),
	}
	if creds.Name == "" {
		creds.Name = "env"
	}

	if !creds.OAuth().Complete() {
		return nil, ErrCredentialsNotFound
	}
	return creds, nil
}

// List returns one profile if the environment is fully populated
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
