package gdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewHTTPClient builds an authenticated HTTP client from installed
// application credentials at credPath and a user token cached at tokenPath.
// When no usable token is cached authorize is called with the consent URL
// and must return the grant code, the exchanged token is then cached for
// later runs. A nil authorize fails instead, which is what non interactive
// surfaces want since they cannot prompt.
func NewHTTPClient(ctx context.Context, credPath, tokenPath string, authorize func(authURL string) (string, error)) (*http.Client, error) {
	data, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client credentials: %w", err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		if authorize == nil {
			return nil, fmt.Errorf("no cached token at %s, run the auth command first", tokenPath)
		}
		code, err := authorize(cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
		if err != nil {
			return nil, fmt.Errorf("authorization was not granted: %w", err)
		}
		tok, err = cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}
	return cfg.Client(ctx, tok), nil
}

func tokenFromFile(path string) (_ *oauth2.Token, rerr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		rerr = multierr.Append(rerr, f.Close())
	}()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("unable to decode cached token: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) (rerr error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer func() {
		rerr = multierr.Append(rerr, f.Close())
	}()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("unable to encode oauth token: %w", err)
	}
	return nil
}
