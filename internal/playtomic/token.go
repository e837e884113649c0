package playtomic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const defaultTokenTTL = 3600

// tokenSource performs the client credential exchange. The platform takes
// {client_id, secret} as JSON and answers {token, expires_in}, which the
// stock clientcredentials flow cannot speak, so only the exchange is custom;
// caching and refresh locking come from oauth2.ReuseTokenSourceWithExpiry.
type tokenSource struct {
	client   *http.Client
	url      string
	clientID string
	secret   string
}

type tokenRequest struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	body, err := json.Marshal(tokenRequest{ClientID: s.clientID, Secret: s.secret})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Path: "/oauth/token", Body: string(msg)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.Token == "" {
		return nil, fmt.Errorf("token exchange: empty token")
	}
	ttl := tr.ExpiresIn
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &oauth2.Token{
		AccessToken: tr.Token,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(ttl) * time.Second),
	}, nil
}
