package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/krishkalaria12/card-images/models"
)

const providerPingTimeout = time.Second

// TokenProvider is the external service that issues tokens. The service only
// needs to know whether it is reachable.
type TokenProvider struct {
	tokensURL string
	client    *http.Client
}

func NewTokenProvider(baseURL string) *TokenProvider {
	return &TokenProvider{
		tokensURL: baseURL + "/tokens",
		client:    &http.Client{Timeout: providerPingTimeout},
	}
}

// Ping succeeds when the provider answers at all; the status code is not inspected.
func (p *TokenProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tokensURL, nil)
	if err != nil {
		return fmt.Errorf("%w: token provider: %v", models.ErrBackendUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: token provider: %v", models.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return nil
}
