package payment

import (
	"context"
	"fmt"
	"net/http"
)

// InlineLauncher serves popup providers that run entirely in the browser: the page loads
// the provider script and opens the iframe with the returned config.
type InlineLauncher struct {
	Provider  string
	ScriptURL string
}

func (l InlineLauncher) Launch(_ context.Context, cfg Config) (Launch, error) {
	return Launch{
		Provider:  l.Provider,
		ScriptURL: l.ScriptURL,
		Config:    &cfg,
	}, nil
}

// ScriptLoad returns a LoadFunc that fetches scriptURL and hands out w once the provider
// script is reachable.
func ScriptLoad(client *http.Client, scriptURL string, w Widget) LoadFunc {
	return func(ctx context.Context) (Widget, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build script request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch widget script: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch widget script: status %d", resp.StatusCode)
		}
		return w, nil
	}
}
