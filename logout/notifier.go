package logout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const notifyTimeout = 5 * time.Second

// BackendNotifier tells the backend API that the user is logging out so it
// can clear anything it keeps for this browser. The request carries no
// credentials and its response is ignored beyond transport errors.
type BackendNotifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewBackendNotifier targets <apiBaseURL>/logout. The http client is
// copied without its cookie jar.
func NewBackendNotifier(apiBaseURL string, httpClient *http.Client) *BackendNotifier {
	client := &http.Client{Timeout: notifyTimeout}
	if httpClient != nil {
		client.Transport = httpClient.Transport
	}
	return &BackendNotifier{
		endpoint:   strings.TrimRight(apiBaseURL, "/") + "/logout",
		httpClient: client,
	}
}

func (n *BackendNotifier) Notify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, nil)
	if err != nil {
		return fmt.Errorf("logout: failed to build notify request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout: notify backend: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}
