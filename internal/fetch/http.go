package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// NewHTTPFetch returns a FetchFunc that issues "https://{domain}{path}"
// requests over client, appending the access token as a query parameter.
// Gzip transfer encoding is handled transparently by net/http's default
// transport; callers never see compressed bytes.
func NewHTTPFetch(client *http.Client, token string) FetchFunc {
	return func(ctx context.Context, domain, path string) (io.ReadCloser, error) {
		url := fmt.Sprintf("https://%s%s", domain, path)
		if token != "" {
			url += "?access_token=" + token
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build tile request")
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "do tile request")
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, errors.Errorf("tile request %s: status %d: %s", url, resp.StatusCode, body)
		}
		return resp.Body, nil
	}
}
