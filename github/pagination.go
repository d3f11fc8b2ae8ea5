package github

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// pageSize is the page size requested from list endpoints. 100 is the
// maximum GitHub accepts.
const pageSize = 100

// paginate lazily walks a paginated list endpoint, following the Link
// header's rel="next" URL until no further page is advertised. unwrap
// extracts the items from one decoded page of type P.
//
// Iteration stops after the first error is yielded.
func paginate[P, T any](ctx context.Context, client *Client, firstURL string, unwrap func(*P) []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		nextURL := firstURL
		for nextURL != "" {
			response, err := client.doRaw(ctx, nextURL)
			if err != nil {
				yield(zero, err)
				return
			}

			var page P
			err = json.NewDecoder(response.Body).Decode(&page)
			response.Body.Close()
			if err != nil {
				yield(zero, fmt.Errorf("github: decoding page %s: %w", nextURL, err))
				return
			}

			for _, item := range unwrap(&page) {
				if !yield(item, nil) {
					return
				}
			}
			nextURL = parseLinkNext(response.Header.Get("Link"))
		}
	}
}

// parseLinkNext extracts the URL with rel="next" from an RFC 5988 Link
// header. Returns "" if no next link is present.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		urlPart, relPart, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok || !strings.Contains(relPart, `rel="next"`) {
			continue
		}
		urlPart = strings.TrimSpace(urlPart)
		if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
			return urlPart[1 : len(urlPart)-1]
		}
	}
	return ""
}
