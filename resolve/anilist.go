package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anilistEndpoint = "https://graphql.anilist.co/"

	anilistQuery = "query ($search: String) { Character(search: $search) { name { full native } id } }"
)

// AniListService queries the AniList GraphQL API. It is the highest
// confidence backend of the three.
type AniListService struct {
	http     *http.Client
	endpoint string
}

func NewAniListService(httpClient *http.Client) *AniListService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLookupTimeout}
	}
	return &AniListService{http: httpClient, endpoint: anilistEndpoint}
}

func (s *AniListService) Name() string { return "anilist" }

type anilistRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type anilistResponse struct {
	Data struct {
		Character *struct {
			Name struct {
				Full   string `json:"full"`
				Native string `json:"native"`
			} `json:"name"`
		} `json:"Character"`
	} `json:"data"`
}

func (s *AniListService) Lookup(ctx context.Context, name string) (ResolvedName, bool, error) {
	body, err := json.Marshal(anilistRequest{
		Query:     anilistQuery,
		Variables: map[string]string{"search": name},
	})
	if err != nil {
		return ResolvedName{}, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return ResolvedName{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", lookupUserAgent)

	raw, err := doLookupRequest(s.http, req)
	if err != nil {
		return ResolvedName{}, false, err
	}
	var out anilistResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ResolvedName{}, false, fmt.Errorf("anilist decode: %w", err)
	}
	if out.Data.Character == nil {
		return ResolvedName{}, false, nil
	}
	resolved := out.Data.Character.Name.Full
	if resolved == "" {
		resolved = out.Data.Character.Name.Native
	}
	if resolved == "" {
		return ResolvedName{}, false, nil
	}
	return ResolvedName{Name: resolved, Confidence: 0.9, Source: Source(s.Name())}, true, nil
}

const lookupUserAgent = "ibra/1.0"

// doLookupRequest executes a lookup request and returns the body. HTTP 429
// becomes a RateLimitError carrying the server's Retry-After.
func doLookupRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lookup http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
