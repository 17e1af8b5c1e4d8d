package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const jikanEndpoint = "https://api.jikan.moe/v4/characters"

// JikanService queries the Jikan (MyAnimeList) REST API.
type JikanService struct {
	http     *http.Client
	endpoint string
}

func NewJikanService(httpClient *http.Client) *JikanService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLookupTimeout}
	}
	return &JikanService{http: httpClient, endpoint: jikanEndpoint}
}

func (s *JikanService) Name() string { return "jikan" }

type jikanResponse struct {
	Data []struct {
		Name string `json:"name"`
	} `json:"data"`
}

func (s *JikanService) Lookup(ctx context.Context, name string) (ResolvedName, bool, error) {
	searchURL := fmt.Sprintf("%s?q=%s&limit=1", s.endpoint, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return ResolvedName{}, false, err
	}
	req.Header.Set("User-Agent", lookupUserAgent)

	raw, err := doLookupRequest(s.http, req)
	if err != nil {
		return ResolvedName{}, false, err
	}
	var out jikanResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ResolvedName{}, false, fmt.Errorf("jikan decode: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].Name == "" {
		return ResolvedName{}, false, nil
	}
	return ResolvedName{Name: out.Data[0].Name, Confidence: 0.8, Source: Source(s.Name())}, true, nil
}
