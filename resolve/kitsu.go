package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const kitsuEndpoint = "https://kitsu.io/api/edge/characters"

// KitsuService queries the Kitsu JSON:API.
type KitsuService struct {
	http     *http.Client
	endpoint string
}

func NewKitsuService(httpClient *http.Client) *KitsuService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLookupTimeout}
	}
	return &KitsuService{http: httpClient, endpoint: kitsuEndpoint}
}

func (s *KitsuService) Name() string { return "kitsu" }

type kitsuResponse struct {
	Data []struct {
		Attributes struct {
			Name          string `json:"name"`
			CanonicalName string `json:"canonicalName"`
		} `json:"attributes"`
	} `json:"data"`
}

func (s *KitsuService) Lookup(ctx context.Context, name string) (ResolvedName, bool, error) {
	searchURL := fmt.Sprintf("%s?filter[name]=%s&page[limit]=1", s.endpoint, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return ResolvedName{}, false, err
	}
	req.Header.Set("User-Agent", lookupUserAgent)

	raw, err := doLookupRequest(s.http, req)
	if err != nil {
		return ResolvedName{}, false, err
	}
	var out kitsuResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ResolvedName{}, false, fmt.Errorf("kitsu decode: %w", err)
	}
	if len(out.Data) == 0 {
		return ResolvedName{}, false, nil
	}
	resolved := out.Data[0].Attributes.Name
	if resolved == "" {
		resolved = out.Data[0].Attributes.CanonicalName
	}
	if resolved == "" {
		return ResolvedName{}, false, nil
	}
	return ResolvedName{Name: resolved, Confidence: 0.8, Source: Source(s.Name())}, true, nil
}
