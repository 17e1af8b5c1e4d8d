package resolve

// Source identifies where a resolved name came from. Remote hits carry the
// service name itself ("anilist", "jikan", "kitsu").
type Source string

const (
	SourceLocal   Source = "local_mapping"
	SourceLearned Source = "learned_cache"
)

type ResolvedName struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}
