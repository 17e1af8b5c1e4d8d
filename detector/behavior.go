package detector

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MistakeKind labels the perturbation applied to a response, when any.
type MistakeKind string

const (
	MistakeNone    MistakeKind = ""
	MistakeTypo    MistakeKind = "typo"
	MistakePartial MistakeKind = "partial"
	MistakeReorder MistakeKind = "reorder"
	MistakeDelayed MistakeKind = "delayed"
)

type BehaviorConfig struct {
	// MistakeProbability is the chance a response is perturbed at all.
	MistakeProbability float64
	// TypoProbability is the chance a perturbed response is a keyboard
	// typo rather than one of the structural mistakes.
	TypoProbability float64

	BaseDelay        time.Duration
	PerTokenDelay    time.Duration
	DelayJitter      time.Duration
	PartialKeepRatio float64
}

type Response struct {
	Text    string
	Delay   time.Duration
	Mistake MistakeKind
}

// Engine shapes outbound responses to look like a human typist: an adaptive
// delay per response and an occasional deliberate mistake. All randomness
// flows through the injected source so a fixed seed gives a fixed output
// sequence.
type Engine struct {
	cfg BehaviorConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(cfg BehaviorConfig, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.PartialKeepRatio <= 0 || cfg.PartialKeepRatio > 1 {
		cfg.PartialKeepRatio = 0.7
	}
	return &Engine{cfg: cfg, rng: rng}
}

func (e *Engine) Respond(tokens []string) Response {
	if len(tokens) == 0 {
		return Response{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	out := append([]string(nil), tokens...)
	kind := MistakeNone

	if e.rng.Float64() < e.cfg.MistakeProbability {
		if e.rng.Float64() < e.cfg.TypoProbability {
			out = applyTypo(e.rng, out)
			kind = MistakeTypo
		} else {
			switch e.rng.Intn(3) {
			case 0:
				out = applyPartial(e.rng, out, e.cfg.PartialKeepRatio)
				kind = MistakePartial
			case 1:
				applyReorder(e.rng, out)
				kind = MistakeReorder
			default:
				kind = MistakeDelayed
			}
		}
	}

	delay := e.cfg.BaseDelay + time.Duration(len(out)-1)*e.cfg.PerTokenDelay
	if e.cfg.DelayJitter > 0 {
		delay += time.Duration(e.rng.Int63n(int64(e.cfg.DelayJitter) + 1))
	}
	if kind == MistakeDelayed {
		delay *= 2
	}

	return Response{
		Text:    strings.Join(out, " "),
		Delay:   delay,
		Mistake: kind,
	}
}

// applyTypo swaps one character of one token for an adjacent key. Tokens of
// one rune, and characters without a mapped key, leave the input unchanged.
func applyTypo(rng *rand.Rand, tokens []string) []string {
	idx := rng.Intn(len(tokens))
	runes := []rune(tokens[idx])
	if len(runes) < 2 {
		return tokens
	}
	pos := rng.Intn(len(runes))
	neighbors := nearbyKeys(runes[pos])
	if len(neighbors) == 0 {
		return tokens
	}
	runes[pos] = neighbors[rng.Intn(len(neighbors))]
	tokens[idx] = string(runes)
	return tokens
}

func applyPartial(rng *rand.Rand, tokens []string, keepRatio float64) []string {
	keep := int(float64(len(tokens)) * keepRatio)
	if keep < 1 {
		keep = 1
	}
	applyReorder(rng, tokens)
	return tokens[:keep]
}

func applyReorder(rng *rand.Rand, tokens []string) {
	rng.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})
}
