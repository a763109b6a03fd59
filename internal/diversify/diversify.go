// Package diversify selects a bounded, varied subset of scored sentences.
package diversify

import (
	"strings"

	"github.com/MrWong99/talktalk/internal/morph"
	"github.com/MrWong99/talktalk/internal/score"
)

// DefaultMaxSimilar is the pattern cap used when Diversify gets a
// non-positive maxSimilar.
const DefaultMaxSimilar = 2

const (
	startPenalty   = 3.0
	endingPenalty  = 4.0
	balancePenalty = 10.0
)

type keys struct {
	pattern    string
	start      string
	ending     string
	difficulty string
}

func keysOf(s score.Sentence) keys {
	words := strings.Fields(s.Sentence)
	k := keys{difficulty: string(s.Difficulty)}
	if k.difficulty == "" {
		k.difficulty = "unknown"
	}
	if len(words) > 0 {
		k.start = normalize(words[0])
		k.ending = morph.Ending(words[len(words)-1])
	}
	if len(s.MatchedWords) > 0 {
		k.pattern = normalize(s.MatchedWords[0])
	} else {
		k.pattern = k.start
	}
	return k
}

func normalize(w string) string {
	w = strings.Trim(w, ".,!?~\"'")
	return strings.ToLower(morph.StripParticle(w))
}

// Diversify picks target sentences from scored, which must be sorted by
// score. It greedily takes the best adjusted score, where the adjustment
// penalises repeated openers, repeated closing morphology and difficulty
// tiers above a third of target. No lexical pattern is taken more than
// maxSimilar times until every eligible sentence is exhausted; remaining
// slots are then backfilled in score order.
//
// Inputs no larger than target are returned unchanged. A non-positive target
// selects nothing.
func Diversify(scored []score.Sentence, target, maxSimilar int) []score.Sentence {
	if target <= 0 {
		return nil
	}
	if len(scored) <= target {
		return scored
	}
	if maxSimilar <= 0 {
		maxSimilar = DefaultMaxSimilar
	}

	ks := make([]keys, len(scored))
	for i, s := range scored {
		ks[i] = keysOf(s)
	}

	var (
		selected = make([]score.Sentence, 0, target)
		taken    = make([]bool, len(scored))
		patterns = map[string]int{}
		starts   = map[string]int{}
		endings  = map[string]int{}
		tiers    = map[string]int{}
		tierCap  = max(1, target/3)
	)
	for len(selected) < target {
		best := -1
		var bestAdj float64
		for i, s := range scored {
			k := ks[i]
			if taken[i] || patterns[k.pattern] >= maxSimilar {
				continue
			}
			penalty := startPenalty*float64(starts[k.start]) + endingPenalty*float64(endings[k.ending])
			if k.difficulty != "unknown" {
				if over := tiers[k.difficulty] - tierCap; over >= 0 {
					penalty += balancePenalty * float64(over+1)
				}
			}
			if adj := s.Score - penalty; best < 0 || adj > bestAdj {
				best, bestAdj = i, adj
			}
		}
		if best < 0 {
			break
		}
		k := ks[best]
		taken[best] = true
		patterns[k.pattern]++
		starts[k.start]++
		endings[k.ending]++
		tiers[k.difficulty]++
		selected = append(selected, scored[best])
	}

	for i := 0; i < len(scored) && len(selected) < target; i++ {
		if !taken[i] {
			taken[i] = true
			selected = append(selected, scored[i])
		}
	}
	return selected
}
