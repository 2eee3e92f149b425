package service

import (
	"strings"

	"github.com/swarmpilot/swarmpilot/internal/domain/agent"
)

// Selection scoring weights. Scores accumulate additively per agent; the
// busy penalty is the only multiplicative term.
const (
	capabilityPhraseScore = 3
	capabilityTokenScore  = 1
	roleKeywordScore      = 2
	successRateBonus      = 1
	successRateThreshold  = 0.8
	busyPenaltyFactor     = 0.5
)

// SelectAgent returns the best-matching agent for the instruction, scored
// over the given snapshot. Deterministic: ties resolve to the earliest
// agent in registry order. Returns nil when no agent scores above zero and
// none is idle; that is a normal outcome, not an error.
func SelectAgent(instruction string, agents []*agent.Agent) *agent.Agent {
	lowered := strings.ToLower(instruction)
	words := tokenize(lowered)

	var best *agent.Agent
	var bestScore float64

	for _, a := range agents {
		if a.Status == agent.StatusOffline {
			continue
		}
		score := scoreAgent(a, lowered, words)
		if score > bestScore {
			best = a
			bestScore = score
		}
	}

	if best != nil && bestScore > 0 {
		return best
	}

	// Nothing matched by keywords: fall back to the first idle agent.
	for _, a := range agents {
		if a.Status == agent.StatusIdle {
			return a
		}
	}
	return nil
}

// scoreAgent computes one agent's score against a lower-cased instruction.
func scoreAgent(a *agent.Agent, lowered string, words map[string]struct{}) float64 {
	var score float64

	for _, tag := range a.Capabilities {
		phrase := strings.ReplaceAll(tag, "_", " ")
		if strings.Contains(lowered, phrase) {
			score += capabilityPhraseScore
			continue
		}
		for _, token := range strings.Split(tag, "_") {
			if _, ok := words[token]; ok {
				score += capabilityTokenScore
				break
			}
		}
	}

	for _, kw := range a.RoleKeywords {
		if strings.Contains(lowered, kw) {
			score += roleKeywordScore
		}
	}

	if a.Performance.SuccessRate > successRateThreshold {
		score += successRateBonus
	}

	if a.Status == agent.StatusWorking {
		score *= busyPenaltyFactor
	}

	return score
}

// tokenize splits a lower-cased instruction into a word set, trimming
// common punctuation so "file," still matches the token "file".
func tokenize(lowered string) map[string]struct{} {
	fields := strings.Fields(lowered)
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[strings.Trim(f, ".,;:!?'\"()")] = struct{}{}
	}
	return words
}
