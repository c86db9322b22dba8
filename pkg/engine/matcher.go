package engine

import (
	"fmt"

	"github.com/getmockd/contractmock/internal/matching"
	"github.com/getmockd/contractmock/pkg/stub"
)

// MatchResult contains the result of matching a request against the stub table.
type MatchResult struct {
	Stub  *stub.Stub
	Score int
}

type tableEntry struct {
	stub     *stub.Stub
	compiled *matching.Compiled
}

// StubTable holds compiled stubs in declaration order. It is immutable and
// safe for concurrent use.
type StubTable struct {
	entries    []tableEntry
	candidates []matching.Candidate
}

// NewStubTable compiles stubs. Declaration order decides ties: when two stubs
// score the same, the one declared later wins.
func NewStubTable(stubs []*stub.Stub) (*StubTable, error) {
	if err := stub.CheckUniqueIDs(stubs); err != nil {
		return nil, err
	}

	t := &StubTable{
		entries:    make([]tableEntry, 0, len(stubs)),
		candidates: make([]matching.Candidate, 0, len(stubs)),
	}
	for i, s := range stubs {
		if s == nil || s.Request == nil || s.Response == nil {
			return nil, fmt.Errorf("stubs[%d]: request and response are required", i)
		}
		compiled, err := matching.Compile(s.Request)
		if err != nil {
			return nil, fmt.Errorf("stub %q: %w", s.ID, err)
		}
		t.entries = append(t.entries, tableEntry{stub: s, compiled: compiled})
		t.candidates = append(t.candidates, matching.Candidate{ID: s.ID, Name: s.Name, Matcher: compiled})
	}
	return t, nil
}

// Len returns the number of stubs.
func (t *StubTable) Len() int {
	return len(t.entries)
}

// Stubs returns the stubs in declaration order.
func (t *StubTable) Stubs() []*stub.Stub {
	out := make([]*stub.Stub, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.stub
	}
	return out
}

// SelectBestMatch finds the best matching stub for in.
// Returns nil if no stub matches.
func (t *StubTable) SelectBestMatch(in *matching.Input) *MatchResult {
	var best *MatchResult
	for _, e := range t.entries {
		score := e.compiled.Score(in)
		if score == 0 {
			continue
		}
		// >= so that later declarations win ties
		if best == nil || score >= best.Score {
			best = &MatchResult{Stub: e.stub, Score: score}
		}
	}
	return best
}

// NearMisses explains the closest stubs for an unmatched request.
func (t *StubTable) NearMisses(in *matching.Input, topN int) []matching.NearMiss {
	return matching.CollectNearMisses(t.candidates, in, topN)
}
