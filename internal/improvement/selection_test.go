package improvement

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

func scoredCandidates(scores ...float64) []*Candidate {
	out := make([]*Candidate, len(scores))
	for i, s := range scores {
		p := models.LiteratureParams()
		p.InterventionDay = i
		c := NewCandidate(p)
		c.fitness, c.scored = s, true
		out[i] = c
	}
	return out
}

func TestNewSelectionStrategy(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: config.SelectionTournament, size: 3},
		{name: config.SelectionTournament, size: 0, wantErr: true},
		{name: config.SelectionRoulette},
		{name: config.SelectionRank},
		{name: "lottery", wantErr: true},
	}

	for _, tt := range tests {
		s, err := NewSelectionStrategy(tt.name, tt.size)
		if tt.wantErr {
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("%s/%d: expected ConfigError, got %v", tt.name, tt.size, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if s.Name() != tt.name {
			t.Fatalf("expected name %q, got %q", tt.name, s.Name())
		}
	}
}

func TestSelectionStrategiesReturnPopulationMembers(t *testing.T) {
	ranked := scoredCandidates(1, 2, 3, 4, 5)
	rng := utils.NewRandSource(7)

	for _, s := range []SelectionStrategy{&TournamentStrategy{Size: 2}, &RouletteStrategy{}, &RankStrategy{}} {
		for i := 0; i < 200; i++ {
			got := s.Select(ranked, rng)
			found := false
			for _, c := range ranked {
				if c == got {
					found = true
				}
			}
			if !found {
				t.Fatalf("%s returned a candidate outside the population", s.Name())
			}
		}
	}
}

func TestSelectionPrefersFitterCandidates(t *testing.T) {
	ranked := scoredCandidates(1, 10, 100, 1000)

	for _, s := range []SelectionStrategy{&TournamentStrategy{Size: 3}, &RouletteStrategy{}, &RankStrategy{}} {
		rng := utils.NewRandSource(11)
		counts := make(map[*Candidate]int)
		for i := 0; i < 2000; i++ {
			counts[s.Select(ranked, rng)]++
		}
		if counts[ranked[0]] <= counts[ranked[3]] {
			t.Fatalf("%s: best picked %d times, worst %d times", s.Name(), counts[ranked[0]], counts[ranked[3]])
		}
	}
}

func TestTournamentOfFullSizeAlwaysPicksBest(t *testing.T) {
	ranked := scoredCandidates(1, 2)
	s := &TournamentStrategy{Size: 64}
	rng := utils.NewRandSource(3)
	for i := 0; i < 50; i++ {
		if s.Select(ranked, rng) != ranked[0] {
			t.Fatalf("expected a large tournament to pick the best candidate")
		}
	}
}

func TestRouletteSkipsFailedCandidates(t *testing.T) {
	ranked := scoredCandidates(5, WorstFitness, WorstFitness)
	s := &RouletteStrategy{}
	rng := utils.NewRandSource(5)
	for i := 0; i < 200; i++ {
		if s.Select(ranked, rng) != ranked[0] {
			t.Fatalf("roulette picked a failed candidate")
		}
	}

	allFailed := scoredCandidates(WorstFitness, WorstFitness)
	if got := s.Select(allFailed, rng); got == nil {
		t.Fatalf("expected a uniform pick when every candidate failed")
	}
}

func TestSelectionIsDeterministicForSeed(t *testing.T) {
	ranked := scoredCandidates(3, 1, 4, 1, 5, 9, 2, 6)
	for _, s := range []SelectionStrategy{&TournamentStrategy{Size: 2}, &RouletteStrategy{}, &RankStrategy{}} {
		a, b := utils.NewRandSource(99), utils.NewRandSource(99)
		for i := 0; i < 50; i++ {
			if s.Select(ranked, a) != s.Select(ranked, b) {
				t.Fatalf("%s: same seed gave different picks", s.Name())
			}
		}
	}
}
