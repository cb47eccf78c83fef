// Copyright (C) 2025 Brigham Skarda

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package analyzer

import (
	"testing"

	"github.com/brighamskarda/pgnforge/internal/uci"
)

func intPtr(n int) *int { return &n }

func TestNagForDeltaThresholds(t *testing.T) {
	cases := []struct {
		delta int
		want  uint8
	}{
		{0, 0},
		{-59, 0},
		{-60, nagDubious},
		{-149, nagDubious},
		{-150, nagMistake},
		{-299, nagMistake},
		{-300, nagBlunder},
		{-1000, nagBlunder},
	}
	for _, c := range cases {
		if got := nagForDelta(c.delta); got != c.want {
			t.Errorf("nagForDelta(%d) = %d, want %d", c.delta, got, c.want)
		}
	}
}

func TestRawCpPrefersMate(t *testing.T) {
	r := &uci.SearchResult{DeepestScore: &uci.Score{Cp: intPtr(50), Mate: intPtr(3)}}
	got := rawCp(r)
	want := uci.MateCentipawns(3)
	if got != want {
		t.Errorf("rawCp = %d, want %d", got, want)
	}
}

func TestRawCpNilScore(t *testing.T) {
	if got := rawCp(&uci.SearchResult{}); got != 0 {
		t.Errorf("rawCp = %d, want 0", got)
	}
}

func TestFormatEvalCentipawns(t *testing.T) {
	r := &uci.SearchResult{DeepestScore: &uci.Score{Cp: intPtr(125)}}
	got := formatEval(r, true)
	want := "[%eval 1.25]"
	if got != want {
		t.Errorf("formatEval = %q, want %q", got, want)
	}
}

func TestFormatEvalNegatesForBlack(t *testing.T) {
	r := &uci.SearchResult{DeepestScore: &uci.Score{Cp: intPtr(125)}}
	got := formatEval(r, false)
	want := "[%eval -1.25]"
	if got != want {
		t.Errorf("formatEval = %q, want %q", got, want)
	}
}

func TestFormatEvalMate(t *testing.T) {
	r := &uci.SearchResult{DeepestScore: &uci.Score{Mate: intPtr(3)}}
	got := formatEval(r, true)
	want := "[%eval #3]"
	if got != want {
		t.Errorf("formatEval = %q, want %q", got, want)
	}
}
