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

package validate

import (
	"strings"
	"testing"
)

const wellFormed = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[White "Carlsen, Magnus"]
[Black "Nakamura, Hikaru"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 1-0
`

func hasCode(dx []Diagnostic, code string) bool {
	for _, d := range dx {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestValidateWellFormedGameHasNoDiagnostics(t *testing.T) {
	r := strings.NewReader(wellFormed)
	report, err := Validate(r, int64(r.Len()), Options{})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if report.GamesChecked != 1 {
		t.Fatalf("GamesChecked = %d, want 1", report.GamesChecked)
	}
	if len(report.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", report.Diagnostics)
	}
}

func TestValidateMissingRequiredTag(t *testing.T) {
	const missingWhite = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[Black "Nakamura, Hikaru"]
[Result "1-0"]

1. e4 1-0
`
	r := strings.NewReader(missingWhite)
	report, err := Validate(r, int64(r.Len()), Options{})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !hasCode(report.Diagnostics, "missing-required-tag") {
		t.Errorf("Diagnostics = %v, want missing-required-tag", report.Diagnostics)
	}
}

func TestValidateResultMismatch(t *testing.T) {
	const mismatched = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "0-1"]

1. e4 1-0
`
	r := strings.NewReader(mismatched)
	report, err := Validate(r, int64(r.Len()), Options{})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !hasCode(report.Diagnostics, "result-mismatch") {
		t.Errorf("Diagnostics = %v, want result-mismatch", report.Diagnostics)
	}
}

func TestValidateIllegalMove(t *testing.T) {
	const illegal = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 e5 2. Qh5 Nf6 3. Qxf9 1-0
`
	r := strings.NewReader(illegal)
	report, err := Validate(r, int64(r.Len()), Options{})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !hasCode(report.Diagnostics, "illegal-move-or-parse-error") {
		t.Errorf("Diagnostics = %v, want illegal-move-or-parse-error", report.Diagnostics)
	}
}

func TestValidateStrictRosterOrder(t *testing.T) {
	const reordered = `[Site "?"]
[Event "Test"]
[Date "2023.05.15"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 1-0
`
	r := strings.NewReader(reordered)
	report, err := Validate(r, int64(r.Len()), Options{Strict: true})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !hasCode(report.Diagnostics, "tag-roster-order") {
		t.Errorf("Diagnostics = %v, want tag-roster-order", report.Diagnostics)
	}
}

func TestValidateUnterminatedGameStopsPass(t *testing.T) {
	const truncated = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 { unterminated
`
	r := strings.NewReader(truncated)
	report, err := Validate(r, int64(r.Len()), Options{})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !hasCode(report.Diagnostics, "unterminated-game") {
		t.Errorf("Diagnostics = %v, want unterminated-game", report.Diagnostics)
	}
}
