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

// Package progress rate-limits progress reporting across long-running
// transformations, per the one-update-per-100ms-or-200-games contract.
package progress

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Progress describes how far a transformation has advanced.
type Progress struct {
	GamesProcessed int
	GamesKept      int
	Errors         int
	BytesRead      int64
}

// String renders a human-readable one-line summary, used by cmd/pgnforge's
// default progress sink.
func (p Progress) String() string {
	return humanize.Comma(int64(p.GamesProcessed)) + " games, " +
		humanize.Bytes(uint64(p.BytesRead)) + " read"
}

// Sink receives progress updates. Implementations must not block.
type Sink func(Progress)

// Reporter wraps a Sink with the rate limit required by the concurrency
// model: at most one call every 100ms, or every 200 games, whichever is
// later.
type Reporter struct {
	sink       Sink
	lastReport time.Time
	lastCount  int
	interval   time.Duration
	gameStep   int
}

// NewReporter builds a Reporter around sink. A nil sink is valid and
// produces a Reporter whose Report calls are no-ops.
func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink, interval: 100 * time.Millisecond, gameStep: 200}
}

// Report delivers p to the underlying sink if the rate limit allows it.
// Call Force to guarantee delivery regardless of rate (used for the final
// update at the end of a transformation).
func (r *Reporter) Report(p Progress) {
	if r == nil || r.sink == nil {
		return
	}
	now := time.Now()
	if now.Sub(r.lastReport) < r.interval || p.GamesProcessed-r.lastCount < r.gameStep {
		return
	}
	r.lastReport = now
	r.lastCount = p.GamesProcessed
	r.sink(p)
}

// Force delivers p to the underlying sink unconditionally.
func (r *Reporter) Force(p Progress) {
	if r == nil || r.sink == nil {
		return
	}
	r.lastReport = time.Now()
	r.lastCount = p.GamesProcessed
	r.sink(p)
}
