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

// Package tageco tags games with ECO code, opening name, and variation by
// walking a trie built from a reference PGN of named openings.
package tageco

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/brighamskarda/pgnforge/internal/board"
)

type trieNode struct {
	children  map[string]*trieNode
	eco       string
	opening   string
	variation string
}

// Trie is a SAN-move-sequence trie. The zero value is not usable; build one
// with Build or BuildFromReference.
type Trie struct {
	root *trieNode
}

// Build constructs a Trie from a set of reference openings, each given as
// its mainline SAN sequence plus ECO/opening/variation metadata.
func Build(entries []ReferenceEntry) *Trie {
	t := &Trie{root: &trieNode{children: map[string]*trieNode{}}}
	for _, e := range entries {
		node := t.root
		for _, san := range e.SAN {
			child, ok := node.children[san]
			if !ok {
				child = &trieNode{children: map[string]*trieNode{}}
				node.children[san] = child
			}
			node = child
		}
		node.eco = e.ECO
		node.opening = e.Opening
		node.variation = e.Variation
	}
	return t
}

// ReferenceEntry is one opening line extracted from a reference PGN.
type ReferenceEntry struct {
	SAN       []string
	ECO       string
	Opening   string
	Variation string
}

// BuildFromReference parses a reference PGN (one game per named opening,
// [ECO]/[Opening]/[Variation] tags on each) into a Trie.
func BuildFromReference(r io.Reader) (*Trie, error) {
	games, err := board.ParsePGN(r)
	if err != nil {
		return nil, fmt.Errorf("tageco: parsing reference pgn: %w", err)
	}
	entries := make([]ReferenceEntry, 0, len(games))
	for _, g := range games {
		san := mainlineSAN(g)
		entries = append(entries, ReferenceEntry{
			SAN:       san,
			ECO:       trimECO(g.OtherTags["ECO"]),
			Opening:   g.OtherTags["Opening"],
			Variation: g.OtherTags["Variation"],
		})
	}
	return Build(entries), nil
}

func mainlineSAN(g *board.Game) []string {
	history := g.MoveHistory()
	out := make([]string, len(history))
	pos := g.PositionPly(0)
	for i, pm := range history {
		out[i] = pm.Move.StringSAN(pos)
		pos = g.PositionPly(i + 1)
	}
	return out
}

// Match is the deepest trie node with ECO data reached while walking g's
// mainline.
type Match struct {
	ECO       string
	Opening   string
	Variation string
	Found     bool
}

// Lookup walks g's mainline through t and returns the deepest node visited
// that carries ECO data.
func (t *Trie) Lookup(g *board.Game) Match {
	san := mainlineSAN(g)
	node := t.root
	var best Match
	for _, s := range san {
		next, ok := node.children[s]
		if !ok {
			break
		}
		node = next
		if node.eco != "" {
			best = Match{ECO: node.eco, Opening: node.opening, Variation: node.variation, Found: true}
		}
	}
	return best
}

// Tag overwrites g's [ECO], [Opening], and [Variation] headers with the
// trie's deepest match, if any. [Opening] and [Variation] are written only
// when the match has a non-empty value; otherwise the existing header is
// left as it is.
func Tag(t *Trie, g *board.Game) bool {
	m := t.Lookup(g)
	if !m.Found {
		return false
	}
	if g.OtherTags == nil {
		g.OtherTags = map[string]string{}
	}
	g.OtherTags["ECO"] = m.ECO
	if m.Opening != "" {
		g.OtherTags["Opening"] = m.Opening
	}
	if m.Variation != "" {
		g.OtherTags["Variation"] = m.Variation
	}
	return true
}

// Cache publishes a single shared Trie built from a reference source.
// Concurrent callers requesting the same reference share one build; the
// first caller to arrive builds it, the rest wait on the same [sync.Once].
type Cache struct {
	mu     sync.Mutex
	byPath map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	trie *Trie
	err  error
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{byPath: map[string]*cacheEntry{}}
}

// Get returns the Trie for referencePath, building it via build on first
// request and reusing it for every subsequent call with the same path.
func (c *Cache) Get(referencePath string, build func() (*Trie, error)) (*Trie, error) {
	c.mu.Lock()
	entry, ok := c.byPath[referencePath]
	if !ok {
		entry = &cacheEntry{}
		c.byPath[referencePath] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.trie, entry.err = build()
	})
	return entry.trie, entry.err
}

// trimECO normalizes a raw ECO tag value like " c65 " to "C65".
func trimECO(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
