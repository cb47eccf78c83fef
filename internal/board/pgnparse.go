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

package board

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tagLineRe = regexp.MustCompile(`^\[(\w+)\s+"((?:[^"\\]|\\.)*)"\]\s*$`)

var movetextTokenRe = regexp.MustCompile(`\{[^}]*\}|\(|\)|\$\d+|\d+\.+|[^\s(){}$]+`)

var resultTokenRe = regexp.MustCompile(`^(1-0|0-1|1/2-1/2|\*)$`)

// parsePGNText splits raw PGN text into individual games and parses each one.
// Games are separated by a game termination marker (1-0, 0-1, 1/2-1/2, or *)
// followed by the next game's tag section.
func parsePGNText(text string) ([]*Game, error) {
	games := []*Game{}

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}

		tags := map[string]string{}
		for i < len(lines) {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" {
				i++
				continue
			}
			match := tagLineRe.FindStringSubmatch(trimmed)
			if match == nil {
				break
			}
			tags[match[1]] = unescapeTagValue(match[2])
			i++
		}

		var movetextLines []string
		for i < len(lines) {
			trimmed := strings.TrimSpace(lines[i])
			if strings.HasPrefix(trimmed, "[") && tagLineRe.MatchString(trimmed) && len(movetextLines) > 0 {
				break
			}
			movetextLines = append(movetextLines, lines[i])
			i++
			if resultTokenRe.MatchString(strings.TrimSpace(trimmed)) {
				break
			}
		}

		if len(tags) == 0 && len(movetextLines) == 0 {
			continue
		}

		g, err := newGameFromTags(tags)
		if err != nil {
			return games, fmt.Errorf("could not parse pgn: %w", err)
		}

		movetext := strings.Join(movetextLines, " ")
		if err := parseMovetext(g, movetext); err != nil {
			return games, fmt.Errorf("could not parse pgn: %w", err)
		}

		games = append(games, g)
	}

	return games, nil
}

func unescapeTagValue(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

func newGameFromTags(tags map[string]string) (*Game, error) {
	g := NewGame()
	g.OtherTags = map[string]string{}

	fen := tags["FEN"]
	if fen != "" {
		pos := &Position{}
		if err := pos.UnmarshalText([]byte(fen)); err != nil {
			return nil, fmt.Errorf("invalid FEN tag: %w", err)
		}
		g.positions = []*Position{pos}
	}

	for name, value := range tags {
		switch name {
		case "Event":
			g.Event = value
		case "Site":
			g.Site = value
		case "Date":
			g.Date = value
		case "Round":
			g.Round = value
		case "White":
			g.White = value
		case "Black":
			g.Black = value
		case "Result":
			g.Result = parseResult(value)
		case "FEN", "SetUp":
		default:
			g.OtherTags[name] = value
		}
	}

	return g, nil
}

// parseMovetext tokenizes and applies movetext to g, starting from g's current position.
func parseMovetext(g *Game, movetext string) error {
	movetext = stripSemicolonComments(movetext)
	tokens := movetextTokenRe.FindAllString(movetext, -1)

	idx := 0
	moves, sawFirstMove, result, err := parseMoveTokens(tokens, &idx, g.currentPosition())
	if err != nil {
		return err
	}

	_ = sawFirstMove

	if len(moves) > 0 && moves[0].Move == (Move{}) && moves[0].Commentary != "" {
		g.Commentary = moves[0].Commentary
		moves = moves[1:]
	}

	pos := g.currentPosition()
	for _, pm := range moves {
		if err := g.Move(pm.Move); err != nil {
			return fmt.Errorf("illegal move %s: %w", pm.Move.StringSAN(pos), err)
		}
		last := len(g.moveHistory) - 1
		g.moveHistory[last].NumericAnnotation = pm.NumericAnnotation
		g.moveHistory[last].Commentary = pm.Commentary
		g.moveHistory[last].Variation = pm.Variation
		pos = g.currentPosition()
	}

	if result != NoResult {
		g.Result = result
	}

	return nil
}

// parseMoveTokens recursively parses a flat token stream into a sequence of
// moves, honoring nested variations delimited by "(" and ")". It stops at a
// bare ")" (returning it unconsumed to the caller) or at a result token.
func parseMoveTokens(tokens []string, idx *int, startPos *Position) ([]PgnMove, bool, Result, error) {
	moves := []PgnMove{}
	pos := startPos
	sawFirstMove := false

	for *idx < len(tokens) {
		tok := tokens[*idx]

		switch {
		case tok == ")":
			return moves, sawFirstMove, NoResult, nil
		case tok == "(":
			*idx++
			if len(moves) == 0 {
				return moves, sawFirstMove, NoResult, fmt.Errorf("variation with no preceding move")
			}
			lastIdx := len(moves) - 1
			variationStart := startPos
			for i := 0; i < lastIdx; i++ {
				n := variationStart.Copy()
				n.Move(moves[i].Move)
				variationStart = n
			}
			subMoves, _, _, err := parseMoveTokens(tokens, idx, variationStart)
			if err != nil {
				return nil, false, NoResult, err
			}
			if *idx < len(tokens) && tokens[*idx] == ")" {
				*idx++
			}
			moves[lastIdx].Variation = append(moves[lastIdx].Variation, subMoves)
			continue
		case strings.HasPrefix(tok, "{"):
			comment := strings.TrimSuffix(strings.TrimPrefix(tok, "{"), "}")
			if len(moves) == 0 {
				moves = append(moves, PgnMove{Commentary: comment})
			} else {
				moves[len(moves)-1].Commentary = comment
			}
			*idx++
			continue
		case strings.HasPrefix(tok, "$"):
			n, err := strconv.Atoi(tok[1:])
			if err == nil && len(moves) > 0 {
				moves[len(moves)-1].NumericAnnotation = uint8(n)
			}
			*idx++
			continue
		case isMoveNumberToken(tok):
			*idx++
			continue
		case resultTokenRe.MatchString(tok):
			*idx++
			return moves, sawFirstMove, parseResult(tok), nil
		default:
			move, err := ParseSANMove(tok, pos)
			if err != nil {
				return nil, false, NoResult, fmt.Errorf("could not parse move %q: %w", tok, err)
			}
			moves = append(moves, PgnMove{Move: move})
			sawFirstMove = true
			next := pos.Copy()
			next.Move(move)
			pos = next
			*idx++
		}
	}

	return moves, sawFirstMove, NoResult, nil
}

// stripSemicolonComments removes ";"-style line comments, which run to the
// end of the line and are not represented in the token stream.
func stripSemicolonComments(movetext string) string {
	lines := strings.Split(movetext, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, ";"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

func isMoveNumberToken(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			continue
		}
		return r == '.'
	}
	return false
}
