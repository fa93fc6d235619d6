// Package suite runs the engine over EPD test positions and reports how many
// it solves.
package suite

import (
	"bufio"
	"io"
	"slices"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/hailam/chessthink/internal/board"
)

// Case is one EPD test position. Best and Avoid hold moves in UCI form.
type Case struct {
	ID    string
	FEN   string
	Best  []string
	Avoid []string
	Line  int
}

// Accepts reports whether move satisfies the case's bm and am operations.
func (c Case) Accepts(move string) bool {
	if len(c.Best) > 0 && !slices.Contains(c.Best, move) {
		return false
	}
	return !slices.Contains(c.Avoid, move)
}

// ParseEPD parses one EPD record: four FEN fields followed by semicolon
// terminated operations. Only bm, am and id are interpreted; bm and am moves
// may be given in SAN or UCI.
func ParseEPD(line string) (Case, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Case{}, errors.Errorf("epd %q: expected 4 position fields", line)
	}
	fen := strings.Join(fields[:4], " ")

	// Validates the position with the same rules the engine plays by.
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return Case{}, errors.Wrap(err, "epd")
	}

	c := Case{FEN: fen + " 0 1"}
	for _, op := range strings.Split(afterFields(line, 4), ";") {
		op = strings.TrimSpace(op)
		if op == "" {
			continue
		}
		opcode, operands, _ := strings.Cut(op, " ")
		operands = strings.TrimSpace(operands)

		switch opcode {
		case "id":
			c.ID = strings.Trim(operands, `"`)
		case "bm", "am":
			moves, err := decodeMoves(c.FEN, pos, strings.Fields(operands))
			if err != nil {
				return Case{}, errors.Wrapf(err, "epd %q: %s", line, opcode)
			}
			if opcode == "bm" {
				c.Best = moves
			} else {
				c.Avoid = moves
			}
		}
	}

	if len(c.Best) == 0 && len(c.Avoid) == 0 {
		return Case{}, errors.Errorf("epd %q: no bm or am operation", line)
	}
	return c, nil
}

// afterFields returns what follows the first n whitespace separated fields.
func afterFields(s string, n int) string {
	for i := 0; i < n; i++ {
		s = strings.TrimLeft(s, " \t")
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return ""
		}
		s = s[end:]
	}
	return strings.TrimSpace(s)
}

// decodeMoves converts SAN (or already UCI) moves to UCI strings.
func decodeMoves(fen string, pos *board.Position, moves []string) ([]string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrap(err, "decode fen")
	}
	game := chess.NewGame(opt)

	out := make([]string, 0, len(moves))
	for _, s := range moves {
		if m, ok := decodeSAN(game.Position(), s); ok {
			out = append(out, chess.UCINotation{}.Encode(game.Position(), m))
			continue
		}
		if m, err := pos.ParseMove(s); err == nil {
			out = append(out, m.String())
			continue
		}
		return nil, errors.Wrapf(board.ErrIllegalMove, "%q", s)
	}
	return out, nil
}

// decodeSAN tolerates missing or extra check marks and annotation glyphs.
func decodeSAN(pos *chess.Position, s string) (*chess.Move, bool) {
	bare := strings.TrimRight(s, "+#!?")
	for _, candidate := range []string{s, bare, bare + "+", bare + "#"} {
		if m, err := (chess.AlgebraicNotation{}).Decode(pos, candidate); err == nil {
			return m, true
		}
	}
	return nil, false
}

// Load reads EPD records from r, one per line. Blank lines and lines
// starting with '#' are skipped.
func Load(r io.Reader) ([]Case, error) {
	var cases []Case

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, err := ParseEPD(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		c.Line = lineNo
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read epd")
	}

	return cases, nil
}
