// Package mobility replays recorded radio movements into a running
// simulation.
//
// A trace is a text file of whitespace-separated lines
//
//	<radio-index> <time-seconds> <x> <y>
//
// where radio-index is the registration index (not the radio ID). Blank
// lines and lines starting with '#' are skipped. The z coordinate of a
// radio is never changed.
package mobility

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Move relocates the radio at Index to (X, Y) at Time microseconds after
// the start of a replay period.
type Move struct {
	Index int
	Time  int64
	X     float64
	Y     float64
}

func (m Move) String() string {
	return fmt.Sprintf("MOVE: radio #%d -> [%g,%g] @ %.6fs", m.Index, m.X, m.Y, float64(m.Time)/1e6)
}

// ParseTrace reads moves sorted by time; moves at the same time keep file
// order. Malformed lines are skipped with a warning; only read errors are
// returned.
func ParseTrace(r io.Reader, log logrus.FieldLogger) ([]Move, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	moves := make([]Move, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m, err := parseMove(strings.Fields(line))
		if err != nil {
			log.Warnf("mobility trace line %d: %v; skipping", lineNo, err)
			continue
		}
		moves = append(moves, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mobility trace: %w", err)
	}
	if !slices.IsSortedFunc(moves, byTime) {
		log.Warn("mobility trace is not in time order; sorting")
		slices.SortStableFunc(moves, byTime)
	}
	return moves, nil
}

func byTime(a, b Move) int { return cmp.Compare(a.Time, b.Time) }

func parseMove(fields []string) (Move, error) {
	if len(fields) < 4 {
		return Move{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	index, err := strconv.Atoi(fields[0])
	if err != nil || index < 0 {
		return Move{}, fmt.Errorf("invalid radio index %q", fields[0])
	}
	seconds, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || seconds < 0 || math.IsNaN(seconds) || seconds*1e6 >= math.MaxInt64 {
		return Move{}, fmt.Errorf("invalid time %q", fields[1])
	}
	x, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Move{}, fmt.Errorf("invalid x %q", fields[2])
	}
	y, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Move{}, fmt.Errorf("invalid y %q", fields[3])
	}
	return Move{
		Index: index,
		Time:  int64(math.Round(seconds * 1e6)),
		X:     x,
		Y:     y,
	}, nil
}

// LoadTrace parses a trace file. A missing or unreadable file degrades to
// an empty trace with a warning.
func LoadTrace(path string, log logrus.FieldLogger) []Move {
	if log == nil {
		log = logrus.StandardLogger()
	}
	file, err := os.Open(path)
	if err != nil {
		log.Warnf("mobility trace %s: %v; no movement will be replayed", path, err)
		return []Move{}
	}
	defer func() { _ = file.Close() }()

	moves, err := ParseTrace(file, log)
	if err != nil {
		log.Warnf("mobility trace %s: %v; no movement will be replayed", path, err)
		return []Move{}
	}
	log.Infof("Loaded %d positions from %s", len(moves), path)
	return moves
}
