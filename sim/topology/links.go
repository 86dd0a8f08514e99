package topology

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/radiosim/radiosim/sim"
)

// linkColumns is the link file layout. A header row with these names is
// optional.
var linkColumns = []string{"src", "dst", "channel", "ratio", "rssi", "lqi"}

// ParseLinks reads comma-separated links. Lines starting with '#' are
// comments. Malformed rows are skipped with a warning.
func ParseLinks(r io.Reader, log logrus.FieldLogger) ([]sim.Link, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	links := make([]sim.Link, 0)
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warnf("link file row %d: %v; skipping", row, err)
				continue
			}
			return nil, fmt.Errorf("reading link file: %w", err)
		}
		if row == 1 && strings.EqualFold(strings.TrimSpace(record[0]), linkColumns[0]) {
			continue
		}
		l, err := parseLink(record)
		if err != nil {
			log.Warnf("link file row %d: %v; skipping", row, err)
			continue
		}
		links = append(links, l)
	}
	return links, nil
}

// LoadLinks parses a link file from disk.
func LoadLinks(path string, log logrus.FieldLogger) ([]sim.Link, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening link file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseLinks(file, log)
}

func parseLink(record []string) (sim.Link, error) {
	if len(record) < len(linkColumns) {
		return sim.Link{}, fmt.Errorf("expected %d columns, got %d", len(linkColumns), len(record))
	}
	ints := make([]int, 0, 4)
	for _, idx := range []int{0, 1, 2, 5} {
		v, err := strconv.Atoi(strings.TrimSpace(record[idx]))
		if err != nil {
			return sim.Link{}, fmt.Errorf("invalid %s %q", linkColumns[idx], record[idx])
		}
		ints = append(ints, v)
	}
	ratio, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return sim.Link{}, fmt.Errorf("invalid ratio %q", record[3])
	}
	rssi, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return sim.Link{}, fmt.Errorf("invalid rssi %q", record[4])
	}
	l := sim.Link{
		Src:     sim.RadioID(ints[0]),
		Dst:     sim.RadioID(ints[1]),
		Channel: ints[2],
		Ratio:   ratio,
		RSSI:    rssi,
		LQI:     ints[3],
	}
	if err := l.Validate(); err != nil {
		return sim.Link{}, err
	}
	return l, nil
}
