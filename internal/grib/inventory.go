package grib

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Message is one record of a GRIB2 inventory, as printed by wgrib2 -s or
// stored in the archive's .idx files:
//
//	12:4417293:d=2025040700:HGT:1000 mb:anl:
//
// Nx and Ny are only known when the inventory was produced with -nxny.
type Message struct {
	Record   string
	Offset   int64
	Date     string
	Name     string
	Level    string
	Forecast string
	Nx, Ny   int
}

// Pressure returns the isobaric level in hPa for "N mb" levels.
func (m Message) Pressure() (int, bool) {
	v, ok := strings.CutSuffix(m.Level, " mb")
	if !ok {
		return 0, false
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return p, true
}

func (m Message) String() string {
	return fmt.Sprintf("%s:%d:%s:%s:%s:%s", m.Record, m.Offset, m.Date, m.Name, m.Level, m.Forecast)
}

var shapeRegex = regexp.MustCompile(`^\(([0-9]+) x ([0-9]+)\)$`)

// ParseInventory reads inventory lines. Blank lines are skipped; a line with
// fewer than six fields is an error.
func ParseInventory(r io.Reader) ([]Message, error) {
	var msgs []Message
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		f := strings.Split(text, ":")
		if len(f) < 6 {
			return nil, fmt.Errorf("inventory line %d: unexpected number of fields in %q", line, text)
		}
		off, err := strconv.ParseInt(f[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("inventory line %d: invalid offset %q: %w", line, f[1], err)
		}
		m := Message{
			Record:   f[0],
			Offset:   off,
			Date:     strings.TrimPrefix(f[2], "d="),
			Name:     f[3],
			Level:    f[4],
			Forecast: f[5],
		}
		for _, extra := range f[6:] {
			if sub := shapeRegex.FindStringSubmatch(extra); sub != nil {
				m.Nx, _ = strconv.Atoi(sub[1])
				m.Ny, _ = strconv.Atoi(sub[2])
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, sc.Err()
}
