package marketdata

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// lineSource memory-maps a CSV file and exposes it as sequential text
// lines, reusing the teacher's mmap-backed historical data source idiom
// (originally built for fixed-width binary tick records) for a simpler
// line-oriented text format instead.
type lineSource struct {
	reader *mmap.ReaderAt
	lines  *bufio.Scanner
}

func openLineSource(path string) (*lineSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata: opening %q: %w", path, err)
	}

	section := io.NewSectionReader(r, 0, int64(r.Len()))
	scanner := bufio.NewScanner(section)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &lineSource{reader: r, lines: scanner}, nil
}

// next returns the next non-empty line, or io.EOF once the file is
// exhausted.
func (s *lineSource) next() (string, error) {
	for s.lines.Scan() {
		line := s.lines.Text()
		if line == "" {
			continue
		}
		return line, nil
	}
	if err := s.lines.Err(); err != nil {
		return "", fmt.Errorf("marketdata: reading line: %w", err)
	}
	return "", io.EOF
}

func (s *lineSource) Close() error {
	return s.reader.Close()
}
