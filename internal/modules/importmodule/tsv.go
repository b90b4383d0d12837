package importmodule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// nullValue marks a missing value in IMDB dumps.
const nullValue = `\N`

// movieColumns is the column count of a movies row:
// tconst, title, year, runtime, genres.
const movieColumns = 5

// RowError reports a malformed or rejected input row.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// movieRow is one parsed line of the movies file
type movieRow struct {
	Line    int
	Tconst  string
	Title   string
	Year    *int
	Runtime *int
	Genres  []string
}

func newTSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// nullable maps the IMDB null marker to nil
func nullable(v string) *string {
	if v == nullValue {
		return nil
	}
	return &v
}

// readRatings loads tconst → averageRating from the ratings file. The header
// row names the columns; tconst and averageRating must be present.
func readRatings(r io.Reader, name string) (map[string]float64, error) {
	reader := newTSVReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, &RowError{File: name, Line: 1, Err: err}
	}

	tconstCol, ratingCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "tconst":
			tconstCol = i
		case "averageRating":
			ratingCol = i
		}
	}
	if tconstCol < 0 || ratingCol < 0 {
		return nil, &RowError{File: name, Line: 1, Err: fmt.Errorf("header must contain tconst and averageRating, got %v", header)}
	}

	ratings := make(map[string]float64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &RowError{File: name, Line: parseErrorLine(err), Err: err}
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			return nil, &RowError{File: name, Line: line, Err: fmt.Errorf("expected %d columns, got %d", len(header), len(record))}
		}

		raw := nullable(record[ratingCol])
		if raw == nil {
			continue
		}
		rating, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			return nil, &RowError{File: name, Line: line, Err: fmt.Errorf("invalid averageRating %q", *raw)}
		}
		ratings[record[tconstCol]] = rating
	}
	return ratings, nil
}

// movieReader streams rows of the movies file, header excluded.
type movieReader struct {
	name   string
	reader *csv.Reader
	header bool
}

func newMovieReader(r io.Reader, name string) *movieReader {
	return &movieReader{name: name, reader: newTSVReader(r)}
}

// Next returns the next row, or io.EOF when the file is exhausted.
func (m *movieReader) Next() (*movieRow, error) {
	if !m.header {
		m.header = true
		if _, err := m.reader.Read(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &RowError{File: m.name, Line: 1, Err: err}
		}
	}

	record, err := m.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &RowError{File: m.name, Line: parseErrorLine(err), Err: err}
	}
	line, _ := m.reader.FieldPos(0)
	if len(record) != movieColumns {
		return nil, &RowError{File: m.name, Line: line, Err: fmt.Errorf("expected %d columns, got %d", movieColumns, len(record))}
	}

	row := &movieRow{Line: line}
	tconst, title := nullable(record[0]), nullable(record[1])
	if tconst == nil || *tconst == "" {
		return nil, &RowError{File: m.name, Line: line, Err: fmt.Errorf("missing tconst")}
	}
	row.Tconst = *tconst
	if title != nil {
		row.Title = *title
	}

	if row.Year, err = parseOptionalInt(record[2]); err != nil {
		return nil, &RowError{File: m.name, Line: line, Err: fmt.Errorf("invalid year: %w", err)}
	}
	if row.Runtime, err = parseOptionalInt(record[3]); err != nil {
		return nil, &RowError{File: m.name, Line: line, Err: fmt.Errorf("invalid runtime: %w", err)}
	}

	if genres := nullable(record[4]); genres != nil {
		row.Genres = splitGenres(*genres)
	}
	return row, nil
}

func parseErrorLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}

func parseOptionalInt(raw string) (*int, error) {
	v := nullable(raw)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// splitGenres splits "Drama,Short" dropping empty and repeated names.
func splitGenres(raw string) []string {
	var genres []string
	seen := make(map[string]bool)
	for _, g := range strings.Split(raw, ",") {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}
	return genres
}
