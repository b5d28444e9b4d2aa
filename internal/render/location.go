package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pagefold/readercore/internal/reader"
)

// Addressing scheme of the file renderer. A range is "href@start-end", a
// location is "href@offset", both with character offsets into the section
// text. The part before '@' is the section address, which keeps the core's
// section-prefix containment heuristic meaningful.

func formatRange(href string, start, end int) reader.Range {
	return reader.Range(fmt.Sprintf("%s@%d-%d", href, start, end))
}

func formatLocation(href string, offset int) reader.LocationID {
	return reader.LocationID(fmt.Sprintf("%s@%d", href, offset))
}

func parseRange(r reader.Range) (href string, start, end int, err error) {
	href, rest, ok := strings.Cut(string(r), "@")
	if !ok {
		return "", 0, 0, fmt.Errorf("malformed range %q", r)
	}
	a, b, ok := strings.Cut(rest, "-")
	if !ok {
		return "", 0, 0, fmt.Errorf("malformed range %q", r)
	}
	start, err = strconv.Atoi(a)
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed range %q", r)
	}
	end, err = strconv.Atoi(b)
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed range %q", r)
	}
	return href, start, end, nil
}

func parseLocation(loc reader.LocationID) (href string, offset int, err error) {
	href, rest, ok := strings.Cut(string(loc), "@")
	if !ok {
		return "", 0, fmt.Errorf("malformed location %q", loc)
	}
	offset, err = strconv.Atoi(rest)
	if err != nil {
		return "", 0, fmt.Errorf("malformed location %q", loc)
	}
	return href, offset, nil
}

// page is one entry of the location index.
type page struct {
	href  string
	start int // offset of the page's first character within its section
	end   int // offset just past the page's last character
}
