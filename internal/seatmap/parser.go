// Package seatmap parses per-carriage SVG seat diagrams into the set of
// seats a rider can actually book.
package seatmap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	svgNamespace = "http://www.w3.org/2000/svg"
	eicNamespace = "http://www.intercity.pl/eic"

	firstClassTag = "first class"

	statusFree   = "1"
	specialBike  = "1"
	specialQuiet = "7"
)

// SeatKind classifies a bookable seat.
type SeatKind string

const (
	KindNormal SeatKind = "normal"
	KindBike   SeatKind = "bike"
	KindQuiet  SeatKind = "quiet"
)

var ErrMalformedDiagram = errors.New("malformed seat diagram")

var scriptPattern = regexp.MustCompile(`(?s)<script.*?</script>`)

// StripScripts removes embedded script blocks from a diagram before it is
// handed to anything that will render it.
func StripScripts(diagram string) string {
	return scriptPattern.ReplaceAllString(diagram, "")
}

// Parse extracts the available seats from one carriage's diagram, keyed by
// seat id. Seats in first-class groups, occupied seats, and seats whose
// special marker is neither the bike nor the quiet-zone code are absent
// from the result. A document that cannot be parsed is a hard error.
func Parse(diagram string) (map[string]SeatKind, error) {
	decoder := xml.NewDecoder(strings.NewReader(diagram))
	available := make(map[string]SeatKind)
	sawElement := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDiagram, err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		if start.Name.Space != svgNamespace || start.Name.Local != "g" {
			continue
		}

		class := attrValue(start, "data-class")
		if class == "" || class == firstClassTag {
			continue
		}

		seatID, kind, free, err := parseSeatGroup(decoder)
		if err != nil {
			return nil, err
		}
		if free {
			available[seatID] = kind
		}
	}

	if !sawElement {
		return nil, fmt.Errorf("%w: no markup found", ErrMalformedDiagram)
	}
	return available, nil
}

// parseSeatGroup consumes the remainder of one seat group element. The seat
// id lives in the first nested text element, the occupancy status on the
// first nested image, and the optional special marker on an eic:special
// element.
func parseSeatGroup(decoder *xml.Decoder) (seatID string, kind SeatKind, free bool, err error) {
	var status string
	var specialRef string
	seenSpecial := false

	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", "", false, fmt.Errorf("%w: unterminated seat group: %v", ErrMalformedDiagram, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == svgNamespace && t.Name.Local == "text" && seatID == "":
				text, err := collectText(decoder)
				if err != nil {
					return "", "", false, err
				}
				seatID = strings.TrimSpace(text)
			case t.Name.Space == svgNamespace && t.Name.Local == "image" && status == "":
				status = attrValue(t, "status")
				depth++
			case t.Name.Space == eicNamespace && t.Name.Local == "special" && !seenSpecial:
				seenSpecial = true
				specialRef = attrValue(t, "ref")
				depth++
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}

	if seatID == "" {
		return "", "", false, fmt.Errorf("%w: seat group without a seat number", ErrMalformedDiagram)
	}
	if status == "" {
		return "", "", false, fmt.Errorf("%w: seat %s has no occupancy status", ErrMalformedDiagram, seatID)
	}

	if status != statusFree {
		return seatID, "", false, nil
	}
	if seenSpecial && specialRef != "" && specialRef != specialBike && specialRef != specialQuiet {
		// Reserved-category seat: physically free but not bookable here.
		return seatID, "", false, nil
	}

	kind = KindNormal
	switch specialRef {
	case specialBike:
		kind = KindBike
	case specialQuiet:
		kind = KindQuiet
	}
	return seatID, kind, true, nil
}

// collectText consumes a just-opened element and returns its character data.
func collectText(decoder *xml.Decoder) (string, error) {
	var builder strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("%w: unterminated text element: %v", ErrMalformedDiagram, err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			builder.Write(t)
		}
	}
	return builder.String(), nil
}

func attrValue(element xml.StartElement, name string) string {
	for _, attr := range element.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
