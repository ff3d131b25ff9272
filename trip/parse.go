package trip

import (
	"fmt"
	"strings"
)

// FieldCount is the number of raw fields in a data line after quote removal.
const FieldCount = 16

// Raw field positions.
const (
	colDuration = iota
	colStartTime
	colEndTime
	colStartStationID
	colStartStationName
	colStartLat
	colStartLon
	colEndStationID
	colEndStationName
	colEndLat
	colEndLon
	colBikeID
	colUserType
	colBirthYear
	colGender
	colBikeShare
)

// MalformedRecordError is returned for a data line that does not split into
// exactly FieldCount fields.
type MalformedRecordError struct {
	// Line is the 1-based line number in the file. The header is line 1.
	Line uint64
	// Raw is the line as read, before quote removal.
	Raw string
	// Fields is the number of fields the line split into.
	Fields int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record on line %d: expected %d fields, got %d: %q",
		e.Line, FieldCount, e.Fields, e.Raw)
}

// ParseLine converts one data line into a Document with the given ID.
//
// The ID is the zero-based data line index, so the line number reported in a
// MalformedRecordError is id+2 (one for the header, one for 1-based counting).
func ParseLine(line string, id uint64) (*Document, error) {
	values := strings.Split(strings.ReplaceAll(line, `"`, ""), ",")
	if len(values) != FieldCount {
		return nil, &MalformedRecordError{
			Line:   id + 2,
			Raw:    line,
			Fields: len(values),
		}
	}

	return &Document{
		ID:                   id,
		DurationSec:          values[colDuration],
		StartTime:            values[colStartTime],
		EndTime:              values[colEndTime],
		StartStationID:       values[colStartStationID],
		StartStationName:     values[colStartStationName],
		StartStationLocation: values[colStartLat] + "," + values[colStartLon],
		EndStationID:         values[colEndStationID],
		EndStationName:       values[colEndStationName],
		EndStationLocation:   values[colEndLat] + "," + values[colEndLon],
		BikeID:               values[colBikeID],
		UserType:             values[colUserType],
		MemberBirthYear:      optional(values[colBirthYear]),
		MemberGender:         optional(values[colGender]),
		BikeShareForAllTrip:  values[colBikeShare],
	}, nil
}

// optional maps the empty string to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
