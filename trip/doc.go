// Package trip contains the document model for bike-trip records and the
// parser that turns one line of a trip CSV file into a Document.
//
// A data line has exactly FieldCount comma-separated fields once every double
// quote has been removed. The start and end locations are spread over two raw
// fields each (latitude, longitude) and are joined back into a single
// "lat,lon" value:
//
//	"120","2019-01-01T00:00:00",...,"37.1","-122.1",...
//
// becomes a Document whose StartStationLocation is "37.1,-122.1".
//
// No type coercion happens here. Every value is kept as the raw string and
// the index mapping decides how it is stored. Only the member birth year and
// gender are optional; an empty raw value maps to nil.
package trip
