package trip

import "strconv"

// Document is the indexed representation of one trip record.
//
// ID is the zero-based position of the record in the input file and becomes
// the document _id in the index. It is not part of the document body.
type Document struct {
	ID uint64 `json:"-"`

	DurationSec          string  `json:"duration_sec"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	StartStationID       string  `json:"start_station_id"`
	StartStationName     string  `json:"start_station_name"`
	StartStationLocation string  `json:"start_station_location"`
	EndStationID         string  `json:"end_station_id"`
	EndStationName       string  `json:"end_station_name"`
	EndStationLocation   string  `json:"end_station_location"`
	BikeID               string  `json:"bike_id"`
	UserType             string  `json:"user_type"`
	MemberBirthYear      *string `json:"member_birth_year"`
	MemberGender         *string `json:"member_gender"`
	BikeShareForAllTrip  string  `json:"bike_share_for_all_trip"`
}

// DocID returns the document identifier as sent to the index.
func (d *Document) DocID() string {
	return strconv.FormatUint(d.ID, 10)
}
