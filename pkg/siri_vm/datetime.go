package siri_vm

import (
	"encoding/json"
	"time"
)

const (
	// XSDDateTimeFormat is an xsd:dateTime carrying a UTC offset. Fractional
	// seconds are accepted when parsing.
	XSDDateTimeFormat = time.RFC3339
	// XSDLocalDateTimeFormat is an xsd:dateTime without an offset.
	XSDLocalDateTimeFormat = "2006-01-02T15:04:05"
)

// DateTime is an xsd:dateTime that may or may not have carried a UTC offset.
// Naive values hold the document's wall clock reading in UTC.
type DateTime struct {
	time.Time
	Naive bool
}

func (d DateTime) String() string {
	if d.Naive {
		return d.Time.Format(XSDLocalDateTimeFormat + ".999999999")
	}
	return d.Time.Format(time.RFC3339Nano)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	parsed, err := parseDateTime(value)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

// parseOffsetDateTime only accepts timestamps with an explicit offset.
func parseOffsetDateTime(value string) (time.Time, error) {
	return time.Parse(XSDDateTimeFormat, value)
}

// parseDateTime accepts timestamps with or without an offset.
func parseDateTime(value string) (DateTime, error) {
	if t, err := time.Parse(XSDDateTimeFormat, value); err == nil {
		return DateTime{Time: t}, nil
	}

	t, err := time.Parse(XSDLocalDateTimeFormat, value)
	if err != nil {
		return DateTime{}, err
	}

	return DateTime{Time: t, Naive: true}, nil
}
