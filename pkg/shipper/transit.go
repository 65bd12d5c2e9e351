package shipper

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
)

var (
	dayRangePattern  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	singleDayPattern = regexp.MustCompile(`(\d+)`)
)

// ParseTransitDays reads carrier transit text such as "Delivered in 2-3
// business days" or "4 days". A range wins over a single number.
func ParseTransitDays(s string) (minDays, maxDays int, ok bool) {
	if m := dayRangePattern.FindStringSubmatch(s); m != nil {
		from, err1 := strconv.Atoi(m[1])
		to, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return from, to, true
		}
	}
	if m := singleDayPattern.FindStringSubmatch(s); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			return d, d, true
		}
	}
	return 0, 0, false
}

// FlexString decodes a JSON string, number or boolean into its text form.
// Carriers are inconsistent about quoting scalar fields.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}
