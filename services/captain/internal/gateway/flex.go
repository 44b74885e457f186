package gateway

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number decodes loosely typed numeric fields. Numbers, numeric strings and
// booleans are accepted; anything else decodes to 0 without error.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	switch s {
	case "true":
		*n = 1
		return nil
	case "false":
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

func (n Number) Int() int {
	return int(math.Round(float64(n)))
}

// Text decodes identifiers the backend sends as either strings or numbers.
// Objects and arrays decode to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	switch s[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		*t = Text(strings.TrimSpace(str))
	case '{', '[':
		return nil
	default:
		*t = Text(s)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}
