package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleFloat accepts a JSON number or a numeric string ("4.5", "4,5").
// Anything else, including NaN and infinities, fails to decode.
type FlexibleFloat float64

func (f *FlexibleFloat) UnmarshalJSON(data []byte) error {
	if f == nil {
		return fmt.Errorf("FlexibleFloat: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		return f.set(num.String())
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		s = strings.TrimSpace(s)
		if !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		return f.set(s)
	}

	return fmt.Errorf("FlexibleFloat: expected number, got %s", string(data))
}

func (f *FlexibleFloat) set(raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("FlexibleFloat: %q is not a finite number", raw)
	}
	*f = FlexibleFloat(v)
	return nil
}

// Float64 returns the decoded value.
func (f FlexibleFloat) Float64() float64 {
	return float64(f)
}
