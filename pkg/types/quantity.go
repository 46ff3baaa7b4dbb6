package types

import (
	"bytes"
	"strconv"
)

// Quantity is a requested action quantity as submitted by the applicant.
// Inbound payloads carry it as either a JSON string or a bare number, so it
// unmarshals from both and keeps the raw text until parsed.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*q = ""
		return nil
	}
	if trimmed[0] == '"' {
		unquoted, err := strconv.Unquote(string(trimmed))
		if err != nil {
			return err
		}
		*q = Quantity(unquoted)
		return nil
	}
	*q = Quantity(trimmed)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(q))), nil
}

// Float parses the quantity as a float64.
func (q Quantity) Float() (float64, error) {
	return strconv.ParseFloat(string(q), 64)
}
