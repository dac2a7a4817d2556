// Package models provides request and response models for the trip planner API.
package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Coordinate is a geographic position in API responses.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LooseNumber holds a JSON value that should be a number. Decoding never
// fails: strings, booleans, objects and null leave IsNumber false.
type LooseNumber struct {
	Value    float64
	Present  bool
	IsNumber bool
}

// UnmarshalJSON implements json.Unmarshaler for LooseNumber.
func (n *LooseNumber) UnmarshalJSON(data []byte) error {
	*n = LooseNumber{Present: true}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	n.Value = v
	n.IsNumber = true
	return nil
}

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with RFC 3339 JSON formatting in UTC.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON parses the RFC 3339 form written by MarshalJSON so that Go
// clients can decode response bodies into these types. Null leaves t unchanged.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
