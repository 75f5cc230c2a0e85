package recommend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"showroom/inventory"
)

// unknownID is assigned to candidates whose id could not be read as a number. Inventory
// ids are never negative, so such candidates never match.
const unknownID = -1

// Candidate is one ranked suggestion from the reasoning service. It is a reference into
// the catalog, not a record.
type Candidate struct {
	ID          int    `json:"id"`
	MatchReason string `json:"matchReason"`
}

// UnmarshalJSON accepts the id as a JSON number or as a numeric string.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          json.RawMessage `json:"id"`
		MatchReason any             `json:"matchReason"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.ID = parseID(wire.ID)
	switch v := wire.MatchReason.(type) {
	case string:
		c.MatchReason = v
	case nil:
		c.MatchReason = ""
	default:
		b, _ := json.Marshal(v)
		c.MatchReason = string(b)
	}
	return nil
}

func parseID(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return unknownID
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return unknownID
		}
		s = strings.TrimSpace(s)
	}

	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f == math.Trunc(f) && f <= math.MaxInt32 {
		return int(f)
	}
	return unknownID
}

// Payload is the reasoning service's response body.
type Payload struct {
	Success         bool        `json:"success"`
	Recommendations []Candidate `json:"recommendations"`
}

type FailureReason string

const (
	FailureTimeout           FailureReason = "timeout"
	FailureServiceError      FailureReason = "serviceError"
	FailureNoRecommendations FailureReason = "noRecommendations"
)

// Result is the outcome of one reasoning exchange. A zero Failure means the exchange
// succeeded, even when Candidates is empty.
type Result struct {
	Candidates []Candidate
	Failure    FailureReason
	// Detail is diagnostic text for logs; it is never shown to callers.
	Detail string
}

func Succeeded(candidates []Candidate) Result {
	if candidates == nil {
		candidates = []Candidate{}
	}
	return Result{Candidates: candidates}
}

func Failed(reason FailureReason, detail string) Result {
	return Result{Failure: reason, Detail: detail}
}

func (r Result) OK() bool { return r.Failure == "" }

// Outcome is a short label for logs and metrics.
func (r Result) Outcome() string {
	if r.OK() {
		return "succeeded"
	}
	return string(r.Failure)
}

// Enriched is a candidate joined with the display fields of its catalog record.
type Enriched struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Year        int    `json:"year"`
	Mileage     int    `json:"mileage"`
	FuelType    string `json:"fuelType"`
	CarType     string `json:"carType"`
	MainImage   string `json:"mainImage"`
	MatchReason string `json:"matchReason"`
}

func enrich(r inventory.Record, reason string) Enriched {
	return Enriched{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Year:        r.Year,
		Mileage:     r.Mileage,
		FuelType:    r.FuelType,
		CarType:     r.CarType,
		MainImage:   r.MainImage,
		MatchReason: reason,
	}
}
