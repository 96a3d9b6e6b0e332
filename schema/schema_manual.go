package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of manual contribution dates.
const DateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD. The zero value marshals to null.
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON implements json.Unmarshaler. Empty strings and null yield the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// String returns the YYYY-MM-DD form, or an empty string for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ManualContribution is a hand-entered score adjustment for non-commit work.
type ManualContribution struct {
	Score     int    `json:"score"`
	Notes     string `json:"notes"`
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
}

// Dated reports whether the contribution is tied to a specific date.
func (c ManualContribution) Dated() bool {
	return !c.StartDate.IsZero()
}

// ManualContributor holds the manual contributions of one contributor.
type ManualContributor struct {
	Email         string               `json:"email,omitempty"`
	Contributions []ManualContribution `json:"contributions"`
}

// ManualContributions is the canonical manual contributions document.
type ManualContributions struct {
	Contributors map[string]ManualContributor `json:"contributors"`
}

// legacyContributor is the older single-entry shape of a contributor.
type legacyContributor struct {
	Email         string               `json:"email,omitempty"`
	Score         *int                 `json:"score,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Contributions []ManualContribution `json:"contributions"`
}

// UnmarshalJSON accepts both the contributions-list shape and the legacy
// {score, notes} shape, which becomes a single undated contribution.
func (m *ManualContributor) UnmarshalJSON(data []byte) error {
	var raw legacyContributor
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Email = raw.Email
	m.Contributions = raw.Contributions
	if m.Contributions == nil && raw.Score != nil {
		m.Contributions = []ManualContribution{{Score: *raw.Score, Notes: raw.Notes}}
	}
	if m.Contributions == nil {
		m.Contributions = []ManualContribution{}
	}
	return nil
}

// TotalScore sums the scores of all contributions.
func (m ManualContributor) TotalScore() int {
	total := 0
	for _, c := range m.Contributions {
		total += c.Score
	}
	return total
}
