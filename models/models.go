package models

import (
	"encoding/json"
	"fmt"
)

// Metadata is the structured record the analysis callout returns for a
// single document. Field names follow the callout's JSON schema.
type Metadata struct {
	Summary          []string  `json:"Summary"`
	Title            string    `json:"Title"`
	Author           string    `json:"Author"`
	DateCreated      string    `json:"DateCreated"`
	LastModifiedDate string    `json:"LastModifiedDate"`
	Publisher        string    `json:"Publisher"`
	Language         string    `json:"Language"`
	PageCount        PageCount `json:"PageCount"`
	SentimentTone    string    `json:"SentimentTone"`
}

// PageCount accepts either a JSON number or a free-form string, since the
// model sometimes answers "unknown" instead of a count.
type PageCount string

func (p *PageCount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PageCount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*p = PageCount(n.String())
		return nil
	}
	return fmt.Errorf("page count must be a number or a string, got %s", data)
}

func (p PageCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// PageChange is one page-level difference between two document versions.
type PageChange struct {
	Page    string `json:"Page"`
	Changes string `json:"Changes"`
}
