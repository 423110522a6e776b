package core

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Ref is a reference to another backend resource.
// The backend sends either the bare id or the populated document; both decode into a Ref.
type Ref struct {
	ID          string `json:"_id"`
	UniqueID    string `json:"uniqueId,omitempty"`
	Name        string `json:"name,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type ref Ref // drops the method set
	return json.Unmarshal(data, (*ref)(r))
}

// Label is the display name of the referenced resource.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return FullName(r.FirstName, r.LastName)
}

func (r Ref) IsZero() bool { return r.ID == "" }

// FullName joins the non-empty name parts.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
