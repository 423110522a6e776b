package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	on := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  string
		want int
	}{
		{name: "unknown", dob: "", want: -1},
		{name: "garbage", dob: "lol", want: -1},
		{name: "birthday today", dob: "2016-06-15", want: 8},
		{name: "birthday tomorrow", dob: "2016-06-16", want: 7},
		{name: "birthday passed", dob: "2016-01-01", want: 8},
		{name: "timestamp", dob: "2016-07-01T00:00:00.000Z", want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Age(tt.dob, on); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "2024-03-05", want: "Mar 05, 2024"},
		{in: "2024-03-05T10:30:00Z", want: "Mar 05, 2024"},
		{in: "not a date", want: "not a date"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitialsAndTruncate(t *testing.T) {
	if got := Initials("jean", "kabila"); got != "JK" {
		t.Errorf("Initials() = %q", got)
	}
	if got := Initials("", "kabila"); got != "K" {
		t.Errorf("Initials() = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("hi", 5); got != "hi" {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestRef_UnmarshalJSON(t *testing.T) {
	var refs struct {
		ID     Ref   `json:"id"`
		Obj    Ref   `json:"obj"`
		Null   Ref   `json:"null"`
		Groups []Ref `json:"groups"`
	}
	data := `{"id": "c1", "obj": {"_id": "c2", "name": "Lions"}, "null": null, "groups": ["g1", {"_id": "g2", "firstName": "Ann", "lastName": "Lee"}]}`
	if err := json.Unmarshal([]byte(data), &refs); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if refs.ID.ID != "c1" || refs.Obj.ID != "c2" || refs.Obj.Label() != "Lions" {
		t.Errorf("unexpected refs: %+v", refs)
	}
	if !refs.Null.IsZero() {
		t.Errorf("null ref = %+v, want zero", refs.Null)
	}
	if len(refs.Groups) != 2 || refs.Groups[0].ID != "g1" || refs.Groups[1].Label() != "Ann Lee" {
		t.Errorf("unexpected groups: %+v", refs.Groups)
	}
}
