package attendance

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/roster"
)

type Status string

const (
	Present Status = "present"
	Absent  Status = "absent"
	Late    Status = "late"
	Excused Status = "excused"
)

var (
	Statuses = []Status{Present, Absent, Late, Excused}

	ErrInvalidStatus = errors.New("invalid attendance status")

	scopeTag  = "scope"
	scopeText = "exactly one of class or group is required"
)

func init() {
	core.Validate.RegisterStructValidation(newSessionStructValidation, NewSession{})
	core.RegisterCustomTranslation(core.Validate, core.Translator, scopeTag, scopeText)
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(core.CleanString(s, true /* lower */)); st {
	case Present, Absent, Late, Excused:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) String() string { return string(s) }

// Title is the display name of the status.
func (s Status) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Record is the snapshot of one child's attendance in a session.
type Record struct {
	Child  core.Ref `json:"child"`
	Status Status   `json:"status"`
	Notes  string   `json:"notes,omitempty"`
}

// Session is one dated batch of records, scoped to one class or one group.
type Session struct {
	ID        string      `json:"_id"`
	Date      string      `json:"date"`
	Type      roster.Kind `json:"type,omitempty"`
	Class     *core.Ref   `json:"class,omitempty"`
	Group     *core.Ref   `json:"group,omitempty"`
	Records   []Record    `json:"records"`
	Notes     string      `json:"notes,omitempty"`
	TakenBy   core.Ref    `json:"takenBy"`
	CreatedAt string      `json:"createdAt,omitempty"`
}

// Target returns the roster the session was taken for.
func (s Session) Target() (roster.Kind, core.Ref) {
	if s.Group != nil && (s.Class == nil || s.Type == roster.KindGroup) {
		return roster.KindGroup, *s.Group
	}
	if s.Class != nil {
		return roster.KindClass, *s.Class
	}
	return s.Type, core.Ref{}
}

// Tally counts the records of a session by status.
type Tally struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
}

func (t Tally) Total() int { return t.Present + t.Absent + t.Late + t.Excused }

func (t *Tally) add(st Status) {
	switch st {
	case Present:
		t.Present++
	case Absent:
		t.Absent++
	case Late:
		t.Late++
	case Excused:
		t.Excused++
	}
}

// Tally is the only place per-session counts are derived; report aggregates come from the backend.
func (s Session) Tally() Tally {
	var t Tally
	for _, r := range s.Records {
		t.add(r.Status)
	}
	return t
}

// Revision is the payload resubmitting s unchanged, for corrections to be applied on.
func (s Session) Revision() NewSession {
	ns := NewSession{Date: s.Date, Notes: s.Notes, Records: make([]NewRecord, 0, len(s.Records))}
	if kind, target := s.Target(); kind == roster.KindGroup {
		ns.GroupID = target.ID
	} else {
		ns.ClassID = target.ID
	}
	for _, r := range s.Records {
		ns.Records = append(ns.Records, NewRecord{ChildID: r.Child.ID, Status: r.Status, Notes: r.Notes})
	}
	return ns
}

// HistoryEntry is one session as seen from a single child's attendance history.
type HistoryEntry struct {
	ID     string      `json:"_id"`
	Date   string      `json:"date"`
	Type   roster.Kind `json:"type"`
	Class  *core.Ref   `json:"class,omitempty"`
	Group  *core.Ref   `json:"group,omitempty"`
	Status Status      `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

// TargetName is the display name of the class or group of the entry.
func (h HistoryEntry) TargetName() string {
	if h.Class != nil && h.Class.Label() != "" {
		return h.Class.Label()
	}
	if h.Group != nil {
		return h.Group.Label()
	}
	return ""
}

// NewRecord is one child's mark in a submission.
type NewRecord struct {
	ChildID string `json:"child" validate:"required"`
	Status  Status `json:"status" validate:"required,oneof=present absent late excused"`
	Notes   string `json:"notes"`
}

// NewSession is the payload submitted for a roster. Exactly one of ClassID or GroupID is set.
type NewSession struct {
	ClassID string      `json:"classId,omitempty"`
	GroupID string      `json:"groupId,omitempty"`
	Date    string      `json:"date" validate:"required,isodate"`
	Records []NewRecord `json:"records" validate:"required,min=1,dive"`
	Notes   string      `json:"notes"`
}

// Kind is the roster kind the payload is scoped to.
func (ns NewSession) Kind() roster.Kind {
	if ns.GroupID != "" {
		return roster.KindGroup
	}
	return roster.KindClass
}

func (ns NewSession) Validate() error { return core.ValidateStruct(ns) }

func newSessionStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSession)
	if (ns.ClassID == "") == (ns.GroupID == "") {
		sl.ReportError(ns.ClassID, "scope", "scope", scopeTag, "")
	}
}

// Rate is an attendance percentage. The backend sends it as a number or as a numeric string.
type Rate float64

func (r *Rate) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.Wrap(err, "parsing attendance rate")
	}
	*r = Rate(f)
	return nil
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(r))
}

func (r Rate) String() string {
	return strconv.FormatFloat(float64(r), 'f', -1, 64)
}
