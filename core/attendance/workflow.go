package attendance

import (
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/roster"
)

// State of an attendance-taking workflow.
type State int

const (
	Idle         State = iota // no target selected, or its roster not fetched yet
	RosterLoaded              // roster fetched, every child marked absent
	Editing                   // marks changed since the roster was loaded
	Submitting
	Submitted
)

var stateNames = [...]string{"idle", "roster-loaded", "editing", "submitting", "submitted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

var (
	ErrNoTarget     = errors.New("select a class or a group first")
	ErrEmptyRoster  = errors.New("no children to mark attendance for")
	ErrUnknownChild = errors.New("child is not on the loaded roster")
	ErrNotEditable  = errors.New("attendance cannot be changed now")
)

// Mark is the status of one loaded child, before submission.
type Mark struct {
	Child  child.Child
	Status Status
	Notes  string
}

// Workflow takes the attendance of one class or group on one date.
// It is not safe for concurrent use.
type Workflow struct {
	kind     roster.Kind
	targetID string
	date     string
	notes    string

	state State
	order []string // child ids, in roster order
	marks map[string]*Mark
	err   error
}

// NewWorkflow starts an idle class workflow. An empty date means today.
func NewWorkflow(date string) *Workflow {
	if date == "" {
		date = core.Today()
	}
	return &Workflow{kind: roster.KindClass, date: date, marks: make(map[string]*Mark)}
}

func (w *Workflow) State() State          { return w.state }
func (w *Workflow) Kind() roster.Kind     { return w.kind }
func (w *Workflow) TargetID() string      { return w.targetID }
func (w *Workflow) Date() string          { return w.date }
func (w *Workflow) Notes() string         { return w.notes }
func (w *Workflow) Err() error            { return w.err }
func (w *Workflow) Len() int              { return len(w.order) }
func (w *Workflow) NeedsRoster() bool     { return w.targetID != "" && w.state == Idle }
func (w *Workflow) editable() bool        { return w.state == RosterLoaded || w.state == Editing }
func (w *Workflow) Editable() bool        { return w.editable() }
func (w *Workflow) Submittable() bool     { return w.editable() && len(w.order) > 0 }
func (w *Workflow) SetNotes(notes string) { w.notes = core.CleanString(notes) }

// SetKind switches between class and group; the target and its roster are cleared.
func (w *Workflow) SetKind(k roster.Kind) {
	w.kind = k
	w.targetID = ""
	w.reset()
}

// Select chooses the target of the current kind. Its roster must be loaded next.
func (w *Workflow) Select(targetID string) {
	w.targetID = core.CleanString(targetID)
	w.reset()
}

func (w *Workflow) reset() {
	w.state = Idle
	w.order = nil
	w.marks = make(map[string]*Mark)
	w.err = nil
}

func (w *Workflow) SetDate(date string) error {
	date = core.CleanString(date)
	if date == "" {
		date = core.Today()
	}
	if _, ok := core.ParseDate(date); !ok {
		return core.NewValidationError(errors.New("invalid date"), core.FieldError{Field: "date", Error: "must be a date (YYYY-MM-DD)"})
	}
	w.date = date
	return nil
}

// LoadRoster marks every child of the fetched roster absent, with no note.
func (w *Workflow) LoadRoster(children []child.Child) error {
	if w.targetID == "" {
		return ErrNoTarget
	}
	w.reset()
	for _, c := range children {
		if _, dup := w.marks[c.ID]; dup {
			continue
		}
		w.order = append(w.order, c.ID)
		w.marks[c.ID] = &Mark{Child: c, Status: Absent}
	}
	w.state = RosterLoaded
	return nil
}

func (w *Workflow) mark(childID string) (*Mark, error) {
	if !w.editable() {
		return nil, ErrNotEditable
	}
	m, ok := w.marks[childID]
	if !ok {
		return nil, ErrUnknownChild
	}
	return m, nil
}

func (w *Workflow) SetStatus(childID string, st Status) error {
	st, err := ParseStatus(string(st))
	if err != nil {
		return err
	}
	m, err := w.mark(childID)
	if err != nil {
		return err
	}
	m.Status = st
	w.state = Editing
	return nil
}

func (w *Workflow) SetNote(childID, note string) error {
	m, err := w.mark(childID)
	if err != nil {
		return err
	}
	m.Notes = core.CleanString(note)
	w.state = Editing
	return nil
}

// MarkAllPresent marks every loaded child present. Notes are kept.
func (w *Workflow) MarkAllPresent() error {
	if !w.editable() {
		return ErrNotEditable
	}
	for _, m := range w.marks {
		m.Status = Present
	}
	w.state = Editing
	return nil
}

// Marks returns a copy of the marks, in roster order.
func (w *Workflow) Marks() []Mark {
	marks := make([]Mark, 0, len(w.order))
	for _, id := range w.order {
		marks = append(marks, *w.marks[id])
	}
	return marks
}

// Tally counts the current marks by status.
func (w *Workflow) Tally() Tally {
	var t Tally
	for _, m := range w.marks {
		t.add(m.Status)
	}
	return t
}

// Begin packages one record per loaded child and moves to Submitting.
func (w *Workflow) Begin() (NewSession, error) {
	if w.targetID == "" {
		return NewSession{}, ErrNoTarget
	}
	if !w.editable() {
		return NewSession{}, ErrNotEditable
	}
	if len(w.order) == 0 {
		return NewSession{}, ErrEmptyRoster
	}

	ns := NewSession{Date: w.date, Notes: w.notes, Records: make([]NewRecord, 0, len(w.order))}
	if w.kind == roster.KindGroup {
		ns.GroupID = w.targetID
	} else {
		ns.ClassID = w.targetID
	}
	for _, m := range w.Marks() {
		ns.Records = append(ns.Records, NewRecord{ChildID: m.Child.ID, Status: m.Status, Notes: m.Notes})
	}
	if err := ns.Validate(); err != nil {
		return NewSession{}, err
	}

	w.err = nil
	w.state = Submitting
	return ns, nil
}

// Succeed records the backend accepted the submission.
func (w *Workflow) Succeed() {
	if w.state == Submitting {
		w.state = Submitted
	}
}

// Fail records a rejected submission; the marks stay editable for a retry.
func (w *Workflow) Fail(err error) {
	if w.state == Submitting {
		w.state = Editing
	}
	w.err = err
}
