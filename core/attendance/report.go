package attendance

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/roster"
)

// Tier is the presentational band of an attendance rate.
type Tier string

const (
	Favorable   Tier = "favorable"
	Caution     Tier = "caution"
	Unfavorable Tier = "unfavorable"

	favorableMin = 80
	cautionMin   = 60
)

// RateTier bands a rate: 80 and above is favorable, 60 and above is caution.
func RateTier(rate float64) Tier {
	switch {
	case rate >= favorableMin:
		return Favorable
	case rate >= cautionMin:
		return Caution
	default:
		return Unfavorable
	}
}

func (r Rate) Tier() Tier { return RateTier(float64(r)) }

// ReportFilter selects the sessions a report aggregates.
type ReportFilter struct {
	Type      roster.Kind `query:"type"`
	ClassID   string      `query:"classId"`
	GroupID   string      `query:"groupId"`
	StartDate string      `query:"startDate"`
	EndDate   string      `query:"endDate"`
}

// DefaultReportFilter covers the class sessions of the trailing 30 days through today.
func DefaultReportFilter(now time.Time) ReportFilter {
	return ReportFilter{
		Type:      roster.KindClass,
		StartDate: core.ISODay(now.AddDate(0, 0, -30)),
		EndDate:   core.ISODay(now),
	}
}

// Normalize fills what was left empty with the defaults.
func (f *ReportFilter) Normalize(now time.Time) {
	def := DefaultReportFilter(now)
	if k, err := roster.ParseKind(string(f.Type)); err == nil {
		f.Type = k
	} else {
		f.Type = def.Type
	}
	f.ClassID = core.CleanString(f.ClassID)
	f.GroupID = core.CleanString(f.GroupID)
	if f.StartDate = core.CleanString(f.StartDate); f.StartDate == "" {
		f.StartDate = def.StartDate
	}
	if f.EndDate = core.CleanString(f.EndDate); f.EndDate == "" {
		f.EndDate = def.EndDate
	}
}

// TargetID is the id of the roster matching the filter type.
func (f ReportFilter) TargetID() string {
	if f.Type == roster.KindGroup {
		return f.GroupID
	}
	return f.ClassID
}

// Select sets the target id of the filter type and clears the other one.
func (f *ReportFilter) Select(id string) {
	if f.Type == roster.KindGroup {
		f.ClassID, f.GroupID = "", id
	} else {
		f.ClassID, f.GroupID = id, ""
	}
}

func (f ReportFilter) Validate() error {
	var flds []core.FieldError
	start, err := time.Parse(core.ISODate, f.StartDate)
	if err != nil {
		flds = append(flds, core.FieldError{Field: "startDate", Error: "must be a date (YYYY-MM-DD)"})
	}
	end, err2 := time.Parse(core.ISODate, f.EndDate)
	if err2 != nil {
		flds = append(flds, core.FieldError{Field: "endDate", Error: "must be a date (YYYY-MM-DD)"})
	}
	if err == nil && err2 == nil && end.Before(start) {
		flds = append(flds, core.FieldError{Field: "endDate", Error: "must not be before the start date"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid report filter"), flds...)
	}
	return nil
}

// Query renders the filter as API query parameters; only the id matching the type is sent.
func (f ReportFilter) Query() map[string]string {
	q := map[string]string{
		"type":      f.Type.String(),
		"startDate": f.StartDate,
		"endDate":   f.EndDate,
	}
	if id := f.TargetID(); id != "" {
		if f.Type == roster.KindGroup {
			q["groupId"] = id
		} else {
			q["classId"] = id
		}
	}
	return q
}

type Summary struct {
	TotalSessions int   `json:"totalSessions"`
	ByStatus      Tally `json:"byStatus"`
}

// ChildStat is the backend's per-child aggregate over the report sessions.
type ChildStat struct {
	Child          core.Ref `json:"child"`
	Present        int      `json:"present"`
	Absent         int      `json:"absent"`
	Late           int      `json:"late"`
	Excused        int      `json:"excused"`
	Total          int      `json:"total"`
	AttendanceRate Rate     `json:"attendanceRate"`
}

type Report struct {
	Summary       Summary     `json:"summary"`
	ChildrenStats []ChildStat `json:"childrenStats"`
	Attendance    []Session   `json:"attendance"`
}

// RecentSessions returns at most n of the report sessions, as ordered by the backend.
func (r Report) RecentSessions(n int) []Session {
	if n >= 0 && len(r.Attendance) > n {
		return r.Attendance[:n]
	}
	return r.Attendance
}

// ReportShare is the form emailing a report.
type ReportShare struct {
	Email string `form:"email" validate:"required,email"`
	Note  string `form:"note" validate:"max=500"`

	// CopyMe also sends the report to the sharer.
	CopyMe bool `form:"copyMe"`
}

func (rs *ReportShare) Validate() error {
	rs.Email = core.CleanString(rs.Email, true /* lower */)
	rs.Note = core.CleanString(rs.Note)
	return core.ValidateStruct(rs)
}
