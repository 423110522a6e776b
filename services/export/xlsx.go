// Package export renders reports and badges as downloadable files.
package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	summarySheet  = "Summary"
	childrenSheet = "Children"
	sessionsSheet = "Sessions"
)

// ReportMeta describes what a report covers.
type ReportMeta struct {
	ScopeName string
	StartDate string
	EndDate   string
}

// ReportFilename names the export of a report.
func ReportFilename(meta ReportMeta) string {
	return "attendance_" + core.CleanString(meta.StartDate) + "_" + core.CleanString(meta.EndDate) + ".xlsx"
}

// WriteReportXLSX writes rep as a workbook with a summary, per-child and per-session sheet.
func WriteReportXLSX(w io.Writer, meta ReportMeta, rep attendance.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "naming summary sheet")
	}

	by := rep.Summary.ByStatus
	summary := [][]interface{}{
		{"Scope", meta.ScopeName},
		{"From", meta.StartDate},
		{"To", meta.EndDate},
		{"Sessions", rep.Summary.TotalSessions},
		{"Present", by.Present},
		{"Absent", by.Absent},
		{"Late", by.Late},
		{"Excused", by.Excused},
	}
	if err = writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err = f.SetCellStyle(summarySheet, "A1", "A8", bold); err != nil {
		return errors.Wrap(err, "styling summary")
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 14)
	_ = f.SetColWidth(summarySheet, "B", "B", 30)

	children := [][]interface{}{{"Child", "Present", "Absent", "Late", "Excused", "Total", "Rate (%)", "Tier"}}
	for _, st := range rep.ChildrenStats {
		children = append(children, []interface{}{
			st.Child.Label(), st.Present, st.Absent, st.Late, st.Excused, st.Total,
			float64(st.AttendanceRate), string(st.AttendanceRate.Tier()),
		})
	}
	if err = writeSheet(f, childrenSheet, children, bold); err != nil {
		return err
	}

	sessions := [][]interface{}{{"Date", "Scope", "Present", "Absent", "Late", "Excused", "Taken by", "Notes"}}
	for _, s := range rep.Attendance {
		_, target := s.Target()
		t := s.Tally()
		date := s.Date
		if d, ok := core.ParseDate(s.Date); ok {
			date = core.ISODay(d)
		}
		sessions = append(sessions, []interface{}{
			date, target.Label(), t.Present, t.Absent, t.Late, t.Excused, s.TakenBy.Label(), s.Notes,
		})
	}
	if err = writeSheet(f, sessionsSheet, sessions, bold); err != nil {
		return err
	}

	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "creating %s sheet", sheet)
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return errors.Wrap(err, "locating header")
	}
	if err = f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return errors.Wrapf(err, "styling %s header", sheet)
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "locating row")
		}
		row := row
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}
