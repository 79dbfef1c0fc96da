package analytics

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"homework-tracker/models"
)

const (
	summarySheet = "Synthèse"
	historySheet = "Historique"
)

// WriteClassReport writes the class report as an xlsx workbook: a summary sheet
// with one row per student and a history sheet with every status of every
// student over the period.
func WriteClassReport(w io.Writer, a ClassAnalysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "naming summary sheet")
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return errors.Wrap(err, "creating history sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	stats := statsByName(a.Students)

	summary := [][]interface{}{
		{"Classe", a.Class.Name},
		{"Période", a.PeriodName},
		{"Moyenne de la classe", a.ClassAverage},
		{"Réussite", a.Global.SuccessRate},
		{},
		summaryHeader(),
	}
	for _, st := range stats {
		row := []interface{}{st.Student.Name}
		for _, status := range models.AllStatuses {
			row = append(row, st.Of(status))
		}
		summary = append(summary, append(row, st.Total, st.Score))
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A6", "G6", bold); err != nil {
		return errors.Wrap(err, "styling summary header")
	}

	history := [][]interface{}{{"Élève", "Date", "Description", "Statut"}}
	for _, st := range stats {
		for _, e := range a.Timeline(st.Student.ID) {
			history = append(history, []interface{}{st.Student.Name, e.Date, e.Description, e.Status.Label()})
		}
	}
	if err := writeRows(f, historySheet, history); err != nil {
		return err
	}
	if err := f.SetCellStyle(historySheet, "A1", "D1", bold); err != nil {
		return errors.Wrap(err, "styling history header")
	}

	return errors.Wrap(f.Write(w), "writing report")
}

func summaryHeader() []interface{} {
	header := []interface{}{"Élève"}
	for _, status := range models.AllStatuses {
		header = append(header, status.Label())
	}
	return append(header, "Total", "Score")
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}

// statsByName returns the stats in roll-call order.
func statsByName(stats []StudentStat) []StudentStat {
	students := make([]models.Student, 0, len(stats))
	byID := make(map[string]StudentStat, len(stats))
	for _, st := range stats {
		students = append(students, st.Student)
		byID[st.Student.ID] = st
	}
	out := make([]StudentStat, 0, len(stats))
	for _, s := range models.SortStudentsByName(students) {
		out = append(out, byID[s.ID])
	}
	return out
}
