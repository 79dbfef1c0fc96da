package db

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"homework-tracker/logger"
)

// ParseStudentNames extracts one name per line from a pasted list or CSV file.
// Blank lines and a "Nom / Prénom" header are skipped; commas and semicolons
// separating last and first names become spaces.
func ParseStudentNames(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := cleanImportedName(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func cleanImportedName(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || isHeaderLine(trimmed) {
		return ""
	}
	replaced := strings.NewReplacer(",", " ", ";", " ").Replace(trimmed)
	return strings.Join(strings.Fields(replaced), " ")
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "nom") && strings.Contains(lower, "prénom")
}

// ImportStudentsFromText adds every name found in text to the class and returns
// how many students were created.
func (s *StorageService) ImportStudentsFromText(ctx context.Context, text, classID string) (int, error) {
	return s.importNames(ctx, classID, ParseStudentNames(text))
}

// ImportStudentsFromExcel reads the first sheet of a workbook and adds one
// student per non-empty row. The cells of a row are joined, so both a single
// "Name" column and "Last name | First name" columns work.
func (s *StorageService) ImportStudentsFromExcel(ctx context.Context, file io.Reader, classID string) (int, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open excel file")
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.LogError("Error closing excel file", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get rows from sheet %s", sheetName)
	}

	names := make([]string, 0, len(rows))
	for i, row := range rows {
		name := cleanImportedName(strings.Join(row, " "))
		if name == "" {
			logger.LogDebug("Skipping row during import", "row", i+1)
			continue
		}
		names = append(names, name)
	}
	return s.importNames(ctx, classID, names)
}

func (s *StorageService) importNames(ctx context.Context, classID string, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.addStudentsLocked(ctx, classID, names)
	if err != nil {
		return 0, err
	}
	logger.LogInfo("Imported students", "classId", classID, "count", len(added))
	return len(added), nil
}
