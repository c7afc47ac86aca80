package worker

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yashsmehta/auto-apply/models"
)

// ReadCSV loads applications from a CSV file with the columns
// app_name,info_url,application_url and an optional context column. Rows
// missing any required value are skipped.
func ReadCSV(path string) ([]models.Application, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]models.Application, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"app_name", "info_url", "application_url"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv must have app_name,info_url,application_url columns")
		}
	}

	var apps []models.Application
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		app := models.Application{
			Name:           field(row, cols, "app_name"),
			InfoURL:        field(row, cols, "info_url"),
			ApplicationURL: field(row, cols, "application_url"),
			Context:        field(row, cols, "context"),
		}
		if app.Name == "" || app.InfoURL == "" || app.ApplicationURL == "" {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
