package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studytrack/internal/study"
	"github.com/example/studytrack/pkg/models"
)

// TopicStore is the part of the study service the importer needs
type TopicStore interface {
	ListTopics(ctx context.Context, userID int64) ([]models.Topic, error)
	AddTopic(ctx context.Context, userID int64, nt study.NewTopic) (*models.Topic, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath        string // Path to the Excel or CSV file
	TitleColumn     string // Column with the topic title
	CategoryColumn  string // Column with the category
	IntervalsColumn string // Column with a custom comma-separated schedule
	SheetName       string // Sheet to import; empty means the first sheet
	StartRow        int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TitleColumn:     "A",
		CategoryColumn:  "B",
		IntervalsColumn: "C",
		StartRow:        2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportTopics imports topics for a user from an Excel or CSV file
func ImportTopics(ctx context.Context, store TopicStore, userID int64, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ImportTopicsFrom(ctx, store, userID, f, filepath.Ext(config.FilePath), config)
}

// ImportTopicsFrom imports topics from r; ext selects the format (".csv", otherwise Excel)
func ImportTopicsFrom(ctx context.Context, store TopicStore, userID int64, r io.Reader, ext string, config ImportConfig) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(ext, ".csv") {
		rows, err = readCSV(r)
	} else {
		rows, err = readExcel(r, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	existing, err := store.ListTopics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing topics: %w", err)
	}
	titles := make(map[string]bool, len(existing))
	for _, t := range existing {
		titles[strings.ToLower(t.Title)] = true
	}

	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}

		result.TotalProcessed++

		if err := processRow(ctx, store, userID, row, config, titles, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// processRow creates a topic from a single row. Rows without a title and
// titles the user already has are skipped.
func processRow(ctx context.Context, store TopicStore, userID int64, row []string, config ImportConfig,
	titles map[string]bool, result *ImportResult) error {
	title := cell(row, config.TitleColumn)
	key := strings.ToLower(title)
	if title == "" || titles[key] {
		result.Skipped++
		return nil
	}

	_, err := store.AddTopic(ctx, userID, study.NewTopic{
		Title:     title,
		Category:  cell(row, config.CategoryColumn),
		Intervals: cell(row, config.IntervalsColumn),
	})
	if errors.Is(err, study.ErrInvalidSchedule) {
		return fmt.Errorf("invalid intervals %q", cell(row, config.IntervalsColumn))
	}
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	titles[key] = true
	result.Created++
	return nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
