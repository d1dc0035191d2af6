// File path: internal/files/files.go
package files

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/export"
	"github.com/cloudblazer/sfexporter/internal/extract"
)

const metadataFileName = "salesforce_metadata.csv"

// MetadataHeader is the normalized CSV column schema.
var MetadataHeader = []string{
	"Object", "Field", "Type", "Length",
	"Precision", "Scale", "ReferenceTo", "RelationshipName",
}

// Service owns the artifact directories and the CSV writers.
type Service struct {
	inputDir  string
	outputDir string
}

// NewService creates the input and output directories if needed.
func NewService(inputDir, outputDir string) (*Service, error) {
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Service{inputDir: inputDir, outputDir: outputDir}, nil
}

// SaveMetadataCSV writes the normalized table and returns its path.
func (s *Service) SaveMetadataCSV(rows []extract.MetadataRow) (string, error) {
	path := filepath.Join(s.inputDir, metadataFileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create metadata csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(MetadataHeader); err != nil {
		return "", fmt.Errorf("write metadata header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Object, row.Field, row.Type, row.Length,
			row.Precision, row.Scale, row.ReferenceTo, row.RelationshipName,
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write metadata row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush metadata csv: %w", err)
	}
	common.Logger().Info("files: metadata saved", "path", path, "rows", len(rows))
	return path, nil
}

// GenerateLucidCSV derives the diagramming export from a normalized CSV and
// returns the path of the generated file. The export file name embeds the
// current date and, when provided, the sanitized application name.
func (s *Service) GenerateLucidCSV(metadataPath, appName string) (string, error) {
	logger := common.Logger()
	logger.Info("files: generating lucid csv", "source", metadataPath)

	file, err := os.Open(metadataPath)
	if err != nil {
		return "", fmt.Errorf("open metadata csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read metadata csv: %w", err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	rows := export.FromRecords(records)

	path := filepath.Join(s.outputDir, exportFileName(time.Now(), appName))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create lucid csv: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(export.Header); err != nil {
		return "", fmt.Errorf("write lucid header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return "", fmt.Errorf("write lucid row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush lucid csv: %w", err)
	}
	logger.Info("files: lucid csv generated", "path", path, "rows", len(rows))
	return path, nil
}

// FileExists reports whether path names an existing regular file.
func (s *Service) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func exportFileName(now time.Time, appName string) string {
	date := now.Format("2006_01_02")
	if safe := SanitizeAppName(appName); safe != "" {
		return fmt.Sprintf("%s_%s_salesforce_metadata_lucid.csv", date, safe)
	}
	return fmt.Sprintf("%s_salesforce_metadata_lucid.csv", date)
}

// SanitizeAppName strips characters unsafe for file names, keeping letters,
// digits, dashes, and underscores; spaces become underscores.
func SanitizeAppName(name string) string {
	var builder strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ' ':
			builder.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(builder.String()), " ", "_")
}
