// FILENAME: internal/report/writer.go
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xkilldash9x/owasp-driver/internal/models"
)

// Writer handles artifact generation.
type Writer struct {
	BaseDir string
	// now is swapped in tests for stable file names.
	now func() time.Time
}

func NewWriter(baseDir string) *Writer {
	return &Writer{BaseDir: baseDir, now: time.Now}
}

// WriteArtifacts saves the scan results as JSON and CSV and returns both paths.
func (w *Writer) WriteArtifacts(results []models.ScanResult, prefix string) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(w.BaseDir, 0755); err != nil {
		return "", "", err
	}

	timestamp := w.now().Format("20060102-150405")
	baseName := fmt.Sprintf("%s-%s", prefix, timestamp)

	// 1. JSON Report
	jsonPath = filepath.Join(w.BaseDir, baseName+".json")
	if err := w.writeJSON(results, jsonPath); err != nil {
		return "", "", err
	}

	// 2. CSV Report
	csvPath = filepath.Join(w.BaseDir, baseName+".csv")
	if err := w.writeCSV(results, csvPath); err != nil {
		return "", "", err
	}

	return jsonPath, csvPath, nil
}

func (w *Writer) writeJSON(results []models.ScanResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func (w *Writer) writeCSV(results []models.ScanResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	header := []string{"Index", "Status", "Duration(ns)", "PayloadLen", "PayloadHash", "BodyHash", "Novel", "Anomaly", "Error"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.StatusCode),
			strconv.FormatInt(r.Duration.Nanoseconds(), 10),
			strconv.Itoa(r.PayloadLen),
			r.PayloadHash,
			r.BodyHash,
			r.Meta[models.MetaNovel],
			r.Meta[models.MetaAnomaly],
			r.ErrorText,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
