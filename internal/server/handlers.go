package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CleanSheetLabs/cleansheet/internal/analysis"
	"github.com/CleanSheetLabs/cleansheet/internal/clean"
	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

//go:embed index.html
var indexHTML []byte

// UploadResponse is the body returned by POST /api/upload.
type UploadResponse struct {
	ID      string              `json:"id"`
	Message string              `json:"message"`
	Shape   ShapeResponse       `json:"shape"`
	Preview []map[string]string `json:"preview"`
}

// ShapeResponse is the body returned by GET /api/shape.
type ShapeResponse struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// handlePing is the health check.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// handleUpload accepts a multipart CSV/TSV/XLSX upload, profiles the raw
// table, runs the cleaning pipeline and stores both under a new id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing multipart field 'file'", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := strings.TrimSpace(header.Filename)
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".csv") && !strings.HasSuffix(lower, ".tsv") &&
		!strings.HasSuffix(lower, ".xlsx") {
		http.Error(w, "only CSV, TSV and XLSX files are supported", http.StatusBadRequest)
		return
	}

	opt := s.tableOptions(lower)
	var raw *table.Table
	if strings.HasSuffix(lower, ".xlsx") {
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		raw, err = table.ReadXLSX(data, opt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		raw, err = table.ReadCSV(file, opt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	anaOpt := analysis.DefaultOptions()
	anaOpt.SampleRows = s.cfg.SampleRows
	anaOpt.IQRFactor = s.cfg.IQRFactor

	cleaned := raw.Clone()
	report, err := clean.NewPipeline(clean.Options{IQRFactor: s.cfg.IQRFactor}).Run(cleaned)
	if err != nil {
		s.logger.Error("pipeline failed", "file", name, "error", err)
		http.Error(w, "cleaning pipeline failed", http.StatusInternalServerError)
		return
	}

	d := &Dataset{
		Filename:     filepath.Base(name),
		Raw:          raw,
		Clean:        cleaned,
		RawSummary:   summarizeNamed(raw, name, anaOpt),
		CleanSummary: summarizeNamed(cleaned, name, anaOpt),
		Report:       report,
	}
	id := s.store.Put(d)

	rows, cols := cleaned.Shape()
	s.logger.Info("dataset uploaded",
		"id", id, "file", name, "rows", rows, "cols", cols,
		"rows_dropped", report.RowsBefore-report.RowsAfter)

	writeJSON(w, http.StatusOK, UploadResponse{
		ID:      id,
		Message: "File uploaded and cleaned successfully",
		Shape:   ShapeResponse{Rows: rows, Columns: cols},
		Preview: cleaned.Head(5),
	})
}

func summarizeNamed(t *table.Table, name string, opt analysis.Options) *analysis.Summary {
	sum := analysis.Summarize(t, opt)
	sum.Name = filepath.Base(name)
	return sum
}

func (s *Server) tableOptions(lowerName string) table.Options {
	opt := table.DefaultOptions()
	if len(s.cfg.MissingValues) > 0 {
		opt.MissingValues = s.cfg.MissingValues
	}
	opt.MaxRows = s.cfg.MaxRows
	if strings.HasSuffix(lowerName, ".tsv") {
		opt.Delimiter = '\t'
	}
	return opt
}

// handleShape returns rows/columns of the cleaned table.
func (s *Server) handleShape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	rows, cols := d.Clean.Shape()
	writeJSON(w, http.StatusOK, ShapeResponse{Rows: rows, Columns: cols})
}

// handlePreview returns the first rows x cols window of the cleaned table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	rows := queryInt(r, "rows", s.cfg.PreviewRows)
	cols := queryInt(r, "cols", s.cfg.PreviewCols)

	t := d.Clean
	nrows, ncols := t.Shape()
	if rows > nrows {
		rows = nrows
	}
	if cols > ncols {
		cols = ncols
	}
	names := t.ColumnNames()[:cols]
	records := make([]map[string]string, 0, rows)
	for i := 0; i < rows; i++ {
		rec := make(map[string]string, cols)
		for j := 0; j < cols; j++ {
			rec[names[j]] = t.Cell(i, j)
		}
		records = append(records, rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": names,
		"records": records,
	})
}

// handleSummary returns the profile of the raw (default) or cleaned table,
// plus the pipeline report.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	which := r.URL.Query().Get("which")
	sum := d.RawSummary
	switch which {
	case "", "raw":
	case "clean":
		sum = d.CleanSummary
	default:
		http.Error(w, "unknown 'which': want raw or clean", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": sum,
		"report":  d.Report,
	})
}

// handleDownload streams the cleaned table as a CSV attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d, ok := s.dataset(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=cleaned_data.csv`)
	if err := d.Clean.WriteCSV(w); err != nil {
		// Headers are out; log only.
		s.logger.Error("download failed", "id", d.ID, "error", err)
	}
}

// handleIndex serves the embedded single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// dataset resolves the ?id= query parameter, defaulting to the latest
// upload, and writes the error response itself when there is none.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*Dataset, bool) {
	d, err := s.store.Get(r.URL.Query().Get("id"))
	if err != nil {
		if errors.Is(err, ErrNoDataset) {
			http.Error(w, "no dataset uploaded; POST a file to /api/upload first", http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return d, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing useful to do.
		_ = err
	}
}
