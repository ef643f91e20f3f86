// Package report renders calibration run summaries for operators.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/service"
)

// Row is one line of a run report: a recommendation, or a course that failed
type Row struct {
	Rank            int     `json:"rank"`
	CourseID        string  `json:"course_id"`
	CourseName      string  `json:"course_name"`
	Outcome         string  `json:"outcome"`
	Method          string  `json:"method,omitempty"`
	CurrentRating   float64 `json:"current_rating"`
	ImpliedRating   float64 `json:"implied_rating"`
	Discrepancy     float64 `json:"discrepancy"`
	Confidence      float64 `json:"confidence"`
	SharedAthletes  int     `json:"shared_athletes"`
	NeedsAdjustment bool    `json:"needs_adjustment,omitempty"`
	Severity        string  `json:"severity,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// Document is the JSON form of a run report
type Document struct {
	RunID       string            `json:"run_id"`
	Anchor      AnchorInfo        `json:"anchor"`
	Method      string            `json:"method"`
	Counts      service.RunCounts `json:"counts"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Courses     []Row             `json:"courses"`
}

// AnchorInfo describes the reference course of a run
type AnchorInfo struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Rating            float64 `json:"rating"`
	DistanceMeters    float64 `json:"distance_meters"`
	TerrainDifficulty float64 `json:"terrain_difficulty"`
}

var csvHeader = []string{
	"rank", "course_id", "course_name", "outcome", "method", "current_rating", "implied_rating",
	"discrepancy", "confidence", "shared_athletes", "needs_adjustment", "severity", "error",
}

// Rows flattens a summary in ranked order. Failed and isolated courses are always present.
func Rows(summary *service.RunSummary) []Row {
	rows := make([]Row, 0, len(summary.Courses))
	for i, c := range summary.Courses {
		base := Row{
			Rank:          i + 1,
			CourseID:      c.Course.ID.String(),
			CourseName:    c.Course.Name,
			Outcome:       c.Outcome,
			CurrentRating: c.Course.CurrentRating,
			ImpliedRating: c.Course.CurrentRating,
		}
		if c.Err != nil {
			base.Error = c.Err.Error()
		}
		if len(c.Recommendations) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, rec := range c.Recommendations {
			row := base
			row.Method = string(rec.Method)
			row.ImpliedRating = rec.ImpliedRating
			row.Discrepancy = rec.Discrepancy()
			row.Confidence = rec.Confidence
			row.SharedAthletes = rec.SharedAthleteCount
			row.NeedsAdjustment = rec.NeedsAdjustment
			row.Severity = rec.Severity
			rows = append(rows, row)
		}
	}
	return rows
}

// NewDocument builds the JSON report of a run
func NewDocument(summary *service.RunSummary) Document {
	return Document{
		RunID: summary.RunID.String(),
		Anchor: AnchorInfo{
			ID:                summary.Anchor.ID.String(),
			Name:              summary.Anchor.Name,
			Rating:            summary.Anchor.CurrentRating,
			DistanceMeters:    summary.Anchor.DistanceMeters,
			TerrainDifficulty: summary.Anchor.TerrainDifficulty,
		},
		Method:      string(summary.Method),
		Counts:      summary.Counts,
		StartedAt:   summary.StartedAt.UTC(),
		CompletedAt: summary.CompletedAt.UTC(),
		Courses:     Rows(summary),
	}
}

// GenerateConsoleReport formats a run for terminal output
func GenerateConsoleReport(summary *service.RunSummary) string {
	var builder strings.Builder
	builder.WriteString("Calibration Report\n")
	builder.WriteString("==================\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", summary.RunID))
	builder.WriteString(fmt.Sprintf("Anchor: %s (rating %.4f)\n", summary.Anchor.Name, summary.Anchor.CurrentRating))
	builder.WriteString(fmt.Sprintf("Method: %s\n", summary.Method))
	builder.WriteString(fmt.Sprintf("High confidence: %d  Needs review: %d  Isolated: %d  Failed: %d\n\n",
		summary.Counts.HighConfidence, summary.Counts.NeedsReview, summary.Counts.Isolated, summary.Counts.Failed))

	tw := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCOURSE\tOUTCOME\tMETHOD\tCURRENT\tIMPLIED\tDELTA\tCONF\tSHARED")
	for _, row := range Rows(summary) {
		if row.Error != "" {
			fmt.Fprintf(tw, "%d\t%s\t%s\t-\t%.4f\t-\t-\t-\t-\n", row.Rank, row.CourseName, row.Outcome, row.CurrentRating)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%.2f\t%d\n",
			row.Rank, row.CourseName, row.Outcome, row.Method, row.CurrentRating, row.ImpliedRating,
			row.Discrepancy, row.Confidence, row.SharedAthletes)
	}
	tw.Flush()

	if len(summary.Failures) > 0 {
		builder.WriteString("\nFailed courses:\n")
		for _, f := range summary.Failures {
			builder.WriteString(fmt.Sprintf("  %s: %v\n", f.Course.Name, f.Err))
		}
	}
	return builder.String()
}

// GenerateRecommendationTable formats stored recommendations for terminal output
func GenerateRecommendationTable(recs []*models.CalibrationRecommendation) string {
	var builder strings.Builder
	tw := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOURSE\tMETHOD\tCURRENT\tIMPLIED\tDELTA\tCONF\tSHARED\tCREATED")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%.2f\t%d\t%s\n",
			rec.ID, rec.CourseName, rec.Method, rec.CurrentRating, rec.ImpliedRating,
			rec.Discrepancy(), rec.Confidence, rec.SharedAthleteCount, rec.CreatedAt.Format(time.RFC3339))
	}
	tw.Flush()
	return builder.String()
}

// WriteCSV writes one row per recommendation or failed course
func WriteCSV(w io.Writer, summary *service.RunSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range Rows(summary) {
		record := []string{
			strconv.Itoa(row.Rank),
			row.CourseID,
			row.CourseName,
			row.Outcome,
			row.Method,
			formatFloat(row.CurrentRating),
			formatFloat(row.ImpliedRating),
			formatFloat(row.Discrepancy),
			formatFloat(row.Confidence),
			strconv.Itoa(row.SharedAthletes),
			strconv.FormatBool(row.NeedsAdjustment),
			row.Severity,
			row.Error,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the run document as indented JSON
func WriteJSON(w io.Writer, summary *service.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(summary))
}

// GenerateCSVExport writes the CSV report to outputPath
func GenerateCSVExport(summary *service.RunSummary, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error { return WriteCSV(w, summary) })
}

// GenerateJSONExport writes the JSON report to outputPath
func GenerateJSONExport(summary *service.RunSummary, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error { return WriteJSON(w, summary) })
}

func writeFile(outputPath string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
