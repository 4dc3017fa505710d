// Package reporter renders scan, clean and history results for the
// terminal (lipgloss) or as JSON/YAML.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/devcache/internal/catalog"
	"github.com/fenilsonani/devcache/internal/cleaner"
	"github.com/fenilsonani/devcache/internal/history"
	"github.com/fenilsonani/devcache/internal/platform"
	"github.com/fenilsonani/devcache/internal/scanner"
	"github.com/fenilsonani/devcache/internal/ui/styles"
	"github.com/fenilsonani/devcache/pkg/utils"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatSummary OutputFormat = "summary"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
)

const (
	// DefaultWidth is used when the writer is not a terminal
	DefaultWidth = 100
	// DefaultTopN is the row count of the largest-items table
	DefaultTopN = 10

	matchPathWidth   = 50
	historyPathWidth = 40
)

// ParseFormat validates an output format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatSummary:
		return FormatSummary, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want summary, json or yaml)", s)
	}
}

// ScanReport is everything known about one scan invocation
type ScanReport struct {
	Root    string
	Matches []scanner.Match
	Elapsed time.Duration
	Disk    *platform.DiskUsage
	Clean   *cleaner.CleanResult
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	width  int
	topN   int
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	r := &Reporter{
		writer: writer,
		format: format,
		width:  DefaultWidth,
		topN:   DefaultTopN,
	}
	r.SetWidth(TerminalWidth(writer))
	return r
}

// SetTopN sets how many of the largest matches are listed
func (r *Reporter) SetTopN(n int) {
	if n > 0 {
		r.topN = n
	}
}

// SetWidth overrides the detected terminal width
func (r *Reporter) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// Machine reports whether the format is JSON or YAML
func (r *Reporter) Machine() bool {
	return r.format == FormatJSON || r.format == FormatYAML
}

// TerminalWidth returns the column count of w when it is a terminal
func TerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

// TruncatePath shortens path to max characters, keeping the tail
func TruncatePath(path string, max int) string {
	if max <= 3 || len(path) <= max {
		return path
	}
	return "..." + path[len(path)-(max-3):]
}

// Header prints the banner and scan root in summary mode
func (r *Reporter) Header(root string) {
	if r.Machine() {
		return
	}
	fmt.Fprintln(r.writer, styles.TitleStyle.Render("Dev Cache Cleaner"))
	fmt.Fprintf(r.writer, "\nScanning: %s\n", styles.FilePathStyle.Render(root))
}

// Report writes the scan results. In summary mode the clean outcome is
// written separately by ReportClean; machine formats include it here.
func (r *Reporter) Report(rep *ScanReport) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(newMachineReport(rep))
	case FormatYAML:
		return r.encodeYAML(newMachineReport(rep))
	case FormatSummary:
		return r.reportSummary(rep)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) reportSummary(rep *ScanReport) error {
	if len(rep.Matches) == 0 {
		fmt.Fprintln(r.writer, styles.SuccessStyle.Render("No caches found!"))
		return nil
	}

	total := scanner.TotalSize(rep.Matches)

	var body strings.Builder
	fmt.Fprintf(&body, "Found %s items totaling %s\n",
		styles.BoldStyle.Render(humanize.Comma(int64(len(rep.Matches)))),
		styles.FileSizeStyle.Render(utils.FormatBytes(total)))
	fmt.Fprintf(&body, "Scan time: %.1fs", rep.Elapsed.Seconds())
	if rep.Disk != nil {
		fmt.Fprintf(&body, "\nFree space: %s of %s (%.0f%% used)",
			utils.FormatBytes(int64(rep.Disk.Free)),
			utils.FormatBytes(int64(rep.Disk.Total)),
			rep.Disk.UsedPercent)
	}
	r.panel("Scan Results", body.String(), styles.PanelStyle)

	// By category
	rows := [][]string{}
	for _, ct := range scanner.CategoryTotals(rep.Matches) {
		rows = append(rows, []string{
			styles.CategoryStyle.Render(strings.ToUpper(ct.Category)),
			humanize.Comma(int64(ct.Count)),
			utils.FormatBytes(ct.Size),
		})
	}
	r.table("By Category", []string{"Category", "Items", "Size"}, rows, 1, 2)

	// Largest items
	limit := r.topN
	if limit > len(rep.Matches) {
		limit = len(rep.Matches)
	}
	rows = [][]string{}
	for i, m := range rep.Matches[:limit] {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			TruncatePath(m.Path, r.pathWidth()),
			m.CacheType,
			utils.FormatBytes(m.Size),
		})
	}
	r.table(fmt.Sprintf("Top %d Largest", limit), []string{"#", "Path", "Type", "Size"}, rows, 3)

	return nil
}

// ReportClean writes the outcome of a clean in summary mode
func (r *Reporter) ReportClean(res *cleaner.CleanResult) error {
	if r.Machine() || res == nil || res.Total == 0 {
		return nil
	}

	switch {
	case res.DryRun:
		body := fmt.Sprintf("%s - Would free %s\nUse %s to actually delete",
			styles.WarningStyle.Render("DRY RUN"),
			styles.BoldStyle.Render(utils.FormatBytes(res.WouldFree)),
			styles.BoldStyle.Render("-x"))
		r.panel("Preview", body, styles.PanelStyle.BorderForeground(styles.Warning))

	case res.Declined:
		fmt.Fprintln(r.writer, styles.WarningStyle.Render("Aborted"))

	default:
		body := fmt.Sprintf("%s\nFreed %s",
			styles.SuccessStyle.Render(fmt.Sprintf("Deleted %d/%d items", res.DeletedCount, res.Total)),
			styles.SuccessStyle.Render(utils.FormatBytes(res.FreedBytes)))
		r.panel("Done", body, styles.SuccessPanelStyle)

		if summary := cleaner.FormatErrorSummary(res.Errors); summary != "" {
			fmt.Fprint(r.writer, styles.WarningStyle.Render(summary))
			fmt.Fprintln(r.writer)
		}
	}

	return nil
}

// ReportHistory writes sessions, newest first
func (r *Reporter) ReportHistory(records []history.SessionRecord) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(records)
	case FormatYAML:
		return r.encodeYAML(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(r.writer, styles.WarningStyle.Render("No history yet"))
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Date,
			TruncatePath(rec.Path, historyPathWidth),
			utils.FormatBytes(rec.Size),
			humanize.Comma(int64(rec.Items)),
			styles.DryRunBadge(rec.DryRun),
		})
	}
	r.table("History", []string{"Date", "Path", "Size", "Items", "Mode"}, rows, 2, 3)
	return nil
}

// ReportStats writes the aggregate history statistics
func (r *Reporter) ReportStats(stats history.Stats) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(stats)
	case FormatYAML:
		return r.encodeYAML(stats)
	}

	body := fmt.Sprintf("Sessions: %s\nActually cleaned: %s\n%s",
		humanize.Comma(int64(stats.Sessions)),
		humanize.Comma(int64(stats.Executed)),
		styles.SuccessStyle.Render("Total space saved: "+utils.FormatBytes(stats.Freed)))
	r.panel("Stats", body, styles.PanelStyle)
	return nil
}

// typeRow is one catalog entry in machine output
type typeRow struct {
	Category    string   `json:"category" yaml:"category"`
	Type        string   `json:"type" yaml:"type"`
	Patterns    []string `json:"patterns" yaml:"patterns"`
	Description string   `json:"description" yaml:"description"`
}

// ReportTypes lists every catalog category and cache type
func (r *Reporter) ReportTypes(cat *catalog.Catalog) error {
	var types []typeRow
	for _, category := range cat.Categories() {
		for _, ct := range category.Types {
			types = append(types, typeRow{
				Category:    category.Name,
				Type:        ct.Name,
				Patterns:    ct.Patterns,
				Description: ct.Description,
			})
		}
	}

	switch r.format {
	case FormatJSON:
		return r.encodeJSON(types)
	case FormatYAML:
		return r.encodeYAML(types)
	}

	rows := make([][]string, 0, len(types))
	for _, t := range types {
		patterns := t.Patterns
		if len(patterns) > 3 {
			patterns = patterns[:3]
		}
		rows = append(rows, []string{t.Category, t.Type, strings.Join(patterns, ", ")})
	}
	r.table("Cache Types", []string{"Category", "Type", "Patterns"}, rows)
	return nil
}

// pathWidth shrinks the path column on narrow terminals
func (r *Reporter) pathWidth() int {
	width := matchPathWidth
	if avail := r.width - 40; avail < width {
		width = avail
	}
	if width < 20 {
		width = 20
	}
	return width
}

func (r *Reporter) panel(title, body string, style lipgloss.Style) {
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, styles.TitleStyle.Render(title))
	fmt.Fprintln(r.writer, style.Render(body))
}

// table renders a rounded table; rightAligned lists numeric columns
func (r *Reporter) table(title string, headers []string, rows [][]string, rightAligned ...int) {
	right := make(map[int]bool, len(rightAligned))
	for _, col := range rightAligned {
		right[col] = true
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeaderStyle
			}
			style := styles.TableCellStyle
			if right[col] {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, styles.TitleStyle.Render(title))
	fmt.Fprintln(r.writer, t.Render())
}

func (r *Reporter) encodeJSON(v interface{}) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) encodeYAML(v interface{}) error {
	encoder := yaml.NewEncoder(r.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// machineReport is the JSON/YAML shape of a scan
type machineReport struct {
	Timestamp          string                  `json:"timestamp" yaml:"timestamp"`
	Root               string                  `json:"root" yaml:"root"`
	ElapsedSeconds     float64                 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	TotalItems         int                     `json:"total_items" yaml:"total_items"`
	TotalSize          int64                   `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string                  `json:"total_size_formatted" yaml:"total_size_formatted"`
	Categories         []scanner.CategoryTotal `json:"categories" yaml:"categories"`
	Matches            []scanner.Match         `json:"matches" yaml:"matches"`
	Disk               *platform.DiskUsage     `json:"disk,omitempty" yaml:"disk,omitempty"`
	Clean              *cleanSummary           `json:"clean,omitempty" yaml:"clean,omitempty"`
}

type cleanSummary struct {
	DryRun       bool     `json:"dry_run" yaml:"dry_run"`
	Declined     bool     `json:"declined" yaml:"declined"`
	Total        int      `json:"total" yaml:"total"`
	Deleted      int      `json:"deleted" yaml:"deleted"`
	FreedBytes   int64    `json:"freed_bytes" yaml:"freed_bytes"`
	WouldFree    int64    `json:"would_free" yaml:"would_free"`
	DeletedPaths []string `json:"deleted_paths" yaml:"deleted_paths"`
	Errors       []string `json:"errors" yaml:"errors"`
}

func newMachineReport(rep *ScanReport) *machineReport {
	matches := rep.Matches
	if matches == nil {
		matches = []scanner.Match{}
	}
	categories := scanner.CategoryTotals(matches)
	if categories == nil {
		categories = []scanner.CategoryTotal{}
	}
	total := scanner.TotalSize(matches)

	out := &machineReport{
		Timestamp:          time.Now().Format(time.RFC3339),
		Root:               rep.Root,
		ElapsedSeconds:     rep.Elapsed.Seconds(),
		TotalItems:         len(matches),
		TotalSize:          total,
		TotalSizeFormatted: utils.FormatBytes(total),
		Categories:         categories,
		Matches:            matches,
		Disk:               rep.Disk,
	}

	if res := rep.Clean; res != nil {
		errs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			errs = append(errs, e.UserMessage())
		}
		out.Clean = &cleanSummary{
			DryRun:       res.DryRun,
			Declined:     res.Declined,
			Total:        res.Total,
			Deleted:      res.DeletedCount,
			FreedBytes:   res.FreedBytes,
			WouldFree:    res.WouldFree,
			DeletedPaths: res.DeletedPaths,
			Errors:       errs,
		}
	}

	return out
}
