// Package output renders command results for the terminal.
package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/query"
	"github.com/emilianohg/aimetrics/internal/repository"
)

var (
	titleColor   = color.New(color.FgHiCyan, color.Bold)
	successColor = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

func Title(w io.Writer, format string, args ...any) {
	_, _ = titleColor.Fprintf(w, format+"\n", args...)
}

func Success(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func Warn(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, "⚠ "+format+"\n", args...)
}

func Error(w io.Writer, format string, args ...any) {
	_, _ = errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

func Dim(w io.Writer, format string, args ...any) {
	_, _ = dimColor.Fprintf(w, format+"\n", args...)
}

// Spinner wraps briandowns/spinner so it can be paused around prompts.
type Spinner struct {
	s *spinner.Spinner
}

func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	return &Spinner{s: s}
}

func (s *Spinner) Start()              { s.s.Start() }
func (s *Spinner) Stop()               { s.s.Stop() }
func (s *Spinner) SetMessage(m string) { s.s.Suffix = " " + m }

// ToolStatsTable prints the per-tool summary shown after an analysis.
func ToolStatsTable(w io.Writer, stats []repository.ToolStats) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"AI Tool", "Commits", "Avg Time"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range stats {
		data = append(data, []string{string(s.AITool), strconv.Itoa(s.Commits), minutesOrNA(s.AvgTimeMinutes)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// StatusStatsTable prints the per-status summary shown after a Jira sync.
func StatusStatsTable(w io.Writer, stats []repository.StatusStats) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Status", "Tasks", "Avg Estimate", "Avg Logged"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range stats {
		data = append(data, []string{s.Status, strconv.Itoa(s.Tasks), hoursOrNA(s.AvgEstimate), hoursOrNA(s.AvgTimeLogged)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func DevelopersTable(w io.Writer, developers []models.Developer) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Email", "Group"})

	var data [][]string
	for _, d := range developers {
		data = append(data, []string{d.Name, d.Email, string(d.GroupType)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Report prints the overview, the per-tool summary and developer stats.
func Report(w io.Writer, r *query.Report) error {
	Title(w, "AI metrics report (%s)", r.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Commits: %d   Activities: %d   Developers: %d   Jira tasks: %d   Avg commit time: %s\n\n",
		r.Overview.TotalCommits, r.Overview.TotalActivities, r.Overview.TotalDevelopers,
		r.Overview.TotalJiraTasks, minutesOrNA(r.Overview.AvgCommitTime))

	summary := tablewriter.NewWriter(w)
	summary.Header([]string{"AI Tool", "Commits", "Avg Time", "Activities", "Activity Time"})
	summary.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, s := range r.SummaryByTool {
		data = append(data, []string{
			s.AITool, strconv.Itoa(s.TotalCommits), fmt.Sprintf("%.0fmin", s.AvgTimeMinutes),
			strconv.Itoa(s.TotalActivities), fmt.Sprintf("%dmin", s.TotalTimeMinutes),
		})
	}
	if err := summary.Bulk(data); err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return err
	}

	if len(r.DeveloperStats) == 0 {
		Dim(w, "\nNo developers registered (see `aimetrics developers add`).")
		return nil
	}

	fmt.Fprintln(w)
	devs := tablewriter.NewWriter(w)
	devs.Header([]string{"Developer", "Group", "Commits", "Activities", "Avg Time", "Total Hours"})
	devs.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data = nil
	for _, d := range r.DeveloperStats {
		data = append(data, []string{
			d.Email, d.GroupType, strconv.Itoa(d.TotalCommits), strconv.Itoa(d.TotalActivities),
			minutesOrNA(d.AvgTimePerCommit), fmt.Sprintf("%.1fh", d.TotalTimeHours),
		})
	}
	if err := devs.Bulk(data); err != nil {
		return err
	}
	return devs.Render()
}

func minutesOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0fmin", *v)
}

func hoursOrNA(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1fh", *v)
}
