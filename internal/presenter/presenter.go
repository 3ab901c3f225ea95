// Package presenter renders check results and history for the terminal.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

// Presenter writes results as a table or as JSON
type Presenter struct {
	out   io.Writer
	color bool
	now   func() time.Time
}

// New creates a presenter for out. Colors are enabled when out is a terminal.
func New(out io.Writer) *Presenter {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Presenter{out: out, color: useColor && !color.NoColor, now: time.Now}
}

func (p *Presenter) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// Results renders one row per result, in order. Commits made today are
// highlighted in green and failures in red.
func (p *Presenter) Results(results []domain.CheckResult) {
	if len(results) == 0 {
		fmt.Fprintln(p.out, "No results")
		return
	}

	now := p.now()
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Project", "Branch", "Author", "Committed", "Commit", "Message"})
	table.SetAutoWrapText(false)

	for _, r := range results {
		if !r.Success() {
			msg := r.Error
			if msg == "" {
				msg = "check failed"
			}
			table.Append([]string{r.Target.Path, r.Target.Branch, "-", "-", "-", p.paint(color.FgRed, "error: "+msg)})
			continue
		}

		c := r.Commit
		when, today := FormatTime(c.CommittedDate, now)
		if today {
			when = p.paint(color.FgGreen, when)
		} else {
			when = p.paint(color.FgYellow, when)
		}
		table.Append([]string{
			r.Target.Path,
			r.Target.Branch,
			orDefault(c.AuthorName, "unknown"),
			when,
			orDefault(c.ShortID, "-"),
			orDefault(firstLine(c.Message), "(no message)"),
		})
	}
	table.Render()
}

// Summary prints a one-line count of successes and failures
func (p *Presenter) Summary(batch *domain.Batch) {
	failed := batch.Failed()
	line := fmt.Sprintf("%d checked, %d ok, %d failed in %s",
		len(batch.Results),
		len(batch.Results)-failed,
		failed,
		batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond),
	)
	if failed > 0 {
		line = p.paint(color.FgRed, line)
	}
	fmt.Fprintln(p.out, line)
}

// History renders history records, newest first
func (p *Presenter) History(records []*domain.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.out, "No history")
		return
	}

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"#", "Time", "GitLab URL", "Projects"})
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	for i, r := range records {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.Time,
			r.GitLabURL,
			strings.Join(r.Projects, "\n"),
		})
	}
	table.Render()
}

// JSON writes v as indented JSON
func (p *Presenter) JSON(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
