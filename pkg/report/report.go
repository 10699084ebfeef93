// Package report renders a finished run into the human-readable artifact the
// run leaves behind: the ordered event log, per-component outcomes, and a
// machine-parseable summary block.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"

	"github.com/toolforge/toolforge/pkg/engine"
	"github.com/toolforge/toolforge/pkg/telemetry"
)

// DefaultPath is where the report is written when the caller does not
// override it.
const DefaultPath = "toolforge-report.log"

// Summary is the machine-parseable tail of the report.
type Summary struct {
	RunID          string    `yaml:"run_id"`
	Profile        string    `yaml:"profile"`
	Status         string    `yaml:"status"`
	StartedAt      time.Time `yaml:"started_at"`
	CompletedAt    time.Time `yaml:"completed_at"`
	Total          int       `yaml:"total"`
	Succeeded      int       `yaml:"succeeded"`
	AlreadyPresent int       `yaml:"already_present"`
	Failed         int       `yaml:"failed"`
	Skipped        int       `yaml:"skipped"`
}

// Report is a finished run prepared for rendering.
type Report struct {
	Summary Summary
	Results []engine.ComponentResult
	Events  []engine.Event
	Metrics *telemetry.Metrics
}

// Build assembles a report from the run state and its event log.
func Build(state *engine.RunState, status engine.RunStatus, events []engine.Event, metrics *telemetry.Metrics) *Report {
	s := state.Summary()
	return &Report{
		Summary: Summary{
			RunID:          state.RunID,
			Profile:        string(state.Profile),
			Status:         string(status),
			StartedAt:      state.StartedAt,
			CompletedAt:    state.CompletedAt,
			Total:          s.Total,
			Succeeded:      s.Succeeded,
			AlreadyPresent: s.AlreadyPresent,
			Failed:         s.Failed,
			Skipped:        s.Skipped,
		},
		Results: state.Results(),
		Events:  events,
		Metrics: metrics,
	}
}

// Render produces the full report text.
func (r *Report) Render() (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "toolforge run %s\n", r.Summary.RunID)
	fmt.Fprintf(&b, "profile: %s\n", r.Summary.Profile)
	fmt.Fprintf(&b, "status: %s\n\n", r.Summary.Status)

	b.WriteString("== components ==\n")
	for _, res := range r.Results {
		b.WriteString(resultLine(res))
		b.WriteByte('\n')
	}

	b.WriteString("\n== events ==\n")
	for _, e := range r.Events {
		b.WriteString(eventLine(e))
		b.WriteByte('\n')
	}

	if r.Metrics != nil {
		families, err := r.Metrics.Gather()
		if err != nil {
			return "", fmt.Errorf("failed to gather metrics: %w", err)
		}
		if len(families) > 0 {
			b.WriteString("\n== metrics ==\n")
			var buf bytes.Buffer
			for _, mf := range families {
				if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
					return "", fmt.Errorf("failed to render metrics: %w", err)
				}
			}
			b.Write(buf.Bytes())
		}
	}

	summary, err := yaml.Marshal(r.Summary)
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	b.WriteString("\n== summary ==\n")
	b.Write(summary)

	return b.String(), nil
}

// Persist writes the rendered report to path. When rendering fails the raw
// event log is written instead; a run must never finish without leaving an
// artifact behind.
func (r *Report) Persist(path string) error {
	if path == "" {
		path = DefaultPath
	}

	text, err := r.Render()
	if err != nil {
		raw := r.rawEventLog()
		if werr := os.WriteFile(path, []byte(raw), 0o644); werr != nil {
			return fmt.Errorf("failed to write raw report after render failure (%v): %w", err, werr)
		}
		return fmt.Errorf("report rendering failed, raw event log written to %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// rawEventLog is the degraded rendering used when the full report cannot be
// produced.
func (r *Report) rawEventLog() string {
	var b strings.Builder
	fmt.Fprintf(&b, "toolforge run %s (raw event log)\n", r.Summary.RunID)
	for _, e := range r.Events {
		b.WriteString(eventLine(e))
		b.WriteByte('\n')
	}
	return b.String()
}

func resultLine(res engine.ComponentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %s", res.ComponentID, res.Status)
	switch res.Status {
	case engine.StatusSuccess:
		fmt.Fprintf(&b, " (method %s", res.Method)
		if res.Version != "" {
			fmt.Fprintf(&b, ", version %s", res.Version)
		}
		b.WriteString(")")
	case engine.StatusAlreadyPresent:
		if res.Version != "" {
			fmt.Fprintf(&b, " (version %s)", res.Version)
		}
	case engine.StatusFailed:
		if res.Diagnostic != "" {
			fmt.Fprintf(&b, ": %s", res.Diagnostic)
		}
	case engine.StatusSkipped:
		fmt.Fprintf(&b, " (%s)", res.SkipReason)
	}
	return b.String()
}

func eventLine(e engine.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-10s", e.Timestamp.Format(time.RFC3339), e.Phase)
	if e.ComponentID != "" {
		fmt.Fprintf(&b, " %s", e.ComponentID)
	}
	if e.Method != "" {
		fmt.Fprintf(&b, " [%s]", e.Method)
	}
	if e.Diagnostic != "" {
		fmt.Fprintf(&b, " %s", e.Diagnostic)
	}
	return b.String()
}
