package models

import (
	"time"
)

// ParseSource identifies which parser strategy produced a command
type ParseSource string

const (
	ParseSourceRules ParseSource = "rules"
	ParseSourceAI    ParseSource = "ai"
)

// CommandCandidate is the raw four-field split of a work-log command before
// temporal resolution
type CommandCandidate struct {
	ProjectQuery string `json:"project_query"`
	TaskQuery    string `json:"task_query"`
	StartRaw     string `json:"start_raw"`
	DurationRaw  string `json:"duration_raw"`
}

// Complete reports whether all four fields carry a value
func (c CommandCandidate) Complete() bool {
	return c.ProjectQuery != "" && c.TaskQuery != "" && c.StartRaw != "" && c.DurationRaw != ""
}

// ParsedCommand is a fully validated work-log command.
// End is always Start plus DurationMinutes.
type ParsedCommand struct {
	ProjectQuery    string      `json:"project_query"`
	TaskQuery       string      `json:"task_query"`
	DurationMinutes int         `json:"duration_minutes"`
	Start           time.Time   `json:"start"`
	End             time.Time   `json:"end"`
	Source          ParseSource `json:"source"`
}

// NewParsedCommand builds a ParsedCommand and derives End from Start and the duration
func NewParsedCommand(project, task string, start time.Time, durationMinutes int, source ParseSource) ParsedCommand {
	return ParsedCommand{
		ProjectQuery:    project,
		TaskQuery:       task,
		DurationMinutes: durationMinutes,
		Start:           start,
		End:             start.Add(time.Duration(durationMinutes) * time.Minute),
		Source:          source,
	}
}
