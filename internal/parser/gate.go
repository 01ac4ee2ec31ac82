package parser

import (
	"regexp"
	"strings"

	"github.com/benvon/smart-worklog/internal/segmenter"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

// UsageMessage is sent back when text is not a recognizable command
const UsageMessage = `Извини, я понимаю только команды в формате:
Занеси в Clockify
Проект: <название проекта>
Работа:  <описание задачи>
Время начала: <время начала>
Длительность: <в часах или минутах>`

var (
	commandPrefix = regexp.MustCompile(`(?:^|\s)(?:занеси|занести|добавь|добавить)\s+.*cl(?:o|oc)kify(?:\s|$)|(?:^|\s)add\s+to\s+clockify(?:\s|$)`)
	projectLabel  = regexp.MustCompile(`(?:^|\s)(?:проект|project)(?:\s|:|$)`)
	taskLabel     = regexp.MustCompile(`(?:^|\s)(?:работа|задача|task)(?:\s|:|$)`)
	startLabel    = regexp.MustCompile(`(?:^|\s)(?:время начала|начало|start)(?:\s|:|$)`)
	durationLabel = regexp.MustCompile(`(?:^|\s)(?:длительность|duration)(?:\s|:|$)`)
	reportRequest = regexp.MustCompile(`(?:^|\s)(?:пришли\s+отчет|send\s+report)(?:\s|$)`)
)

// LooksLikeCommand reports whether typed text is worth parsing: it opens
// with a tracking trigger, uses the slash form, or labels the project, the
// task and a start or duration
func LooksLikeCommand(text string) bool {
	source := strings.ToLower(segmenter.Prepare(textnorm.RepairMojibake(text)))
	if source == "" {
		return false
	}
	if commandPrefix.MatchString(source) || strings.Contains(source, "/") {
		return true
	}
	return projectLabel.MatchString(source) &&
		taskLabel.MatchString(source) &&
		(startLabel.MatchString(source) || durationLabel.MatchString(source))
}

// IsReportCommand reports whether text asks for a report rather than logging work
func IsReportCommand(text string) bool {
	source := textnorm.CompareForm(text)
	return source != "" && reportRequest.MatchString(source)
}
