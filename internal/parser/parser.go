package parser

import (
	"regexp"
	"strings"

	"github.com/emilianohg/aimetrics/internal/models"
)

// Example is the canonical message shown to developers when a commit is rejected.
const Example = "[feat/BANK-123][copilot] - Add login validation"

// messagePattern matches "[type/JIRA-ID][tool] - description".
var messagePattern = regexp.MustCompile(`(?i)^\[([^/]+)/([^\]]+)\]\[(copilot|devin|no-ai)\]\s*-?\s*(.+)$`)

type ParsedCommit struct {
	CommitType  string
	JiraID      string
	AITool      models.AITool
	Description string
	IsValid     bool
}

// Parse classifies a commit message. A message that does not match the
// grammar comes back with IsValid false and the raw message as Description.
func Parse(message string) ParsedCommit {
	match := messagePattern.FindStringSubmatch(message)
	if match == nil {
		return ParsedCommit{Description: message}
	}

	return ParsedCommit{
		CommitType:  strings.TrimSpace(match[1]),
		JiraID:      strings.ToUpper(strings.TrimSpace(match[2])),
		AITool:      models.AITool(strings.ToLower(match[3])),
		Description: strings.TrimSpace(match[4]),
		IsValid:     true,
	}
}

// Tool returns the parsed tool, or no-ai when the message was rejected.
func (p ParsedCommit) Tool() models.AITool {
	if p.AITool == "" {
		return models.AIToolNone
	}
	return p.AITool
}
