package models

import (
	"strings"
	"time"
)

// AITool is the assistant a developer declared for a commit or activity.
type AITool string

const (
	AIToolCopilot AITool = "copilot"
	AIToolDevin   AITool = "devin"
	AIToolNone    AITool = "no-ai"
)

// AITools lists the accepted tools in display order.
var AITools = []AITool{AIToolCopilot, AIToolDevin, AIToolNone}

// ParseAITool matches case-insensitively against the known tools.
func ParseAITool(s string) (AITool, bool) {
	for _, t := range AITools {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

type ActivityType string

const (
	ActivityResearch      ActivityType = "research"
	ActivityMeeting       ActivityType = "meeting"
	ActivityCodeReview    ActivityType = "code-review"
	ActivityDocumentation ActivityType = "documentation"
	ActivityPlanning      ActivityType = "planning"
	ActivityOther         ActivityType = "other"
)

var ActivityTypes = []ActivityType{
	ActivityResearch,
	ActivityMeeting,
	ActivityCodeReview,
	ActivityDocumentation,
	ActivityPlanning,
	ActivityOther,
}

func ParseActivityType(s string) (ActivityType, bool) {
	for _, t := range ActivityTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Commit is one analyzed git commit whose message follows the commit
// convention.
type Commit struct {
	Hash             string
	AuthorName       string // not persisted
	AuthorEmail      string
	Message          string
	Timestamp        time.Time
	CommitType       string
	JiraID           *string
	AITool           AITool
	TimeSpentMinutes *int
}

type Activity struct {
	ID              int64
	AuthorEmail     string
	Description     string
	ResearchLinks   []string // stored as JSON, NULL when empty
	Timestamp       time.Time
	AITool          AITool
	DurationMinutes int
	ActivityType    ActivityType
}

type JiraTask struct {
	Key             string
	Title           string
	EstimateHours   *float64
	TimeLoggedHours *float64
	Status          string
	AssigneeEmail   *string
	CreatedDate     *time.Time
	CompletedDate   *time.Time
}

type Developer struct {
	Email     string
	Name      string
	GroupType AITool
}
