// Package track records activities entered by hand: meetings, reviews,
// research and other work that leaves no commit behind.
package track

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/repository"
	"github.com/emilianohg/aimetrics/internal/resolver"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrEmptyDescription    = errors.New("description is required")
	ErrInvalidDuration     = errors.New("duration must be a positive number of minutes")
	ErrUnknownAITool       = errors.New("unknown AI tool")
	ErrUnknownActivityType = errors.New("unknown activity type")
)

func ValidateEmail(s string) error {
	if !emailPattern.MatchString(strings.TrimSpace(s)) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// ParseDuration accepts a positive whole number of minutes.
func ParseDuration(s string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || minutes <= 0 {
		return 0, ErrInvalidDuration
	}
	return minutes, nil
}

// Answers is what the operator typed, before validation.
type Answers struct {
	Email        string
	AITool       string
	ActivityType string
	Description  string
	Duration     string
	Links        string
}

// Activity validates the answers and builds the row, stamped at now.
func (a Answers) Activity(now time.Time) (models.Activity, error) {
	if err := ValidateEmail(a.Email); err != nil {
		return models.Activity{}, err
	}
	tool, ok := models.ParseAITool(a.AITool)
	if !ok {
		return models.Activity{}, fmt.Errorf("%w: %q", ErrUnknownAITool, a.AITool)
	}
	activityType, ok := models.ParseActivityType(a.ActivityType)
	if !ok {
		return models.Activity{}, fmt.Errorf("%w: %q", ErrUnknownActivityType, a.ActivityType)
	}
	if err := ValidateDescription(a.Description); err != nil {
		return models.Activity{}, err
	}
	minutes, err := ParseDuration(a.Duration)
	if err != nil {
		return models.Activity{}, err
	}

	return models.Activity{
		AuthorEmail:     strings.TrimSpace(a.Email),
		Description:     strings.TrimSpace(a.Description),
		ResearchLinks:   resolver.NormalizeLinks(a.Links),
		Timestamp:       now.UTC(),
		AITool:          tool,
		DurationMinutes: minutes,
		ActivityType:    activityType,
	}, nil
}

type Store interface {
	Create(a *models.Activity) (int64, error)
	DaySummary(email string, day time.Time) (repository.DaySummary, error)
}

// Record saves the activity and returns the author's totals for today.
func Record(store Store, answers Answers, now time.Time) (*models.Activity, repository.DaySummary, error) {
	activity, err := answers.Activity(now)
	if err != nil {
		return nil, repository.DaySummary{}, err
	}

	if _, err := store.Create(&activity); err != nil {
		return nil, repository.DaySummary{}, fmt.Errorf("failed to save activity: %w", err)
	}

	summary, err := store.DaySummary(activity.AuthorEmail, now)
	if err != nil {
		return &activity, repository.DaySummary{}, fmt.Errorf("failed to load today's summary: %w", err)
	}

	return &activity, summary, nil
}
