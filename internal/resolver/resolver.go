// Package resolver decides what happens to an ambiguous gap between two
// commits of the same author.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emilianohg/aimetrics/internal/models"
)

var ErrEmptyDescription = errors.New("description is required when recording an activity")

// Gap is the ambiguous interval presented to the resolver.
type Gap struct {
	AuthorName  string
	AuthorEmail string
	Start       time.Time // prior commit
	End         time.Time // current commit
	Minutes     int
	AITool      models.AITool // tool of the current commit
}

// Hours is the gap floored to whole hours, as shown in prompts.
func (g Gap) Hours() int {
	return g.Minutes / 60
}

// Decision is the answer for one gap. Links are already normalised.
type Decision struct {
	Record      bool
	Description string
	Links       []string
}

func (d Decision) Validate() error {
	if d.Record && strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// Activity builds the research activity recorded for an accepted gap.
func (d Decision) Activity(gap Gap) models.Activity {
	tool := gap.AITool
	if tool == "" {
		tool = models.AIToolNone
	}
	return models.Activity{
		AuthorEmail:     gap.AuthorEmail,
		Description:     strings.TrimSpace(d.Description),
		ResearchLinks:   d.Links,
		Timestamp:       gap.Start,
		AITool:          tool,
		DurationMinutes: gap.Minutes,
		ActivityType:    models.ActivityResearch,
	}
}

type Resolver interface {
	Resolve(ctx context.Context, gap Gap) (Decision, error)
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, gap Gap) (Decision, error)

func (f Func) Resolve(ctx context.Context, gap Gap) (Decision, error) {
	return f(ctx, gap)
}

// Decline answers "no" to every gap. Used when nobody can be asked.
type Decline struct{}

func (Decline) Resolve(ctx context.Context, gap Gap) (Decision, error) {
	return Decision{}, ctx.Err()
}

// Scripted replays a fixed list of decisions in order and records the gaps
// it was asked about. Running out of answers is an error.
type Scripted struct {
	Decisions []Decision
	Asked     []Gap
}

func (s *Scripted) Resolve(_ context.Context, gap Gap) (Decision, error) {
	s.Asked = append(s.Asked, gap)
	if len(s.Asked) > len(s.Decisions) {
		return Decision{}, fmt.Errorf("no scripted decision for gap %d of %s", len(s.Asked), gap.AuthorEmail)
	}
	return s.Decisions[len(s.Asked)-1], nil
}

// NormalizeLinks splits a comma separated list, trimming entries and
// dropping empty ones. It returns nil when nothing is left.
func NormalizeLinks(raw string) []string {
	var links []string
	for _, part := range strings.Split(raw, ",") {
		if link := strings.TrimSpace(part); link != "" {
			links = append(links, link)
		}
	}
	return links
}
