// Package estimate derives time spent on a commit from the gap to the
// same author's previous commit.
package estimate

import (
	"math"
	"sort"
	"time"
)

const (
	// AmbiguousAfter is the largest gap, in minutes, counted without asking.
	AmbiguousAfter = 120
	// IdleAfter is the largest gap, in minutes, still attributed to the commit.
	IdleAfter = 480
)

type Kind int

const (
	// NoBaseline means the author has no earlier commit in the history.
	NoBaseline Kind = iota
	Counted
	Ambiguous
	Idle
)

func (k Kind) String() string {
	switch k {
	case NoBaseline:
		return "no-baseline"
	case Counted:
		return "counted"
	case Ambiguous:
		return "ambiguous"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

type Estimate struct {
	Kind    Kind
	Minutes int // raw gap; zero for NoBaseline
}

// TimeSpent is the value stored on the commit. Ambiguous gaps keep the raw
// minutes whatever the resolver decides.
func (e Estimate) TimeSpent() *int {
	switch e.Kind {
	case Counted, Ambiguous:
		m := e.Minutes
		return &m
	default:
		return nil
	}
}

// DiffMinutes floors the gap to whole minutes. Out-of-order timestamps give
// a negative result.
func DiffMinutes(current, prior time.Time) int {
	ms := current.Sub(prior).Milliseconds()
	return int(math.Floor(float64(ms) / 60000))
}

func Classify(current time.Time, prior *time.Time) Estimate {
	if prior == nil {
		return Estimate{Kind: NoBaseline}
	}

	diff := DiffMinutes(current, *prior)
	switch {
	case diff > IdleAfter:
		return Estimate{Kind: Idle, Minutes: diff}
	case diff > AmbiguousAfter:
		return Estimate{Kind: Ambiguous, Minutes: diff}
	default:
		return Estimate{Kind: Counted, Minutes: diff}
	}
}

// Point is one commit of the history as seen by the prior index.
type Point struct {
	Author string
	At     time.Time
}

// Priors returns, for every point, the index of the same author's next
// older point, or -1. Each author's points are ordered by time, newest
// first; equal timestamps keep their delivered order.
func Priors(points []Point) []int {
	byAuthor := make(map[string][]int)
	for i, p := range points {
		byAuthor[p.Author] = append(byAuthor[p.Author], i)
	}

	priors := make([]int, len(points))
	for _, idx := range byAuthor {
		sort.SliceStable(idx, func(a, b int) bool {
			return points[idx[a]].At.After(points[idx[b]].At)
		})
		for k, i := range idx {
			if k+1 < len(idx) {
				priors[i] = idx[k+1]
			} else {
				priors[i] = -1
			}
		}
	}

	return priors
}
