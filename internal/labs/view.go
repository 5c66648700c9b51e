package labs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

var (
	ErrUnknownSort       = errors.New("unknown sort key")
	ErrUnknownStatus     = errors.New("unknown lab status")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// SortKey selects the ordering of the derived view.
type SortKey string

const (
	SortDefault       SortKey = "default"
	SortTitle         SortKey = "title"
	SortStatus        SortKey = "status"
	SortDifficulty    SortKey = "difficulty"
	SortEstimatedTime SortKey = "estimatedTime"
)

// SortKeys lists every key in the order the dashboard cycles through them.
var SortKeys = []SortKey{SortDefault, SortTitle, SortStatus, SortDifficulty, SortEstimatedTime}

// Query is the user-controlled input to View. Empty filter sets mean no
// filtering.
type Query struct {
	Search       string
	Statuses     []models.LabStatus
	Difficulties []models.Difficulty
	Sort         SortKey
}

// View filters and sorts all into the sequence to display. It never mutates
// its input and never returns nil.
func View(all []models.Lab, q Query) []models.Lab {
	term := strings.ToLower(q.Search)

	statuses := make(map[models.LabStatus]bool, len(q.Statuses))
	for _, s := range q.Statuses {
		statuses[s] = true
	}
	difficulties := make(map[models.Difficulty]bool, len(q.Difficulties))
	for _, d := range q.Difficulties {
		difficulties[d] = true
	}

	out := make([]models.Lab, 0, len(all))
	for _, l := range all {
		if term != "" && !strings.Contains(strings.ToLower(l.Title), term) {
			continue
		}
		if len(statuses) > 0 && !statuses[l.Status] {
			continue
		}
		if len(difficulties) > 0 && !difficulties[l.Difficulty] {
			continue
		}
		out = append(out, l)
	}

	var less func(a, b models.Lab) bool
	switch q.Sort {
	case SortTitle:
		less = func(a, b models.Lab) bool { return lowerLess(a.Title, b.Title) }
	case SortStatus:
		less = func(a, b models.Lab) bool { return lowerLess(string(a.Status), string(b.Status)) }
	case SortDifficulty:
		less = func(a, b models.Lab) bool { return lowerLess(string(a.Difficulty), string(b.Difficulty)) }
	case SortEstimatedTime:
		less = func(a, b models.Lab) bool { return a.EstimatedTime < b.EstimatedTime }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func lowerLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// ParseSortKey maps a query value to a SortKey. Empty means default.
func ParseSortKey(v string) (SortKey, error) {
	if v == "" {
		return SortDefault, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(v, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, v)
}

// ParseStatuses parses a comma-separated status list, matching values
// case-insensitively.
func ParseStatuses(v string) ([]models.LabStatus, error) {
	var out []models.LabStatus
	for _, part := range splitList(v) {
		matched := false
		for _, s := range models.LabStatuses {
			if strings.EqualFold(part, string(s)) {
				out = append(out, s)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, part)
		}
	}
	return out, nil
}

// ParseDifficulties parses a comma-separated difficulty list.
func ParseDifficulties(v string) ([]models.Difficulty, error) {
	var out []models.Difficulty
	for _, part := range splitList(v) {
		matched := false
		for _, d := range models.Difficulties {
			if strings.EqualFold(part, string(d)) {
				out = append(out, d)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, part)
		}
	}
	return out, nil
}

func splitList(v string) []string {
	var parts []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
