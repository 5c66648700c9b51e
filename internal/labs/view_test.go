package labs

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

func viewFixture() []models.Lab {
	return []models.Lab{
		{ID: "a", Title: "Cloud Run basics", Status: models.StatusNotStarted, Difficulty: models.DifficultyBeginner, EstimatedTime: 60},
		{ID: "b", Title: "GKE networking", Status: models.StatusInProgress, Difficulty: models.DifficultyAdvanced, EstimatedTime: 45},
		{ID: "c", Title: "cloud storage", Status: models.StatusCompleted, Difficulty: models.DifficultyBeginner, EstimatedTime: 60},
		{ID: "d", Title: "BigQuery", Status: models.StatusMastered, Difficulty: models.DifficultyExpert, EstimatedTime: 30},
		{ID: "e", Title: "Cloud IAM", Status: models.StatusInProgress, Difficulty: models.DifficultyIntermediate, EstimatedTime: 45},
	}
}

func ids(labs []models.Lab) []string {
	out := make([]string, len(labs))
	for i, l := range labs {
		out[i] = l.ID
	}
	return out
}

func TestViewSearch(t *testing.T) {
	all := viewFixture()

	for _, term := range []string{"cloud", "CLOUD", "gke", "q", "", "nothing matches"} {
		t.Run(term, func(t *testing.T) {
			got := View(all, Query{Search: term})
			included := make(map[string]bool)
			for _, l := range got {
				included[l.ID] = true
				if !strings.Contains(strings.ToLower(l.Title), strings.ToLower(term)) {
					t.Errorf("%s does not contain %q", l.Title, term)
				}
			}
			for _, l := range all {
				if strings.Contains(strings.ToLower(l.Title), strings.ToLower(term)) && !included[l.ID] {
					t.Errorf("%s contains %q but was excluded", l.Title, term)
				}
			}
		})
	}
}

func TestViewEmptyFiltersIncludeAll(t *testing.T) {
	all := viewFixture()
	none := View(all, Query{})
	empty := View(all, Query{Statuses: []models.LabStatus{}, Difficulties: []models.Difficulty{}})

	if !reflect.DeepEqual(ids(none), ids(all)) {
		t.Errorf("expected all labs without filters, got %v", ids(none))
	}
	if !reflect.DeepEqual(ids(none), ids(empty)) {
		t.Errorf("empty filter sets differ from no filtering: %v vs %v", ids(empty), ids(none))
	}
}

func TestViewFilters(t *testing.T) {
	all := viewFixture()
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"status", Query{Statuses: []models.LabStatus{models.StatusInProgress}}, []string{"b", "e"}},
		{"difficulty", Query{Difficulties: []models.Difficulty{models.DifficultyBeginner, models.DifficultyExpert}}, []string{"a", "c", "d"}},
		{"combined", Query{Search: "cloud", Statuses: []models.LabStatus{models.StatusInProgress}}, []string{"e"}},
		{"no matches", Query{Statuses: []models.LabStatus{models.StatusReviewNeeded}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := View(all, tt.q)
			if got == nil {
				t.Fatal("View returned nil")
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestViewSort(t *testing.T) {
	all := viewFixture()
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortDefault, []string{"a", "b", "c", "d", "e"}},
		{SortTitle, []string{"d", "e", "a", "c", "b"}},
		{SortStatus, []string{"c", "b", "e", "d", "a"}},
		{SortDifficulty, []string{"b", "a", "c", "d", "e"}},
		// equal times keep input order: b before e, a before c
		{SortEstimatedTime, []string{"d", "b", "e", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := View(all, Query{Sort: tt.key})
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}

	if !reflect.DeepEqual(ids(all), []string{"a", "b", "c", "d", "e"}) {
		t.Error("View mutated its input")
	}
}

func TestParseQueryParams(t *testing.T) {
	if k, err := ParseSortKey("EstimatedTime"); err != nil || k != SortEstimatedTime {
		t.Errorf("ParseSortKey: got %q, %v", k, err)
	}
	if k, err := ParseSortKey(""); err != nil || k != SortDefault {
		t.Errorf("empty sort: got %q, %v", k, err)
	}
	if _, err := ParseSortKey("popularity"); !errors.Is(err, ErrUnknownSort) {
		t.Errorf("expected ErrUnknownSort, got %v", err)
	}

	statuses, err := ParseStatuses("in progress, Mastered")
	if err != nil {
		t.Fatalf("ParseStatuses: %v", err)
	}
	if !reflect.DeepEqual(statuses, []models.LabStatus{models.StatusInProgress, models.StatusMastered}) {
		t.Errorf("unexpected statuses %v", statuses)
	}
	if _, err := ParseStatuses("Done"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}

	if d, err := ParseDifficulties(""); err != nil || len(d) != 0 {
		t.Errorf("empty difficulty list: got %v, %v", d, err)
	}
	if _, err := ParseDifficulties("Beginner,Insane"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Errorf("expected ErrUnknownDifficulty, got %v", err)
	}
}
