package labs

import (
	"math"
	"sort"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

const maxTopServices = 7

// ComputeStats derives the dashboard aggregates from a lab snapshot.
func ComputeStats(all []models.Lab) models.StatsResponse {
	stats := models.StatsResponse{
		TotalLabs:           len(all),
		ByStatus:            []models.StatusCount{},
		AvgTimeByDifficulty: []models.DifficultyTime{},
		TopServices:         []models.ServiceCount{},
	}

	statusCounts := make(map[models.LabStatus]int)
	timeSum := make(map[models.Difficulty]int)
	timeCount := make(map[models.Difficulty]int)
	serviceCounts := make(map[string]int)
	var serviceOrder []string

	for _, l := range all {
		statusCounts[l.Status]++
		timeSum[l.Difficulty] += l.EstimatedTime
		timeCount[l.Difficulty]++
		for _, svc := range l.GCPServices {
			if _, seen := serviceCounts[svc]; !seen {
				serviceOrder = append(serviceOrder, svc)
			}
			serviceCounts[svc]++
		}
		stats.StepsTotal += len(l.Steps)
		stats.StepsCompleted += l.CompletedSteps()
	}

	for _, s := range models.LabStatuses {
		if n := statusCounts[s]; n > 0 {
			stats.ByStatus = append(stats.ByStatus, models.StatusCount{Status: s, Count: n})
		}
	}

	for _, d := range models.Difficulties {
		n := timeCount[d]
		if n == 0 {
			continue
		}
		avg := int(math.Round(float64(timeSum[d]) / float64(n)))
		stats.AvgTimeByDifficulty = append(stats.AvgTimeByDifficulty, models.DifficultyTime{
			Difficulty:     d,
			AverageMinutes: avg,
			Labs:           n,
		})
	}

	for _, svc := range serviceOrder {
		stats.TopServices = append(stats.TopServices, models.ServiceCount{Service: svc, Count: serviceCounts[svc]})
	}
	sort.SliceStable(stats.TopServices, func(i, j int) bool {
		return stats.TopServices[i].Count > stats.TopServices[j].Count
	})
	if len(stats.TopServices) > maxTopServices {
		stats.TopServices = stats.TopServices[:maxTopServices]
	}

	return stats
}
