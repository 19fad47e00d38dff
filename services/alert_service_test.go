package services

import (
	"testing"
	"time"

	"backend/models"
)

func TestAlertTTL(t *testing.T) {
	cases := []struct {
		alertType string
		want      time.Duration
	}{
		{models.AlertNutritionGap, 7 * 24 * time.Hour},
		{models.AlertCalorieExcess, 7 * 24 * time.Hour},
		{models.AlertPatternConcern, 7 * 24 * time.Hour},
		{models.AlertGoalDeviation, 3 * 24 * time.Hour},
		{models.AlertHealthRisk, 14 * 24 * time.Hour},
	}
	for _, tc := range cases {
		if got := AlertTTL(tc.alertType); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.alertType, tc.want, got)
		}
	}
}

func TestSortAlertsSeverityThenRecency(t *testing.T) {
	now := time.Now()
	alerts := []models.Alert{
		{Title: "old-medium", Severity: models.SeverityMedium, TriggeredAt: now.Add(-3 * time.Hour)},
		{Title: "new-low", Severity: models.SeverityLow, TriggeredAt: now},
		{Title: "old-high", Severity: models.SeverityHigh, TriggeredAt: now.Add(-5 * time.Hour)},
		{Title: "new-medium", Severity: models.SeverityMedium, TriggeredAt: now.Add(-1 * time.Hour)},
		{Title: "critical", Severity: models.SeverityCritical, TriggeredAt: now.Add(-24 * time.Hour)},
	}

	SortAlerts(alerts)

	want := []string{"critical", "old-high", "new-medium", "old-medium", "new-low"}
	for i, title := range want {
		if alerts[i].Title != title {
			t.Fatalf("position %d: expected %s, got %s", i, title, alerts[i].Title)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	order := []string{models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical}
	for i := 1; i < len(order); i++ {
		if models.SeverityRank(order[i]) <= models.SeverityRank(order[i-1]) {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if models.SeverityRank("bogus") != 0 {
		t.Errorf("unknown severity should rank 0")
	}
}
