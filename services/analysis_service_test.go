package services

import (
	"strings"
	"testing"
)

func TestNormalizeLabelsMapsKnownFoods(t *testing.T) {
	labels := []DetectedLabel{
		{Name: "Food", Confidence: 99},
		{Name: "Pizza", Confidence: 92},
		{Name: "Salad", Confidence: 74},
	}

	got := NormalizeLabels(labels)

	if got.NeedClarification {
		t.Fatal("recognized foods should not need clarification")
	}
	if len(got.Foods) != 2 {
		t.Fatalf("expected 2 foods, got %d", len(got.Foods))
	}
	if got.Foods[0].Name != "pizza" {
		t.Errorf("foods should sort by confidence, got %+v", got.Foods)
	}
	if got.TotalCalories != 285+65 {
		t.Errorf("expected totals summed, got %.1f", got.TotalCalories)
	}
}

func TestNormalizeLabelsSubstringMatch(t *testing.T) {
	got := NormalizeLabels([]DetectedLabel{{Name: "Fried Rice", Confidence: 90}})
	if len(got.Foods) != 1 || got.Foods[0].Name != "rice" {
		t.Errorf("compound labels should match their base food, got %+v", got.Foods)
	}
}

func TestNormalizeLabelsDeduplicates(t *testing.T) {
	got := NormalizeLabels([]DetectedLabel{
		{Name: "Rice", Confidence: 70},
		{Name: "Fried Rice", Confidence: 90},
	})
	if len(got.Foods) != 1 {
		t.Fatalf("duplicate matches should collapse, got %d foods", len(got.Foods))
	}
	if got.Foods[0].Confidence != 0.9 {
		t.Errorf("dedup should keep the highest confidence, got %.2f", got.Foods[0].Confidence)
	}
	if got.TotalCalories != 205 {
		t.Errorf("nutrition must count once, got %.1f", got.TotalCalories)
	}
}

func TestNormalizeLabelsAsksWhenFoodIsUnidentifiable(t *testing.T) {
	got := NormalizeLabels([]DetectedLabel{
		{Name: "Food", Confidence: 95},
		{Name: "Plate", Confidence: 90},
	})
	if !got.NeedClarification {
		t.Fatal("generic food labels alone should ask for clarification")
	}
	if !strings.Contains(got.Question, "couldn't identify") {
		t.Errorf("question should admit recognition failed, got: %s", got.Question)
	}
}

func TestNormalizeLabelsAsksWhenNoFoodAtAll(t *testing.T) {
	got := NormalizeLabels([]DetectedLabel{{Name: "Laptop", Confidence: 97}})
	if !got.NeedClarification {
		t.Fatal("non-food photos should ask for clarification")
	}
	if !strings.Contains(got.Question, "couldn't find any food") {
		t.Errorf("question should say no food was found, got: %s", got.Question)
	}
}

func TestEstimateFoodsByName(t *testing.T) {
	got := EstimateFoodsByName([]string{"pizza", "mystery stew"})

	if got.NeedClarification {
		t.Fatal("explicit food names should never need clarification")
	}
	if len(got.Foods) != 2 {
		t.Fatalf("expected 2 foods, got %d", len(got.Foods))
	}
	if got.Foods[0].Calories != 285 {
		t.Errorf("known foods use reference nutrition, got %.1f", got.Foods[0].Calories)
	}
	if got.Foods[1].Calories != 200 || got.Foods[1].Confidence != 0.3 {
		t.Errorf("unknown foods get the conservative estimate, got %+v", got.Foods[1])
	}
}

func TestEstimateFoodsByNameEmpty(t *testing.T) {
	got := EstimateFoodsByName([]string{" ", ""})
	if !got.NeedClarification {
		t.Error("blank input should ask again")
	}
}
