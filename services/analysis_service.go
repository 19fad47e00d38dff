package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// AnalyzedFood is one food recognized in a meal photo together with its
// estimated per-serving nutrition.
type AnalyzedFood struct {
	Name       string  `json:"name"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the normalized output of a meal photo analysis. When
// NeedClarification is set the caller should present Question to the user
// and resume the analysis session with their answer.
type AnalysisResult struct {
	Foods             []AnalyzedFood `json:"foods"`
	TotalCalories     float64        `json:"total_calories"`
	TotalProtein      float64        `json:"total_protein"`
	TotalCarbs        float64        `json:"total_carbs"`
	TotalFat          float64        `json:"total_fat"`
	NeedClarification bool           `json:"need_clarification"`
	Question          string         `json:"question,omitempty"`
}

// MealAnalyzer turns a meal photo into structured nutrition data.
type MealAnalyzer interface {
	AnalyzeImage(ctx context.Context, bucket, key string) (*AnalysisResult, error)
}

// RekognitionAnalyzer detects food labels in an S3 image and estimates
// nutrition from a reference table of common servings.
type RekognitionAnalyzer struct {
	client        *rekognition.Client
	minConfidence float32
}

func NewRekognitionAnalyzer(client *rekognition.Client) *RekognitionAnalyzer {
	return &RekognitionAnalyzer{client: client, minConfidence: 55}
}

// nutritionRef holds per-serving estimates for foods Rekognition commonly
// labels. Values are rough reference-serving numbers, not weighed portions.
var nutritionRef = map[string]AnalyzedFood{
	"rice":      {Name: "rice", Calories: 205, Protein: 4.3, Carbs: 45, Fat: 0.4},
	"bread":     {Name: "bread", Calories: 80, Protein: 3, Carbs: 15, Fat: 1},
	"pasta":     {Name: "pasta", Calories: 220, Protein: 8, Carbs: 43, Fat: 1.3},
	"noodles":   {Name: "noodles", Calories: 220, Protein: 7, Carbs: 40, Fat: 3},
	"pizza":     {Name: "pizza", Calories: 285, Protein: 12, Carbs: 36, Fat: 10},
	"burger":    {Name: "burger", Calories: 350, Protein: 17, Carbs: 33, Fat: 17},
	"sandwich":  {Name: "sandwich", Calories: 250, Protein: 11, Carbs: 28, Fat: 10},
	"chicken":   {Name: "chicken", Calories: 230, Protein: 27, Carbs: 0, Fat: 13},
	"beef":      {Name: "beef", Calories: 250, Protein: 26, Carbs: 0, Fat: 15},
	"pork":      {Name: "pork", Calories: 240, Protein: 26, Carbs: 0, Fat: 14},
	"fish":      {Name: "fish", Calories: 180, Protein: 25, Carbs: 0, Fat: 8},
	"egg":       {Name: "egg", Calories: 78, Protein: 6, Carbs: 0.6, Fat: 5},
	"salad":     {Name: "salad", Calories: 65, Protein: 2, Carbs: 8, Fat: 3},
	"soup":      {Name: "soup", Calories: 120, Protein: 6, Carbs: 14, Fat: 4},
	"curry":     {Name: "curry", Calories: 280, Protein: 14, Carbs: 20, Fat: 16},
	"fruit":     {Name: "fruit", Calories: 80, Protein: 1, Carbs: 20, Fat: 0.3},
	"banana":    {Name: "banana", Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4},
	"apple":     {Name: "apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3},
	"yogurt":    {Name: "yogurt", Calories: 120, Protein: 9, Carbs: 15, Fat: 2.5},
	"cheese":    {Name: "cheese", Calories: 110, Protein: 7, Carbs: 1, Fat: 9},
	"potato":    {Name: "potato", Calories: 160, Protein: 4, Carbs: 37, Fat: 0.2},
	"fries":     {Name: "fries", Calories: 320, Protein: 4, Carbs: 41, Fat: 15},
	"cake":      {Name: "cake", Calories: 350, Protein: 4, Carbs: 50, Fat: 15},
	"cookie":    {Name: "cookie", Calories: 150, Protein: 2, Carbs: 20, Fat: 7},
	"chocolate": {Name: "chocolate", Calories: 210, Protein: 3, Carbs: 24, Fat: 12},
	"ice cream": {Name: "ice cream", Calories: 270, Protein: 5, Carbs: 31, Fat: 14},
	"pancake":   {Name: "pancake", Calories: 175, Protein: 5, Carbs: 22, Fat: 7},
	"oatmeal":   {Name: "oatmeal", Calories: 150, Protein: 5, Carbs: 27, Fat: 3},
	"smoothie":  {Name: "smoothie", Calories: 180, Protein: 4, Carbs: 38, Fat: 1.5},
	"sushi":     {Name: "sushi", Calories: 200, Protein: 9, Carbs: 38, Fat: 1},
	"taco":      {Name: "taco", Calories: 210, Protein: 9, Carbs: 21, Fat: 10},
	"burrito":   {Name: "burrito", Calories: 440, Protein: 18, Carbs: 55, Fat: 16},
	"steak":     {Name: "steak", Calories: 310, Protein: 30, Carbs: 0, Fat: 20},
	"shrimp":    {Name: "shrimp", Calories: 100, Protein: 20, Carbs: 1, Fat: 1.5},
	"tofu":      {Name: "tofu", Calories: 90, Protein: 10, Carbs: 2, Fat: 5},
	"beans":     {Name: "beans", Calories: 130, Protein: 8, Carbs: 23, Fat: 0.5},
	"vegetable": {Name: "vegetables", Calories: 50, Protein: 2, Carbs: 10, Fat: 0.3},
}

// labels that mean "this is food" but carry no nutrition signal on their own
var genericFoodLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plate": true,
	"lunch": true, "dinner": true, "breakfast": true, "cuisine": true,
	"produce": true, "snack": true, "dessert": true, "brunch": true,
}

// AnalyzeImage runs label detection on the uploaded photo and maps the
// detected foods onto the nutrition reference. If Rekognition sees food but
// nothing specific enough to estimate, the result asks for clarification
// instead of guessing.
func (a *RekognitionAnalyzer) AnalyzeImage(ctx context.Context, bucket, key string) (*AnalysisResult, error) {
	out, err := a.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &rektypes.Image{
			S3Object: &rektypes.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		MaxLabels:     aws.Int32(25),
		MinConfidence: aws.Float32(a.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	return NormalizeLabels(labelsOf(out.Labels)), nil
}

// DetectedLabel decouples normalization from the Rekognition types so the
// mapping logic is testable without AWS.
type DetectedLabel struct {
	Name       string
	Confidence float64
}

func labelsOf(labels []rektypes.Label) []DetectedLabel {
	out := make([]DetectedLabel, 0, len(labels))
	for _, l := range labels {
		out = append(out, DetectedLabel{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return out
}

// NormalizeLabels maps raw detection labels to foods with nutrition
// estimates. Duplicate matches keep the highest-confidence detection.
func NormalizeLabels(labels []DetectedLabel) *AnalysisResult {
	result := &AnalysisResult{}
	seen := map[string]int{} // food name -> index in result.Foods
	sawFood := false

	for _, l := range labels {
		name := strings.ToLower(strings.TrimSpace(l.Name))
		if name == "" {
			continue
		}
		if genericFoodLabels[name] {
			sawFood = true
			continue
		}
		ref, ok := matchFood(name)
		if !ok {
			continue
		}
		sawFood = true
		if idx, dup := seen[ref.Name]; dup {
			if l.Confidence/100 > result.Foods[idx].Confidence {
				result.Foods[idx].Confidence = l.Confidence / 100
			}
			continue
		}
		food := ref
		food.Confidence = l.Confidence / 100
		seen[food.Name] = len(result.Foods)
		result.Foods = append(result.Foods, food)
	}

	sort.SliceStable(result.Foods, func(i, j int) bool {
		return result.Foods[i].Confidence > result.Foods[j].Confidence
	})

	for _, f := range result.Foods {
		result.TotalCalories += f.Calories
		result.TotalProtein += f.Protein
		result.TotalCarbs += f.Carbs
		result.TotalFat += f.Fat
	}

	if len(result.Foods) == 0 {
		result.NeedClarification = true
		if sawFood {
			result.Question = "I can see food in the photo but couldn't identify the dishes. What did you eat?"
		} else {
			result.Question = "I couldn't find any food in this photo. Could you describe what you ate?"
		}
	}
	return result
}

// EstimateFoodsByName builds an analysis result from user-provided food
// names, used when the photo analysis needed clarification. Names with no
// reference entry get a conservative generic estimate.
func EstimateFoodsByName(names []string) *AnalysisResult {
	result := &AnalysisResult{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		food, ok := matchFood(name)
		if ok {
			food.Name = name
			food.Confidence = 0.7
		} else {
			food = AnalyzedFood{Name: name, Calories: 200, Protein: 8, Carbs: 25, Fat: 7, Confidence: 0.3}
		}
		result.Foods = append(result.Foods, food)
		result.TotalCalories += food.Calories
		result.TotalProtein += food.Protein
		result.TotalCarbs += food.Carbs
		result.TotalFat += food.Fat
	}
	if len(result.Foods) == 0 {
		result.NeedClarification = true
		result.Question = "Could you list the foods in your meal?"
	}
	return result
}

func matchFood(label string) (AnalyzedFood, bool) {
	if ref, ok := nutritionRef[label]; ok {
		return ref, true
	}
	// "fried rice" matches "rice", "chicken curry" matches "curry" first
	// by the longer key to prefer the more specific reference.
	var best AnalyzedFood
	bestLen := 0
	for key, ref := range nutritionRef {
		if strings.Contains(label, key) && len(key) > bestLen {
			best, bestLen = ref, len(key)
		}
	}
	return best, bestLen > 0
}
