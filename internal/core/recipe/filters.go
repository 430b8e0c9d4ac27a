package recipe

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// PreferenceFilter 偏好過濾，只扣分不淘汰
type PreferenceFilter interface {
	Evaluate(c *Candidate, s Settings) FilterOutcome
}

// 扣分設定
const (
	DifficultyPenalty         = 15.0
	TimePenaltyPerMinute      = 2.0
	MaxTimePenalty            = 30.0
	MissingPenaltyPerItem     = 5.0
	DietaryPenalty            = 10.0
	NutritionalPenaltyPerGoal = 5.0
)

// 長時間料理的門檻（分鐘）
const longCookMinutes = 60

// 飲食偏好關鍵字
var (
	meatKeywords   = []string{"chicken", "beef", "pork", "fish", "meat", "turkey", "lamb", "bacon", "sausage", "ham", "seafood", "shrimp", "salmon"}
	dairyKeywords  = []string{"milk", "cheese", "butter", "cream", "yogurt", "sour cream", "heavy cream", "whipping cream"}
	eggKeywords    = []string{"egg", "eggs"}
	glutenKeywords = []string{"flour", "wheat", "bread", "pasta", "noodles"}
)

// FilterChain 預設的偏好過濾鏈
type FilterChain struct{}

// NewFilterChain 建立偏好過濾鏈
func NewFilterChain() *FilterChain {
	return &FilterChain{}
}

// Evaluate 依序檢查難度、時間、缺料、飲食、營養，累計扣分
func (f *FilterChain) Evaluate(c *Candidate, s Settings) FilterOutcome {
	out := FilterOutcome{Passed: true, Violations: []string{}}

	diff := AssessDifficulty(c, s.MaxDifficulty)
	out.Results.Difficulty = diff
	if !diff.Passed {
		out.PenaltyScore += DifficultyPenalty
		out.Violations = append(out.Violations, fmt.Sprintf("difficulty: %s > %s", diff.Level, diff.MaxAllowed))
	}

	tc := checkTime(c, s.MaxTimeMinutes)
	out.Results.Time = tc
	if !tc.Passed {
		over := float64(*tc.Estimate - tc.MaxAllowed)
		out.PenaltyScore += math.Min(over*TimePenaltyPerMinute, MaxTimePenalty)
		out.Violations = append(out.Violations, fmt.Sprintf("time: %d min > %d min", *tc.Estimate, tc.MaxAllowed))
	}

	mc := MissingCheck{Passed: c.MissedCount <= s.MaxMissing, Count: c.MissedCount, MaxAllowed: s.MaxMissing}
	out.Results.MissingIngredients = mc
	if !mc.Passed {
		out.PenaltyScore += float64(mc.Count-mc.MaxAllowed) * MissingPenaltyPerItem
		out.Violations = append(out.Violations, fmt.Sprintf("missing_ingredients: %d > %d", mc.Count, mc.MaxAllowed))
	}

	dc := checkDietary(c, s.DietaryRequirements)
	out.Results.Dietary = dc
	if !dc.Passed {
		out.PenaltyScore += DietaryPenalty
		out.Violations = append(out.Violations, "dietary: "+dc.Reason)
	}

	nc, unmet := checkNutrition(c, s.NutritionalRequirements)
	out.Results.Nutritional = nc
	if len(unmet) > 0 {
		out.PenaltyScore += float64(len(unmet)) * NutritionalPenaltyPerGoal
		out.Violations = append(out.Violations, unmet...)
	}

	return out
}

// AssessDifficulty 以食材數量估計難度，超過 60 分鐘的料理上調一級
func AssessDifficulty(c *Candidate, maxDifficulty Difficulty) DifficultyCheck {
	total := c.UsedCount + c.MissedCount
	if total == 0 {
		total = len(c.Ingredients)
	}
	ready, _ := c.ReadyTime()

	level := Hard
	switch {
	case total <= 5:
		level = Easy
	case total <= 10:
		level = Medium
	}
	adjusted := ready > longCookMinutes
	if adjusted {
		level = level.bump()
	}

	if maxDifficulty == "" {
		maxDifficulty = Hard
	}
	return DifficultyCheck{
		Passed:          level.rank() <= maxDifficulty.rank(),
		Level:           level,
		MaxAllowed:      maxDifficulty,
		IngredientCount: total,
		ReadyTime:       ready,
		TimeAdjusted:    adjusted,
	}
}

func checkTime(c *Candidate, maxTime int) TimeCheck {
	ready, known := c.ReadyTime()
	if !known {
		return TimeCheck{Passed: true, MaxAllowed: maxTime}
	}
	return TimeCheck{Passed: ready <= maxTime, Estimate: &ready, MaxAllowed: maxTime}
}

// checkDietary 關鍵字掃描材料，並與 API 標記互相比對
func checkDietary(c *Candidate, requirements []string) DietaryCheck {
	if len(requirements) == 0 {
		return DietaryCheck{Passed: true, Reason: "No dietary restrictions", Confidence: "high"}
	}

	texts := make([]string, 0, len(c.Ingredients))
	for _, ing := range c.Ingredients {
		texts = append(texts, maskFalseFriends(ing.Text()))
	}
	joined := strings.Join(texts, " ")

	hasMeat := containsAny(joined, meatKeywords)
	hasDairy := containsAny(joined, dairyKeywords)
	hasEggs := containsAny(joined, eggKeywords)
	hasGluten := containsAny(joined, glutenKeywords)

	passed := true
	var reasons, levels []string

	for _, req := range requirements {
		switch normalizeDiet(req) {
		case "vegetarian":
			if hasMeat {
				passed = false
				reasons = append(reasons, "contains meat")
			} else if c.Flags.Vegetarian {
				levels = append(levels, "high")
			} else {
				levels = append(levels, "medium")
			}
		case "vegan":
			if hasMeat || hasDairy || hasEggs {
				passed = false
				reasons = append(reasons, "contains animal products")
			} else if c.Flags.Vegan {
				levels = append(levels, "high")
			}
		case "gluten_free":
			switch {
			case hasGluten && !c.Flags.GlutenFree:
				passed = false
				reasons = append(reasons, "contains gluten")
			case hasGluten:
				reasons = append(reasons, "may contain gluten (API says gluten-free but keywords found)")
			case c.Flags.GlutenFree:
				levels = append(levels, "high")
			}
		case "dairy_free":
			switch {
			case hasDairy && !c.Flags.DairyFree:
				passed = false
				reasons = append(reasons, "contains dairy")
			case hasDairy:
				reasons = append(reasons, "may contain dairy (API says dairy-free but keywords found)")
			case c.Flags.DairyFree:
				levels = append(levels, "high")
			}
		}
	}

	confidence := "medium"
	if len(levels) > 0 {
		confidence = "high"
		for _, l := range levels {
			if l != "high" {
				confidence = "medium"
				break
			}
		}
	}

	reason := "meets requirements"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	return DietaryCheck{
		Passed:              passed,
		Reason:              reason,
		RequirementsChecked: requirements,
		Confidence:          confidence,
	}
}

// checkNutrition 比對 high_X（下限）與 low_X（上限），資料不足時視為通過
func checkNutrition(c *Candidate, reqs map[string]float64) (NutritionalCheck, []string) {
	nc := NutritionalCheck{Passed: true}
	if len(reqs) == 0 {
		return nc, nil
	}

	keys := make([]string, 0, len(reqs))
	for k := range reqs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var violations []string
	for _, key := range keys {
		threshold := reqs[key]
		lower := strings.ToLower(key)
		var nutrient string
		var wantHigh bool
		switch {
		case strings.HasPrefix(lower, "high_"):
			nutrient, wantHigh = strings.TrimPrefix(lower, "high_"), true
		case strings.HasPrefix(lower, "low_"):
			nutrient = strings.TrimPrefix(lower, "low_")
		default:
			continue
		}

		nc.Checked++
		value, ok := c.Nutrient(nutrient)
		if !ok {
			nc.Unknown = append(nc.Unknown, key)
			continue
		}
		if wantHigh && value < threshold {
			nc.Unmet = append(nc.Unmet, key)
			violations = append(violations, fmt.Sprintf("nutritional: %s %.1f < %.1f", nutrient, value, threshold))
		}
		if !wantHigh && value > threshold {
			nc.Unmet = append(nc.Unmet, key)
			violations = append(violations, fmt.Sprintf("nutritional: %s %.1f > %.1f", nutrient, value, threshold))
		}
	}
	nc.Passed = len(nc.Unmet) == 0
	return nc, violations
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
