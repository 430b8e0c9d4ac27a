package recipe

import (
	"math"
	"strings"

	"pantry-chef/internal/pkg/common"
)

// 信心分數範圍
const (
	BaseConfidence  = 75.0
	MaxConfidence   = 95.0
	MinConfidence   = 50.0
	quickTiredLimit = 20
)

// Reason 結合利用率分數、心情權重與扣分，計算信心分數與推薦理由
func Reason(c *Candidate, score ScoreBundle, outcome FilterOutcome, s Settings) Reasoning {
	mood := strings.ToLower(s.Mood)
	weights := MoodWeightsFor(mood)
	tired := mood == MoodTired

	ready, timeKnown := c.ReadyTime()
	maxTime := s.MaxTimeMinutes
	difficulty := outcome.Results.Difficulty.Level
	missed := c.MissedCount
	total := c.UsedCount + c.MissedCount

	timeScore := 0.5
	if timeKnown && maxTime > 0 {
		timeScore = math.Max(0.1, 1-float64(ready)/float64(maxTime))
	}

	skillScore := 1.0
	required, ok := difficultySkill[difficulty]
	if !ok {
		required = 50
	}
	if s.SkillLevel < required {
		skillScore = math.Max(0.2, 1-float64(required-s.SkillLevel)/100)
	}

	shoppingScore := 0.5
	if total > 0 {
		shoppingScore = 1 - float64(missed)/float64(total)
	}

	// 疲累時時間分數加倍，讓快速料理排在前面
	adjustedTime := timeScore
	if tired {
		adjustedTime = timeScore * 2
	}
	internal := score.SmartScore/100*0.4 +
		adjustedTime*weights.Time*0.25 +
		skillScore*weights.Skill*0.2 +
		shoppingScore*weights.Shopping*0.15

	var reasons []string
	switch {
	case missed <= 1:
		reasons = append(reasons, "requires very little shopping")
	case missed <= 3:
		reasons = append(reasons, "only needs a few extra ingredients")
	}
	if timeKnown && maxTime > 0 && float64(ready) <= float64(maxTime)*0.7 {
		reasons = append(reasons, "quick to prepare")
	}
	if difficulty == Easy {
		reasons = append(reasons, "easy to cook up")
	}

	confidence := BaseConfidence
	if missed <= 1 {
		confidence += 10
	}
	if difficulty == Easy {
		confidence += 5
	}
	if timeKnown && ready <= maxTime {
		confidence += 5
	}
	quick := timeKnown && ready <= quickTiredLimit
	if tired && quick {
		confidence += 15
		reasons = append(reasons, "perfect for when you're tired - super quick!")
	}
	if missed <= 1 && difficulty == Easy && quick {
		confidence += 5
	}
	confidence = math.Min(confidence, MaxConfidence)
	confidence = math.Max(MinConfidence, confidence-outcome.PenaltyScore)

	var text string
	switch {
	case tired:
		text = "Best option for zero effort."
	case len(reasons) > 0:
		text = "Good match because it " + strings.Join(reasons, ", ")
	default:
		text = "Matches your preferences pretty well"
	}
	if len(outcome.Violations) > 0 {
		n := len(outcome.Violations)
		if n > 2 {
			n = 2
		}
		text += " (Note: " + strings.Join(outcome.Violations[:n], ", ") + ")"
	}

	return Reasoning{
		Confidence:     common.Round(confidence, 1),
		Text:           text,
		PenaltyApplied: outcome.PenaltyScore,
		Violations:     outcome.Violations,
		Debug: InternalDebug{
			InternalScore: common.Round(internal*100, 1),
			TimeScore:     common.Round(timeScore, 2),
			SkillScore:    common.Round(skillScore, 2),
			ShoppingScore: common.Round(shoppingScore, 2),
			WeightsUsed:   weights,
		},
	}
}
