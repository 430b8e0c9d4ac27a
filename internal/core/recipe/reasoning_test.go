package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reason(c Candidate, s Settings) Reasoning {
	s = s.WithDefaults()
	outcome := NewFilterChain().Evaluate(&c, s)
	return Reason(&c, Score(c.UsedCount, c.MissedCount, s.Profile), outcome, s)
}

func TestReason_TiredOverTime(t *testing.T) {
	c := withCounts(withReady(newCandidate(1, "Fried Rice", "rice", "egg", "soy sauce"), 40), 3, 0)

	r := reason(c, Settings{Mood: "tired", MaxTimeMinutes: 30})

	assert.Equal(t, 20.0, r.PenaltyApplied)
	assert.Equal(t, 70.0, r.Confidence)
	assert.Equal(t, "Best option for zero effort. (Note: time: 40 min > 30 min)", r.Text)
}

func TestReason_CasualQuickEasy(t *testing.T) {
	c := withCounts(withReady(newCandidate(1, "Toast", "bread", "butter", "jam"), 10), 3, 0)

	r := reason(c, Settings{Mood: "casual", MaxTimeMinutes: 60, SkillLevel: 50})

	assert.Equal(t, MaxConfidence, r.Confidence)
	assert.Equal(t, "Good match because it requires very little shopping, quick to prepare, easy to cook up", r.Text)
	assert.Equal(t, 0.83, r.Debug.TimeScore)
	assert.Equal(t, 1.0, r.Debug.SkillScore)
	assert.Equal(t, 1.0, r.Debug.ShoppingScore)
	assert.Equal(t, 67.9, r.Debug.InternalScore)
	assert.Equal(t, MoodWeightsFor("casual"), r.Debug.WeightsUsed)
}

func TestReason_TiredQuickGetsBonusReason(t *testing.T) {
	c := withCounts(withReady(newCandidate(1, "Wrap", "tortilla", "beans"), 15), 2, 0)

	r := reason(c, Settings{Mood: "tired", MaxTimeMinutes: 60, SkillLevel: 50})

	assert.Equal(t, MaxConfidence, r.Confidence)
	assert.Equal(t, "Best option for zero effort.", r.Text)
}

func TestReason_SubScoreDefaults(t *testing.T) {
	c := Candidate{ID: 1}

	r := reason(c, Settings{SkillLevel: 50})

	assert.Equal(t, 0.5, r.Debug.TimeScore)
	assert.Equal(t, 0.5, r.Debug.ShoppingScore)
	assert.Equal(t, "Good match because it requires very little shopping, easy to cook up", r.Text)
}

func TestReason_SkillGap(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	c := withCounts(withReady(newCandidate(1, "Feast", names...), 30), 8, 4)

	r := reason(c, Settings{SkillLevel: 50, MaxMissing: 10})

	assert.Equal(t, 0.6, r.Debug.SkillScore)
	assert.Equal(t, "Good match because it quick to prepare", r.Text)
	assert.Equal(t, 80.0, r.Confidence)
}

func TestReason_UnknownMoodFallsBackToCasual(t *testing.T) {
	c := withCounts(withReady(newCandidate(1, "Soup", "carrot"), 25), 1, 0)

	a := reason(c, Settings{Mood: "grumpy", SkillLevel: 50})
	b := reason(c, Settings{Mood: "casual", SkillLevel: 50})

	assert.Equal(t, b, a)
}

func TestReason_ConfidenceBounds(t *testing.T) {
	moods := []string{"tired", "casual", "energetic", "unknown"}
	readies := []int{0, 5, 20, 45, 90, 300}
	counts := [][2]int{{0, 0}, {1, 0}, {2, 3}, {1, 12}, {8, 8}}

	for _, mood := range moods {
		for _, ready := range readies {
			for _, cnt := range counts {
				c := withCounts(newCandidate(1, "x", "a"), cnt[0], cnt[1])
				if ready > 0 {
					c = withReady(c, ready)
				}
				r := reason(c, Settings{
					Mood:                    mood,
					MaxDifficulty:           Easy,
					MaxTimeMinutes:          10,
					DietaryRequirements:     []string{"vegan"},
					NutritionalRequirements: map[string]float64{"high_calories": 5000},
				})
				assert.GreaterOrEqual(t, r.Confidence, MinConfidence)
				assert.LessOrEqual(t, r.Confidence, MaxConfidence)
			}
		}
	}
}
