package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.engine = NewEngine()
}

func (s *EngineTestSuite) find(results []Result, id int64) (Result, bool) {
	for _, r := range results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

func (s *EngineTestSuite) TestFullPantryScoresHundred() {
	pantry := []string{"chicken", "rice", "tomatoes"}
	candidates := []Candidate{newCandidate(1, "Chicken Rice", "chicken", "rice", "tomatoes")}

	results, stats := s.engine.Process(candidates, pantry, Settings{Profile: "balanced"})

	require.Len(s.T(), results, 1)
	assert.Equal(s.T(), 3, results[0].UsedIngredients)
	assert.Equal(s.T(), 0, results[0].MissingIngredients)
	assert.Equal(s.T(), 100.0, results[0].Metadata.SmartScore)
	assert.Equal(s.T(), "0.5×100.0% + 0.5×100.0% = 50.0 + 50.0", results[0].Metadata.ScoringBreakdown)
	assert.Equal(s.T(), 1, stats.Output)
}

func (s *EngineTestSuite) TestVegetarianDropsChickenBroth() {
	candidates := []Candidate{
		newCandidate(1, "Mushroom Surprise", "mushroom", "chicken broth", "rice"),
		newCandidate(2, "Veggie Rice", "rice", "peas"),
	}

	results, stats := s.engine.Process(candidates, []string{"rice"}, Settings{DietaryRequirements: []string{"vegetarian"}})

	_, found := s.find(results, 1)
	assert.False(s.T(), found)
	_, found = s.find(results, 2)
	assert.True(s.T(), found)
	assert.Equal(s.T(), 1, stats.HardRejected)
}

func (s *EngineTestSuite) TestAlmondMilkSoftFlagged() {
	candidates := []Candidate{newCandidate(1, "Creamy Pasta", "almond milk", "pasta")}

	results, stats := s.engine.Process(candidates, []string{"pasta"}, Settings{Intolerances: []string{"dairy"}})

	require.Len(s.T(), results, 1)
	assert.True(s.T(), results[0].Metadata.SafetyCheck.RequiresAIValidation)
	assert.Equal(s.T(), SoftFlag, results[0].Metadata.SafetyCheck.Status)
	assert.Equal(s.T(), 1, stats.SoftFlagged)
}

func (s *EngineTestSuite) TestTiredOverTimePenalised() {
	c := withReady(newCandidate(1, "Stew", "beans", "onion"), 40)

	results, _ := s.engine.Process([]Candidate{c}, []string{"beans", "onion"}, Settings{Mood: "tired", MaxTimeMinutes: 30})

	require.Len(s.T(), results, 1)
	meta := results[0].Metadata
	assert.GreaterOrEqual(s.T(), meta.PenaltyScore, 20.0)
	assert.GreaterOrEqual(s.T(), results[0].Confidence, MinConfidence)
	assert.Less(s.T(), results[0].Confidence, MaxConfidence)
	assert.True(s.T(), meta.ViolationFlags.HasTimeViolation)
}

func (s *EngineTestSuite) TestNeverReturnsHardRejects() {
	candidates := []Candidate{
		newCandidate(1, "Milk Shake", "milk", "ice"),
		newCandidate(2, "Oat Shake", "oat milk", "ice"),
		newCandidate(3, "Cheese Toast", "bread", "cheddar cheese"),
		newCandidate(4, "Fruit Bowl", "apple", "banana"),
	}
	settings := Settings{Intolerances: []string{"dairy"}}

	results, stats := s.engine.Process(candidates, []string{"ice", "apple"}, settings)

	assert.LessOrEqual(s.T(), len(results), len(candidates))
	assert.Equal(s.T(), 2, stats.HardRejected)
	for _, r := range results {
		assert.NotEqual(s.T(), HardReject, r.Metadata.SafetyCheck.Status)
	}
}

func (s *EngineTestSuite) TestSortedByConfidence() {
	candidates := []Candidate{
		withReady(newCandidate(1, "Slow", "a", "b", "c", "d", "e", "f", "g"), 200),
		withReady(newCandidate(2, "Quick", "a"), 10),
	}

	results, _ := s.engine.Process(candidates, []string{"a"}, Settings{MaxTimeMinutes: 60})

	require.Len(s.T(), results, 2)
	assert.Equal(s.T(), int64(2), results[0].ID)
	assert.GreaterOrEqual(s.T(), results[0].Confidence, results[1].Confidence)
}

func (s *EngineTestSuite) TestCustomSafetyChecker() {
	engine := NewEngine(WithSafety(rejectAll{}))

	results, stats := engine.Process([]Candidate{newCandidate(1, "x", "a")}, nil, Settings{})

	assert.Empty(s.T(), results)
	assert.Equal(s.T(), 1, stats.HardRejected)
}

type rejectAll struct{}

func (rejectAll) Check(*Candidate, Settings) SafetyVerdict {
	return SafetyVerdict{Status: HardReject}
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
