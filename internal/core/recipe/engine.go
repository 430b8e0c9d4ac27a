package recipe

import (
	"go.uber.org/zap"

	"pantry-chef/internal/pkg/common"
)

// ProcessStats 單次處理的統計
type ProcessStats struct {
	Input        int `json:"input"`
	HardRejected int `json:"hard_rejected"`
	SoftFlagged  int `json:"soft_flagged"`
	Output       int `json:"output"`
}

// Engine 推薦流程：配對、安全、偏好過濾、評分、理由、組裝
type Engine struct {
	filters PreferenceFilter
	safety  SafetyChecker
}

// Option 引擎選項
type Option func(*Engine)

// WithFilters 替換偏好過濾
func WithFilters(f PreferenceFilter) Option {
	return func(e *Engine) { e.filters = f }
}

// WithSafety 替換安全檢查
func WithSafety(s SafetyChecker) Option {
	return func(e *Engine) { e.safety = s }
}

// NewEngine 建立推薦引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		filters: NewFilterChain(),
		safety:  NewSafetyGate(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process 處理所有候選食譜，硬性違反者直接略過，結果依信心分數排序
func (e *Engine) Process(candidates []Candidate, pantry []string, settings Settings) ([]Result, ProcessStats) {
	s := settings.WithDefaults()
	pantry = NormalizePantry(pantry)
	stats := ProcessStats{Input: len(candidates)}

	results := make([]Result, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if c.UsedCount+c.MissedCount == 0 && len(c.Ingredients) > 0 {
			c.UsedCount, c.MissedCount = MatchIngredients(pantry, c.Ingredients)
		}

		verdict := e.safety.Check(&c, s)
		if verdict.Status == HardReject {
			stats.HardRejected++
			common.LogDebug("安全檢查淘汰食譜",
				zap.Int64("recipe_id", c.ID),
				zap.String("title", c.Title),
				zap.String("reason", verdict.Reason),
			)
			continue
		}
		if verdict.Status == SoftFlag {
			stats.SoftFlagged++
		}

		outcome := e.filters.Evaluate(&c, s)
		score := Score(c.UsedCount, c.MissedCount, s.Profile)
		reasoning := Reason(&c, score, outcome, s)
		results = append(results, Assemble(&c, score, outcome, verdict, reasoning, s))
	}

	SortByConfidence(results)
	stats.Output = len(results)
	return results, stats
}
