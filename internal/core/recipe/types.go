package recipe

import (
	"encoding/json"
	"strings"
)

// Difficulty 難度等級
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var difficultyRank = map[Difficulty]int{Easy: 1, Medium: 2, Hard: 3}

// 各難度需要的技巧分數 (0-100)
var difficultySkill = map[Difficulty]int{Easy: 30, Medium: 60, Hard: 90}

// ParseDifficulty 解析難度字串，無法辨識時視為 hard（不限制）
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := difficultyRank[d]; ok {
		return d
	}
	return Hard
}

func (d Difficulty) rank() int {
	if r, ok := difficultyRank[d]; ok {
		return r
	}
	return difficultyRank[Hard]
}

// bump 長時間料理的難度上調一級
func (d Difficulty) bump() Difficulty {
	switch d {
	case Easy:
		return Medium
	case Medium:
		return Hard
	}
	return d
}

// Ingredient 食譜材料
type Ingredient struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name"`
	Original string  `json:"original,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// Text 比對用的小寫文字，name 為空時退回 original
func (i Ingredient) Text() string {
	if s := strings.TrimSpace(i.Name); s != "" {
		return strings.ToLower(s)
	}
	return strings.ToLower(strings.TrimSpace(i.Original))
}

// DietFlags 食譜 API 提供的飲食布林標記
type DietFlags struct {
	Vegetarian bool `json:"vegetarian"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"glutenFree"`
	DairyFree  bool `json:"dairyFree"`
}

// Candidate 單一候選食譜
type Candidate struct {
	ID             int64
	Title          string
	Image          string
	Summary        string
	ReadyInMinutes *int // nil 表示未知
	Servings       int
	Ingredients    []Ingredient

	// 以下三個欄位保留上游原始 JSON，組裝結果時原樣輸出
	ExtendedIngredients  json.RawMessage
	AnalyzedInstructions json.RawMessage
	Nutrition            json.RawMessage

	Instructions string
	Nutrients    map[string]float64 // 每份營養素，key 為上游名稱
	Cuisines     []string
	DishTypes    []string
	Diets        []string
	Flags        DietFlags

	UsedCount   int
	MissedCount int
	Source      string
}

// ReadyTime 回傳準備時間與是否已知
func (c *Candidate) ReadyTime() (int, bool) {
	if c.ReadyInMinutes == nil || *c.ReadyInMinutes <= 0 {
		return 0, false
	}
	return *c.ReadyInMinutes, true
}

// Nutrient 以不分大小寫的名稱查詢營養素
func (c *Candidate) Nutrient(name string) (float64, bool) {
	if v, ok := c.Nutrients[name]; ok {
		return v, true
	}
	want := normalizeNutrient(name)
	for k, v := range c.Nutrients {
		if normalizeNutrient(k) == want {
			return v, true
		}
	}
	return 0, false
}

func normalizeNutrient(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}

// Settings 單次請求的使用者設定
type Settings struct {
	Profile                 string             `json:"user_profile"`
	Mood                    string             `json:"mood"`
	MaxDifficulty           Difficulty         `json:"max_difficulty"`
	MaxTimeMinutes          int                `json:"max_time_minutes"`
	MaxMissing              int                `json:"max_missing_ingredients"`
	DietaryRequirements     []string           `json:"dietary_requirements"`
	Intolerances            []string           `json:"intolerances"`
	NutritionalRequirements map[string]float64 `json:"nutritional_requirements"`
	SkillLevel              int                `json:"skill_level"`
}

// 預設值
const (
	DefaultProfile    = "balanced"
	DefaultMood       = "casual"
	DefaultMaxTime    = 120
	DefaultMaxMissing = 10
	DefaultSkillLevel = 50
)

// WithDefaults 補上缺漏的設定
func (s Settings) WithDefaults() Settings {
	if s.Profile == "" {
		s.Profile = DefaultProfile
	}
	if s.Mood == "" {
		s.Mood = DefaultMood
	}
	s.Profile = strings.ToLower(s.Profile)
	s.Mood = strings.ToLower(s.Mood)
	s.MaxDifficulty = ParseDifficulty(string(s.MaxDifficulty))
	if s.MaxTimeMinutes <= 0 {
		s.MaxTimeMinutes = DefaultMaxTime
	}
	if s.MaxMissing < 0 {
		s.MaxMissing = 0
	}
	if s.SkillLevel < 0 {
		s.SkillLevel = 0
	}
	if s.SkillLevel > 100 {
		s.SkillLevel = 100
	}
	return s
}

// HasDiet 是否要求某種飲食
func (s Settings) HasDiet(diet string) bool {
	for _, d := range s.DietaryRequirements {
		if normalizeDiet(d) == normalizeDiet(diet) {
			return true
		}
	}
	return false
}

func normalizeDiet(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Weights 使用者類型的權重
type Weights struct {
	Used    float64 `json:"used"`
	Missing float64 `json:"missing"`
}

var profileWeights = map[string]Weights{
	"minimal_shopper": {Used: 0.3, Missing: 0.7},
	"pantry_cleaner":  {Used: 0.7, Missing: 0.3},
	"balanced":        {Used: 0.5, Missing: 0.5},
}

// ProfileWeights 取得使用者類型權重，未知名稱退回 balanced
func ProfileWeights(profile string) Weights {
	if w, ok := profileWeights[strings.ToLower(profile)]; ok {
		return w
	}
	return profileWeights[DefaultProfile]
}

// IsKnownProfile 是否為支援的使用者類型
func IsKnownProfile(profile string) bool {
	_, ok := profileWeights[strings.ToLower(profile)]
	return ok
}

// MoodWeights 心情對時間、精力、技巧、採購的權重
type MoodWeights struct {
	Time     float64 `json:"time"`
	Effort   float64 `json:"effort"`
	Skill    float64 `json:"skill"`
	Shopping float64 `json:"shopping"`
}

const MoodTired = "tired"

var moodWeights = map[string]MoodWeights{
	"tired":     {Time: 0.5, Effort: 0.7, Skill: 0.3, Shopping: 0.8},
	"casual":    {Time: 0.5, Effort: 0.5, Skill: 0.5, Shopping: 0.5},
	"energetic": {Time: 0.3, Effort: 0.4, Skill: 0.7, Shopping: 0.4},
}

// MoodWeightsFor 取得心情權重，未知心情退回 casual
func MoodWeightsFor(mood string) MoodWeights {
	if w, ok := moodWeights[strings.ToLower(mood)]; ok {
		return w
	}
	return moodWeights[DefaultMood]
}

// IsKnownMood 是否為支援的心情
func IsKnownMood(mood string) bool {
	_, ok := moodWeights[strings.ToLower(mood)]
	return ok
}

// ScoreBundle 食材利用率分數
type ScoreBundle struct {
	SmartScore   float64 `json:"smart_score"`
	UsedScore    float64 `json:"used_score"`
	MissingScore float64 `json:"missing_score"`
	Breakdown    string  `json:"breakdown"`
	Weights      Weights `json:"weights"`
}

// DifficultyCheck 難度檢查結果
type DifficultyCheck struct {
	Passed          bool       `json:"passed"`
	Level           Difficulty `json:"level"`
	MaxAllowed      Difficulty `json:"max_allowed"`
	IngredientCount int        `json:"ingredient_count"`
	ReadyTime       int        `json:"ready_time"`
	TimeAdjusted    bool       `json:"time_adjusted"`
}

// TimeCheck 時間檢查結果，Estimate 為 nil 表示未知
type TimeCheck struct {
	Passed     bool `json:"passed"`
	Estimate   *int `json:"estimate"`
	MaxAllowed int  `json:"max_allowed"`
}

// MissingCheck 缺少食材數量檢查結果
type MissingCheck struct {
	Passed     bool `json:"passed"`
	Count      int  `json:"count"`
	MaxAllowed int  `json:"max_allowed"`
}

// DietaryCheck 飲食偏好檢查結果
type DietaryCheck struct {
	Passed              bool     `json:"passed"`
	Reason              string   `json:"reason"`
	RequirementsChecked []string `json:"requirements_checked,omitempty"`
	Confidence          string   `json:"confidence"`
}

// NutritionalCheck 營養需求檢查結果
type NutritionalCheck struct {
	Passed  bool     `json:"passed"`
	Checked int      `json:"checked"`
	Unmet   []string `json:"unmet,omitempty"`
	Unknown []string `json:"unknown,omitempty"`
}

// FilterResults 各維度檢查結果
type FilterResults struct {
	Difficulty         DifficultyCheck  `json:"difficulty"`
	Time               TimeCheck        `json:"time"`
	MissingIngredients MissingCheck     `json:"missing_ingredients"`
	Dietary            DietaryCheck     `json:"dietary"`
	Nutritional        NutritionalCheck `json:"nutritional"`
}

// FilterOutcome 偏好過濾結果，Passed 永遠為 true
type FilterOutcome struct {
	Passed       bool          `json:"passed"`
	Results      FilterResults `json:"filter_results"`
	PenaltyScore float64       `json:"penalty_score"`
	Violations   []string      `json:"violations"`
}

// ViolationFlags 各維度是否違反
type ViolationFlags struct {
	HasTimeViolation        bool `json:"has_time_violation"`
	HasMissingViolation     bool `json:"has_missing_violation"`
	HasDifficultyViolation  bool `json:"has_difficulty_violation"`
	HasDietaryViolation     bool `json:"has_dietary_violation"`
	HasNutritionalViolation bool `json:"has_nutritional_violation"`
}

// Flags 由檢查結果推導違反旗標
func (o FilterOutcome) Flags() ViolationFlags {
	return ViolationFlags{
		HasTimeViolation:        !o.Results.Time.Passed,
		HasMissingViolation:     !o.Results.MissingIngredients.Passed,
		HasDifficultyViolation:  !o.Results.Difficulty.Passed,
		HasDietaryViolation:     !o.Results.Dietary.Passed,
		HasNutritionalViolation: !o.Results.Nutritional.Passed,
	}
}

// SafetyStatus 安全判定
type SafetyStatus string

const (
	Safe       SafetyStatus = "safe"
	HardReject SafetyStatus = "hard_reject"
	SoftFlag   SafetyStatus = "soft_flag"
)

// SafetyVerdict 安全檢查結果
type SafetyVerdict struct {
	Status                    SafetyStatus `json:"status"`
	Passed                    bool         `json:"passed"`
	RequiresAIValidation      bool         `json:"requires_ai_validation"`
	SafetyScore               float64      `json:"safety_score"`
	Reason                    string       `json:"reason"`
	ViolationNote             string       `json:"violation_note,omitempty"`
	FoundIntolerances         []string     `json:"found_intolerances,omitempty"`
	SuspiciousIngredients     []string     `json:"suspicious_ingredients,omitempty"`
	SafeAlternativeIndicators []string     `json:"safe_alternative_indicators,omitempty"`
}

// InternalDebug 排序用內部分數，不顯示給使用者
type InternalDebug struct {
	InternalScore float64     `json:"internal_score"`
	TimeScore     float64     `json:"time_score"`
	SkillScore    float64     `json:"skill_score"`
	ShoppingScore float64     `json:"shopping_score"`
	WeightsUsed   MoodWeights `json:"weights_used"`
}

// Reasoning 信心分數與推薦理由
type Reasoning struct {
	Confidence     float64
	Text           string
	PenaltyApplied float64
	Violations     []string
	Debug          InternalDebug
}

// NutritionSummary 四大營養素
type NutritionSummary struct {
	Protein  float64 `json:"protein"`
	Calories float64 `json:"calories"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// Metadata 除錯用的中間分數，組裝後不再修改
type Metadata struct {
	SmartScore       float64        `json:"smart_score"`
	InternalDebug    InternalDebug  `json:"internal_debug"`
	ScoringBreakdown string         `json:"scoring_breakdown"`
	UsedScore        float64        `json:"used_score"`
	MissingScore     float64        `json:"missing_score"`
	FilterResults    FilterResults  `json:"filter_results"`
	SafetyCheck      SafetyVerdict  `json:"safety_check"`
	PenaltyApplied   float64        `json:"penalty_applied"`
	PenaltyScore     float64        `json:"penalty_score"`
	Violations       []string       `json:"violations"`
	ViolationFlags   ViolationFlags `json:"violation_flags"`
}

// Result 對外輸出的推薦結果
type Result struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Image           string  `json:"image"`
	Confidence      float64 `json:"confidence"`
	MatchConfidence float64 `json:"match_confidence"`
	Time            int     `json:"time"`
	Reasoning       string  `json:"reasoning"`
	SemanticContext string  `json:"semantic_context"`

	ExtendedIngredients  json.RawMessage `json:"extendedIngredients"`
	Servings             int             `json:"servings"`
	Instructions         string          `json:"instructions"`
	AnalyzedInstructions json.RawMessage `json:"analyzedInstructions"`
	RawIngredientsForAI  json.RawMessage `json:"raw_ingredients_for_ai"`
	Nutrition            json.RawMessage `json:"nutrition"`

	Cuisines  []string `json:"cuisines"`
	DishTypes []string `json:"dishTypes"`
	Diets     []string `json:"diets"`

	UsedIngredients    int              `json:"used_ingredients"`
	MissingIngredients int              `json:"missing_ingredients"`
	Difficulty         Difficulty       `json:"difficulty"`
	Protein            float64          `json:"protein"`
	Calories           float64          `json:"calories"`
	Carbs              float64          `json:"carbs"`
	NutritionSummary   NutritionSummary `json:"nutrition_summary"`
	AINutrientFlags    map[string]bool  `json:"ai_nutrient_flags"`
	IsStubRecipe       bool             `json:"is_stub_recipe"`
	Source             string           `json:"source,omitempty"`

	Metadata Metadata `json:"_metadata"`
}

// RequiresAIValidation 是否需要 LLM 複核安全性
func (r *Result) RequiresAIValidation() bool {
	return r.Metadata.SafetyCheck.RequiresAIValidation
}
