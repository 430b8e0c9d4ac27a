package recommend

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Orchestrator 串接搜尋、推薦引擎與 LLM 的推薦流程
type Orchestrator struct {
	source    RecipeSource
	assistant Assistant
	engine    *recipe.Engine
	cfg       config.PipelineConfig
	metrics   *metrics.Metrics
}

// New 創建推薦流程，asst 可為 nil（離線模式）
func New(source RecipeSource, asst Assistant, engine *recipe.Engine, cfg config.PipelineConfig, m *metrics.Metrics) *Orchestrator {
	if engine == nil {
		engine = recipe.NewEngine()
	}
	return &Orchestrator{
		source:    source,
		assistant: asst,
		engine:    engine,
		cfg:       cfg,
		metrics:   m,
	}
}

// llmAvailable 是否可使用 LLM 相關步驟
func (o *Orchestrator) llmAvailable() bool {
	return o.assistant != nil && o.assistant.Available()
}

// Recommend 執行完整推薦流程
//
// 主要搜尋失敗時直接回傳錯誤；所有備援與 LLM 步驟失敗只記錄日誌。
// 找不到任何候選時回傳 ErrNoRecipes，以及只含 metadata 的 Response。
func (o *Orchestrator) Recommend(ctx context.Context, req Request) (*Response, error) {
	ingredients := cleanIngredients(req.Ingredients)
	if len(ingredients) == 0 {
		return nil, common.ErrNoIngredients
	}

	log := common.RequestLogger(req.RequestID)

	meta := newMetadata()
	base := o.searchRequest(req, ingredients)
	if base.Cuisine != "" {
		cuisine := base.Cuisine
		meta.CuisineApplied = &cuisine
	}

	// 食材太多時只用核心食材搜尋
	searchWith := ingredients
	if len(ingredients) > o.cfg.SacrificeThreshold && o.llmAvailable() {
		// 關鍵字分類只是離線預設值，不據此縮減食材
		cats := o.assistant.CategorizeIngredients(ctx, ingredients)
		if !cats.Generated {
			log.Info("食材分類未取得 LLM 結果，使用完整食材搜尋")
		} else if len(cats.Core) > 0 && len(cats.Core) < len(ingredients) {
			searchWith = cats.Core
			o.fired(&meta, StrategySmartSacrifice,
				fmt.Sprintf("Smart Sacrifice: Using %d core ingredients (dropped %d optional)", len(cats.Core), len(cats.Secondary)))
			log.Info("只使用核心食材搜尋",
				zap.Strings("core", cats.Core),
				zap.Strings("secondary", cats.Secondary),
			)
		}
	}

	primary := base
	primary.Ingredients = searchWith
	candidates, err := o.source.SearchByIngredients(ctx, primary)
	if err != nil {
		log.Error("食譜搜尋失敗", zap.Error(err))
		return nil, err
	}
	log.Info("主要搜尋完成", zap.Int("count", len(candidates)))

	candidates = o.broaden(ctx, log, &meta, base, ingredients, candidates)
	candidates = o.fabricate(ctx, log, &meta, base, searchWith, candidates)
	candidates = o.reprioritize(ctx, log, &meta, base, ingredients, searchWith, candidates)

	if len(candidates) == 0 {
		meta.Errors = append(meta.Errors, common.ErrNoRecipes.Message)
		log.Warn("找不到任何食譜")
		return &Response{Recipes: []recipe.Result{}, Metadata: meta}, common.ErrNoRecipes
	}
	meta.TotalFetched = len(candidates)

	settings := req.Settings
	if len(settings.Intolerances) == 0 && len(req.Intolerances) > 0 {
		settings.Intolerances = req.Intolerances
	}
	settings = settings.WithDefaults()

	results, stats := o.engine.Process(candidates, ingredients, settings)
	meta.Process = stats
	o.metrics.Rejected("safety", stats.HardRejected)

	results, removed := o.enforce(log, results)
	meta.SafetyRemoved = removed

	resp := &Response{Recipes: results, Metadata: meta}
	if !req.SkipPitch {
		o.enrich(ctx, log, resp, settings.Mood)
	}
	resp.Metadata.TotalProcessed = len(resp.Recipes)

	log.Info("推薦完成",
		zap.Int("fetched", resp.Metadata.TotalFetched),
		zap.Int("returned", resp.Metadata.TotalProcessed),
		zap.Strings("fallbacks", resp.Metadata.FallbacksFired),
		zap.Bool("ai_enriched", resp.Metadata.AIEnriched),
	)
	return resp, nil
}

// searchRequest 組出上游搜尋參數，數量套用預設值與上限
func (o *Orchestrator) searchRequest(req Request, ingredients []string) spoonacular.SearchRequest {
	number := req.Number
	if number <= 0 {
		number = o.cfg.DefaultNumber
	}
	if o.cfg.MaxNumber > 0 && number > o.cfg.MaxNumber {
		number = o.cfg.MaxNumber
	}
	return spoonacular.SearchRequest{
		Ingredients:  ingredients,
		Number:       number,
		Cuisine:      strings.TrimSpace(req.Cuisine),
		MealType:     strings.TrimSpace(req.MealType),
		Diet:         strings.TrimSpace(req.Diet),
		Intolerances: req.Intolerances,
	}
}

// broaden 結果為空時依序放寬：語意查詢、移除過敏原、移除料理類型、只用前幾個食材
func (o *Orchestrator) broaden(ctx context.Context, log *zap.Logger, meta *Metadata, base spoonacular.SearchRequest, ingredients []string, candidates []recipe.Candidate) []recipe.Candidate {
	if len(candidates) > 0 {
		return candidates
	}

	if base.Cuisine != "" {
		top := ingredients
		if len(top) > o.cfg.TopPriorityCount {
			top = top[:o.cfg.TopPriorityCount]
		}
		query := base.Cuisine + " " + strings.Join(top, " ")
		req := base
		req.Cuisine = ""
		found, err := o.source.SearchByQuery(ctx, query, req)
		if err != nil {
			log.Warn("料理類型語意查詢失敗", zap.String("query", query), zap.Error(err))
		} else if len(found) > 0 {
			o.fired(meta, StrategyCuisineBroadened,
				fmt.Sprintf("Cuisine broadening: '%s' (strict %s filter removed)", query, base.Cuisine))
			return found
		}
	}

	if len(base.Intolerances) > 0 {
		req := base
		req.Intolerances = nil
		found, err := o.source.SearchByIngredients(ctx, req)
		if err != nil {
			log.Warn("移除過敏原後搜尋失敗", zap.Error(err))
		} else if len(found) > 0 {
			note := "Intolerances removed to find more recipes"
			if base.Cuisine != "" {
				note = fmt.Sprintf("Intolerances removed to find %s recipes", base.Cuisine)
			}
			o.fired(meta, StrategyNoIntolerances, note)
			return found
		}
	}

	if base.Cuisine != "" {
		req := base
		req.Cuisine = ""
		found, err := o.source.SearchByIngredients(ctx, req)
		if err != nil {
			log.Warn("移除料理類型後搜尋失敗", zap.Error(err))
		} else if len(found) > 0 {
			meta.CuisineApplied = nil
			o.fired(meta, StrategyNoCuisine, "Recommended for your Pantry (cuisine filter removed)")
			return found
		}
	}

	if len(ingredients) > o.cfg.TopPriorityCount {
		req := base
		req.Ingredients = recipe.TopIngredients(ingredients, nil, o.cfg.TopPriorityCount)
		if meta.CuisineApplied == nil {
			req.Cuisine = ""
		}
		found, err := o.source.SearchByIngredients(ctx, req)
		if err != nil {
			log.Warn("放寬食材後搜尋失敗", zap.Error(err))
		} else if len(found) > 0 {
			o.fired(meta, StrategyTopIngredients,
				fmt.Sprintf("Search relaxed to top %d ingredients", len(req.Ingredients)))
			return found
		}
	}
	return candidates
}

// fabricate 結果不足時請 LLM 補上缺少的數量
func (o *Orchestrator) fabricate(ctx context.Context, log *zap.Logger, meta *Metadata, base spoonacular.SearchRequest, searchWith []string, candidates []recipe.Candidate) []recipe.Candidate {
	need := o.cfg.MinResults - len(candidates)
	if need <= 0 || !o.llmAvailable() {
		return candidates
	}

	cuisine := ""
	if meta.CuisineApplied != nil {
		cuisine = *meta.CuisineApplied
	}
	found, err := o.assistant.FindRecipes(ctx, assistant.FindRequest{
		Ingredients:  searchWith,
		Diet:         base.Diet,
		Count:        need,
		Cuisine:      cuisine,
		MealType:     base.MealType,
		Intolerances: base.Intolerances,
	})
	if err != nil {
		log.Warn("LLM 補充食譜失敗", zap.Error(err))
		return candidates
	}
	if len(found) == 0 {
		return candidates
	}
	o.fired(meta, StrategyLLMFabrication, fmt.Sprintf("AI recipe search: Added %d recipes", len(found)))
	return append(candidates, found...)
}

// reprioritize 結果仍偏少時只用核心食材重搜，結果較多才採用
func (o *Orchestrator) reprioritize(ctx context.Context, log *zap.Logger, meta *Metadata, base spoonacular.SearchRequest, ingredients, searchWith []string, candidates []recipe.Candidate) []recipe.Candidate {
	if len(candidates) >= o.cfg.RelaxedMinResults || !o.llmAvailable() {
		return candidates
	}

	cats := o.assistant.CategorizeIngredients(ctx, ingredients)
	if !cats.Generated || len(cats.Core) == 0 || len(cats.Core) >= len(ingredients) || sameItems(cats.Core, searchWith) {
		return candidates
	}

	req := base
	req.Ingredients = cats.Core
	if meta.CuisineApplied == nil {
		req.Cuisine = ""
	}
	found, err := o.source.SearchByIngredients(ctx, req)
	if err != nil {
		log.Warn("核心食材重搜失敗", zap.Error(err))
		return candidates
	}
	if len(found) <= len(candidates) {
		log.Debug("核心食材重搜沒有更多結果", zap.Int("found", len(found)), zap.Int("current", len(candidates)))
		return candidates
	}
	o.fired(meta, StrategyCorePriority,
		fmt.Sprintf("Semantic prioritization: Used %d core ingredients (dropped %d secondary)", len(cats.Core), len(cats.Secondary)))
	return found
}

// enforce 移除硬性違反或安全分數低於門檻的食譜
func (o *Orchestrator) enforce(log *zap.Logger, results []recipe.Result) ([]recipe.Result, int) {
	kept := make([]recipe.Result, 0, len(results))
	for _, r := range results {
		check := r.Metadata.SafetyCheck
		if check.Status == recipe.HardReject || !check.Passed || check.SafetyScore < o.cfg.SafetyFloor {
			log.Warn("安全門檻淘汰食譜",
				zap.Int64("recipe_id", r.ID),
				zap.String("title", r.Title),
				zap.Float64("safety_score", check.SafetyScore),
				zap.String("reason", check.Reason),
			)
			continue
		}
		kept = append(kept, r)
	}
	removed := len(results) - len(kept)
	o.metrics.Rejected("enforcer", removed)
	return kept, removed
}

// enrich 為前幾名產生推薦文案，並移除 LLM 判定不安全的食譜
func (o *Orchestrator) enrich(ctx context.Context, log *zap.Logger, resp *Response, mood string) {
	if len(resp.Recipes) == 0 || !o.llmAvailable() {
		return
	}
	n := o.cfg.PitchTopN
	if n <= 0 || n > len(resp.Recipes) {
		n = len(resp.Recipes)
	}
	top := make([]recipe.Result, n)
	copy(top, resp.Recipes[:n])

	pitch := o.assistant.Pitch(ctx, top, mood)
	if !pitch.Generated {
		log.Warn("推薦文案未產生，略過")
		return
	}
	text := pitch.Text
	resp.Pitch = &text
	resp.Metadata.AIEnriched = true

	rejected := DetectRejections(text, top)
	if len(rejected) == 0 {
		return
	}
	kept := make([]recipe.Result, 0, len(resp.Recipes))
	for _, r := range resp.Recipes {
		if rejected[r.Title] {
			continue
		}
		kept = append(kept, r)
	}
	removed := len(resp.Recipes) - len(kept)
	resp.Recipes = kept
	for _, r := range top {
		if rejected[r.Title] {
			resp.Metadata.LLMRejected = append(resp.Metadata.LLMRejected, r.Title)
		}
	}
	o.metrics.Rejected("llm", removed)
	log.Warn("LLM 判定不安全，移除食譜", zap.Strings("titles", resp.Metadata.LLMRejected))
}

func (o *Orchestrator) fired(meta *Metadata, strategy, note string) {
	meta.FallbacksFired = append(meta.FallbacksFired, strategy)
	meta.Notes = append(meta.Notes, note)
	o.metrics.Fallback(strategy)
}

func cleanIngredients(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sameItems(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
