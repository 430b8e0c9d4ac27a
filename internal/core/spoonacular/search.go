package spoonacular

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	defaultNumber     = 10
	maxSearchNumber   = 100
	maxSimilar        = 10
	individualFetches = 20
)

// SearchByIngredients 依食材搜尋並補齊完整資訊
//
// 有語意過濾條件時使用 complexSearch，否則使用 findByIngredients。
// 補充資訊缺漏的食譜會以 stub 候選保留，其餘依料理類型、餐別與基本條件過濾後，
// 依使用食材數排序。
func (c *Client) SearchByIngredients(ctx context.Context, req SearchRequest) ([]recipe.Candidate, error) {
	if len(req.Ingredients) == 0 {
		return nil, nil
	}
	number := clampNumber(req.Number)
	fetch := number * 3
	if fetch > maxSearchNumber {
		fetch = maxSearchNumber
	}

	var initial []Recipe
	if req.hasSemanticFilters() {
		params := map[string]string{
			"includeIngredients":   strings.Join(req.Ingredients, ","),
			"number":               strconv.Itoa(fetch),
			"ranking":              "1",
			"ignorePantry":         "true",
			"addRecipeInformation": "false",
		}
		if req.Diet != "" {
			params["diet"] = req.Diet
		}
		if len(req.Intolerances) > 0 {
			params["intolerances"] = strings.Join(req.Intolerances, ",")
		}
		if req.Cuisine != "" {
			params["cuisine"] = req.Cuisine
		}
		if req.MealType != "" {
			params["type"] = req.MealType
		}

		var resp complexSearchResponse
		if err := c.get(ctx, "recipes/complexSearch", params, &resp); err != nil {
			return nil, err
		}
		initial = resp.Results
	} else {
		params := map[string]string{
			"ingredients":  strings.Join(req.Ingredients, ","),
			"number":       strconv.Itoa(fetch),
			"ranking":      "1",
			"ignorePantry": "true",
		}
		if err := c.get(ctx, "recipes/findByIngredients", params, &initial); err != nil {
			return nil, err
		}
	}

	if len(initial) == 0 {
		return nil, nil
	}
	if len(initial) > number {
		initial = initial[:number]
	}

	enriched := c.enrich(ctx, initial)
	pantry := recipe.NormalizePantry(req.Ingredients)

	out := make([]recipe.Candidate, 0, len(initial))
	for _, r := range initial {
		if r.ID == 0 {
			continue
		}
		full, ok := enriched[r.ID]
		if !ok {
			common.LogWarn("食譜未取得完整資訊，改用 stub", zap.Int64("recipe_id", r.ID))
			out = append(out, stub(r))
			continue
		}

		full.UsedIngredientCount = r.UsedIngredientCount
		full.MissedIngredientCount = r.MissedIngredientCount
		if full.Title == "" {
			full.Title = r.Title
		}
		if full.Image == "" {
			full.Image = r.Image
		}

		cand := ToCandidate(full, SourceAPI)
		if cand.UsedCount == 0 && cand.MissedCount == 0 {
			cand.UsedCount, cand.MissedCount = recipe.MatchIngredients(pantry, cand.Ingredients)
		}

		if req.Cuisine != "" && !containsFold(cand.Cuisines, req.Cuisine) {
			continue
		}
		if req.MealType != "" && !containsFold(cand.DishTypes, req.MealType) {
			continue
		}
		if !passesBasicFilters(&cand, req) {
			continue
		}
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].UsedCount > out[j].UsedCount })
	if len(out) > number {
		out = out[:number]
	}
	return out, nil
}

// SearchByQuery 以語意查詢放寬料理類型限制
func (c *Client) SearchByQuery(ctx context.Context, query string, req SearchRequest) ([]recipe.Candidate, error) {
	if len(req.Ingredients) == 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	number := clampNumber(req.Number)

	params := map[string]string{
		"query":                query,
		"includeIngredients":   strings.Join(req.Ingredients, ","),
		"number":               strconv.Itoa(number),
		"ranking":              "1",
		"ignorePantry":         "true",
		"addRecipeInformation": "false",
	}
	if len(req.Intolerances) > 0 {
		params["intolerances"] = strings.Join(req.Intolerances, ",")
	}
	if req.MealType != "" {
		params["type"] = req.MealType
	}

	var resp complexSearchResponse
	if err := c.get(ctx, "recipes/complexSearch", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	enriched := c.enrich(ctx, resp.Results)
	pantry := recipe.NormalizePantry(req.Ingredients)

	out := make([]recipe.Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		if full, ok := enriched[r.ID]; ok {
			r = full
		}
		cand := ToCandidate(r, SourceAPI)
		if cand.UsedCount == 0 && cand.MissedCount == 0 {
			cand.UsedCount, cand.MissedCount = recipe.MatchIngredients(pantry, cand.Ingredients)
		}
		out = append(out, cand)
	}
	return out, nil
}

// enrich 以 informationBulk 取得完整資訊，失敗時逐筆查詢前幾筆
func (c *Client) enrich(ctx context.Context, recipes []Recipe) map[int64]Recipe {
	ids := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		if r.ID != 0 {
			ids = append(ids, r.ID)
		}
	}

	out := make(map[int64]Recipe, len(ids))
	bulk, err := c.BulkInformation(ctx, ids)
	if err == nil {
		for _, r := range bulk {
			out[r.ID] = r
		}
		return out
	}

	common.LogWarn("informationBulk 失敗，改為逐筆查詢", zap.Error(err))
	for i, id := range ids {
		if i >= individualFetches || ctx.Err() != nil {
			break
		}
		r, err := c.Information(ctx, id)
		if err != nil {
			common.LogWarn("食譜資訊查詢失敗", zap.Int64("recipe_id", id), zap.Error(err))
			continue
		}
		out[id] = *r
	}
	return out
}

// BulkInformation 批次取得完整食譜（含營養與材料）
func (c *Client) BulkInformation(ctx context.Context, ids []int64) ([]Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > c.cfg.MaxBulk {
		ids = ids[:c.cfg.MaxBulk]
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatInt(id, 10)
	}

	var recipes []Recipe
	err := c.get(ctx, "recipes/informationBulk", map[string]string{
		"ids":              strings.Join(strIDs, ","),
		"includeNutrition": "true",
		"fillIngredients":  "true",
	}, &recipes)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// Information 取得單一食譜完整資訊
func (c *Client) Information(ctx context.Context, id int64) (*Recipe, error) {
	if id <= 0 {
		return nil, common.NewValidationError("recipe id must be positive")
	}
	var r Recipe
	if err := c.get(ctx, fmt.Sprintf("recipes/%d/information", id), map[string]string{
		"includeNutrition": "true",
	}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Substitutes 查詢食材替代品
func (c *Client) Substitutes(ctx context.Context, ingredient string) (*Substitutes, error) {
	ingredient = strings.TrimSpace(ingredient)
	if ingredient == "" {
		return nil, common.NewValidationError("ingredient name is required")
	}
	var s Substitutes
	if err := c.get(ctx, "food/ingredients/substitutes", map[string]string{
		"ingredientName": ingredient,
	}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Similar 查詢相似食譜，數量上限 10
func (c *Client) Similar(ctx context.Context, id int64, number int) ([]SimilarRecipe, error) {
	if id <= 0 {
		return nil, common.NewValidationError("recipe id must be positive")
	}
	if number <= 0 {
		number = 5
	}
	if number > maxSimilar {
		number = maxSimilar
	}

	var similar []SimilarRecipe
	if err := c.get(ctx, fmt.Sprintf("recipes/%d/similar", id), map[string]string{
		"number": strconv.Itoa(number),
	}, &similar); err != nil {
		return nil, err
	}
	for i := range similar {
		similar[i].Title = titleOr(similar[i].Title)
	}
	return similar, nil
}

// passesBasicFilters 時間、熱量、蛋白質與麩質/乳製品不耐的粗略檢查
func passesBasicFilters(c *recipe.Candidate, req SearchRequest) bool {
	if req.MaxReadyTime > 0 {
		if t, ok := c.ReadyTime(); ok && t > req.MaxReadyTime {
			return false
		}
	}

	for _, intol := range req.Intolerances {
		switch strings.ToLower(strings.TrimSpace(intol)) {
		case "dairy":
			if !c.Flags.DairyFree {
				return false
			}
		case "gluten":
			if !c.Flags.GlutenFree {
				return false
			}
		}
	}

	if len(c.Nutrients) > 0 {
		calories, _ := c.Nutrient("Calories")
		if req.MinCalories > 0 && calories < req.MinCalories {
			return false
		}
		if req.MaxCalories > 0 && calories > req.MaxCalories {
			return false
		}
		protein, _ := c.Nutrient("Protein")
		if req.MinProtein > 0 && protein < req.MinProtein {
			return false
		}
		if req.MaxProtein > 0 && protein > req.MaxProtein {
			return false
		}
	}
	return true
}

func clampNumber(n int) int {
	if n <= 0 {
		return defaultNumber
	}
	if n > maxSearchNumber {
		return maxSearchNumber
	}
	return n
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}
