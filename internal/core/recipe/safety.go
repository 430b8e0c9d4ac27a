package recipe

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SafetyChecker 安全檢查，唯一會直接淘汰食譜的關卡
type SafetyChecker interface {
	Check(c *Candidate, s Settings) SafetyVerdict
}

// SoftFlagScore 疑似違反時給的安全分數
const SoftFlagScore = 0.5

var (
	landMeat = []string{"chicken", "turkey", "beef", "steak", "pork", "lamb", "mutton", "venison", "veal",
		"duck", "goose", "bacon", "ham", "sausage", "pepperoni", "salami", "chorizo",
		"meatball", "lard", "tallow", "gelatin"}
	seaMeat = []string{"fish", "salmon", "tuna", "cod", "tilapia", "shrimp", "prawn", "crab", "lobster",
		"mussel", "clam", "oyster", "squid", "calamari", "octopus", "anchovy", "sardine"}
	dairyEggs = []string{"egg", "milk", "cream", "butter", "cheese", "yogurt", "whey", "casein"}

	allergyMap = map[string][]string{
		"dairy":  {"cheese", "milk", "butter", "cream", "yogurt", "dairy"},
		"gluten": {"wheat", "flour", "pasta", "bread", "gluten"},
		"eggs":   {"egg", "eggs", "mayonnaise"},
		"nuts":   {"nuts", "almond", "peanut", "cashew"},
		"shellfish": {"shellfish", "shrimp", "prawn", "crab", "lobster", "crayfish", "mussel", "clam", "oyster",
			"scallop"},
		"soy":    {"soy", "tofu", "tempeh", "edamame", "miso"},
		"sesame": {"sesame", "tahini"},
	}
	safeWords = map[string][]string{
		"dairy":  {"vegan", "plant-based", "non-dairy", "almond", "coconut", "oat"},
		"gluten": {"gluten-free", "gf"},
		"eggs":   {"egg-free", "vegan", "plant-based"},
		"nuts":   {"nut-free"},
		"soy":    {"soy-free"},
	}

	// 含關鍵字但與過敏原無關的食材名稱，掃描前先遮蔽
	falseFriends = []string{"eggplant", "butternut", "cream of tartar", "cocoa butter", "coconut cream", "nutmeg"}

	intoleranceAliases = map[string]string{"egg": "eggs", "nut": "nuts", "tree nut": "nuts", "tree nuts": "nuts", "peanut": "nuts", "peanuts": "nuts", "milk": "dairy", "wheat": "gluten",
		"seafood": "shellfish", "soya": "soy", "soybean": "soy", "soybeans": "soy"}
)

// SafetyGate 以材料清單檢查飲食與過敏原，不看標題與摘要
type SafetyGate struct{}

// NewSafetyGate 建立安全檢查
func NewSafetyGate() *SafetyGate {
	return &SafetyGate{}
}

// Check 先檢查素食類飲食（一律硬淘汰），再檢查過敏原（有安全字則交由 LLM 複核）
func (g *SafetyGate) Check(c *Candidate, s Settings) SafetyVerdict {
	texts := scanTexts(c.Ingredients)

	if v, rejected := checkDiet(texts, s); rejected {
		return v
	}

	if len(s.Intolerances) == 0 {
		return safeVerdict()
	}

	var found, suspicious, alternatives []string
	var softKeyword string
	hard := false

	for _, intolerance := range s.Intolerances {
		key := canonicalIntolerance(intolerance)
		keywords, ok := allergyMap[key]
		if !ok {
			keywords = []string{key}
		}
		safe := safeWords[key]
		hit := false
		for _, t := range texts {
			kw := firstKeyword(t.scan, keywords)
			if kw == "" {
				continue
			}
			hit = true
			if firstWord(t.scan, safe) != "" {
				alternatives = append(alternatives, t.raw)
				if softKeyword == "" {
					softKeyword = kw
				}
				continue
			}
			hard = true
			suspicious = append(suspicious, t.raw)
		}
		if hit {
			found = append(found, intolerance)
		}
	}

	switch {
	case hard:
		return SafetyVerdict{
			Status:                HardReject,
			Passed:                false,
			SafetyScore:           0,
			Reason:                fmt.Sprintf("Hard cutoff: %s found without safe keywords.", strings.Join(uniqueSorted(suspicious), ", ")),
			FoundIntolerances:     found,
			SuspiciousIngredients: uniqueSorted(suspicious),
		}
	case len(alternatives) > 0:
		note := fmt.Sprintf("Contains %s with safe-word, LLM must verify", softKeyword)
		return SafetyVerdict{
			Status:                    SoftFlag,
			Passed:                    true,
			RequiresAIValidation:      true,
			SafetyScore:               SoftFlagScore,
			Reason:                    fmt.Sprintf("Found %s with safe-word; needs verification.", softKeyword),
			ViolationNote:             note,
			FoundIntolerances:         found,
			SafeAlternativeIndicators: uniqueSorted(alternatives),
		}
	}
	return safeVerdict()
}

// checkDiet 素食、純素、海鮮素的硬性檢查
func checkDiet(texts []scanText, s Settings) (SafetyVerdict, bool) {
	vegetarian := s.HasDiet("vegetarian")
	vegan := s.HasDiet("vegan")
	pescatarian := s.HasDiet("pescatarian")
	if !vegetarian && !vegan && !pescatarian {
		return SafetyVerdict{}, false
	}

	diet := "pescatarian"
	switch {
	case vegan:
		diet = "vegan"
	case vegetarian:
		diet = "vegetarian"
	}

	for _, t := range texts {
		if firstKeyword(t.scan, landMeat) != "" {
			return dietReject(diet, "land meat", t.raw), true
		}
		if pescatarian && !vegetarian && !vegan {
			continue
		}
		if firstKeyword(t.scan, seaMeat) != "" {
			return dietReject(diet, "seafood", t.raw), true
		}
		if !vegan {
			continue
		}
		if firstKeyword(t.scan, dairyEggs) != "" && firstWord(t.scan, veganSafeWords()) == "" {
			return dietReject(diet, "dairy/eggs", t.raw), true
		}
	}
	return SafetyVerdict{}, false
}

func dietReject(diet, category, ingredient string) SafetyVerdict {
	return SafetyVerdict{
		Status:                HardReject,
		Passed:                false,
		SafetyScore:           0,
		Reason:                fmt.Sprintf("Contains %s in ingredients - violates %s diet", category, diet),
		SuspiciousIngredients: []string{ingredient},
	}
}

func safeVerdict() SafetyVerdict {
	return SafetyVerdict{
		Status:      Safe,
		Passed:      true,
		SafetyScore: 1.0,
		Reason:      "Safe - no intolerances found",
	}
}

func veganSafeWords() []string {
	words := make([]string, 0, len(safeWords["dairy"])+len(safeWords["eggs"]))
	words = append(words, safeWords["dairy"]...)
	return append(words, safeWords["eggs"]...)
}

func canonicalIntolerance(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := intoleranceAliases[key]; ok {
		return alias
	}
	return key
}

// scanText 原始材料文字與遮蔽後的掃描文字
type scanText struct {
	raw  string
	scan string
}

func scanTexts(ingredients []Ingredient) []scanText {
	out := make([]scanText, 0, len(ingredients))
	for _, ing := range ingredients {
		raw := ing.Text()
		if scan := maskFalseFriends(raw); scan != "" {
			out = append(out, scanText{raw: raw, scan: scan})
		}
	}
	return out
}

func maskFalseFriends(text string) string {
	for _, f := range falseFriends {
		if strings.Contains(text, f) {
			text = strings.ReplaceAll(text, f, strings.Repeat(" ", len(f)))
		}
	}
	return strings.TrimSpace(text)
}

func firstKeyword(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

// firstWord 安全字必須是完整單字，避免 goat 內的 oat 被當成安全字
func firstWord(text string, words []string) string {
	for _, w := range words {
		if containsWord(text, w) {
			return w
		}
	}
	return ""
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if !wordRuneBefore(text, start) && !wordRuneAt(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func wordRuneBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordRuneAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func uniqueSorted(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}
