package recipe

import (
	"sort"
	"strings"
)

// NormalizePantry 轉小寫、去空白並去重
func NormalizePantry(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		s := strings.ToLower(strings.TrimSpace(it))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// MatchIngredients 將材料分成已有與缺少，兩者加總等於材料數
func MatchIngredients(pantry []string, manifest []Ingredient) (used, missing int) {
	for _, ing := range manifest {
		if inPantry(pantry, ing.Text()) {
			used++
		} else {
			missing++
		}
	}
	return used, missing
}

// PartitionIngredients 與 MatchIngredients 相同，但回傳名稱
func PartitionIngredients(pantry []string, manifest []Ingredient) (used, missing []string) {
	for _, ing := range manifest {
		name := ing.Text()
		if inPantry(pantry, name) {
			used = append(used, name)
		} else {
			missing = append(missing, name)
		}
	}
	return used, missing
}

func inPantry(pantry []string, name string) bool {
	if name == "" {
		return false
	}
	for _, p := range pantry {
		if p == "" {
			continue
		}
		if strings.Contains(name, p) || strings.Contains(p, name) {
			return true
		}
	}
	return false
}

// TopIngredients 取出現頻率最高的前 n 個食材，頻率相同時維持原順序
func TopIngredients(pantry []string, candidates []Candidate, n int) []string {
	if len(pantry) <= n {
		return pantry
	}
	counts := make(map[string]int, len(pantry))
	for _, c := range candidates {
		for _, ing := range c.Ingredients {
			text := ing.Text()
			for _, p := range pantry {
				if text != "" && (strings.Contains(text, p) || strings.Contains(p, text)) {
					counts[p]++
				}
			}
		}
	}
	ranked := make([]string, len(pantry))
	copy(ranked, pantry)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	return ranked[:n]
}
