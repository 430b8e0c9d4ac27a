package recommend

import (
	"regexp"
	"strconv"
	"strings"

	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/recipe"
)

// 標題前後檢查拒絕字樣的範圍（字元數）
const rejectionWindow = 100

// 行首名次，例如 "2." 或 "**2.**"，不含 "12." 與 "2.5"
var rankPrefix = regexp.MustCompile(`^[^\p{L}\d]*(\d+)\.(?:\D|$)`)

// DetectRejections 找出推薦文案中被標記為 REJECTED 的食譜標題
//
// 判定方式：標題前後 100 字元內出現 rejected；某行只有拒絕標記時依行號對應第幾名；
// 其他含 rejected 的行若以名次 "N." 開頭或提到標題也算。
func DetectRejections(pitch string, top []recipe.Result) map[string]bool {
	if !strings.Contains(strings.ToUpper(pitch), "REJECTED") {
		return nil
	}
	rejected := make(map[string]bool)
	lower := []rune(strings.ToLower(pitch))

	for _, r := range top {
		if r.Title == "" {
			continue
		}
		title := []rune(strings.ToLower(r.Title))
		idx := runeIndex(lower, title)
		if idx < 0 {
			continue
		}
		start := idx - rejectionWindow
		if start < 0 {
			start = 0
		}
		end := idx + len(title) + rejectionWindow
		if end > len(lower) {
			end = len(lower)
		}
		if strings.Contains(string(lower[start:end]), "rejected") {
			rejected[r.Title] = true
		}
	}

	marker := strings.ToUpper(assistant.RejectionMarker)
	for i, line := range strings.Split(pitch, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		if upper == "REJECTED" || upper == marker {
			if i < len(top) && top[i].Title != "" {
				rejected[top[i].Title] = true
			}
			continue
		}
		lowerLine := strings.ToLower(line)
		if !strings.Contains(lowerLine, "rejected") {
			continue
		}
		rank := lineRank(line)
		for j, r := range top {
			if r.Title == "" {
				continue
			}
			if rank == j+1 || strings.Contains(lowerLine, strings.ToLower(r.Title)) {
				rejected[r.Title] = true
			}
		}
	}
	return rejected
}

func lineRank(line string) int {
	m := rankPrefix.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
