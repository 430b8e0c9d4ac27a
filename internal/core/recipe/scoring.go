package recipe

import (
	"fmt"
	"strconv"

	"pantry-chef/internal/pkg/common"
)

// Score 依使用者類型計算食材利用率分數
//
// 第二項 wMissing*(100-missingPct) 在總數固定時等於 usedPct，
// 兩項訊號高度相關，下游的信心分數依賴這個行為，維持不變。
func Score(used, missing int, profile string) ScoreBundle {
	weights := ProfileWeights(profile)
	total := used + missing
	if total <= 0 {
		return ScoreBundle{Breakdown: "No ingredient data", Weights: weights}
	}

	usedPct := float64(used) / float64(total) * 100
	missingPct := float64(missing) / float64(total) * 100

	usedComponent := weights.Used * usedPct
	missingComponent := weights.Missing * (100 - missingPct)

	return ScoreBundle{
		SmartScore:   common.Round(usedComponent+missingComponent, 1),
		UsedScore:    common.Round(usedPct, 1),
		MissingScore: common.Round(100-missingPct, 1),
		Breakdown:    breakdown(usedPct, missingPct, weights),
		Weights:      weights,
	}
}

func breakdown(usedPct, missingPct float64, w Weights) string {
	return fmt.Sprintf("%s×%.1f%% + %s×%.1f%% = %.1f + %.1f",
		formatWeight(w.Used), usedPct,
		formatWeight(w.Missing), 100-missingPct,
		common.Round(w.Used*usedPct, 1),
		common.Round(w.Missing*(100-missingPct), 1),
	)
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
