package assistant

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// SubstitutionRequest 替代食材詢問
type SubstitutionRequest struct {
	MissingItem   string
	RecipeTitle   string
	Pantry        []string
	APISubstitute string // 上游建議的替代品，可為空
}

// Advice 替代建議
type Advice struct {
	Substitution string `json:"substitution"`
	ChefTip      string `json:"chef_tip"`
	// Source: llm, offline, fallback
	Source string `json:"source"`
}

const (
	AdviceLLM      = "llm"
	AdviceOffline  = "offline"
	AdviceFallback = "fallback"
)

const (
	defaultSubstitution = "No substitute found"
	defaultTip          = "Check your pantry contents again."
	offlineTip          = "PantryChef is in offline mode. Check your similar recipes!"
	busySubstitution    = "Creative Manual Check Needed"
	busyTip             = "The AI kitchen is busy! Try a similar herb or spice."
)

const substitutePrompt = `You are a professional chef helping a user make %s but they are missing %s.

Their pantry contains: %s
%s
Use your knowledge to find the BEST substitution. If ingredients in the pantry can be combined (e.g., "Balsamic Vinegar" + "Salt" as a Soy Sauce substitute), suggest it as a "Chef's Secret" hack.

Format your response EXACTLY as:
SUBSTITUTION: [item or combination]
TIP: [one sentence chef advice under 15 words, mention if it's a creative hack]`

// Substitute 建議缺少食材的替代品
func (a *Assistant) Substitute(ctx context.Context, req SubstitutionRequest) Advice {
	if !a.Available() {
		sub := strings.TrimSpace(req.APISubstitute)
		if sub == "" {
			sub = fmt.Sprintf("Try omitting %s.", req.MissingItem)
		}
		return Advice{Substitution: sub, ChefTip: offlineTip, Source: AdviceOffline}
	}

	pantry := req.Pantry
	if len(pantry) > 12 {
		pantry = pantry[:12]
	}
	apiContext := ""
	if req.APISubstitute != "" {
		apiContext = "Spoonacular API suggests: " + req.APISubstitute + "\n"
	}
	prompt := fmt.Sprintf(substitutePrompt, req.RecipeTitle, req.MissingItem, strings.Join(pantry, ", "), apiContext)

	text, err := a.llm.GenerateText(ctx, prompt, "")
	if err != nil {
		common.LogWarn("替代建議產生失敗",
			zap.String("missing_item", req.MissingItem),
			zap.Error(err),
		)
		return Advice{Substitution: busySubstitution, ChefTip: busyTip, Source: AdviceFallback}
	}
	return parseAdvice(text)
}

// parseAdvice 解析 SUBSTITUTION: 與 TIP: 兩行
func parseAdvice(text string) Advice {
	advice := Advice{Substitution: defaultSubstitution, ChefTip: defaultTip, Source: AdviceLLM}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "SUBSTITUTION:"):
			if v := strings.TrimSpace(line[len("SUBSTITUTION:"):]); v != "" {
				advice.Substitution = v
			}
		case strings.HasPrefix(upper, "TIP:"):
			if v := strings.TrimSpace(line[len("TIP:"):]); v != "" {
				advice.ChefTip = v
			}
		}
	}
	return advice
}
