package handlers

import (
	"strings"
	"sync"

	"pantry-chef/internal/core/recipe"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的 validator 上註冊 mood、profile、difficulty 規則
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		rules := map[string]validator.Func{
			"mood":       validateMood,
			"profile":    validateProfile,
			"difficulty": validateDifficulty,
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

func validateMood(fl validator.FieldLevel) bool {
	return recipe.IsKnownMood(fl.Field().String())
}

func validateProfile(fl validator.FieldLevel) bool {
	return recipe.IsKnownProfile(fl.Field().String())
}

func validateDifficulty(fl validator.FieldLevel) bool {
	switch recipe.Difficulty(strings.ToLower(strings.TrimSpace(fl.Field().String()))) {
	case recipe.Easy, recipe.Medium, recipe.Hard:
		return true
	}
	return false
}

// BindError 回報請求格式錯誤，由 ErrorHandler 寫出響應
func BindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
}

// Fail 回報處理錯誤，由 ErrorHandler 寫出響應
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
