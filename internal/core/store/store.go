package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/database"
	"pantry-chef/internal/pkg/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Preferences 儲存的使用者偏好，空值表示未設定
type Preferences struct {
	UserProfile  string   `json:"user_profile"`
	Mood         string   `json:"mood"`
	Intolerances []string `json:"intolerances"`
}

// Favorite 收藏紀錄
type Favorite struct {
	RecipeID    int64           `json:"recipe_id"`
	RecipeTitle string          `json:"recipe_title"`
	RecipeData  json.RawMessage `json:"recipe_data"`
	AddedDate   time.Time       `json:"added_date"`
}

// Store 單一使用者的儲藏室、收藏與偏好
type Store struct {
	db *gorm.DB
}

// New 創建資料存取層，db 須已完成遷移
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open 開啟資料庫並遷移所需資料表
func Open(cfg config.StoreConfig) (*Store, error) {
	db, err := database.Open(cfg, Models()...)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddIngredient 加入食材，已存在時回傳 false
func (s *Store) AddIngredient(ctx context.Context, name string) (bool, error) {
	name = normalize(name)
	if name == "" {
		return false, common.NewValidationError("ingredient name is required")
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&PantryItem{Name: name})
	if res.Error != nil {
		return false, common.Wrap(common.ErrInternalError, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveIngredient 移除食材，不存在時回傳 false
func (s *Store) RemoveIngredient(ctx context.Context, name string) (bool, error) {
	res := s.db.WithContext(ctx).Where("name = ?", normalize(name)).Delete(&PantryItem{})
	if res.Error != nil {
		return false, common.Wrap(common.ErrInternalError, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListPantry 依名稱排序的食材清單
func (s *Store) ListPantry(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.WithContext(ctx).Model(&PantryItem{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, common.Wrap(common.ErrInternalError, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ClearPantry 清空儲藏室
func (s *Store) ClearPantry(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&PantryItem{}).Error; err != nil {
		return common.Wrap(common.ErrInternalError, err)
	}
	return nil
}

// AddFavorite 收藏食譜，已收藏時回傳 false
func (s *Store) AddFavorite(ctx context.Context, recipeID int64, title string, data json.RawMessage) (bool, error) {
	if recipeID == 0 {
		return false, common.NewValidationError("recipe id is required")
	}
	rec := &FavoriteRecipe{RecipeID: recipeID, Title: title}
	if len(data) > 0 && json.Valid(data) {
		rec.Data = string(data)
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, common.Wrap(common.ErrInternalError, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveFavorite 取消收藏
func (s *Store) RemoveFavorite(ctx context.Context, recipeID int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&FavoriteRecipe{})
	if res.Error != nil {
		return false, common.Wrap(common.ErrInternalError, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IsFavorite 是否已收藏
func (s *Store) IsFavorite(ctx context.Context, recipeID int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&FavoriteRecipe{}).Where("recipe_id = ?", recipeID).Count(&count).Error; err != nil {
		return false, common.Wrap(common.ErrInternalError, err)
	}
	return count > 0, nil
}

// ListFavorites 最新收藏在前
func (s *Store) ListFavorites(ctx context.Context) ([]Favorite, error) {
	var rows []FavoriteRecipe
	if err := s.db.WithContext(ctx).Order("added_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, common.Wrap(common.ErrInternalError, err)
	}
	out := make([]Favorite, 0, len(rows))
	for _, r := range rows {
		fav := Favorite{RecipeID: r.RecipeID, RecipeTitle: r.Title, AddedDate: r.AddedAt}
		if r.Data != "" {
			fav.RecipeData = json.RawMessage(r.Data)
		}
		out = append(out, fav)
	}
	return out, nil
}

// FavoriteIDs 所有收藏的食譜 ID
func (s *Store) FavoriteIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := s.db.WithContext(ctx).Model(&FavoriteRecipe{}).Pluck("recipe_id", &ids).Error; err != nil {
		return nil, common.Wrap(common.ErrInternalError, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// SaveSettings 更新偏好，空欄位保留原值
func (s *Store) SaveSettings(ctx context.Context, p Preferences) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec SettingsRecord
		if err := tx.Order("id desc").Limit(1).Find(&rec).Error; err != nil {
			return common.Wrap(common.ErrInternalError, err)
		}

		if p.UserProfile != "" {
			rec.UserProfile = p.UserProfile
		}
		if p.Mood != "" {
			rec.Mood = p.Mood
		}
		if len(p.Intolerances) > 0 {
			rec.Intolerances = StringSlice(p.Intolerances)
		}
		if err := tx.Save(&rec).Error; err != nil {
			return common.Wrap(common.ErrInternalError, err)
		}
		return nil
	})
}

// GetSettings 讀取偏好，尚未設定時回傳空偏好
func (s *Store) GetSettings(ctx context.Context) (Preferences, error) {
	prefs := Preferences{Intolerances: []string{}}
	var rec SettingsRecord
	res := s.db.WithContext(ctx).Order("id desc").Limit(1).Find(&rec)
	if res.Error != nil {
		return prefs, common.Wrap(common.ErrInternalError, res.Error)
	}
	if res.RowsAffected == 0 {
		return prefs, nil
	}
	prefs.UserProfile = rec.UserProfile
	prefs.Mood = rec.Mood
	if len(rec.Intolerances) > 0 {
		prefs.Intolerances = []string(rec.Intolerances)
	}
	return prefs, nil
}

// Ping 檢查資料庫連線
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 關閉資料庫
func (s *Store) Close() error {
	return database.Close(s.db)
}
