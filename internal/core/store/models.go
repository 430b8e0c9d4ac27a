package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PantryItem 儲藏室食材
type PantryItem struct {
	ID      uint      `gorm:"primaryKey"`
	Name    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	AddedAt time.Time `gorm:"autoCreateTime"`
}

// FavoriteRecipe 收藏的食譜，Data 保存收藏當下的食譜快照
type FavoriteRecipe struct {
	ID       uint      `gorm:"primaryKey"`
	RecipeID int64     `gorm:"uniqueIndex;not null"`
	Title    string    `gorm:"type:varchar(255)"`
	Data     string    `gorm:"type:text"`
	AddedAt  time.Time `gorm:"autoCreateTime;index"`
}

// SettingsRecord 使用者偏好，只保留一筆
type SettingsRecord struct {
	ID           uint        `gorm:"primaryKey"`
	UserProfile  string      `gorm:"type:varchar(50)"`
	Mood         string      `gorm:"type:varchar(50)"`
	Intolerances StringSlice `gorm:"type:json"`
	UpdatedAt    time.Time
}

// Models 需要遷移的資料表
func Models() []interface{} {
	return []interface{}{&PantryItem{}, &FavoriteRecipe{}, &SettingsRecord{}}
}

// StringSlice 以 JSON 文字儲存的字串陣列
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
