package cache

import (
	"context"
	"encoding/json"
	"errors"

	"pantry-chef/internal/pkg/common"
)

// GetJSON 讀取並解碼 JSON 值，store 為 nil 時視為未命中
func GetJSON(ctx context.Context, store Store, key string, v interface{}) (bool, error) {
	if store == nil {
		return false, nil
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 將值編碼為 JSON 後寫入
func SetJSON(ctx context.Context, store Store, key string, v interface{}) error {
	if store == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(data))
}
