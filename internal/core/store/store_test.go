package store

import (
	"context"
	"encoding/json"
	"testing"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	st, err := Open(config.StoreConfig{LogLevel: "silent"})
	s.Require().NoError(err)
	s.store = st
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *StoreTestSuite) TestPantryLifecycle() {
	added, err := s.store.AddIngredient(s.ctx, "  Garlic ")
	s.Require().NoError(err)
	s.True(added)

	added, err = s.store.AddIngredient(s.ctx, "garlic")
	s.Require().NoError(err)
	s.False(added)

	_, err = s.store.AddIngredient(s.ctx, "Basil")
	s.Require().NoError(err)

	list, err := s.store.ListPantry(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"basil", "garlic"}, list)

	removed, err := s.store.RemoveIngredient(s.ctx, "GARLIC")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.store.RemoveIngredient(s.ctx, "garlic")
	s.Require().NoError(err)
	s.False(removed)

	s.Require().NoError(s.store.ClearPantry(s.ctx))
	list, err = s.store.ListPantry(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
	s.NotNil(list)
}

func (s *StoreTestSuite) TestAddIngredientRejectsBlank() {
	_, err := s.store.AddIngredient(s.ctx, "   ")
	s.True(common.IsValidationError(err))
}

func (s *StoreTestSuite) TestFavorites() {
	added, err := s.store.AddFavorite(s.ctx, 42, "Pesto Pasta", json.RawMessage(`{"id":42}`))
	s.Require().NoError(err)
	s.True(added)

	added, err = s.store.AddFavorite(s.ctx, 42, "Pesto Pasta", nil)
	s.Require().NoError(err)
	s.False(added)

	_, err = s.store.AddFavorite(s.ctx, 7, "Toast", nil)
	s.Require().NoError(err)

	fav, err := s.store.IsFavorite(s.ctx, 42)
	s.Require().NoError(err)
	s.True(fav)

	ids, err := s.store.FavoriteIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{7, 42}, ids)

	list, err := s.store.ListFavorites(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	for _, f := range list {
		if f.RecipeID == 42 {
			s.JSONEq(`{"id":42}`, string(f.RecipeData))
		} else {
			s.Nil(f.RecipeData)
		}
	}

	removed, err := s.store.RemoveFavorite(s.ctx, 42)
	s.Require().NoError(err)
	s.True(removed)

	fav, err = s.store.IsFavorite(s.ctx, 42)
	s.Require().NoError(err)
	s.False(fav)
}

func (s *StoreTestSuite) TestFavoriteRequiresID() {
	_, err := s.store.AddFavorite(s.ctx, 0, "x", nil)
	s.True(common.IsValidationError(err))
}

func (s *StoreTestSuite) TestSettingsDefaults() {
	prefs, err := s.store.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("", prefs.UserProfile)
	s.Equal([]string{}, prefs.Intolerances)
}

func (s *StoreTestSuite) TestSettingsMerge() {
	s.Require().NoError(s.store.SaveSettings(s.ctx, Preferences{
		UserProfile:  "athlete",
		Mood:         "tired",
		Intolerances: []string{"peanut"},
	}))
	s.Require().NoError(s.store.SaveSettings(s.ctx, Preferences{Mood: "energetic"}))

	prefs, err := s.store.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("athlete", prefs.UserProfile)
	s.Equal("energetic", prefs.Mood)
	s.Equal([]string{"peanut"}, prefs.Intolerances)

	var count int64
	s.Require().NoError(s.store.db.Model(&SettingsRecord{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *StoreTestSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
