package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)
}

func TestBaseModelBeforeCreateKeepsExistingID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	require.NoError(t, base.BeforeCreate(nil))
	require.Equal(t, "fixed", base.ID)
}

func TestProductNormalise(t *testing.T) {
	p := Product{Name: "  Brass Lamp ", Image: " /lamp.jpg", CategoryID: " cat-1 "}
	p.Normalise()

	require.Equal(t, "Brass Lamp", p.Name)
	require.Equal(t, "/lamp.jpg", p.Image)
	require.Equal(t, "cat-1", p.CategoryID)
}

func TestProductJSONShape(t *testing.T) {
	p := Product{
		BaseModel:  BaseModel{ID: "p1"},
		Name:       "Lamp",
		Slug:       "lamp",
		Price:      10,
		Image:      "/lamp.jpg",
		CategoryID: "c1",
		Category:   &Category{BaseModel: BaseModel{ID: "c1"}, Name: "Lighting"},
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "c1", decoded["categoryId"])
	require.Contains(t, decoded, "originalPrice")
	require.Equal(t, "Lighting", decoded["category"].(map[string]any)["name"])
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Now()

	require.False(t, CacheEntry{}.Expired(now))
	require.False(t, CacheEntry{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	require.True(t, CacheEntry{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
}
