package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeManga(t *testing.T, raw string) MangaRecord {
	t.Helper()
	var m MangaRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestLocalizedStringPreservesOrder(t *testing.T) {
	var l LocalizedString
	require.NoError(t, json.Unmarshal([]byte(`{"ja-ro":"Naruto","fr":"Naruto FR","ja":"ナルト"}`), &l))

	require.Len(t, l, 3)
	assert.Equal(t, "ja-ro", l[0].Lang)
	assert.Equal(t, "fr", l[1].Lang)
	assert.Equal(t, "ja", l[2].Lang)
	assert.Equal(t, "Naruto", l.FirstNonEmpty())
	assert.Equal(t, "Naruto FR", l.Get("fr"))
	assert.Equal(t, "", l.Get("en"))
}

func TestLocalizedStringEmptyForms(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `{}`} {
		var l LocalizedString
		require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)
		assert.Empty(t, l, raw)
	}

	var l LocalizedString
	assert.Error(t, json.Unmarshal([]byte(`"plain"`), &l))
}

func TestNormalizeMangaTitlePolicy(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		defaultTitle string
		expected     string
	}{
		{"english wins", `{"ja":"ナルト","en":"Naruto"}`, SearchDefaultTitle, "Naruto"},
		{"first localized when no english", `{"fr":"Naruto FR","ja":"ナルト"}`, SearchDefaultTitle, "Naruto FR"},
		{"empty english falls through", `{"en":"","ja":"ナルト"}`, SearchDefaultTitle, "ナルト"},
		{"empty map uses search default", `{}`, SearchDefaultTitle, "No Title"},
		{"array form uses home default", `[]`, HomeDefaultTitle, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decodeManga(t, `{"id":"m1","attributes":{"title":`+tt.title+`}}`)
			item := NormalizeManga(m, tt.defaultTitle)
			assert.Equal(t, tt.expected, item.Title)
			assert.NotEmpty(t, item.Title)
		})
	}
}

func TestNormalizeMangaFields(t *testing.T) {
	m := decodeManga(t, `{
		"id": "abc",
		"attributes": {
			"title": {"en": "Naruto"},
			"description": {"en": "A ninja story", "ja": "忍者"},
			"status": "completed",
			"year": 1999,
			"tags": [
				{"attributes": {"name": {"en": "Action"}}},
				{"attributes": {"name": {"ja": "冒険"}}},
				{"attributes": {"name": {"en": "Comedy"}}}
			]
		},
		"relationships": [
			{"id": "a1", "type": "author"},
			{"id": "c1", "type": "cover_art", "attributes": {"fileName": "cover.jpg"}},
			{"id": "c2", "type": "cover_art", "attributes": {"fileName": "second.jpg"}}
		]
	}`)

	item := NormalizeManga(m, SearchDefaultTitle)

	assert.Equal(t, "abc", item.ID)
	assert.Equal(t, "A ninja story", item.Description)
	require.NotNil(t, item.Status)
	assert.Equal(t, "completed", *item.Status)
	require.NotNil(t, item.Year)
	assert.Equal(t, 1999, *item.Year)
	assert.Equal(t, []string{"Action", "Comedy"}, item.Tags)
	assert.Equal(t, "https://uploads.mangadex.org/covers/abc/cover.jpg", item.CoverURL)
}

func TestNormalizeMangaKeepsTagsWithEmptyEnglishName(t *testing.T) {
	m := decodeManga(t, `{"id":"t","attributes":{"title":{"en":"T"},"tags":[
		{"attributes":{"name":{"en":""}}},
		{"attributes":{"name":{"ja":"冒険"}}},
		{"attributes":{"name":{"en":"Drama"}}}
	]}}`)

	item := NormalizeManga(m, SearchDefaultTitle)

	assert.Equal(t, []string{"", "Drama"}, item.Tags)
}

func TestNormalizeMangaMissingOptionalFields(t *testing.T) {
	m := decodeManga(t, `{"id":"x","attributes":{"title":{"ja":"タイトル"},"status":null,"year":null,"description":[]}}`)

	item := NormalizeManga(m, HomeDefaultTitle)

	assert.Nil(t, item.Status)
	assert.Nil(t, item.Year)
	assert.Equal(t, "", item.Description)
	assert.NotNil(t, item.Tags)
	assert.Empty(t, item.Tags)
	assert.Equal(t, PlaceholderCoverURL, item.CoverURL)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","title":"タイトル","description":"","status":null,"year":null,"tags":[],"cover_url":"`+PlaceholderCoverURL+`"}`, string(out))
}

func TestCoverURLSkipsRelationshipsWithoutFileName(t *testing.T) {
	rels := []Relationship{
		{Type: "cover_art"},
		{Type: "author"},
	}
	assert.Equal(t, PlaceholderCoverURL, CoverURL("id", rels))
	assert.Equal(t, PlaceholderCoverURL, CoverURL("id", nil))
}

func TestNormalizeMangaIsDeterministic(t *testing.T) {
	m := decodeManga(t, `{"id":"d","attributes":{"title":{"fr":"Un","de":"Eins","es":"Uno"},"tags":[{"attributes":{"name":{"en":"Drama"}}}]}}`)

	first := NormalizeManga(m, SearchDefaultTitle)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, NormalizeManga(m, SearchDefaultTitle))
	}
	assert.Equal(t, "Un", first.Title)
}

func TestNormalizeChaptersKeepsOrderAndDuplicates(t *testing.T) {
	var records []ChapterRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"c1","attributes":{"chapter":"1","title":"Start","translatedLanguage":"en"}},
		{"id":"c2","attributes":{"chapter":"1","title":null,"translatedLanguage":"en"}},
		{"id":"c3","attributes":{"chapter":null,"title":"Oneshot","translatedLanguage":"en"}}
	]`), &records))

	chapters := NormalizeChapters(records)

	require.Len(t, chapters, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{chapters[0].ID, chapters[1].ID, chapters[2].ID})
	assert.Nil(t, chapters[1].Title)
	assert.Nil(t, chapters[2].Chapter)
	assert.Equal(t, "en", chapters[0].Language)
}

func TestBuildPageList(t *testing.T) {
	session := &AtHomeRecord{BaseURL: "https://node.example/"}
	session.Chapter.Hash = "h4sh"
	session.Chapter.Data = []string{"3.png", "1.png", "2.png"}

	pages := BuildPageList("ch", session)

	assert.Equal(t, "ch", pages.ParentID)
	assert.Equal(t, []string{
		"https://node.example/data/h4sh/3.png",
		"https://node.example/data/h4sh/1.png",
		"https://node.example/data/h4sh/2.png",
	}, pages.Pages)
}
