package markdown

import (
	"slices"
	"testing"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
	"github.com/goliatone/go-md2confluence/pkg/testsupport"
)

func TestConvertWikiGolden(t *testing.T) {
	source := testsupport.LoadFixture(t, "testdata/guide.md")

	result := NewConverter().Convert(string(source), interfaces.ConvertOptions{
		BaseURL:  "https://wiki.example.com",
		SpaceKey: "DOCS",
	})

	testsupport.AssertGolden(t, "testdata/guide.wiki", []byte(result.Markup))

	var want struct {
		Images []string `json:"images"`
		Tags   []string `json:"tags"`
	}
	testsupport.LoadGolden(t, "testdata/guide.result.json", &want)
	if !slices.Equal(result.Images, want.Images) {
		t.Fatalf("images: want %v, got %v", want.Images, result.Images)
	}
	if !slices.Equal(result.Tags, want.Tags) {
		t.Fatalf("tags: want %v, got %v", want.Tags, result.Tags)
	}
}
