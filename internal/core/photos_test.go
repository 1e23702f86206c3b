package core

import (
	"slices"
	"testing"
)

func TestNormalizePhotoRefs(t *testing.T) {
	cases := []struct {
		name string
		row  map[string]any
		want []string
	}{
		{"empty row", map[string]any{}, nil},
		{"string slice", map[string]any{"photos": []string{"a.jpg", "", "b.jpg"}}, []string{"a.jpg", "b.jpg"}},
		{"any slice", map[string]any{"photo_urls": []any{"a.jpg", 3, "b.jpg"}}, []string{"a.jpg", "b.jpg"}},
		{"json string", map[string]any{"images": `["x/1.jpg","x/2.jpg"]`}, []string{"x/1.jpg", "x/2.jpg"}},
		{"comma list", map[string]any{"image_urls": "a.jpg, b.jpg ,"}, []string{"a.jpg", "b.jpg"}},
		{"single", map[string]any{"photos": " a.jpg "}, []string{"a.jpg"}},
		{"blank string falls through", map[string]any{"photos": "  ", "images": "c.jpg"}, []string{"c.jpg"}},
		{"field order", map[string]any{"images": "late.jpg", "photos": "first.jpg"}, []string{"first.jpg"}},
		{"empty array stops search", map[string]any{"photos": []any{}, "images": "c.jpg"}, nil},
		{"unsupported type skipped", map[string]any{"photos": 42, "images": "c.jpg"}, []string{"c.jpg"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePhotoRefs(tc.row)
			if tc.want == nil {
				if got.Kind != RefsNone {
					t.Fatalf("expected none, got %+v", got)
				}
				return
			}
			if got.Kind != RefsPaths || !slices.Equal(got.Paths, tc.want) {
				t.Fatalf("got %+v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractStoragePath(t *testing.T) {
	const bucket = "listing-photos"
	cases := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"listings/1/a.jpg", "listings/1/a.jpg", true},
		{"/listings/1/a.jpg", "listings/1/a.jpg", true},
		{"https://x.example.co/storage/v1/object/public/listing-photos/listings/1/a.jpg", "listings/1/a.jpg", true},
		{"https://x.example.co/storage/v1/object/public/other/listings/1/a.jpg", "", false},
		{"https://cdn.example.com/a.jpg", "", false},
		{"", "", false},
		{"/", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractStoragePath(tc.ref, bucket)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ExtractStoragePath(%q) = %q,%v want %q,%v", tc.ref, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStoragePaths(t *testing.T) {
	refs := PhotoRefs{Kind: RefsPaths, Paths: []string{
		"a.jpg",
		"https://h/storage/v1/object/public/b/c/d.jpg",
		"https://h/elsewhere.jpg",
	}}
	got := StoragePaths(refs, "b")
	if !slices.Equal(got, []string{"a.jpg", "c/d.jpg"}) {
		t.Fatalf("StoragePaths = %v", got)
	}
	if StoragePaths(PhotoRefs{}, "b") != nil {
		t.Fatalf("none must yield nil")
	}
}
