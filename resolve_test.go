package filemap

import (
	"errors"
	"testing"
)

func TestFormatTemplate(t *testing.T) {
	params := map[string]string{"hemi": "lh", "surface": "white"}

	cases := []struct {
		template string
		want     string
	}{
		{"{hemi}.thickness.ext", "lh.thickness.ext"},
		{"surf/{hemi}.{surface}", "surf/lh.white"},
		{"plain.txt", "plain.txt"},
		{"{{literal}}.txt", "{literal}.txt"},
	}

	for _, tc := range cases {
		got, err := formatTemplate(tc.template, params)
		if err != nil {
			t.Errorf("formatTemplate(%q) failed: %v", tc.template, err)
			continue
		}
		if got != tc.want {
			t.Errorf("formatTemplate(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestFormatTemplate_UnresolvedField(t *testing.T) {
	_, err := formatTemplate("{hemi}.thickness.ext", nil)
	if !errors.Is(err, ErrTemplateResolution) {
		t.Fatalf("Expected ErrTemplateResolution, got %v", err)
	}

	var terr *TemplateError
	if !errors.As(err, &terr) {
		t.Fatal("Expected a *TemplateError")
	}
	if terr.Field != "hemi" {
		t.Errorf("Expected field 'hemi', got %q", terr.Field)
	}
}

// TestResolvePath_TagPrecedence verifies instruction tags win over path
// parameters on conflicting fields.
func TestResolvePath_TagPrecedence(t *testing.T) {
	f := NewFile("hemi", "lh")

	name, relpath, err := resolvePath("{hemi}.thickness.ext", map[string]string{"hemi": "rh"}, f, nil)
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if name != "" {
		t.Errorf("Expected primary directory, got supplement %q", name)
	}
	if relpath != "lh.thickness.ext" {
		t.Errorf("Expected 'lh.thickness.ext', got %q", relpath)
	}
}

func TestResolvePath_InstructionOnlyField(t *testing.T) {
	f := NewFile("hemi", "lh")

	_, relpath, err := resolvePath("{hemi}.thickness.ext", map[string]string{}, f, nil)
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if relpath != "lh.thickness.ext" {
		t.Errorf("Expected 'lh.thickness.ext', got %q", relpath)
	}

	// Absent from both maps fails with the unresolved field.
	_, _, err = resolvePath("{hemi}.thickness.ext", map[string]string{}, &File{}, nil)
	if !errors.Is(err, ErrTemplateResolution) {
		t.Errorf("Expected ErrTemplateResolution, got %v", err)
	}
}

func TestResolvePath_SupplementalPrefix(t *testing.T) {
	supplements := map[string]string{"atlas": "/somewhere/atlas"}

	name, relpath, err := resolvePath("atlas:{hemi}.sphere", map[string]string{"hemi": "lh"}, &File{}, supplements)
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if name != "atlas" {
		t.Errorf("Expected supplement 'atlas', got %q", name)
	}
	if relpath != "lh.sphere" {
		t.Errorf("Expected 'lh.sphere', got %q", relpath)
	}

	// Unknown prefixes stay part of the relative path.
	name, relpath, err = resolvePath("other:file.txt", nil, &File{}, supplements)
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if name != "" || relpath != "other:file.txt" {
		t.Errorf("Expected unstripped path, got (%q, %q)", name, relpath)
	}
}
