package markup

import (
	"reflect"
	"testing"
)

func TestExtractLinksCategoryAndAnchor(t *testing.T) {
	text := "[[Category:Science]] text [[London|the capital]]"

	cats := ExtractLinks(text, Category)
	if !reflect.DeepEqual(cats, []string{"Science"}) {
		t.Errorf("categories = %q, want [Science]", cats)
	}

	anchors := ExtractLinks(text, Anchor)
	if !reflect.DeepEqual(anchors, []string{"London"}) {
		t.Errorf("anchors = %q, want [London]", anchors)
	}
}

func TestExtractLinksWholeTarget(t *testing.T) {
	got := ExtractLinks("[[Paris]]", Anchor)
	if !reflect.DeepEqual(got, []string{"Paris"}) {
		t.Errorf("got %q, want [Paris]", got)
	}
}

func TestExtractLinksDocumentOrder(t *testing.T) {
	text := "[[B]] and [[A|a]] then [[Category:Z]] [[Category:Y]] [[C]]"

	if got := ExtractLinks(text, Anchor); !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Errorf("anchors = %q", got)
	}
	if got := ExtractLinks(text, Category); !reflect.DeepEqual(got, []string{"Z", "Y"}) {
		t.Errorf("categories = %q", got)
	}
}

func TestExtractLinksInsideTemplateIgnored(t *testing.T) {
	text := "{{Infobox|spouse=[[Someone]]}} [[Visible]]"
	got := ExtractLinks(text, Anchor)
	if !reflect.DeepEqual(got, []string{"Visible"}) {
		t.Errorf("got %q, want [Visible]", got)
	}
}

func TestExtractLinksBracesCapturedVerbatim(t *testing.T) {
	// Braces inside a link do not open a template
	got := ExtractLinks("[[Set {x}|label]] [[Next]]", Anchor)
	if !reflect.DeepEqual(got, []string{"Set {x}", "Next"}) {
		t.Errorf("got %q", got)
	}

	got = ExtractLinks("[[Open {brace]] [[After]]", Anchor)
	if !reflect.DeepEqual(got, []string{"Open {brace", "After"}) {
		t.Errorf("unbalanced brace inside a link should not suppress later links, got %q", got)
	}
}

func TestExtractLinksUnclosed(t *testing.T) {
	if got := ExtractLinks("[[never closed", Anchor); len(got) != 0 {
		t.Errorf("unclosed link should yield nothing, got %q", got)
	}
	if got := ExtractLinks("stray ]] before [[Real]]", Anchor); !reflect.DeepEqual(got, []string{"Real"}) {
		t.Errorf("stray closer should be ignored, got %q", got)
	}
}

func TestExtractLinksEmptyResultsSkipped(t *testing.T) {
	got := ExtractLinks("[[]] [[|label]] [[Category:]] [[Ok]]", Anchor)
	if !reflect.DeepEqual(got, []string{"Ok"}) {
		t.Errorf("empty anchors should be skipped, got %q", got)
	}

	got = ExtractLinks("[[Category:]] [[Category:Real]]", Category)
	if !reflect.DeepEqual(got, []string{"Real"}) {
		t.Errorf("empty categories should be skipped, got %q", got)
	}
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		raw  string
		kind LinkKind
		want string
	}{
		{"Category:Science", Category, "Science"},
		{"Category:Living people", Category, "Living people"},
		{"London", Category, ""},
		{"category:lower", Category, ""},
		{"Category:Science", Anchor, ""},
		{"London|the capital", Anchor, "London"},
		{"a|b|c", Anchor, "a"},
		{"Paris", Anchor, "Paris"},
		{"File:x.png|thumb|Category:Fake", Anchor, "File:x.png"},
		{"Paris", LinkKind(99), ""},
	}

	for _, tt := range tests {
		if got := ClassifyLink(tt.raw, tt.kind); got != tt.want {
			t.Errorf("ClassifyLink(%q, %s) = %q, want %q", tt.raw, tt.kind, got, tt.want)
		}
	}
}
