package browser

import (
	"testing"

	"hintnav/hint"
)

func TestViews(t *testing.T) {
	p := &Page{badges: []hint.Badge{
		{Code: "a", X: 10, Y: 20, Priority: true},
		{Code: "ab", X: 30, Y: 40},
		{Code: "b", Field: true},
	}}

	views := p.views("A")
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}
	if !views[0].Visible || views[0].Matched != "A" || views[0].Rest != "" {
		t.Errorf("unexpected view for exact match: %+v", views[0])
	}
	if !views[1].Visible || views[1].Matched != "A" || views[1].Rest != "B" {
		t.Errorf("unexpected view for extension: %+v", views[1])
	}
	if views[2].Visible || views[2].Matched != "" || views[2].Rest != "B" {
		t.Errorf("expected non-matching badge hidden: %+v", views[2])
	}
	if !views[0].Priority || !views[2].Field || views[1].X != 30 {
		t.Error("expected badge attributes carried into views")
	}
}

func TestViewsUnfiltered(t *testing.T) {
	p := &Page{badges: []hint.Badge{{Code: "zz"}}}
	v := p.views("")[0]
	if !v.Visible || v.Matched != "" || v.Rest != "ZZ" {
		t.Errorf("unexpected unfiltered view %+v", v)
	}
}
