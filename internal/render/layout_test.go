package render

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/labelpress/labelpress/internal/domain"
)

func testSpec() domain.LabelSpec {
	return domain.LabelSpec{
		WidthIn:           2.25,
		HeightIn:          1.25,
		DPI:               203,
		MarginRatio:       0.02,
		MinFontSize:       10,
		MaxFontSize:       500,
		TextHeightRatio:   0.2,
		MaxTextWidthRatio: 0.9,
		BorderWidth:       6,
		BorderMargin:      4,
	}
}

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	src, err := NewFontSource("")
	if err != nil {
		t.Fatalf("NewFontSource() error = %v", err)
	}
	return NewPlanner(src)
}

func TestPlanner_MainMessageOnly(t *testing.T) {
	p := newTestPlanner(t)
	req := domain.ContentRequest{Message: "Chicken", Copies: 1}

	plan, err := p.Plan(testSpec(), req, "", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(plan.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(plan.Blocks))
	}

	b := plan.Blocks[0]
	if b.Text != "Chicken" {
		t.Errorf("block text = %q, want %q", b.Text, "Chicken")
	}
	// "Chicken" is 7 runes, tier 6-10, cap 50px.
	if b.FontSize > 50 {
		t.Errorf("font size = %d, exceeds tier cap 50", b.FontSize)
	}

	// With no dates and no other messages, the single block occupies the
	// full message area (the frame-inset interior).
	spec := testSpec()
	canvas, _ := ResolveGeometry(spec)
	inset := framePad + spec.BorderMargin + spec.BorderWidth
	wantArea := canvas.Interior().Inset(inset)
	if b.Rect != wantArea {
		t.Errorf("block rect = %v, want full message area %v", b.Rect, wantArea)
	}
}

func TestPlanner_MainAndBorderSplit(t *testing.T) {
	p := newTestPlanner(t)
	req := domain.ContentRequest{Message: "Main", BorderMessage: "Border", Copies: 1}

	plan, err := p.Plan(testSpec(), req, "", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(plan.Blocks))
	}

	main, border := plan.Blocks[0], plan.Blocks[1]
	if main.Rect.Overlaps(border.Rect) {
		t.Errorf("main %v and border %v overlap", main.Rect, border.Rect)
	}

	// 60/40 split: main height is 1.5x border height within rounding.
	want := float64(border.Rect.Dy()) * 1.5
	if diff := float64(main.Rect.Dy()) - want; diff > 2 || diff < -2 {
		t.Errorf("main height %d vs border height %d: not a 60/40 split",
			main.Rect.Dy(), border.Rect.Dy())
	}
}

func TestPlanner_DatesWithBothMessages(t *testing.T) {
	p := newTestPlanner(t)
	req := domain.ContentRequest{
		Message:       "Main",
		BorderMessage: "Border",
		ShowDate:      true,
		Date:          time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
		Copies:        1,
	}

	plan, err := p.Plan(testSpec(), req, "March 14, 2026", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	// Top date, bottom date, main, border.
	if len(plan.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(plan.Blocks))
	}

	for i := range plan.Blocks {
		for j := i + 1; j < len(plan.Blocks); j++ {
			if plan.Blocks[i].Rect.Overlaps(plan.Blocks[j].Rect) {
				t.Errorf("blocks %d and %d overlap: %v, %v",
					i, j, plan.Blocks[i].Rect, plan.Blocks[j].Rect)
			}
		}
	}

	// The bottom stamp is rotated to read from the opposite side.
	if plan.Blocks[0].Rotation != Rotate0 || plan.Blocks[1].Rotation != Rotate180 {
		t.Errorf("date rotations = %d, %d, want 0, 180",
			plan.Blocks[0].Rotation, plan.Blocks[1].Rotation)
	}
}

func TestPlanner_EmptyStringsEmitNoBlocks(t *testing.T) {
	p := newTestPlanner(t)
	req := domain.ContentRequest{
		Message:       "Dinner",
		BorderMessage: "",
		SideMessage:   "  ",
		Copies:        1,
	}

	plan, err := p.Plan(testSpec(), req, "", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Blocks) != 1 {
		t.Errorf("got %d blocks, want 1 (empty fields are absent)", len(plan.Blocks))
	}
}

func TestPlanner_DatesOnly(t *testing.T) {
	p := newTestPlanner(t)
	req := domain.ContentRequest{
		ShowDate: true,
		Date:     time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
		Copies:   1,
	}

	plan, err := p.Plan(testSpec(), req, "January 02, 2026", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 date stamps", len(plan.Blocks))
	}
	if plan.Blocks[0].VAlign != AlignTop || plan.Blocks[1].VAlign != AlignBottom {
		t.Error("date stamps must align to their band edges")
	}
}

func TestPlanner_SideMessageStrips(t *testing.T) {
	p := newTestPlanner(t)
	req := domain.ContentRequest{
		Message:     "Main",
		SideMessage: "Freezer",
		Copies:      1,
	}

	plan, err := p.Plan(testSpec(), req, "", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3 (left strip, right strip, main)", len(plan.Blocks))
	}

	left, right := plan.Blocks[0], plan.Blocks[1]
	if left.Rotation != Rotate90 || right.Rotation != Rotate270 {
		t.Errorf("side rotations = %d, %d, want 90, 270", left.Rotation, right.Rotation)
	}
	if left.Rect.Overlaps(right.Rect) {
		t.Error("side strips overlap")
	}
}

func TestPlanner_TinyLabelRejectedNotPanicking(t *testing.T) {
	p := newTestPlanner(t)

	// Just above the 10px canvas floor the border frame consumes the whole
	// interior; the planner must refuse instead of producing a broken plan.
	spec := testSpec()
	spec.HeightIn = 0.069
	req := domain.ContentRequest{
		Message:  "Chicken",
		ShowDate: true,
		Date:     time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		Copies:   1,
	}

	_, err := p.Plan(spec, req, "June 05, 2026", nil)
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("Plan() error = %v, want ErrConfig", err)
	}
}

func TestPlanner_DateBandsLeaveNoMessageRoom(t *testing.T) {
	p := newTestPlanner(t)

	// 48px canvas: interior survives the frame inset but the two date bands
	// plus gaps consume it entirely.
	spec := testSpec()
	spec.HeightIn = 0.236

	date := time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)

	// A message has nowhere to go.
	req := domain.ContentRequest{Message: "Chicken", ShowDate: true, Date: date, Copies: 1}
	if _, err := p.Plan(spec, req, "June 05, 2026", nil); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("Plan() with message error = %v, want ErrConfig", err)
	}

	// Dates alone still fit.
	req = domain.ContentRequest{ShowDate: true, Date: date, Copies: 1}
	plan, err := p.Plan(spec, req, "June 05, 2026", nil)
	if err != nil {
		t.Fatalf("Plan() dates only error = %v", err)
	}
	if len(plan.Blocks) != 2 {
		t.Errorf("got %d blocks, want 2 date stamps", len(plan.Blocks))
	}
	if plan.Blocks[0].Rect.Overlaps(plan.Blocks[1].Rect) {
		t.Errorf("date bands overlap: %v, %v", plan.Blocks[0].Rect, plan.Blocks[1].Rect)
	}
}

func TestPlanner_ImageFillsInterior(t *testing.T) {
	p := newTestPlanner(t)
	spec := testSpec()

	bg := image.NewGray(image.Rect(0, 0, 2000, 2000))
	req := domain.ContentRequest{
		ImagePath: "inline",
		ShowDate:  true,
		Date:      time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		Copies:    1,
	}

	plan, err := p.Plan(spec, req, "June 05, 2026", bg)
	if err != nil {
		t.Fatalf("Plan() with image error = %v", err)
	}
	if plan.Image == nil {
		t.Fatal("plan has no image placement")
	}

	// The image spans the frame-inset interior, not just the area left over
	// after the date bands.
	canvas, _ := ResolveGeometry(spec)
	inset := framePad + spec.BorderMargin + spec.BorderWidth
	interior := canvas.Interior().Inset(inset)
	if plan.Image.Rect != interior {
		t.Errorf("image rect = %v, want interior %v", plan.Image.Rect, interior)
	}
}

func TestPlanner_MonthRatioWidensDateBand(t *testing.T) {
	p := newTestPlanner(t)
	spec := testSpec()
	spec.MonthSizeRatios = map[time.Month]float64{time.December: 0.3}

	reqDec := domain.ContentRequest{
		ShowDate: true,
		Date:     time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC),
		Copies:   1,
	}
	reqJul := domain.ContentRequest{
		ShowDate: true,
		Date:     time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC),
		Copies:   1,
	}

	dec, err := p.Plan(spec, reqDec, "December 25, 2026", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	jul, err := p.Plan(spec, reqJul, "July 04, 2026", nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if dec.Blocks[0].Rect.Dy() <= jul.Blocks[0].Rect.Dy() {
		t.Errorf("December band %dpx not taller than July band %dpx despite 0.3 ratio override",
			dec.Blocks[0].Rect.Dy(), jul.Blocks[0].Rect.Dy())
	}
}
