package pipeline

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/complexdatacollective/pedigree/pkg/cache"
	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/observability"
	"github.com/complexdatacollective/pedigree/pkg/pedfile"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

func trioDoc() *pedfile.Document {
	return &pedfile.Document{
		Individuals: []pedigree.Record{
			{ID: "dad", Sex: pedigree.Male},
			{ID: "mom", Sex: pedigree.Female},
			{ID: "kid", Sex: pedigree.Female, Father: "dad", Mother: "mom"},
		},
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, perrors.GetCode(err))
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero value", Options{}, false},
		{"negative width", Options{Width: -1}, true},
		{"negative penalty", Options{ChildPenalty: -1}, true},
		{"bad format", Options{Formats: []string{"gif"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	want := DefaultOptions()
	if o.Width != want.Width || o.ChildPenalty != want.ChildPenalty || o.SpousePenalty != want.SpousePenalty {
		t.Errorf("SetDefaults() = %+v", o)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v", o.Formats)
	}
	if o.Logger == nil {
		t.Error("Logger not set")
	}
}

func TestLayoutKeyOptsDistinguishOptions(t *testing.T) {
	k := cache.NewDefaultKeyer()
	a := DefaultOptions()
	b := DefaultOptions()
	b.Packed = false
	if k.LayoutKey("h", a.LayoutKeyOpts()) == k.LayoutKey("h", b.LayoutKeyOpts()) {
		t.Error("packed and unpacked layouts share a cache key")
	}

	plain := a.ArtifactKeyOpts(FormatSVG)
	a.Detailed = true
	if plain == a.ArtifactKeyOpts(FormatSVG) {
		t.Error("detailed and plain renders share a cache key")
	}
}

func TestGenerateLayout(t *testing.T) {
	p, h, err := trioDoc().Pedigree(nil)
	if err != nil {
		t.Fatal(err)
	}
	l, err := GenerateLayout(p, h, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateLayout() error: %v", err)
	}
	if !reflect.DeepEqual(l.N, []int{2, 1}) {
		t.Errorf("N = %v, want [2 1]", l.N)
	}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestRunnerComputeLayoutCaches(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	defer r.Close()

	first, err := r.ComputeLayout(ctx, trioDoc(), DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLayout() error: %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run reported a cache hit")
	}
	if first.ID == "" || first.LayoutHash == "" {
		t.Errorf("result missing identifiers: %+v", first)
	}
	if first.Stats.Individuals != 3 || first.Stats.Levels != 2 || first.Stats.Cells != 3 {
		t.Errorf("Stats = %+v", first.Stats)
	}

	second, err := r.ComputeLayout(ctx, trioDoc(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run missed the cache")
	}
	if !reflect.DeepEqual(first.Layout, second.Layout) {
		t.Errorf("cached layout differs:\n%v\n%v", first.Layout, second.Layout)
	}
	if first.LayoutHash != second.LayoutHash {
		t.Error("layout hash changed between runs")
	}
	if first.ID == second.ID {
		t.Error("run IDs should be unique")
	}

	opts := DefaultOptions()
	opts.Refresh = true
	third, err := r.ComputeLayout(ctx, trioDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh served a cached layout")
	}

	opts = DefaultOptions()
	opts.Width = 20
	other, err := r.ComputeLayout(ctx, trioDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheInfo.LayoutHit {
		t.Error("different options served the cached layout")
	}
}

func TestRunnerRejectsBadDocument(t *testing.T) {
	doc := trioDoc()
	doc.Individuals[2].Mother = ""

	_, err := NewRunner(nil, nil, nil).ComputeLayout(context.Background(), doc, DefaultOptions())
	if !perrors.Is(err, perrors.ErrCodeInvalidParents) {
		t.Errorf("ComputeLayout() error = %v, want INVALID_PARENTS", err)
	}
	if !perrors.IsInputError(err) {
		t.Error("one-parent document should be an input error")
	}
}

func TestRunnerIgnoresUnknownHintIDs(t *testing.T) {
	doc := trioDoc()
	doc.Hints = &pedfile.HintSet{Order: map[string]float64{"stranger": 1}}

	res, err := NewRunner(nil, nil, nil).ComputeLayout(context.Background(), doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLayout() error: %v", err)
	}
	if got := res.Layout.N; !reflect.DeepEqual(got, []int{2, 1}) {
		t.Errorf("Layout.N = %v, want [2 1]", got)
	}
}

func TestRunnerRender(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)

	opts := DefaultOptions()
	opts.Formats = []string{FormatDOT, FormatJSON}

	res, err := r.ComputeLayout(ctx, trioDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(ctx, res, opts); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("first render reported a cache hit")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), "graph pedigree") {
		t.Errorf("dot artifact = %s", res.Artifacts[FormatDOT])
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"cells"`) {
		t.Errorf("json artifact = %s", res.Artifacts[FormatJSON])
	}

	again, err := r.ComputeLayout(ctx, trioDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(ctx, again, opts); err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second render missed the cache")
	}
	if !reflect.DeepEqual(res.Artifacts, again.Artifacts) {
		t.Error("cached artifacts differ")
	}
}

func TestRunnerExecuteSVG(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), trioDoc(), DefaultOptions())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact missing")
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	mu           sync.Mutex
	hits, misses int
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *countingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func TestRunnerReportsCacheEvents(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	r := newFileRunner(t)
	for i := 0; i < 2; i++ {
		if _, err := r.ComputeLayout(ctx, trioDoc(), DefaultOptions()); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.misses != 1 || hooks.hits != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", hooks.hits, hooks.misses)
	}
}
