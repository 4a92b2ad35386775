package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/form"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
)

// ---- fakes ----

// gatedStore lets a test hold ListDashboard calls and release them in any
// order.
type gatedStore struct {
	repo.SiteStore
	mu    sync.Mutex
	calls []chan []domain.SiteDashboard
	ready chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{ready: make(chan struct{}, 8)}
}

func (g *gatedStore) ListDashboard(ctx context.Context) ([]domain.SiteDashboard, error) {
	ch := make(chan []domain.SiteDashboard, 1)
	g.mu.Lock()
	g.calls = append(g.calls, ch)
	g.mu.Unlock()
	g.ready <- struct{}{}
	return <-ch, nil
}

func (g *gatedStore) release(i int, rows []domain.SiteDashboard) {
	g.mu.Lock()
	ch := g.calls[i]
	g.mu.Unlock()
	ch <- rows
}

type failingStore struct {
	*memory.Store
	failList, failInsert, failUpdate, failDelete bool
}

var errBackend = errors.New("backend unavailable")

func (f *failingStore) ListDashboard(ctx context.Context) ([]domain.SiteDashboard, error) {
	if f.failList {
		return nil, errBackend
	}
	return f.Store.ListDashboard(ctx)
}

func (f *failingStore) Insert(ctx context.Context, n domain.NewSite) (*domain.MonitoredSite, error) {
	if f.failInsert {
		return nil, errBackend
	}
	return f.Store.Insert(ctx, n)
}

func (f *failingStore) Update(ctx context.Context, id domain.SiteID, p domain.SitePatch) error {
	if f.failUpdate {
		return errBackend
	}
	return f.Store.Update(ctx, id, p)
}

func (f *failingStore) Delete(ctx context.Context, id domain.SiteID) error {
	if f.failDelete {
		return errBackend
	}
	return f.Store.Delete(ctx, id)
}

func site(id, name string, status domain.SiteStatus, rt *float64) domain.SiteDashboard {
	return domain.SiteDashboard{MonitoredSite: domain.MonitoredSite{
		ID: domain.SiteID(id), Name: name, URL: "https://" + name + ".example", Status: status,
		LastResponseTime: rt, IsActive: true, Country: "US",
	}}
}

func draft(name string) form.Draft {
	d := form.DefaultDraft()
	d.Name = name
	d.URL = "https://" + name + ".example"
	d.Country = "DE"
	return d
}

func yes() Confirmer { return ConfirmFunc(func(context.Context, domain.SiteDashboard) bool { return true }) }
func no() Confirmer  { return ConfirmFunc(func(context.Context, domain.SiteDashboard) bool { return false }) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func names(sites []domain.SiteDashboard) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.Name
	}
	return out
}

// ---- tests ----

func TestController_StaleLoadIsDiscarded(t *testing.T) {
	g := newGatedStore()
	c := New(zap.NewNop(), g, nil)

	results := make(chan Result, 2)
	go func() { results <- c.Load(context.Background()) }()
	<-g.ready
	go func() { results <- c.Load(context.Background()) }()
	<-g.ready

	if !c.View().Loading {
		t.Fatalf("expected loading while fetches are in flight")
	}

	newer := []domain.SiteDashboard{site("2", "Newer", domain.StatusUp, nil)}
	older := []domain.SiteDashboard{site("1", "Older", domain.StatusUp, nil)}

	// second fetch completes first, then the first one straggles in
	g.release(1, newer)
	r1 := <-results
	g.release(0, older)
	r2 := <-results

	if r1.Stale || !r2.Stale {
		t.Fatalf("want second-issued applied and first-issued stale, got %+v %+v", r1, r2)
	}
	got := c.Sites()
	if len(got) != 1 || got[0].Name != "Newer" {
		t.Fatalf("stale response clobbered snapshot: %v", names(got))
	}
	if c.View().Loading {
		t.Fatalf("loading should clear once all fetches finish")
	}
}

func TestController_LoadFailureLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New()}
	c := New(zap.NewNop(), fs, fs)
	_, _ = fs.Insert(ctx, draft("Alpha").NewSite())
	c.Load(ctx)

	fs.failList = true
	r := c.Load(ctx)
	if !errors.Is(r.Err, errBackend) || r.Surface() {
		t.Fatalf("want log-only load error, got %+v", r)
	}
	if len(c.Sites()) != 1 {
		t.Fatalf("list should be unchanged after failed load")
	}
}

type badRowStore struct{ repo.SiteStore }

func (badRowStore) ListDashboard(context.Context) ([]domain.SiteDashboard, error) {
	return []domain.SiteDashboard{site("1", "Alpha", "flapping", nil)}, nil
}

func TestController_MalformedRowsFailLoudly(t *testing.T) {
	c := New(zap.NewNop(), badRowStore{}, nil)
	r := c.Load(context.Background())
	if !errors.Is(r.Err, repo.ErrMalformedRow) {
		t.Fatalf("want ErrMalformedRow, got %v", r.Err)
	}
	if len(c.Sites()) != 0 {
		t.Fatalf("malformed rows must not reach the snapshot")
	}
}

func TestController_SubscribeReloadsOnChangeAndCloseUnsubscribes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := New(zap.NewNop(), store, store)
	if r := c.Start(ctx); !r.OK() {
		t.Fatalf("Start: %+v", r)
	}

	// a write from elsewhere (e.g. the backend checker) shows up via the feed
	_, _ = store.Insert(ctx, draft("Alpha").NewSite())
	waitFor(t, func() bool { return len(c.Sites()) == 1 })

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, _ = store.Insert(ctx, draft("Beta").NewSite())
	time.Sleep(20 * time.Millisecond)
	if len(c.Sites()) != 1 {
		t.Fatalf("closed controller still reloading: %v", names(c.Sites()))
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

type brokenFeed struct{}

func (brokenFeed) Subscribe(context.Context, func(repo.Change)) (repo.Subscription, error) {
	return nil, errBackend
}

func TestController_SubscribeFailureIsReported(t *testing.T) {
	c := New(zap.NewNop(), memory.New(), brokenFeed{})
	r := c.Start(context.Background())
	if r.Op != OpSubscribe || !errors.Is(r.Err, errBackend) || r.Surface() {
		t.Fatalf("want log-only subscribe error, got %+v", r)
	}
}

func TestController_AddSite(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New()}
	c := New(zap.NewNop(), fs, fs)

	if err := c.AddSite(ctx, draft("Alpha")); err != nil {
		t.Fatalf("AddSite: %v", err)
	}
	got := c.Sites()
	if len(got) != 1 || got[0].Status != domain.StatusUnknown || !got[0].IsActive || got[0].Latitude != nil {
		t.Fatalf("unexpected inserted site: %+v", got)
	}

	fs.failInsert = true
	if err := c.AddSite(ctx, draft("Beta")); !errors.Is(err, errBackend) {
		t.Fatalf("insert error should propagate, got %v", err)
	}
}

func TestController_SubmitAddThroughModal(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New()}
	c := New(zap.NewNop(), fs, fs)

	c.OpenAddModal()
	c.Form().Edit(func(d *form.Draft) { *d = draft("Alpha") })
	fs.failInsert = true
	err := c.SubmitAdd(ctx)
	var ve form.ValidationErrors
	if !errors.As(err, &ve) || ve[form.FieldSubmit] == "" {
		t.Fatalf("want submit error, got %v", err)
	}
	if !c.View().AddOpen {
		t.Fatalf("modal should stay open after failure")
	}

	fs.failInsert = false
	if err := c.SubmitAdd(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.View().AddOpen || len(c.Sites()) != 1 {
		t.Fatalf("modal should close and list reload")
	}

	c.OpenAddModal()
	if c.Form().Draft().Name != "" {
		t.Fatalf("reopened modal should start blank")
	}
	c.CloseAddModal()
	if c.View().AddOpen || c.Form().IsOpen() {
		t.Fatalf("close should close both modal and form")
	}
}

func TestController_ToggleActive(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New()}
	c := New(zap.NewNop(), fs, fs)
	_ = c.AddSite(ctx, draft("Alpha"))
	id := c.Sites()[0].ID

	if r := c.ToggleActive(ctx, id); !r.OK() {
		t.Fatalf("toggle: %+v", r)
	}
	if c.Sites()[0].IsActive {
		t.Fatalf("expected paused site")
	}
	if r := c.ToggleActive(ctx, id); !r.OK() || !c.Sites()[0].IsActive {
		t.Fatalf("expected resumed site, %+v", r)
	}

	fs.failUpdate = true
	r := c.ToggleActive(ctx, id)
	if !errors.Is(r.Err, errBackend) || r.Surface() {
		t.Fatalf("want log-only toggle error, got %+v", r)
	}
	if !c.Sites()[0].IsActive {
		t.Fatalf("failed toggle must not change the snapshot")
	}

	if r := c.ToggleActive(ctx, "missing"); !errors.Is(r.Err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %+v", r)
	}
}

func TestController_DeleteRequiresConfirmationAndClearsSelection(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New()}
	c := New(zap.NewNop(), fs, fs)
	_ = c.AddSite(ctx, draft("Alpha"))
	_ = c.AddSite(ctx, draft("Beta"))
	alpha := c.Sites()[0]
	beta := c.Sites()[1]

	var asked string
	ask := ConfirmFunc(func(_ context.Context, s domain.SiteDashboard) bool {
		asked = ConfirmPrompt(s)
		return false
	})
	if r := c.Delete(ctx, alpha.ID, ask); !r.Cancelled || r.OK() {
		t.Fatalf("want cancelled, got %+v", r)
	}
	if asked == "" || len(c.Sites()) != 2 {
		t.Fatalf("cancelled delete should ask and leave the list alone (asked=%q)", asked)
	}
	if r := c.Delete(ctx, alpha.ID, nil); !r.Cancelled {
		t.Fatalf("nil confirmer must not delete")
	}

	c.Select(beta.ID)
	if r := c.Delete(ctx, alpha.ID, yes()); !r.OK() {
		t.Fatalf("delete alpha: %+v", r)
	}
	if v := c.View(); v.Selected == nil || v.Selected.ID != beta.ID {
		t.Fatalf("deleting another site must keep the selection")
	}
	if r := c.Delete(ctx, beta.ID, yes()); !r.OK() {
		t.Fatalf("delete beta: %+v", r)
	}
	if c.View().Selected != nil {
		t.Fatalf("selection should clear when its site is deleted")
	}
	if len(c.Sites()) != 0 {
		t.Fatalf("expected empty list")
	}

	_ = c.AddSite(ctx, draft("Gamma"))
	fs.failDelete = true
	r := c.Delete(ctx, c.Sites()[0].ID, yes())
	if !errors.Is(r.Err, errBackend) || r.Surface() || len(c.Sites()) != 1 {
		t.Fatalf("want log-only delete error, got %+v", r)
	}
	_ = no()
}

func TestController_SelectionFollowsReloads(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := New(zap.NewNop(), store, store)
	_ = c.AddSite(ctx, draft("Alpha"))
	id := c.Sites()[0].ID

	if !c.Select(id) {
		t.Fatalf("Select existing site failed")
	}
	if c.Select("missing") {
		t.Fatalf("Select unknown site should fail")
	}
	c.ToggleActive(ctx, id)
	if v := c.View(); v.Selected == nil || v.Selected.IsActive {
		t.Fatalf("selected site should reflect the reload: %+v", v.Selected)
	}
	c.ClearSelection()
	if c.View().Selected != nil {
		t.Fatalf("ClearSelection failed")
	}
}

func TestController_ViewAppliesFiltersAndStats(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := New(zap.NewNop(), store, store)
	_ = c.AddSite(ctx, draft("Alpha"))
	_ = c.AddSite(ctx, draft("Beta"))

	c.SetSearch("ALP")
	v := c.View()
	if len(v.Sites) != 1 || v.Sites[0].Name != "Alpha" || v.Stats.Total != 1 || v.Stats.Unknown != 1 {
		t.Fatalf("unexpected view: %v %+v", names(v.Sites), v.Stats)
	}

	if err := c.SetStatusFilter("bogus"); !errors.Is(err, ErrBadFilter) {
		t.Fatalf("want ErrBadFilter, got %v", err)
	}
	c.SetSearch("")
	_ = c.SetStatusFilter("up")
	if v := c.View(); len(v.Sites) != 0 || v.Status != "up" {
		t.Fatalf("no site is up yet: %v", names(v.Sites))
	}

	c.SetViewMode(ViewMap)
	if c.View().Mode != ViewMap {
		t.Fatalf("view mode not stored")
	}
}

func TestController_ObserversSeeTransitions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := New(zap.NewNop(), store, store)

	var calls int
	var lastPrev, lastNext int
	c.Observe(func(prev, next []domain.SiteDashboard) {
		calls++
		lastPrev, lastNext = len(prev), len(next)
	})
	c.Load(ctx)
	_ = c.AddSite(ctx, draft("Alpha"))
	if calls != 2 || lastPrev != 0 || lastNext != 1 {
		t.Fatalf("observer calls=%d prev=%d next=%d", calls, lastPrev, lastNext)
	}
}
