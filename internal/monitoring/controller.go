// Package monitoring is the dashboard page controller. It owns the one
// authoritative snapshot of sites, reloads it from the store on every write
// and every change notification, and derives the filtered list, stats and
// modal state the views render.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/form"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Confirmer approves destructive actions on a named site.
type Confirmer interface {
	Confirm(ctx context.Context, site domain.SiteDashboard) bool
}

type ConfirmFunc func(ctx context.Context, site domain.SiteDashboard) bool

func (f ConfirmFunc) Confirm(ctx context.Context, site domain.SiteDashboard) bool { return f(ctx, site) }

// ConfirmPrompt is the question put to the operator before a delete.
func ConfirmPrompt(site domain.SiteDashboard) string {
	return fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", site.Name)
}

// Observer sees every applied snapshot change.
type Observer func(prev, next []domain.SiteDashboard)

type Controller struct {
	log   *zap.Logger
	store repo.SiteStore
	feed  repo.ChangeFeed
	form  *form.Form

	mu        sync.Mutex
	sites     []domain.SiteDashboard
	inflight  int
	issued    uint64
	applied   uint64
	selected  *domain.SiteDashboard
	addOpen   bool
	search    string
	status    StatusFilter
	view      ViewMode
	observers []Observer

	bgCtx  context.Context
	cancel context.CancelFunc
	sub    repo.Subscription
	closed bool
	wg     sync.WaitGroup
}

func New(log *zap.Logger, store repo.SiteStore, feed repo.ChangeFeed) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		log:    log,
		store:  store,
		feed:   feed,
		form:   form.New(),
		status: FilterAll,
		view:   ViewList,
		bgCtx:  ctx,
		cancel: cancel,
	}
}

// Observe registers o for every applied reload. Observers run outside the
// controller's lock.
func (c *Controller) Observe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Start loads the list and subscribes to the sites change feed. A failed
// subscription is logged and reported; the page still works without push
// updates.
func (c *Controller) Start(ctx context.Context) Result {
	c.Load(ctx)
	if c.feed == nil {
		return Result{Op: OpSubscribe}
	}
	sub, err := c.feed.Subscribe(c.bgCtx, c.onChange)
	if err != nil {
		c.log.Warn("sites_subscribe_error", zap.Error(err))
		return Result{Op: OpSubscribe, Err: err}
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
	return Result{Op: OpSubscribe}
}

// onChange reloads on any change; the payload is not inspected.
func (c *Controller) onChange(ch repo.Change) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug("feed_event", zap.String("table", ch.Table), zap.String("op", string(ch.Op)))
	go func() {
		defer c.wg.Done()
		c.Load(c.bgCtx)
	}()
}

// Close releases the change feed subscription and waits for reloads it
// started.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	c.cancel()
	c.wg.Wait()
	return err
}

// Load fetches every site and applies the result unless a newer fetch has
// already landed. Failures leave the list unchanged.
func (c *Controller) Load(ctx context.Context) Result {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inflight++
	c.mu.Unlock()

	rows, err := c.store.ListDashboard(ctx)
	if err == nil {
		err = repo.CheckDashboard(rows)
	}
	return c.apply(seq, rows, err)
}

// apply is the only place the snapshot changes.
func (c *Controller) apply(seq uint64, rows []domain.SiteDashboard, err error) Result {
	c.mu.Lock()
	c.inflight--
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("sites_fetch_error", zap.Uint64("seq", seq), zap.Error(err))
		return Result{Op: OpLoad, Err: err}
	}
	if seq < c.applied {
		c.mu.Unlock()
		c.log.Debug("sites_fetch_stale", zap.Uint64("seq", seq))
		return Result{Op: OpLoad, Stale: true}
	}
	c.applied = seq
	prev := c.sites
	if rows == nil {
		rows = []domain.SiteDashboard{}
	}
	c.sites = rows
	if c.selected != nil {
		for _, s := range rows {
			if s.ID == c.selected.ID {
				cp := s
				c.selected = &cp
				break
			}
		}
	}
	obs := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, o := range obs {
		o(prev, rows)
	}
	return Result{Op: OpLoad}
}

// AddSite inserts a validated draft with the new-site defaults and reloads.
// Errors are returned so the form can show its submit message.
func (c *Controller) AddSite(ctx context.Context, d form.Draft) error {
	site, err := c.store.Insert(ctx, d.NewSite())
	if err != nil {
		c.log.Warn("site_add_error", zap.String("name", d.Name), zap.Error(err))
		return err
	}
	c.log.Info("site_added", zap.String("id", string(site.ID)), zap.String("url", site.URL))
	c.Load(ctx)
	return nil
}

// ToggleActive pauses or resumes monitoring of id, based on the snapshot's
// current flag, then reloads. There is no optimistic update.
func (c *Controller) ToggleActive(ctx context.Context, id domain.SiteID) Result {
	site, ok := c.find(id)
	if !ok {
		return Result{Op: OpToggle, Err: repo.ErrNotFound}
	}
	active := !site.IsActive
	if err := c.store.Update(ctx, id, domain.SitePatch{IsActive: &active}); err != nil {
		c.log.Warn("site_toggle_error", zap.String("id", string(id)), zap.Error(err))
		return Result{Op: OpToggle, Err: err}
	}
	c.log.Info("site_toggled", zap.String("id", string(id)), zap.Bool("is_active", active))
	c.Load(ctx)
	return Result{Op: OpToggle}
}

// Delete removes id once confirm approves, reloads and drops the selection
// if it pointed at the deleted site.
func (c *Controller) Delete(ctx context.Context, id domain.SiteID, confirm Confirmer) Result {
	site, ok := c.find(id)
	if !ok {
		return Result{Op: OpDelete, Err: repo.ErrNotFound}
	}
	if confirm == nil || !confirm.Confirm(ctx, site) {
		return Result{Op: OpDelete, Cancelled: true}
	}
	if err := c.store.Delete(ctx, id); err != nil {
		c.log.Warn("site_delete_error", zap.String("id", string(id)), zap.Error(err))
		return Result{Op: OpDelete, Err: err}
	}
	c.log.Info("site_deleted", zap.String("id", string(id)), zap.String("name", site.Name))
	c.Load(ctx)

	c.mu.Lock()
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
	}
	c.mu.Unlock()
	return Result{Op: OpDelete}
}

func (c *Controller) find(id domain.SiteID) (domain.SiteDashboard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sites {
		if s.ID == id {
			return s, true
		}
	}
	return domain.SiteDashboard{}, false
}

// Site returns the snapshot entry for id.
func (c *Controller) Site(id domain.SiteID) (domain.SiteDashboard, bool) { return c.find(id) }

// Sites returns the full unfiltered snapshot.
func (c *Controller) Sites() []domain.SiteDashboard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.SiteDashboard(nil), c.sites...)
}

// ---- view state ----

var ErrBadFilter = errors.New("invalid status filter")

func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
}

func (c *Controller) SetStatusFilter(s string) error {
	f, ok := ParseStatusFilter(s)
	if !ok {
		return fmt.Errorf("%w: %q", ErrBadFilter, s)
	}
	c.mu.Lock()
	c.status = f
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetViewMode(m ViewMode) {
	c.mu.Lock()
	c.view = m
	c.mu.Unlock()
}

// Select opens the detail modal on id. It reports false if id is not in
// the snapshot.
func (c *Controller) Select(id domain.SiteID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sites {
		if s.ID == id {
			cp := s
			c.selected = &cp
			return true
		}
	}
	return false
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}

func (c *Controller) OpenAddModal() {
	c.form.Open()
	c.mu.Lock()
	c.addOpen = true
	c.mu.Unlock()
}

func (c *Controller) CloseAddModal() {
	c.form.Close()
	c.mu.Lock()
	c.addOpen = false
	c.mu.Unlock()
}

// Form is the add-site form backing the add modal.
func (c *Controller) Form() *form.Form { return c.form }

// SubmitAdd submits the add form through AddSite. The modal closes only
// when the form does.
func (c *Controller) SubmitAdd(ctx context.Context) error {
	err := c.form.Submit(ctx, c.AddSite)
	if err == nil {
		c.mu.Lock()
		c.addOpen = false
		c.mu.Unlock()
	}
	return err
}

// View is everything a renderer needs, derived from the current state.
type View struct {
	Sites    []domain.SiteDashboard
	Stats    Stats
	Loading  bool
	Selected *domain.SiteDashboard
	AddOpen  bool
	Search   string
	Status   StatusFilter
	Mode     ViewMode
}

// View derives the filtered list and stats from the current state. Nothing
// is cached between calls.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	filtered := Filter(c.sites, c.search, c.status)
	v := View{
		Sites:   filtered,
		Stats:   ComputeStats(filtered),
		Loading: c.inflight > 0,
		AddOpen: c.addOpen,
		Search:  c.search,
		Status:  c.status,
		Mode:    c.view,
	}
	if c.selected != nil {
		cp := *c.selected
		v.Selected = &cp
	}
	return v
}
