package app

import (
	"context"
	"sync"

	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"

	"golang.org/x/sync/errgroup"
)

// HistoryBrowser lists one viewer's past results. Every fetch is tagged
// with a generation; a completion from an older generation is dropped so a
// slow response can never overwrite a newer scope.
type HistoryBrowser struct {
	api    ports.PredictionAPI
	viewer models.Viewer
	logger *internal.Logger

	mu         sync.Mutex
	generation uint64
	closed     bool
	loaded     bool
	scope      models.HistoryScope
	records    []result.HistoryRecord
	owners     []models.Owner
	selected   *result.HistoryRecord
}

// NewHistoryBrowser creates a browser for viewer; nothing is fetched yet
func NewHistoryBrowser(api ports.PredictionAPI, viewer models.Viewer, logger *internal.Logger) *HistoryBrowser {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &HistoryBrowser{api: api, viewer: viewer, logger: logger}
}

// Load performs the first, unscoped fetch. Admins also get the owner list.
func (b *HistoryBrowser) Load(ctx context.Context) error {
	return b.LoadScope(ctx, models.Unscoped)
}

// LoadScope is the first load of a browser opened directly on scope. It
// lists history once, alongside the owner list for admins. Farmers are
// always unscoped.
func (b *HistoryBrowser) LoadScope(ctx context.Context, scope models.HistoryScope) error {
	if !b.viewer.IsAdmin() {
		return b.fetch(ctx, models.Unscoped)
	}

	var owners []models.Owner
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.fetch(gctx, scope)
	})
	g.Go(func() error {
		var err error
		owners, err = b.api.Owners(gctx, b.viewer.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	if !b.closed {
		b.owners = owners
	}
	b.mu.Unlock()
	return nil
}

// Rescope switches to another owner's records. Only admins may do this.
// It always fetches once and replaces the list.
func (b *HistoryBrowser) Rescope(ctx context.Context, scope models.HistoryScope) error {
	if !b.viewer.IsAdmin() {
		return errors.Unauthorized("only admins can view other users' history")
	}
	return b.fetch(ctx, scope)
}

// Ensure fetches only when nothing is loaded yet or the scope differs
func (b *HistoryBrowser) Ensure(ctx context.Context, scope models.HistoryScope) error {
	if !b.viewer.IsAdmin() {
		scope = models.Unscoped
	}
	b.mu.Lock()
	fresh := b.loaded && b.scope == scope
	b.mu.Unlock()
	if fresh {
		return nil
	}
	if !b.hasOwners() && b.viewer.IsAdmin() && scope == models.Unscoped {
		return b.Load(ctx)
	}
	return b.fetch(ctx, scope)
}

func (b *HistoryBrowser) hasOwners() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owners != nil
}

func (b *HistoryBrowser) fetch(ctx context.Context, scope models.HistoryScope) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	raw, err := b.api.History(ctx, b.viewer.Token, scope)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || gen != b.generation {
		b.logger.Debug("[history] dropping stale completion for scope %d (generation %d, now %d)", scope, gen, b.generation)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to load history")
	}

	fallbackOwner := int64(scope)
	if !scope.IsSet() && !b.viewer.IsAdmin() {
		fallbackOwner = b.viewer.ID
	}
	records := make([]result.HistoryRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, result.NormalizeHistory(r, fallbackOwner))
	}

	b.records = records
	b.scope = scope
	b.loaded = true
	b.selected = nil
	return nil
}

// Select opens a loaded record without fetching
func (b *HistoryBrowser) Select(id int64) (result.HistoryRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.records {
		if b.records[i].ID == id {
			rec := b.records[i]
			b.selected = &rec
			return rec, nil
		}
	}
	return result.HistoryRecord{}, errors.NotFound("history record")
}

// Deselect returns to the list without fetching
func (b *HistoryBrowser) Deselect() {
	b.mu.Lock()
	b.selected = nil
	b.mu.Unlock()
}

// Selected returns the open record, if any
func (b *HistoryBrowser) Selected() (result.HistoryRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected == nil {
		return result.HistoryRecord{}, false
	}
	return *b.selected, true
}

// Records returns the displayed list in service order
func (b *HistoryBrowser) Records() []result.HistoryRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]result.HistoryRecord(nil), b.records...)
}

// Owners returns the scopes an admin can choose from
func (b *HistoryBrowser) Owners() []models.Owner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Owner(nil), b.owners...)
}

// Scope returns the scope of the displayed list
func (b *HistoryBrowser) Scope() models.HistoryScope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scope
}

// Loaded reports whether any fetch has completed
func (b *HistoryBrowser) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Viewer returns the identity this browser lists for
func (b *HistoryBrowser) Viewer() models.Viewer {
	return b.viewer
}

// Close makes every pending and future fetch a no-op
func (b *HistoryBrowser) Close() {
	b.mu.Lock()
	b.closed = true
	b.generation++
	b.mu.Unlock()
}

// HistoryBrowsers hands out one browser per viewer
type HistoryBrowsers struct {
	api    ports.PredictionAPI
	logger *internal.Logger

	mu       sync.Mutex
	browsers map[int64]*HistoryBrowser
}

// NewHistoryBrowsers creates an empty pool
func NewHistoryBrowsers(api ports.PredictionAPI, logger *internal.Logger) *HistoryBrowsers {
	return &HistoryBrowsers{api: api, logger: logger, browsers: make(map[int64]*HistoryBrowser)}
}

// For returns the viewer's browser, replacing it when the identity changed
func (p *HistoryBrowsers) For(viewer models.Viewer) *HistoryBrowser {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.browsers[viewer.ID]; ok {
		if b.viewer.Token == viewer.Token && b.viewer.Role == viewer.Role {
			return b
		}
		b.Close()
	}
	b := NewHistoryBrowser(p.api, viewer, p.logger)
	p.browsers[viewer.ID] = b
	return b
}

// CloseAll closes every browser
func (p *HistoryBrowsers) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, b := range p.browsers {
		b.Close()
		delete(p.browsers, id)
	}
}
