package app

import (
	"context"
	"sync"
	"time"

	"hyperleaf/domain/core"
	"hyperleaf/domain/report"
	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/errors"
	"hyperleaf/models"
)

// ReportInstance is one loaded result with its tab state and the scratch
// region used while exporting. The result is never mutated after creation.
type ReportInstance struct {
	ID            core.ReportID
	Result        result.CanonicalResult
	Tabs          *report.TabController
	ExportEnabled bool
	OwnerID       int64
	RecordID      int64
	CreatedAt     time.Time

	scratch sync.Mutex

	mu       sync.Mutex
	lastSeen time.Time
}

// NewReportInstance wraps a result for display, starting on the report tab
func NewReportInstance(res result.CanonicalResult, viewer models.Viewer, exportEnabled bool, now time.Time) *ReportInstance {
	return &ReportInstance{
		ID:            core.NewReportID(),
		Result:        res,
		Tabs:          report.NewTabController(),
		ExportEnabled: exportEnabled,
		OwnerID:       viewer.ID,
		CreatedAt:     now,
		lastSeen:      now,
	}
}

// View builds the view model for the active tab
func (r *ReportInstance) View(tr report.Translator) report.View {
	return report.BuildView(r.Result, r.Tabs.Active(), tr)
}

// PrintView builds the fixed print layout used for export
func (r *ReportInstance) PrintView(tr report.Translator) report.View {
	return report.BuildPrintView(r.Result, tr)
}

// tryAcquireScratch takes exclusive use of the export region
func (r *ReportInstance) tryAcquireScratch() bool {
	return r.scratch.TryLock()
}

func (r *ReportInstance) releaseScratch() {
	r.scratch.Unlock()
}

func (r *ReportInstance) touch(now time.Time) {
	r.mu.Lock()
	r.lastSeen = now
	r.mu.Unlock()
}

func (r *ReportInstance) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSeen
}

// ReportRegistry keeps report instances in memory until they sit idle
// longer than the TTL.
type ReportRegistry struct {
	ttl    time.Duration
	clock  core.Clock
	logger *internal.Logger

	mu        sync.RWMutex
	instances map[core.ReportID]*ReportInstance
}

// NewReportRegistry creates an empty registry
func NewReportRegistry(ttl time.Duration, clock core.Clock, logger *internal.Logger) *ReportRegistry {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ReportRegistry{
		ttl:       ttl,
		clock:     clock,
		logger:    logger,
		instances: make(map[core.ReportID]*ReportInstance),
	}
}

// Open registers a new instance for the viewer
func (g *ReportRegistry) Open(res result.CanonicalResult, viewer models.Viewer, exportEnabled bool) *ReportInstance {
	inst := NewReportInstance(res, viewer, exportEnabled, g.clock.Now())

	g.mu.Lock()
	g.instances[inst.ID] = inst
	g.mu.Unlock()

	g.logger.Debug("[reports] opened %s for viewer %d", inst.ID, viewer.ID)
	return inst
}

// OpenRecord registers an instance for a past result so it renders with
// the same report view as a fresh analysis
func (g *ReportRegistry) OpenRecord(rec result.HistoryRecord, viewer models.Viewer, exportEnabled bool) *ReportInstance {
	inst := NewReportInstance(rec.Result, viewer, exportEnabled, g.clock.Now())
	inst.RecordID = rec.ID

	g.mu.Lock()
	g.instances[inst.ID] = inst
	g.mu.Unlock()

	g.logger.Debug("[reports] opened %s for record %d, viewer %d", inst.ID, rec.ID, viewer.ID)
	return inst
}

// Get returns the viewer's instance. Instances of other viewers are
// reported as missing.
func (g *ReportRegistry) Get(id core.ReportID, viewer models.Viewer) (*ReportInstance, error) {
	g.mu.RLock()
	inst, ok := g.instances[id]
	g.mu.RUnlock()

	if !ok || inst.OwnerID != viewer.ID || g.expired(inst) {
		return nil, errors.NotFound("report " + id.String())
	}
	inst.touch(g.clock.Now())
	return inst, nil
}

// Len returns the number of live instances
func (g *ReportRegistry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.instances)
}

func (g *ReportRegistry) expired(inst *ReportInstance) bool {
	return g.ttl > 0 && g.clock.Now().Sub(inst.idleSince()) > g.ttl
}

// Sweep drops idle instances and returns how many were removed
func (g *ReportRegistry) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for id, inst := range g.instances {
		if g.expired(inst) {
			delete(g.instances, id)
			removed++
		}
	}
	if removed > 0 {
		g.logger.Debug("[reports] swept %d idle instances", removed)
	}
	return removed
}

// Run sweeps on every tick until ctx is done
func (g *ReportRegistry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sweep()
		}
	}
}
