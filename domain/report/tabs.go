package report

import (
	"fmt"
	"strings"
	"sync"
)

// Tab identifies one of the four report views.
type Tab string

const (
	TabReport         Tab = "report"
	TabClassification Tab = "classification"
	TabRegression     Tab = "regression"
	TabSpectral       Tab = "spectral"
)

// Tabs in display order.
var Tabs = []Tab{TabReport, TabClassification, TabRegression, TabSpectral}

func (t Tab) String() string { return string(t) }

// Valid reports whether t is one of the four tabs.
func (t Tab) Valid() bool {
	switch t {
	case TabReport, TabClassification, TabRegression, TabSpectral:
		return true
	}
	return false
}

// LabelKey is the catalog key for the tab's caption.
func (t Tab) LabelKey() string {
	switch t {
	case TabClassification:
		return "class_tab"
	case TabRegression:
		return "traits_tab"
	case TabSpectral:
		return "spectral_tab"
	default:
		return "report_tab"
	}
}

// ParseTab accepts a tab name case-insensitively.
func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown report tab %q", s)
	}
	return t, nil
}

// TabController is the per-report tab selector. It starts on the report
// tab and only moves on explicit selection.
type TabController struct {
	mu     sync.RWMutex
	active Tab
}

// NewTabController returns a controller on the report tab.
func NewTabController() *TabController {
	return &TabController{active: TabReport}
}

// Active returns the selected tab.
func (c *TabController) Active() Tab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Select moves to t and reports whether the state changed. Selecting the
// active tab or an unknown tab changes nothing.
func (c *TabController) Select(t Tab) bool {
	if !t.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == t {
		return false
	}
	c.active = t
	return true
}

// SelectName parses and selects; unknown names leave the state untouched.
func (c *TabController) SelectName(name string) (Tab, bool) {
	t, err := ParseTab(name)
	if err != nil {
		return c.Active(), false
	}
	return t, c.Select(t)
}
