// Package host is the boundary to whatever actually draws the tree and
// talks to the operating system. The protocol layer never assumes it is
// running on the host's execution context.
package host

import (
	"log/slog"

	"viewlink/internal/view"
)

// Host receives materialized trees, chrome updates, and imperative
// actions. A frame that only the host can draw still flows through this
// narrow surface.
type Host interface {
	// TreeUpdated is called after a render replaced the tree or a patch
	// batch mutated it. The tree is the live state; the host must not
	// retain it past the next call.
	TreeUpdated(tree *view.Tree)

	// SettingsUpdated and SettingsVisible drive the secondary tabbed
	// settings window.
	SettingsUpdated(tree *view.Tree)
	SettingsVisible(visible bool)

	SetStatusIcon(name string)
	SetWindowSize(width, height float64)

	// Action delivers an imperative command targeted at a node, e.g.
	// reload on a web view.
	Action(nodeID, name string, args map[string]any) error

	// Quit is called on an explicit quit message; transport teardown
	// follows separately.
	Quit()
}

// LogHost is a Host that just logs. The serve command and tests use it;
// a real rendering frontend replaces it.
type LogHost struct {
	Logger *slog.Logger
}

func (h *LogHost) TreeUpdated(tree *view.Tree) {
	h.Logger.Info("tree updated", "nodes", tree.Len(), "root", tree.Root().ID)
}

func (h *LogHost) SettingsUpdated(tree *view.Tree) {
	h.Logger.Info("settings tree updated", "nodes", tree.Len())
}

func (h *LogHost) SettingsVisible(visible bool) {
	h.Logger.Info("settings visibility", "visible", visible)
}

func (h *LogHost) SetStatusIcon(name string) {
	h.Logger.Info("status icon", "name", name)
}

func (h *LogHost) SetWindowSize(width, height float64) {
	h.Logger.Info("window size", "width", width, "height", height)
}

func (h *LogHost) Action(nodeID, name string, args map[string]any) error {
	h.Logger.Info("action", "node", nodeID, "name", name, "args", args)
	return nil
}

func (h *LogHost) Quit() {
	h.Logger.Info("quit requested")
}
