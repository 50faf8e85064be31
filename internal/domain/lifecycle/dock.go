package lifecycle

import "fmt"

// Dock returns the ordered dock id list.
func (m *Manager) Dock() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.dock))
	copy(out, m.dock)
	return out
}

// AddToDock pins an installed app. Duplicate insertion and unknown
// ids are rejected.
func (m *Manager) AddToDock(id string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apps[id]; !ok {
		return fmt.Errorf("app %q is not installed", id)
	}
	if m.dockIndexLocked(id) >= 0 {
		return fmt.Errorf("app %q is already docked", id)
	}
	m.placeInDockLocked(id, position)
	m.persistLocked()
	return nil
}

// RemoveFromDock unpins an app. Removing an undocked id is a no-op.
func (m *Manager) RemoveFromDock(id string) {
	m.mu.Lock()
	m.removeFromDockLocked(id)
	m.persistLocked()
	m.mu.Unlock()
	m.updateGauges()
}

// ReorderDock replaces the dock order. The new order must be a
// permutation of the current dock: same ids, no duplicates.
func (m *Manager) ReorderDock(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(ids) != len(m.dock) {
		return fmt.Errorf("reorder must keep all %d docked apps", len(m.dock))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate id %q in dock order", id)
		}
		if m.dockIndexLocked(id) < 0 {
			return fmt.Errorf("app %q is not docked", id)
		}
		seen[id] = true
	}
	m.dock = append([]string(nil), ids...)
	m.persistLocked()
	return nil
}

// placeInDockLocked inserts or moves id to position; -1 appends.
// Deduplicated: an already-docked id is moved, never doubled.
// Must hold mu.
func (m *Manager) placeInDockLocked(id string, position int) {
	m.removeFromDockLocked(id)
	if position < 0 || position >= len(m.dock) {
		m.dock = append(m.dock, id)
		return
	}
	m.dock = append(m.dock[:position], append([]string{id}, m.dock[position:]...)...)
}

// removeFromDockLocked drops id from the dock list. Must hold mu.
func (m *Manager) removeFromDockLocked(id string) {
	for i, d := range m.dock {
		if d == id {
			m.dock = append(m.dock[:i], m.dock[i+1:]...)
			return
		}
	}
}

// dockIndexLocked returns the dock position of id, or -1. Must hold mu.
func (m *Manager) dockIndexLocked(id string) int {
	for i, d := range m.dock {
		if d == id {
			return i
		}
	}
	return -1
}

// repairDockLocked drops dock entries whose app is gone. Restored
// state is the only way the invariant can be violated. Must hold mu.
func (m *Manager) repairDockLocked() {
	kept := m.dock[:0]
	for _, id := range m.dock {
		if _, ok := m.apps[id]; ok {
			kept = append(kept, id)
		}
	}
	m.dock = kept
}

// persistLocked writes registry + dock as one durable record.
// Must hold mu.
func (m *Manager) persistLocked() {
	if m.store == nil {
		return
	}
	st := persistedState{Apps: m.apps, Dock: m.dock}
	if err := m.store.Save(stateRecord, st); err != nil {
		m.logger.Error("failed to persist app registry: " + err.Error())
	}
}

func (m *Manager) updateGauges() {
	if m.metrics == nil {
		return
	}
	m.mu.RLock()
	apps, docked := len(m.apps), len(m.dock)
	m.mu.RUnlock()
	m.metrics.AppsInstalled.Set(float64(apps))
	m.metrics.DockSize.Set(float64(docked))
}
