package model

import (
	"sync"

	"github.com/soocke/flame-bot-go/config"
)

// SettingsModel holds the settings being edited. The config watcher writes
// from its own goroutine while the Tk thread reads, so access is locked.
type SettingsModel struct {
	mu       sync.RWMutex
	settings *config.Settings
	version  uint64
}

// NewSettingsModel returns a model seeded with s, or defaults when s is nil.
func NewSettingsModel(s *config.Settings) *SettingsModel {
	if s == nil {
		s = config.DefaultSettings()
	}
	return &SettingsModel{settings: s.Clone()}
}

// Get returns an independent copy of the current settings.
func (m *SettingsModel) Get() *config.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.Clone()
}

// Set replaces the settings and bumps the version.
func (m *SettingsModel) Set(s *config.Settings) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.settings = s.Clone()
	m.version++
	m.mu.Unlock()
}

// Version increases with every Set so views can detect external reloads.
func (m *SettingsModel) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}
