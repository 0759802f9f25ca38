package service

import (
	"errors"
	"fmt"
	"sync"

	"skull_controller/internal/models"
)

// Store keys of the scalar preferences.
const (
	KeyNetworkName   = "ssid"
	KeyNetworkSecret = "pass"
	KeyDeviceName    = "name"
	KeyPort          = "port"
)

const (
	maxNameLen   = 32
	maxSecretLen = 63
	MinPort      = 1
	MaxPort      = 65535
)

var ErrInvalidPreference = errors.New("invalid preference")

// PreferenceTable holds the scalar preferences with a dirty flag per key.
type PreferenceTable struct {
	mu    sync.RWMutex
	vals  models.Preferences
	dirty map[string]bool
}

func NewPreferenceTable() *PreferenceTable {
	return &PreferenceTable{vals: models.DefaultPreferences(), dirty: make(map[string]bool)}
}

func (p *PreferenceTable) Get() models.Preferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vals
}

// Dirty reports whether key has uncommitted changes.
func (p *PreferenceTable) Dirty(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dirty[key]
}

func (p *PreferenceTable) SetNetworkName(v string) error {
	if err := checkText(KeyNetworkName, v, maxNameLen); err != nil {
		return err
	}
	p.update(KeyNetworkName, func(pr *models.Preferences) { pr.NetworkName = v })
	return nil
}

func (p *PreferenceTable) SetNetworkSecret(v string) error {
	if err := checkText(KeyNetworkSecret, v, maxSecretLen); err != nil {
		return err
	}
	p.update(KeyNetworkSecret, func(pr *models.Preferences) { pr.NetworkSecret = v })
	return nil
}

func (p *PreferenceTable) SetDeviceName(v string) error {
	if err := checkText(KeyDeviceName, v, maxNameLen); err != nil {
		return err
	}
	p.update(KeyDeviceName, func(pr *models.Preferences) { pr.DeviceName = v })
	return nil
}

func (p *PreferenceTable) SetPort(v int) error {
	if v < MinPort || v > MaxPort {
		return fmt.Errorf("%w: port %d outside %d..%d", ErrInvalidPreference, v, MinPort, MaxPort)
	}
	p.update(KeyPort, func(pr *models.Preferences) { pr.Port = v })
	return nil
}

func checkText(key, v string, maxLen int) error {
	if v == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidPreference, key)
	}
	if len(v) > maxLen {
		return fmt.Errorf("%w: %s longer than %d bytes", ErrInvalidPreference, key, maxLen)
	}
	return nil
}

func (p *PreferenceTable) update(key string, fn func(*models.Preferences)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.vals)
	p.dirty[key] = true
}

// set installs a value read from the store (dirty=false) or a default (dirty=true).
func (p *PreferenceTable) set(key string, dirty bool, fn func(*models.Preferences)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.vals)
	p.dirty[key] = dirty
}

func (p *PreferenceTable) markClean(key string) {
	p.mu.Lock()
	delete(p.dirty, key)
	p.mu.Unlock()
}
