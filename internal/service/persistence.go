package service

import (
	"context"
	"fmt"
	"sync"

	"skull_controller/internal/logger"
	"skull_controller/internal/models"
	"skull_controller/internal/repository"

	"go.uber.org/multierr"
)

// Recorder appends audit events. Failures are the recorder's to log.
type Recorder interface {
	Record(ctx context.Context, typ, description string, meta any)
}

// persisted is one value kept under its own store key.
type persisted struct {
	key    string
	encode func() []byte
	decode func([]byte) error // installs the value clean
	reset  func()             // installs the default dirty
	dirty  func() bool
	clean  func()
}

// LoadReport describes what LoadAll did.
type LoadReport struct {
	FullReset bool     `json:"full_reset"`
	Reason    string   `json:"reason,omitempty"`
	Defaulted []string `json:"defaulted,omitempty"` // keys that fell back to their default
}

// Calibration persists the limit and preference tables to a blob store.
// Writes happen only on Commit.
type Calibration struct {
	store    repository.BlobStore
	limits   *LimitTable
	prefs    *PreferenceTable
	recorder Recorder
	log      *logger.Logger

	mu           sync.Mutex
	versionDirty bool
	items        []persisted
}

func NewCalibration(store repository.BlobStore, limits *LimitTable, prefs *PreferenceTable, recorder Recorder, log *logger.Logger) *Calibration {
	if log == nil {
		log = logger.Nop()
	}
	c := &Calibration{store: store, limits: limits, prefs: prefs, recorder: recorder, log: log}
	c.items = append(c.prefItems(), c.recordItems()...)
	return c
}

func (c *Calibration) recordItems() []persisted {
	items := make([]persisted, 0, models.NumActuators)
	for _, id := range models.AllActuators() {
		items = append(items, persisted{
			key: id.Key(),
			encode: func() []byte {
				rec, _ := c.limits.Get(id)
				return encodeRecord(rec)
			},
			decode: func(b []byte) error {
				rec, err := decodeRecord(b)
				if err != nil {
					return err
				}
				if !validRecord(id, rec) {
					return fmt.Errorf("%w: %s record %+v violates limits", errMalformedBlob, id, rec)
				}
				c.limits.load(id, rec)
				return nil
			},
			reset: func() { c.limits.reset(id) },
			dirty: func() bool {
				rec, _ := c.limits.Get(id)
				return rec.Dirty
			},
			clean: func() { c.limits.markClean(id) },
		})
	}
	return items
}

func (c *Calibration) textItem(key string, maxLen int, get func(models.Preferences) string, put func(*models.Preferences, string), def string) persisted {
	return persisted{
		key:    key,
		encode: func() []byte { return []byte(get(c.prefs.Get())) },
		decode: func(b []byte) error {
			v, err := decodeText(b)
			if err != nil {
				return err
			}
			if err := checkText(key, v, maxLen); err != nil {
				return fmt.Errorf("%w: %v", errMalformedBlob, err)
			}
			c.prefs.set(key, false, func(p *models.Preferences) { put(p, v) })
			return nil
		},
		reset: func() { c.prefs.set(key, true, func(p *models.Preferences) { put(p, def) }) },
		dirty: func() bool { return c.prefs.Dirty(key) },
		clean: func() { c.prefs.markClean(key) },
	}
}

func (c *Calibration) prefItems() []persisted {
	return []persisted{
		c.textItem(KeyNetworkName, maxNameLen,
			func(p models.Preferences) string { return p.NetworkName },
			func(p *models.Preferences, v string) { p.NetworkName = v },
			models.DefaultNetworkName),
		c.textItem(KeyNetworkSecret, maxSecretLen,
			func(p models.Preferences) string { return p.NetworkSecret },
			func(p *models.Preferences, v string) { p.NetworkSecret = v },
			models.DefaultNetworkSecret),
		c.textItem(KeyDeviceName, maxNameLen,
			func(p models.Preferences) string { return p.DeviceName },
			func(p *models.Preferences, v string) { p.DeviceName = v },
			models.DefaultDeviceName),
		{
			key:    KeyPort,
			encode: func() []byte { return encodeUint32(c.prefs.Get().Port) },
			decode: func(b []byte) error {
				v, err := decodeUint32(b)
				if err != nil {
					return err
				}
				if v < MinPort || v > MaxPort {
					return fmt.Errorf("%w: port %d", errMalformedBlob, v)
				}
				c.prefs.set(KeyPort, false, func(p *models.Preferences) { p.Port = v })
				return nil
			},
			reset: func() { c.prefs.set(KeyPort, true, func(p *models.Preferences) { p.Port = models.DefaultPort }) },
			dirty: func() bool { return c.prefs.Dirty(KeyPort) },
			clean: func() { c.prefs.markClean(KeyPort) },
		},
	}
}

// DirtyKeys lists the store keys with uncommitted changes, version first.
func (c *Calibration) DirtyKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyKeysLocked()
}

func (c *Calibration) dirtyKeysLocked() []string {
	var keys []string
	if c.versionDirty {
		keys = append(keys, KeyVersion)
	}
	for _, it := range c.items {
		if it.dirty() {
			keys = append(keys, it.key)
		}
	}
	return keys
}

// Commit writes every dirty value under its key and clears the flag of each
// write that succeeded. A failed key does not stop the rest; the failures
// are combined into the returned error.
func (c *Calibration) Commit(ctx context.Context) (written []string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range c.items {
		if !it.dirty() {
			continue
		}
		if werr := c.store.PutBlob(ctx, it.key, it.encode()); werr != nil {
			c.log.Errorw("calibration_commit_failed", "key", it.key, "error", werr)
			err = multierr.Append(err, fmt.Errorf("write %s: %w", it.key, werr))
			continue
		}
		it.clean()
		written = append(written, it.key)
	}

	// version last, so an interrupted first commit is retried in full
	if c.versionDirty {
		if werr := c.store.PutBlob(ctx, KeyVersion, encodeUint32(models.SchemaVersion)); werr != nil {
			c.log.Errorw("calibration_commit_failed", "key", KeyVersion, "error", werr)
			err = multierr.Append(err, fmt.Errorf("write %s: %w", KeyVersion, werr))
		} else {
			c.versionDirty = false
			written = append(written, KeyVersion)
		}
	}

	c.log.Infow("calibration_committed", "written", written, "failed", len(multierr.Errors(err)))
	if len(written) > 0 {
		c.record(ctx, models.EventCommit, fmt.Sprintf("committed %d keys", len(written)), map[string]any{"keys": written})
	}
	if err != nil {
		c.record(ctx, models.EventError, "commit incomplete", map[string]any{"error": err.Error()})
	}
	return written, err
}

// LoadAll fills the tables from the store. A missing, unreadable or mismatched
// version marker (or forceDefaults) resets everything to defaults and marks
// it all dirty. Otherwise each key is read on its own and a missing or
// malformed one falls back to its default, marked dirty. Store errors are
// logged and treated as missing; only context cancellation is returned.
func (c *Calibration) LoadAll(ctx context.Context, forceDefaults bool) (LoadReport, error) {
	if err := ctx.Err(); err != nil {
		return LoadReport{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	reason := "forced"
	if !forceDefaults {
		reason = c.checkVersion(ctx)
	}

	if reason != "" {
		rep := LoadReport{FullReset: true, Reason: reason}
		for _, it := range c.items {
			it.reset()
			rep.Defaulted = append(rep.Defaulted, it.key)
		}
		c.versionDirty = true
		c.log.Warnw("calibration_defaults_loaded", "reason", reason)
		c.record(ctx, models.EventReset, "calibration reset to defaults: "+reason, map[string]any{"reason": reason})
		return rep, nil
	}

	c.versionDirty = false
	var rep LoadReport
	for _, it := range c.items {
		raw, found, err := c.store.GetBlob(ctx, it.key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rep, ctxErr
			}
			c.log.Errorw("calibration_read_failed", "key", it.key, "error", err)
			found = false
		}
		if found {
			derr := it.decode(raw)
			if derr == nil {
				continue
			}
			c.log.Warnw("calibration_blob_malformed", "key", it.key, "error", derr)
		}
		it.reset()
		rep.Defaulted = append(rep.Defaulted, it.key)
	}

	c.log.Infow("calibration_loaded", "defaulted", rep.Defaulted)
	c.record(ctx, models.EventLoad, fmt.Sprintf("calibration loaded, %d keys defaulted", len(rep.Defaulted)), map[string]any{"defaulted": rep.Defaulted})
	return rep, nil
}

// checkVersion returns why the stored data must be discarded, or "".
func (c *Calibration) checkVersion(ctx context.Context) string {
	raw, found, err := c.store.GetBlob(ctx, KeyVersion)
	switch {
	case err != nil:
		c.log.Errorw("calibration_read_failed", "key", KeyVersion, "error", err)
		return "version unreadable"
	case !found:
		return "version missing"
	}
	v, err := decodeUint32(raw)
	if err != nil {
		return "version malformed"
	}
	if v != models.SchemaVersion {
		return fmt.Sprintf("version %d, want %d", v, models.SchemaVersion)
	}
	return ""
}

func (c *Calibration) record(ctx context.Context, typ, desc string, meta any) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(ctx, typ, desc, meta)
}
