package memstore

import "time"

type Option func(*Engine)

// WithDataFile sets the snapshot file used by SaveToFile, LoadFromFile
// and the background save worker.
func WithDataFile(path string) Option {
	return func(engine *Engine) {
		engine.dataFile = path
	}
}

// WithAutoSave enables periodic background snapshots. An interval of zero
// or less leaves auto saving off.
func WithAutoSave(interval time.Duration) Option {
	return func(engine *Engine) {
		if interval <= 0 {
			engine.autoSave = false
			return
		}
		engine.autoSave = true
		engine.saveInterval = interval
	}
}
