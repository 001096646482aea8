package memstore

import (
	"log"
	"time"
)

// StartBackgroundWorkers starts the periodic snapshot worker when auto
// saving is configured. Snapshots are only written after something
// changed since the last save.
func (e *Engine) StartBackgroundWorkers() {
	if !e.autoSave || e.dataFile == "" {
		return
	}

	e.backgroundWg.Add(1)
	go func() {
		defer e.backgroundWg.Done()
		ticker := time.NewTicker(e.saveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !e.dirty.Swap(false) {
					continue
				}
				start := time.Now()
				if err := e.SaveToFile(e.dataFile); err != nil {
					log.Printf("ERROR: Background snapshot to %s failed: %v", e.dataFile, err)
					e.dirty.Store(true)
					continue
				}
				log.Printf("INFO: Background snapshot to %s completed in %v", e.dataFile, time.Since(start))
			case <-e.stopChan:
				return
			}
		}
	}()
}

// StopBackgroundWorkers stops the snapshot worker and waits for it to
// finish. Safe to call more than once.
func (e *Engine) StopBackgroundWorkers() {
	select {
	case <-e.stopChan:
		// Channel already closed, do nothing
	default:
		close(e.stopChan)
	}
	e.backgroundWg.Wait()
}
