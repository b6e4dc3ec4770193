// Package recorder keeps a write-only journal of screening runs.
package recorder

import "StockPicker/internal/model"

// Recorder persists completed runs for later inspection. The engine never
// reads the journal back.
type Recorder interface {
	RecordRun(rep *model.Report) error
	Close() error
}
