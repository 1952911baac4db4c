package kvstore

import (
	"time"
)

// ValueItem represents the value associated with a key.
// The data can be in a loaded or unloaded state, which indicates whether it's in memory.
// Unloaded data will be reloaded from the first persister when accessed.
type ValueItem struct {
	Data       []byte    `json:"-"`
	Size       int       `json:"size"`
	Ts         time.Time `json:"timestamp"`
	dataLoaded bool      `json:"-"`
}

// NewValueItem initializes a new ValueItem with a given timestamp.
func NewValueItem(dataBytes []byte, ts time.Time) *ValueItem {
	return &ValueItem{
		Data:       dataBytes,
		Size:       len(dataBytes),
		Ts:         ts,
		dataLoaded: true,
	}
}

// SetData updates the Data field of a ValueItem and marks it as loaded.
func (item *ValueItem) SetData(dataBytes []byte) error {
	item.Data = dataBytes
	item.Size = len(dataBytes)
	item.dataLoaded = true
	return nil
}

// Loaded reports whether the value is held in memory.
func (item *ValueItem) Loaded() bool {
	return item.dataLoaded
}

// unload checks if a ValueItem should be unloaded based on a duration.
func (item *ValueItem) unload(now time.Time, unloadAfter time.Duration) bool {
	if unloadAfter == 0 || !item.dataLoaded {
		return false
	}
	return now.Sub(item.Ts) > unloadAfter
}

func (item *ValueItem) unloadData() {
	item.Data = nil
	item.dataLoaded = false
}
