package model

// Slot is a derived, never persisted, bookable start time.
type Slot struct {
	Date   string     `json:"date"`
	Time   string     `json:"time"`
	Status SlotStatus `json:"status"`
}

func (s Slot) Free() bool {
	return s.Status == SlotFree
}
