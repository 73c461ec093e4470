package domain

import "gorm.io/datatypes"

// ChartChanges carries the chart columns a write supplies. Nil fields are left untouched on update.
type ChartChanges struct {
	FixLeap  *bool
	Language *string
	Payload  datatypes.JSON
}

func (c ChartChanges) Columns() map[string]any {
	columns := map[string]any{}
	if c.FixLeap != nil {
		columns["fix_leap"] = FixLeapFlag(*c.FixLeap)
	}
	if c.Language != nil {
		columns["language"] = *c.Language
	}
	if c.Payload != nil {
		columns["payload"] = c.Payload
	}
	return columns
}

// HoroscopeChanges carries the horoscope columns a write supplies.
type HoroscopeChanges struct {
	Payload datatypes.JSON
}

func (c HoroscopeChanges) Columns() map[string]any {
	columns := map[string]any{}
	if c.Payload != nil {
		columns["payload"] = c.Payload
	}
	return columns
}

// FixLeapFlag stores the leap month flag as 0 or 1.
func FixLeapFlag(fixLeap bool) int {
	if fixLeap {
		return 1
	}
	return 0
}
