package model

// TypeNumberingStats holds per-letter-type numbering aggregates for one year.
// LastNumber is the highest sequence ordinal seen for the type across the
// whole year — a type that spans several months reports the max over all of
// them, matching the legacy report format.
type TypeNumberingStats struct {
	Count      int  `json:"count"`
	LastNumber *int `json:"lastNumber"`
}

// NumberingStats is the yearly letter-numbering report.
type NumberingStats struct {
	Year         int                           `json:"year"`
	TotalLetters int                           `json:"totalLetters"`
	ByType       map[string]TypeNumberingStats `json:"byType"`
}
