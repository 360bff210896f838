package greyhound

// BinRecord is one per-bin entry underneath a collection day in the
// portal's embedded payload. Fields beyond these exist upstream but
// are not stable across template revisions, so they are ignored.
type BinRecord struct {
	WasteTypes []string `json:"waste_types"`
	Cancelled  bool     `json:"cancelled"`
}

// calendarPayload mirrors the JSON object smuggled inside the calendar
// page's inline script. Only the data.collection_days path is read.
type calendarPayload struct {
	Data struct {
		CollectionDays map[string][]BinRecord `json:"collection_days"`
	} `json:"data"`
}
