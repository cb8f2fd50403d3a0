package models

// Quote is a single piece of content fetched for a dispatch run. Quotes are
// transient: they live for one run and are never persisted.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}
