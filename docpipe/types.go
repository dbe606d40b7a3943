package docpipe

// Document is the extraction result for one PDF file.
type Document struct {
	Path    string   `json:"path"`
	Pages   []string `json:"pages"`             // normalised per-page text
	RawText string   `json:"raw_text"`          // pages joined by newline
	Quality *Quality `json:"quality,omitempty"` // extraction quality metrics
}
