package domain

// PageRecord is one node of the wiki page tree as returned by the walker.
// Records are immutable once created.
type PageRecord struct {
	ID             string
	Type           string
	Status         string
	TinyLink       string
	Title          string
	ParentPageName string
	PublishedDate  string
}

// ContentRecord extends a PageRecord with extracted text and the
// internal-only classification flag.
type ContentRecord struct {
	PageRecord
	Content    string
	IsInternal bool
}

// Metadata is the structured object carried with every indexed vector.
// PageID always equals the owning row's ID.
type Metadata struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	PageID string `json:"page_id"`
	Title  string `json:"title"`
}

// CorpusRow is the persisted dataset unit of the interchange CSV.
// ID is unique across the corpus and keys both the CSV and the index.
type CorpusRow struct {
	ID       string
	Source   string
	Content  string
	Title    string
	Metadata Metadata
}

// EmbeddingRecord pairs a corpus row's key with its document vector.
// Rows with no successfully embedded chunk never become records.
type EmbeddingRecord struct {
	ID       string
	Values   []float64
	Metadata Metadata
}

// Match is a single nearest-neighbour hit from the vector index.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// Source is one attributed reference returned alongside an answer.
type Source struct {
	Title string
	URL   string
	Score float64
}

// Answer is the result of the query path: generated text plus the
// retrieved sources it was grounded on.
type Answer struct {
	Text    string
	Sources []Source
}
