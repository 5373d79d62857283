package models

// Hit is a single ranked retrieval result.
type Hit struct {
	ChunkID    string  `json:"chunk_id"`
	DocTitle   string  `json:"doc_title"`
	DocSource  string  `json:"doc_source"`
	Notebook   string  `json:"notebook"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// SourceRef is the citation shape attached to a generated answer.
type SourceRef struct {
	ChunkID    string  `json:"chunk_id"`
	DocTitle   string  `json:"doc_title"`
	DocSource  string  `json:"doc_source"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// Answer is the response for an ask request. Grounded is false when
// retrieval produced no hits; in that case no generation was attempted
// and TopScore is nil.
type Answer struct {
	Answer   string      `json:"answer"`
	Grounded bool        `json:"grounded"`
	TopScore *float64    `json:"top_score"`
	Sources  []SourceRef `json:"sources"`
}
