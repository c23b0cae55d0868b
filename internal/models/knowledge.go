package models

// VideoMarker points a knowledge point back at a span of the source video
// that the text alone cannot convey (diagrams, derivations, animations).
type VideoMarker struct {
	Time        string `json:"time"` // "05:30-05:45"
	Description string `json:"description"`
}

// KnowledgePoint is one atomic unit of extracted knowledge from a single
// document. Immutable once emitted by the pipeline; downstream aggregates
// hold copies, never shared mutable state.
type KnowledgePoint struct {
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	VideoMarkers []VideoMarker `json:"video_markers,omitempty"`
	SourceFile   string        `json:"source_file"`
	Importance   int           `json:"importance"` // 1-5
}

// MergedKnowledge is the result of fusing one or more knowledge points.
// Invariant: MergedFrom == 1 implies exactly one source and Confidence == 1.0.
type MergedKnowledge struct {
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Sources      []string      `json:"sources"`
	VideoMarkers []VideoMarker `json:"video_markers,omitempty"`
	Examples     []string      `json:"examples,omitempty"`
	Confidence   float64       `json:"confidence"`
	MergedFrom   int           `json:"merged_from"`
}

// DuplicateGroup is a confirmed set of near-duplicate knowledge points.
// Transient: consumed immediately by the merge phase, never persisted.
type DuplicateGroup struct {
	BestTitle  string  `json:"best_title"`
	Indices    []int   `json:"indices"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}
