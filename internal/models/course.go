package models

// TopicCluster groups knowledge points that belong to one identified topic.
// PointIndices index into the flat knowledge point list that fed the
// clustering call; an index may appear in more than one cluster.
type TopicCluster struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	PointIndices []int    `json:"point_indices"`
	Keywords     []string `json:"keywords,omitempty"`
}

// Chapter is an ordered grouping of topics in the assembled course.
// Points is resolved during assignment from the referenced topic ids.
type Chapter struct {
	Order              int               `json:"order"`
	Title              string            `json:"title"`
	TopicIDs           []string          `json:"topic_ids"`
	Description        string            `json:"description,omitempty"`
	LearningObjectives []string          `json:"learning_objectives,omitempty"`
	Points             []MergedKnowledge `json:"points,omitempty"`
}

// CourseStructure is the final reconciled output: ordered chapters, the
// topic clusters they reference, and prerequisite edges between chapter
// titles. Consumed by the exporters together with a transition map.
type CourseStructure struct {
	Name          string              `json:"name"`
	Chapters      []Chapter           `json:"chapters"`
	Topics        []TopicCluster      `json:"topics"`
	Prerequisites map[string][]string `json:"prerequisites,omitempty"`
}
