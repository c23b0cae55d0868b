package clustering

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/extract"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
)

const (
	// DefaultBatchSize bounds how many points feed one topic call.
	DefaultBatchSize = 50

	// topicMergeThreshold is the topic count above which a merge pass runs.
	topicMergeThreshold = 5

	// maxFallbackChapters caps the one-chapter-per-topic degrade path.
	maxFallbackChapters = 8

	defaultCourseName = "Untitled Course"

	identifyTemperature   = 0.3
	topicMergeTemperature = 0.2
	structureTemperature  = 0.3
)

// Clusterer organizes merged knowledge into topics and an ordered chapter
// structure. All semantic grouping is delegated to the generative service;
// the clusterer owns batching, index translation, and the degrade paths.
type Clusterer struct {
	llm       interfaces.GenerateService
	batchSize int
	logger    arbor.ILogger
}

// NewClusterer creates a clusterer. Non-positive batch sizes fall back to
// the default.
func NewClusterer(llm interfaces.GenerateService, batchSize int, logger arbor.ILogger) *Clusterer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Clusterer{
		llm:       llm,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Cluster builds the course structure for the given points: topic
// identification over fixed-size batches, a merge pass when topics
// proliferate, chapter assembly, and finally point assignment.
func (c *Clusterer) Cluster(ctx context.Context, points []models.MergedKnowledge) models.CourseStructure {
	if len(points) == 0 {
		c.logger.Warn().Msg("No knowledge points to cluster")
		return models.CourseStructure{Name: defaultCourseName, Chapters: []models.Chapter{}, Topics: []models.TopicCluster{}}
	}

	c.logger.Info().Int("points", len(points)).Msg("Clustering knowledge points")

	topics := c.identifyTopics(ctx, points)
	topics = c.mergeSimilarTopics(ctx, topics)
	c.logger.Info().Int("topics", len(topics)).Msg("Topic identification complete")

	structure := c.buildStructure(ctx, topics)
	structure.Topics = topics
	c.assignPoints(&structure, points)

	c.logger.Info().
		Str("course", structure.Name).
		Int("chapters", len(structure.Chapters)).
		Msg("Clustering complete")
	return structure
}

type topicsReply struct {
	Topics []struct {
		ID           string   `json:"id"`
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		PointIndices []int    `json:"point_indices"`
		Keywords     []string `json:"keywords"`
	} `json:"topics"`
}

// identifyTopics runs one generative call per batch, asking for clusters
// with batch-local indices, then translates them to global indices. A
// translated index at or past the true point count is discarded. A failed
// batch degrades to one singleton topic per point rather than being dropped.
func (c *Clusterer) identifyTopics(ctx context.Context, points []models.MergedKnowledge) []models.TopicCluster {
	var allTopics []models.TopicCluster

	for batchIdx := 0; batchIdx*c.batchSize < len(points); batchIdx++ {
		offset := batchIdx * c.batchSize
		batch := points[offset:min(offset+c.batchSize, len(points))]

		var summaries []string
		for i, p := range batch {
			summaries = append(summaries, fmt.Sprintf("[%d] %s\n   %s...", i, p.Title, prefix(p.Content, 150)))
		}

		prompt := fmt.Sprintf(`Analyze these %d knowledge points and identify the topic clusters within them.

Knowledge points:
%s

Tasks:
1. Identify the main themes (3-10)
2. For each, provide:
   - A concise name
   - A one or two sentence description
   - The indices of its knowledge points
   - 3-5 keywords

Respond in this JSON format:
{
  "topics": [
    {
      "id": "topic_1",
      "title": "Theme name",
      "description": "Theme description",
      "point_indices": [0, 1, 2],
      "keywords": ["keyword1", "keyword2"]
    }
  ]
}

Notes:
- A knowledge point may belong to more than one theme
- Themes should have clear boundaries
- Order themes by importance

Output only the JSON, nothing else:`, len(batch), strings.Join(summaries, "\n"))

		var reply topicsReply
		raw, err := c.llm.Generate(ctx, prompt, identifyTemperature)
		if err == nil {
			if result := extract.JSON(raw, &reply); !result.Parsed() {
				err = fmt.Errorf("unparseable topic reply")
			}
		}
		if err != nil {
			c.logger.Warn().Err(err).Int("batch", batchIdx).Msg("Topic batch failed, emitting singleton topics")
			for i, p := range batch {
				allTopics = append(allTopics, models.TopicCluster{
					ID:           fmt.Sprintf("topic_%d", offset+i),
					Title:        p.Title,
					Description:  prefix(p.Content, 100),
					PointIndices: []int{offset + i},
				})
			}
			continue
		}

		for _, t := range reply.Topics {
			var indices []int
			for _, local := range t.PointIndices {
				// A local index past the batch must not leak into the next
				// batch's range once offset; both bounds are enforced.
				if local < 0 || local >= len(batch) {
					continue
				}
				global := offset + local
				if global < len(points) {
					indices = append(indices, global)
				}
			}

			id := t.ID
			if id == "" {
				id = fmt.Sprintf("topic_%d", len(allTopics))
			}
			allTopics = append(allTopics, models.TopicCluster{
				ID:           id,
				Title:        t.Title,
				Description:  t.Description,
				PointIndices: indices,
				Keywords:     t.Keywords,
			})
		}
	}
	return allTopics
}

type topicMergeReply struct {
	MergedTopics []struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		OriginalIndices []int    `json:"original_indices"`
		Keywords        []string `json:"keywords"`
	} `json:"merged_topics"`
}

// mergeSimilarTopics collapses near-duplicate topics when they proliferate.
// Topics not named by any merge pass through unchanged; on failure the
// unmerged list is returned.
func (c *Clusterer) mergeSimilarTopics(ctx context.Context, topics []models.TopicCluster) []models.TopicCluster {
	if len(topics) <= topicMergeThreshold {
		return topics
	}

	var summaries []string
	for i, t := range topics {
		summaries = append(summaries, fmt.Sprintf("%d. %s\n   Keywords: %s\n   Description: %s",
			i, t.Title, strings.Join(t.Keywords, ", "), prefix(t.Description, 100)))
	}

	prompt := fmt.Sprintf(`Analyze these %d themes and identify which are similar enough to merge.

Themes:
%s

Tasks:
1. Identify themes whose titles or keywords overlap heavily
2. Propose the merges
3. Return the merged theme list

Respond in JSON:
{
  "merged_topics": [
    {
      "id": "topic_1",
      "title": "Merged title",
      "description": "Merged description",
      "original_indices": [0, 2],
      "keywords": ["keyword1", "keyword2"]
    }
  ]
}

Notes:
- Merge only strongly similar themes
- Keep between 5 and 10 themes
- Themes not merged stay as they are

Output only the JSON:`, len(topics), strings.Join(summaries, "\n"))

	raw, err := c.llm.Generate(ctx, prompt, topicMergeTemperature)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Topic merge call failed, keeping unmerged topics")
		return topics
	}
	var reply topicMergeReply
	if result := extract.JSON(raw, &reply); !result.Parsed() {
		c.logger.Warn().Msg("Topic merge reply unparseable, keeping unmerged topics")
		return topics
	}

	var merged []models.TopicCluster
	used := make(map[int]bool)

	for _, m := range reply.MergedTopics {
		var indices []int
		seen := make(map[int]bool)
		for _, idx := range m.OriginalIndices {
			if idx < 0 || idx >= len(topics) {
				continue
			}
			used[idx] = true
			for _, pi := range topics[idx].PointIndices {
				if !seen[pi] {
					seen[pi] = true
					indices = append(indices, pi)
				}
			}
		}

		id := m.ID
		if id == "" {
			id = fmt.Sprintf("merged_%d", len(merged))
		}
		merged = append(merged, models.TopicCluster{
			ID:           id,
			Title:        m.Title,
			Description:  m.Description,
			PointIndices: indices,
			Keywords:     m.Keywords,
		})
	}

	for i, t := range topics {
		if !used[i] {
			merged = append(merged, t)
		}
	}

	c.logger.Info().Int("before", len(topics)).Int("after", len(merged)).Msg("Topics merged")
	return merged
}

type structureReply struct {
	CourseName string `json:"course_name"`
	Chapters   []struct {
		Order              int      `json:"order"`
		Title              string   `json:"title"`
		TopicIDs           []string `json:"topic_ids"`
		Description        string   `json:"description"`
		LearningObjectives []string `json:"learning_objectives"`
	} `json:"chapters"`
	Prerequisites map[string][]string `json:"prerequisites"`
}

// buildStructure asks the model to organize topics into 3-8 ordered
// chapters with prerequisite edges. On failure it degrades to one chapter
// per topic, capped, with no prerequisites.
func (c *Clusterer) buildStructure(ctx context.Context, topics []models.TopicCluster) models.CourseStructure {
	var summaries []string
	for i, t := range topics {
		summaries = append(summaries, fmt.Sprintf("%d. %s\n   Description: %s\n   Point count: %d",
			i, t.Title, prefix(t.Description, 80), len(t.PointIndices)))
	}

	prompt := fmt.Sprintf(`Design a textbook structure from these %d themes.

Themes:
%s

Tasks:
1. Organize the themes into 3-8 chapters
2. Order the chapters by knowledge dependency
3. Identify prerequisite relationships between chapters

Respond in JSON:
{
  "course_name": "Course name (concise and professional)",
  "chapters": [
    {
      "order": 1,
      "title": "Chapter title",
      "topic_ids": ["topic_1", "topic_2"],
      "description": "Chapter description",
      "learning_objectives": ["Objective 1", "Objective 2"]
    }
  ],
  "prerequisites": {
    "Chapter title": ["Prerequisite chapter title"]
  }
}

Output only the JSON:`, len(topics), strings.Join(summaries, "\n"))

	raw, err := c.llm.Generate(ctx, prompt, structureTemperature)
	var reply structureReply
	if err == nil {
		if result := extract.JSON(raw, &reply); !result.Parsed() {
			err = fmt.Errorf("unparseable structure reply")
		}
	}
	if err != nil || len(reply.Chapters) == 0 {
		c.logger.Warn().Err(err).Msg("Structure call failed, one chapter per topic")
		structure := models.CourseStructure{
			Name:          defaultCourseName,
			Prerequisites: map[string][]string{},
		}
		for i, t := range topics {
			if i >= maxFallbackChapters {
				break
			}
			structure.Chapters = append(structure.Chapters, models.Chapter{
				Order:       i + 1,
				Title:       t.Title,
				TopicIDs:    []string{t.ID},
				Description: t.Description,
			})
		}
		return structure
	}

	name := reply.CourseName
	if name == "" {
		name = defaultCourseName
	}
	structure := models.CourseStructure{
		Name:          name,
		Prerequisites: reply.Prerequisites,
	}
	for _, ch := range reply.Chapters {
		structure.Chapters = append(structure.Chapters, models.Chapter{
			Order:              ch.Order,
			Title:              ch.Title,
			TopicIDs:           ch.TopicIDs,
			Description:        ch.Description,
			LearningObjectives: ch.LearningObjectives,
		})
	}
	return structure
}

// assignPoints resolves each chapter's member points as the union of its
// referenced topics' indices, sorted, with out-of-range indices dropped.
func (c *Clusterer) assignPoints(structure *models.CourseStructure, points []models.MergedKnowledge) {
	for ci := range structure.Chapters {
		chapter := &structure.Chapters[ci]

		wanted := make(map[string]bool, len(chapter.TopicIDs))
		for _, id := range chapter.TopicIDs {
			wanted[id] = true
		}

		indexSet := make(map[int]bool)
		for _, topic := range structure.Topics {
			if !wanted[topic.ID] {
				continue
			}
			for _, i := range topic.PointIndices {
				indexSet[i] = true
			}
		}

		indices := make([]int, 0, len(indexSet))
		for i := range indexSet {
			if i >= 0 && i < len(points) {
				indices = append(indices, i)
			}
		}
		sort.Ints(indices)

		chapter.Points = make([]models.MergedKnowledge, 0, len(indices))
		for _, i := range indices {
			chapter.Points = append(chapter.Points, points[i])
		}
	}
}

func prefix(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
