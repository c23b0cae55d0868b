package fusion

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/extract"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
)

const (
	// DefaultSimilarityThreshold gates the prefilter phase.
	DefaultSimilarityThreshold = 0.75

	confirmTemperature = 0.2
	mergeTemperature   = 0.3

	maxMergeMembers    = 5
	maxConcatMembers   = 3
	maxMarkersPerMerge = 5
	maxExamples        = 3
)

var mergePrefixRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^merged content:\s*`),
	regexp.MustCompile(`(?i)^integrated content:\s*`),
	regexp.MustCompile(`(?i)^final version:\s*`),
}

// Reconciler deduplicates knowledge points across documents using a
// three-phase strategy: a cheap similarity prefilter, a generative
// confirmation pass, and a generative merge of each confirmed group.
type Reconciler struct {
	llm       interfaces.GenerateService
	threshold float64
	logger    arbor.ILogger
}

// NewReconciler creates a reconciler with the given similarity threshold.
// Thresholds outside (0,1] fall back to the default.
func NewReconciler(llm interfaces.GenerateService, threshold float64, logger arbor.ILogger) *Reconciler {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Reconciler{
		llm:       llm,
		threshold: threshold,
		logger:    logger,
	}
}

// MergeDuplicates reconciles the flat point list into merged knowledge.
// Points in no confirmed duplicate group pass through unchanged with
// MergedFrom=1 and full confidence.
func (r *Reconciler) MergeDuplicates(ctx context.Context, points []models.KnowledgePoint) []models.MergedKnowledge {
	if len(points) == 0 {
		return []models.MergedKnowledge{}
	}
	if len(points) == 1 {
		return []models.MergedKnowledge{toMerged(points[0])}
	}

	r.logger.Info().Int("points", len(points)).Msg("Reconciling knowledge points")

	candidates := r.findCandidates(points)
	r.logger.Debug().Int("candidate_groups", len(candidates)).Msg("Prefilter complete")

	confirmed := r.confirmDuplicates(ctx, points, candidates)
	r.logger.Info().Int("confirmed_groups", len(confirmed)).Msg("Confirmation complete")

	merged := r.mergeAll(ctx, points, confirmed)
	r.logger.Info().
		Int("before", len(points)).
		Int("after", len(merged)).
		Msg("Reconciliation complete")
	return merged
}

// findCandidates is the generative-free prefilter: a single greedy sweep
// over the full pairwise similarity matrix. The earliest unvisited index
// wins its group; this is deliberately not a transitive closure, and the
// tie-break must stay stable for deterministic output.
func (r *Reconciler) findCandidates(points []models.KnowledgePoint) [][]int {
	n := len(points)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := Similarity(points[i], points[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	visited := make([]bool, n)
	var groups [][]int

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		group := []int{i}
		visited[i] = true

		for j := i + 1; j < n; j++ {
			if !visited[j] && matrix[i][j] >= r.threshold {
				group = append(group, j)
				visited[j] = true
			}
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

type confirmReply struct {
	IsDuplicate bool    `json:"is_duplicate"`
	BestTitle   string  `json:"best_title"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// confirmDuplicates asks the model, per candidate group, whether the group
// truly describes one concept. A group is confirmed only on
// is_duplicate=true with confidence above 0.8. A failed generative call
// fails open: the group is confirmed with the first member's title.
func (r *Reconciler) confirmDuplicates(ctx context.Context, points []models.KnowledgePoint, candidates [][]int) []models.DuplicateGroup {
	var confirmed []models.DuplicateGroup

	for _, indices := range candidates {
		if len(indices) < 2 {
			continue
		}

		var descriptions []string
		for _, i := range indices {
			descriptions = append(descriptions, fmt.Sprintf("[%d] Title: %s\n    Content: %s...",
				i, points[i].Title, prefix(points[i].Content, 100)))
		}

		prompt := fmt.Sprintf(`Analyze these knowledge points and decide whether they are duplicates describing the same concept.

Knowledge points:
%s

Tasks:
1. Decide whether the points are duplicates (same concept)
2. If so, pick the best title
3. Give a confidence score (0.0-1.0)

Respond in JSON:
{
  "is_duplicate": true,
  "best_title": "Best title",
  "confidence": 0.9,
  "reason": "Explanation"
}

Notes:
- Similar titles with different content are not duplicates
- Different phrasings of one concept are duplicates

Output only the JSON:`, strings.Join(descriptions, "\n"))

		raw, err := r.llm.Generate(ctx, prompt, confirmTemperature)
		if err != nil {
			r.logger.Warn().Err(err).Int("group_size", len(indices)).Msg("Confirmation call failed, merging automatically")
			confirmed = append(confirmed, models.DuplicateGroup{
				BestTitle:  points[indices[0]].Title,
				Indices:    indices,
				Reason:     "automatic merge (confirmation unavailable)",
				Confidence: 1.0,
			})
			continue
		}

		var reply confirmReply
		if result := extract.JSON(raw, &reply); !result.Parsed() {
			r.logger.Warn().Int("group_size", len(indices)).Msg("Confirmation reply unparseable, leaving group unmerged")
			continue
		}

		if reply.IsDuplicate && reply.Confidence > 0.8 {
			title := reply.BestTitle
			if title == "" {
				title = points[indices[0]].Title
			}
			confirmed = append(confirmed, models.DuplicateGroup{
				BestTitle:  title,
				Indices:    indices,
				Reason:     reply.Reason,
				Confidence: reply.Confidence,
			})
		}
	}
	return confirmed
}

// mergeAll merges every confirmed group, then passes ungrouped points
// through unchanged in index order.
func (r *Reconciler) mergeAll(ctx context.Context, points []models.KnowledgePoint, confirmed []models.DuplicateGroup) []models.MergedKnowledge {
	var merged []models.MergedKnowledge
	used := make(map[int]bool)

	for _, group := range confirmed {
		var members []models.KnowledgePoint
		for _, i := range group.Indices {
			if i >= 0 && i < len(points) {
				members = append(members, points[i])
			}
		}

		switch {
		case len(members) > 1:
			merged = append(merged, r.mergeGroup(ctx, members, group.BestTitle))
			for _, i := range group.Indices {
				used[i] = true
			}
		case len(members) == 1:
			merged = append(merged, toMerged(members[0]))
			used[group.Indices[0]] = true
		}
	}

	for i, point := range points {
		if !used[i] {
			merged = append(merged, toMerged(point))
		}
	}
	return merged
}

// mergeGroup synthesizes one MergedKnowledge from a confirmed group. The
// generative call sees at most 5 members; a failed call degrades to
// concatenating up to 3 members' raw content.
func (r *Reconciler) mergeGroup(ctx context.Context, members []models.KnowledgePoint, bestTitle string) models.MergedKnowledge {
	var versions []string
	for i, p := range members[:min(len(members), maxMergeMembers)] {
		versions = append(versions, fmt.Sprintf("Version %d:\nTitle: %s\nContent: %s",
			i+1, p.Title, prefix(p.Content, 1000)))
	}

	prompt := fmt.Sprintf(`Integrate the following %d similar knowledge point versions into one complete version.

%s

Tasks:
1. Merge all unique information, dropping repetition
2. Keep the logic coherent and the layout clear
3. Preserve the most important concepts and details

Output the integrated content, keeping the original level of detail:`, len(members), strings.Join(versions, "\n"))

	content, err := r.llm.Generate(ctx, prompt, mergeTemperature)
	if err != nil {
		r.logger.Warn().Err(err).Str("title", bestTitle).Msg("Merge call failed, concatenating members")
		var parts []string
		for _, p := range members[:min(len(members), maxConcatMembers)] {
			parts = append(parts, p.Content)
		}
		content = strings.Join(parts, "\n\n")
	} else {
		content = cleanMergedContent(content)
	}

	var sources []string
	seenSource := make(map[string]bool)
	var markers []models.VideoMarker
	for _, p := range members {
		if !seenSource[p.SourceFile] {
			seenSource[p.SourceFile] = true
			sources = append(sources, p.SourceFile)
		}
		markers = append(markers, p.VideoMarkers...)
	}

	return models.MergedKnowledge{
		Title:        bestTitle,
		Content:      content,
		Sources:      sources,
		VideoMarkers: deduplicateMarkers(markers),
		Examples:     extractExamples(members),
		Confidence:   min(1.0, 0.7+float64(len(members))*0.05),
		MergedFrom:   len(members),
	}
}

func cleanMergedContent(content string) string {
	for _, re := range mergePrefixRes {
		content = re.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// deduplicateMarkers keys on time plus a bounded description prefix, keeping
// first occurrence order and capping the result.
func deduplicateMarkers(markers []models.VideoMarker) []models.VideoMarker {
	seen := make(map[string]bool)
	var unique []models.VideoMarker

	for _, m := range markers {
		key := m.Time + "-" + prefix(m.Description, 30)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, m)
		}
	}
	if len(unique) > maxMarkersPerMerge {
		unique = unique[:maxMarkersPerMerge]
	}
	return unique
}

// extractExamples pulls worked-example lines out of member contents: lines
// naming an example, long enough to carry one and short enough to quote.
func extractExamples(points []models.KnowledgePoint) []string {
	var examples []string
	for _, p := range points {
		for _, line := range strings.Split(p.Content, "\n") {
			lower := strings.ToLower(line)
			if !strings.Contains(lower, "example") && !strings.Contains(lower, "e.g.") {
				continue
			}
			if len(line) > 20 && len(line) < 500 {
				examples = append(examples, strings.TrimSpace(line))
			}
		}
	}
	if len(examples) > maxExamples {
		examples = examples[:maxExamples]
	}
	return examples
}

func toMerged(point models.KnowledgePoint) models.MergedKnowledge {
	return models.MergedKnowledge{
		Title:        point.Title,
		Content:      point.Content,
		Sources:      []string{point.SourceFile},
		VideoMarkers: point.VideoMarkers,
		Examples:     extractExamples([]models.KnowledgePoint{point}),
		Confidence:   1.0,
		MergedFrom:   1,
	}
}
