package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/unitech/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const coursesIndex = "courses"

// CourseIndex keeps a full text index of courses.
type CourseIndex interface {
	IndexCourse(ctx context.Context, course *entity.Course) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	// SearchCourses returns the ids of active courses matching query, best match first.
	SearchCourses(ctx context.Context, query string, limit int64) ([]uuid.UUID, error)
}

type meiliCourseIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

func NewCourseIndex(client meilisearch.ServiceManager, logger *zap.Logger) CourseIndex {
	s := &meiliCourseIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
	s.initIndex()
	return s
}

func (s *meiliCourseIndex) initIndex() {
	filterableAttrs := []string{"category_id", "tags", "is_active"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(coursesIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		s.logger.Warn("failed to update courses filterable attributes", zap.Error(err))
	}

	sortableAttrs := []string{"created_at"}
	if _, err := s.client.Index(coursesIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		s.logger.Warn("failed to update courses sortable attributes", zap.Error(err))
	}
}

type courseDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	CategoryID  string   `json:"category_id"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	IsActive    bool     `json:"is_active"`
	CreatedAt   int64    `json:"created_at"`
}

func (s *meiliCourseIndex) document(course *entity.Course) courseDoc {
	doc := courseDoc{
		ID:          course.ID.String(),
		Title:       course.Title,
		Description: s.cleanContent(course.Description),
		Slug:        course.Slug,
		CategoryID:  course.CategoryID.String(),
		Tags:        make([]string, 0, len(course.Tags)),
		IsActive:    course.IsActive,
		CreatedAt:   course.CreatedAt.Unix(),
	}
	if course.Category != nil {
		doc.Category = course.Category.Label
	}
	for _, tag := range course.Tags {
		doc.Tags = append(doc.Tags, tag.Slug)
	}
	return doc
}

// cleanContent turns rich text into plain words for the index.
func (s *meiliCourseIndex) cleanContent(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	return strings.Join(strings.Fields(html.UnescapeString(sanitized)), " ")
}

func (s *meiliCourseIndex) IndexCourse(ctx context.Context, course *entity.Course) error {
	task, err := s.client.Index(coursesIndex).AddDocuments([]courseDoc{s.document(course)}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index course %s: %w", course.ID, err)
	}
	s.logger.Debug("course indexed", zap.String("course_id", course.ID.String()), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *meiliCourseIndex) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if _, err := s.client.Index(coursesIndex).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("delete course %s from index: %w", id, err)
	}
	return nil
}

type searchHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
}

func (s *meiliCourseIndex) SearchCourses(ctx context.Context, query string, limit int64) ([]uuid.UUID, error) {
	raw, err := s.client.Index(coursesIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                limit,
		Filter:               "is_active = true",
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}

	var res searchHits
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			s.logger.Warn("skipping malformed search hit", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
