package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/unitech/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// fakeMeili answers like a Meilisearch node: search requests get hits, everything else is
// acknowledged as an enqueued task.
type fakeMeili struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   []string
}

func (f *fakeMeili) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies[r.Method+" "+r.URL.Path] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/search") {
		hits := make([]map[string]string, len(f.hits))
		for i, id := range f.hits {
			hits[i] = map[string]string{"id": id}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": hits, "query": "", "processingTimeMs": 1})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"taskUid":    1,
		"indexUid":   coursesIndex,
		"status":     "enqueued",
		"type":       "documentAdditionOrUpdate",
		"enqueuedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (f *fakeMeili) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func newIndex(t *testing.T, fake *fakeMeili) CourseIndex {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewCourseIndex(meilisearch.New(srv.URL), zap.NewNop())
}

func TestCleanContent(t *testing.T) {
	s := &meiliCourseIndex{sanitizer: bluemonday.StrictPolicy()}

	got := s.cleanContent("<p>Intro to <b>Go</b></p><p>Fish &amp; chips</p><script>alert(1)</script>")
	if got != "Intro to Go Fish & chips" {
		t.Fatalf("unexpected cleaned content %q", got)
	}
}

func TestIndexCourse(t *testing.T) {
	fake := &fakeMeili{bodies: map[string]string{}}
	idx := newIndex(t, fake)

	course := &entity.Course{
		ID:          uuid.New(),
		CategoryID:  uuid.New(),
		Category:    &entity.Category{Label: "Programming"},
		Title:       "Go basics",
		Description: "<p>Learn <i>Go</i></p>",
		Tags:        []entity.Tag{{Label: "Go", Catalog: entity.Catalog{Slug: "go"}}},
		Catalog:     entity.Catalog{Slug: "go-basics", IsActive: true, CreatedAt: time.Now()},
	}
	if err := idx.IndexCourse(context.Background(), course); err != nil {
		t.Fatalf("index: %v", err)
	}

	var docs []courseDoc
	if err := json.Unmarshal([]byte(fake.body("POST /indexes/courses/documents")), &docs); err != nil {
		t.Fatalf("decode indexed documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.ID != course.ID.String() || doc.Description != "Learn Go" || doc.Category != "Programming" || len(doc.Tags) != 1 || doc.Tags[0] != "go" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestSearchCourses(t *testing.T) {
	want := uuid.New()
	fake := &fakeMeili{bodies: map[string]string{}, hits: []string{want.String(), "not-a-uuid"}}
	idx := newIndex(t, fake)

	ids, err := idx.SearchCourses(context.Background(), "go", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 1 || ids[0] != want {
		t.Fatalf("unexpected ids %v", ids)
	}

	if !strings.Contains(fake.body("POST /indexes/courses/search"), "is_active = true") {
		t.Fatalf("expected active filter in request, got %s", fake.body("POST /indexes/courses/search"))
	}
}
