package tag_test

import (
	"context"
	"errors"
	"testing"

	"anoa.com/unitech/internal/modules/tag/dto"
	"anoa.com/unitech/internal/modules/tag/repository"
	tag "anoa.com/unitech/internal/modules/tag/service"
	"anoa.com/unitech/internal/testutil"
	"anoa.com/unitech/pkg/apperror"
	"github.com/google/uuid"
)

func TestTagLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewTagRepository(db)
	svc := tag.NewTagService(repo, testutil.Logger())
	ctx := context.Background()

	created, err := svc.CreateTag(ctx, dto.CreateTagRequest{Label: "#GoLang"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Label != "GoLang" || created.Slug != "golang" || created.Display != "#GoLang" {
		t.Fatalf("unexpected tag %+v", created)
	}

	if _, err := svc.CreateTag(ctx, dto.CreateTagRequest{Label: "golang"}); !errors.Is(err, apperror.ErrDuplicateKey) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := svc.CreateTag(ctx, dto.CreateTagRequest{Label: "#"}); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected invalid, got %v", err)
	}

	other, err := svc.CreateTag(ctx, dto.CreateTagRequest{Label: "web"})
	if err != nil {
		t.Fatalf("create web: %v", err)
	}

	tags, err := svc.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}

	if _, err := repo.FindByIDs(ctx, []uuid.UUID{created.ID, uuid.New()}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for unknown tag id, got %v", err)
	}
	found, err := repo.FindByIDs(ctx, []uuid.UUID{created.ID, other.ID, created.ID})
	if err != nil || len(found) != 2 {
		t.Fatalf("expected both tags, got %d (%v)", len(found), err)
	}

	if err := svc.DeleteTag(ctx, other.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteTag(ctx, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
