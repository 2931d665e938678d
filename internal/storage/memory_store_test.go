package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvbuilder/backend/internal/models"
)

func fixedClock(s *MemoryStore, t time.Time) {
	s.now = func() time.Time { return t }
}

func TestMemoryStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fixedClock(s, at)

	id, err := s.Insert(ctx, Fields{
		models.FieldName:          "Ada",
		models.FieldUserID:        "u1",
		models.FieldTemplateIndex: 2,
		models.FieldSkills:        []models.Skill{{Skill: "go"}},
		models.FieldImgID:         DeleteField,
		models.FieldCreatedAt:     ServerTimestamp,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Ada", doc.Name)
	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, 2, doc.TemplateIndex)
	assert.Equal(t, []models.Skill{{Skill: "go"}}, doc.Skills)
	assert.Empty(t, doc.ImgID)
	assert.Equal(t, at, doc.CreatedAt)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.Insert(ctx, Fields{models.FieldSkills: []models.Skill{{Skill: "go"}}})
	require.NoError(t, err)

	doc, err := s.Get(ctx, id)
	require.NoError(t, err)
	doc.Skills[0].Skill = "changed"

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "go", again.Skills[0].Skill)
}

func TestMemoryStore_UpdateTouchesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.Insert(ctx, Fields{
		models.FieldName:   "Ada",
		models.FieldEmail:  "ada@example.com",
		models.FieldImgSrc: "http://img",
		models.FieldImgID:  "img-1",
	})
	require.NoError(t, err)

	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedClock(s, later)
	err = s.Update(ctx, id, Fields{
		models.FieldName:      "Grace",
		models.FieldImgSrc:    DeleteField,
		models.FieldImgID:     DeleteField,
		models.FieldCreatedAt: ServerTimestamp,
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Grace", doc.Name)
	assert.Equal(t, "ada@example.com", doc.Email)
	assert.False(t, doc.HasImage())
	assert.Equal(t, later, doc.CreatedAt)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, "missing", Fields{models.FieldName: "x"}), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestMemoryStore_ListByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		fixedClock(s, base.Add(time.Duration(i)*time.Hour))
		id, err := s.Insert(ctx, Fields{
			models.FieldUserID:    "u1",
			models.FieldCreatedAt: ServerTimestamp,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := s.Insert(ctx, Fields{models.FieldUserID: "u2"})
	require.NoError(t, err)

	list, err := s.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)

	empty, err := s.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryStore_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()

	ch, err := s.Subscribe(ctx, "u1")
	require.NoError(t, err)

	first := <-ch
	assert.Empty(t, first)

	id, err := s.Insert(context.Background(), Fields{models.FieldUserID: "u1"})
	require.NoError(t, err)
	snap := <-ch
	require.Len(t, snap, 1)
	assert.Equal(t, id, snap[0].ID)

	// other owners do not wake this subscriber
	_, err = s.Insert(context.Background(), Fields{models.FieldUserID: "u2"})
	require.NoError(t, err)
	select {
	case got := <-ch:
		t.Fatalf("unexpected snapshot %v", got)
	default:
	}

	require.NoError(t, s.Delete(context.Background(), id))
	assert.Empty(t, <-ch)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_SubscribeKeepsLatestSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore()

	ch, err := s.Subscribe(ctx, "u1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.Insert(context.Background(), Fields{models.FieldUserID: "u1"})
		require.NoError(t, err)
	}

	assert.Len(t, <-ch, 3)
}

func TestFileStore_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	id, err := s.Insert(ctx, Fields{
		models.FieldUserID:   "u1",
		models.FieldName:     "Ada",
		models.FieldProjects: []models.Project{{Name: "p", Description: "d"}},
	})
	require.NoError(t, err)

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	doc, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc.Name)
	assert.Equal(t, []models.Project{{Name: "p", Description: "d"}}, doc.Projects)
}

func TestSortNewestFirst(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []*models.CVDocument{
		{ID: "b", CreatedAt: t0},
		{ID: "c", CreatedAt: t0.Add(time.Hour)},
		{ID: "a", CreatedAt: t0},
	}
	sortNewestFirst(docs)

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestMemoryStore_EmptyListSurvivesGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.Insert(ctx, Fields{models.FieldUserID: "u1", models.FieldJobs: []models.Job{}})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.Jobs)
	assert.Empty(t, got.Jobs)
	assert.Nil(t, got.Projects)
}
