package service

import (
	"context"
	"testing"
	"time"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	ws "copycorner/internal/websocket"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind, appErr.Message)
	return appErr
}

func TestArchiveCategoryBlockedByLiveProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.category(t, "Paper")
	a4 := env.product(t, "A4 Bond", &cat.ID, 10, 5)
	long := env.product(t, "Long Bond", &cat.ID, 10, 5)

	_, err := env.categories.Archive(ctx, testActor, cat.ID)
	appErr := requireKind(t, err, apperror.KindDependencyConflict)
	assert.Contains(t, appErr.Message, `Cannot archive category "Paper"`)
	assert.Contains(t, appErr.Message, "2 active product(s)")

	details, ok := appErr.Details.(apperror.ConflictDetails)
	require.True(t, ok)
	assert.EqualValues(t, 2, details.Count)
	require.Len(t, details.Dependents, 2)
	assert.Equal(t, "A4 Bond", details.Dependents[0].Label)
	assert.Equal(t, model.KindProduct, details.Dependents[0].Kind)

	// nothing was flipped
	got, err := env.categories.Get(ctx, cat.ID)
	require.NoError(t, err)
	assert.False(t, got.IsArchived)
	assert.EqualValues(t, 2, got.ProductCount)

	_, err = env.products.Archive(ctx, testActor, a4.ID)
	require.NoError(t, err)
	_, err = env.products.Archive(ctx, testActor, long.ID)
	require.NoError(t, err)

	archived, err := env.categories.Archive(ctx, testActor, cat.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	assert.NotNil(t, archived.ArchivedAt)
	assert.Zero(t, archived.ProductCount)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Transitions.WithLabelValues("category", "archive", "DependencyConflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Transitions.WithLabelValues("category", "archive", "ok")))
}

func TestInactiveServiceTypesDoNotBlockCategoryArchive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.category(t, "Services")
	st := env.serviceType(t, "Lamination", &cat.ID)
	_, err := env.serviceTypes.Update(ctx, testActor, st.ID, ServiceTypeRequest{Name: "Lamination", CategoryID: &cat.ID, Status: model.StatusInactive})
	require.NoError(t, err)

	_, err = env.categories.Archive(ctx, testActor, cat.ID)
	require.NoError(t, err)
}

func TestConflictSampleIsCapped(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "Bulk")
	for _, name := range []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"} {
		env.product(t, name, &cat.ID, 1, 0)
	}

	err := env.categories.Purge(context.Background(), testActor, cat.ID, false)
	appErr := requireKind(t, err, apperror.KindDependencyConflict)
	details := appErr.Details.(apperror.ConflictDetails)
	assert.EqualValues(t, 7, details.Count)
	assert.Len(t, details.Dependents, apperror.MaxSample)
	assert.Contains(t, appErr.Message, "Cannot delete category")
}

func TestArchiveTwiceIsInvalidState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Ink")

	_, err := env.categories.Archive(ctx, testActor, cat.ID)
	require.NoError(t, err)
	_, err = env.categories.Archive(ctx, testActor, cat.ID)
	requireKind(t, err, apperror.KindInvalidState)

	_, err = env.categories.Restore(ctx, testActor, cat.ID)
	require.NoError(t, err)
	_, err = env.categories.Restore(ctx, testActor, cat.ID)
	requireKind(t, err, apperror.KindInvalidState)
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Binding")

	archived, err := env.categories.Archive(ctx, testActor, cat.ID)
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)

	list, total, err := env.categories.List(ctx, "", nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	archivedList, _, err := env.categories.ListArchived(ctx, nil)
	require.NoError(t, err)
	require.Len(t, archivedList, 1)

	env.clock.Advance(time.Minute)
	restored, err := env.categories.Restore(ctx, testActor, cat.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)
	require.NotNil(t, restored.RestoredAt)
	// archived_at survives as history
	require.NotNil(t, restored.ArchivedAt)
	assert.True(t, restored.RestoredAt.After(*restored.ArchivedAt))

	assert.Len(t, env.store.actions(model.ActionArchive), 1)
	assert.Len(t, env.store.actions(model.ActionRestore), 1)
	assert.Contains(t, env.events.names(), ws.EventRecordArchived)
	assert.Contains(t, env.events.names(), ws.EventRecordRestored)
}

func TestRestoreBlockedByArchivedParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.category(t, "Paper")
	p := env.product(t, "A4 Bond", &cat.ID, 10, 5)

	_, err := env.products.Archive(ctx, testActor, p.ID)
	require.NoError(t, err)
	_, err = env.categories.Archive(ctx, testActor, cat.ID)
	require.NoError(t, err)

	_, err = env.products.Restore(ctx, testActor, p.ID)
	appErr := requireKind(t, err, apperror.KindParentArchived)
	assert.Contains(t, appErr.Message, `its category "Paper" is archived`)

	got, err := env.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	_, err = env.categories.Restore(ctx, testActor, cat.ID)
	require.NoError(t, err)
	restored, err := env.products.Restore(ctx, testActor, p.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)
}

func TestRestoreRejectsTakenName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old := env.category(t, "Paper")
	_, err := env.categories.Archive(ctx, testActor, old.ID)
	require.NoError(t, err)

	// archived names are free for reuse
	env.category(t, "Paper")

	_, err = env.categories.Restore(ctx, testActor, old.ID)
	requireKind(t, err, apperror.KindDuplicateKey)
}

func TestCreateRejectsDuplicateActiveName(t *testing.T) {
	env := newTestEnv(t)
	env.category(t, "Paper")

	_, err := env.categories.Create(context.Background(), testActor, CategoryRequest{Name: "Paper"})
	requireKind(t, err, apperror.KindDuplicateKey)
}

func TestPurgeGuardAndForce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.category(t, "Paper")
	p := env.product(t, "A4 Bond", &cat.ID, 10, 5)

	err := env.categories.Purge(ctx, testActor, cat.ID, false)
	requireKind(t, err, apperror.KindDependencyConflict)

	require.NoError(t, env.categories.Purge(ctx, testActor, cat.ID, true))

	_, err = env.categories.Get(ctx, cat.ID)
	requireKind(t, err, apperror.KindNotFound)

	got, err := env.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Empty(t, got.CategoryName)

	purges := env.store.actions(model.ActionPurge)
	require.Len(t, purges, 1)
	assert.JSONEq(t, `{"force":true}`, purges[0].Details)
}

func TestPurgeMissingIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	err := env.categories.Purge(context.Background(), testActor, uuid.NewString(), false)
	requireKind(t, err, apperror.KindNotFound)
}

func TestInvalidIDIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.categories.Archive(context.Background(), testActor, "not-a-uuid")
	requireKind(t, err, apperror.KindValidation)
}

func TestSchedulesAreNotArchivable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.lifecycle.Archive(context.Background(), testActor, model.KindSchedule, uuid.New())
	requireKind(t, err, apperror.KindInvalidState)
}

func TestCategoryRenameGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.category(t, "Paper")
	env.product(t, "A4 Bond", &cat.ID, 10, 5)

	_, err := env.categories.Update(ctx, testActor, cat.ID, CategoryRequest{Name: "Papers"})
	appErr := requireKind(t, err, apperror.KindDependencyConflict)
	assert.Contains(t, appErr.Message, "Cannot rename category")

	updated, err := env.categories.Update(ctx, testActor, cat.ID, CategoryRequest{Name: "Paper", Description: "all paper stock"})
	require.NoError(t, err)
	assert.Equal(t, "all paper stock", updated.Description)
}

func TestReferencingArchivedCategoryIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := env.category(t, "Old")
	_, err := env.categories.Archive(ctx, testActor, cat.ID)
	require.NoError(t, err)

	_, err = env.products.Create(ctx, testActor, CreateProductRequest{Name: "Ream", CategoryID: &cat.ID})
	requireKind(t, err, apperror.KindParentArchived)

	// the failed create rolled back its sequence bump
	assert.Zero(t, env.store.sequences[model.KindProduct].Issued)
}
