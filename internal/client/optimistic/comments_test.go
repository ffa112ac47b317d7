package optimistic

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/models"
)

func seedComments(t *testing.T, h *harness, projectID uuid.UUID, list ...models.Comment) {
	t.Helper()

	h.api.comments[projectID] = list
	_, err := h.proto.LoadComments(context.Background(), projectID)
	require.NoError(t, err)
}

func cachedComment(t *testing.T, h *harness, projectID uuid.UUID, id string) models.Comment {
	t.Helper()

	v, ok := h.proto.Cache().Get(CommentsKey(projectID))
	require.True(t, ok)

	c, found := findComment(v.([]models.Comment), id)
	require.True(t, found)

	return c
}

func TestCommentEdit_OptimisticThenSuccess(t *testing.T) {
	me := uuid.New()
	h := newHarness(t, true, me)
	pid := uuid.New()
	seedComments(t, h, pid, models.Comment{ID: "c1", ProjectID: pid, Author: models.Author{ID: me}, Content: "old"})

	var during models.Comment
	h.api.during = func(string) { during = cachedComment(t, h, pid, "c1") }

	r, err := h.proto.Comments().Edit(context.Background(), pid, "c1", "new")
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, r.Outcome)
	require.Equal(t, "new", during.Content)
	require.Equal(t, "new", cachedComment(t, h, pid, "c1").Content)
	require.Equal(t, 1, h.api.count("comments.update"))
}

func TestCommentEdit_FailureRollsBack(t *testing.T) {
	me := uuid.New()
	h := newHarness(t, true, me)
	pid := uuid.New()
	seedComments(t, h, pid, models.Comment{ID: "c1", ProjectID: pid, Author: models.Author{ID: me}, Content: "old"})

	h.api.fail["comments.update"] = &rpc.Error{Class: rpc.ClassForbidden}

	r, err := h.proto.Comments().Edit(context.Background(), pid, "c1", "new")
	require.NoError(t, err)
	require.Equal(t, OutcomeRolledBack, r.Outcome)
	require.Equal(t, rpc.ClassForbidden, r.Class)
	require.Equal(t, "old", cachedComment(t, h, pid, "c1").Content)
	require.Equal(t, 1, h.noticeCount())
}

func TestCommentEdit_NotAuthorRejectedBeforeDispatch(t *testing.T) {
	h := newHarness(t, true, uuid.New())
	pid := uuid.New()
	seedComments(t, h, pid, models.Comment{ID: "c1", ProjectID: pid, Author: models.Author{ID: uuid.New()}, Content: "theirs"})

	r, err := h.proto.Comments().Edit(context.Background(), pid, "c1", "mine now")
	require.ErrorIs(t, err, ErrNotAuthor)
	require.Equal(t, OutcomeRejected, r.Outcome)
	require.Equal(t, 0, h.api.count("comments.update"))
	require.Equal(t, "theirs", cachedComment(t, h, pid, "c1").Content)
}

func TestCommentEdit_AnonymousViewerRejected(t *testing.T) {
	h := newHarness(t, true, uuid.Nil)
	pid := uuid.New()
	seedComments(t, h, pid, models.Comment{ID: "c1", ProjectID: pid})

	_, err := h.proto.Comments().Edit(context.Background(), pid, "c1", "x")
	require.ErrorIs(t, err, ErrNotAuthor)
}

func TestCommentEdit_UnknownComment(t *testing.T) {
	h := newHarness(t, true, uuid.New())
	pid := uuid.New()
	seedComments(t, h, pid)

	_, err := h.proto.Comments().Edit(context.Background(), pid, "nope", "x")
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestCommentDelete_SoftDeleteKeepsBranch(t *testing.T) {
	me := uuid.New()
	h := newHarness(t, true, me)
	pid := uuid.New()
	seedComments(t, h, pid,
		models.Comment{ID: "c1", ProjectID: pid, Author: models.Author{ID: me}, Content: "root"},
		models.Comment{ID: "c2", ProjectID: pid, ParentID: "c1", Content: "reply"},
	)

	var during models.Comment
	h.api.during = func(string) { during = cachedComment(t, h, pid, "c1") }

	r, err := h.proto.Comments().Delete(context.Background(), pid, "c1")
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, r.Outcome)

	require.True(t, during.IsDeleted)
	require.Empty(t, during.Content)

	got := cachedComment(t, h, pid, "c1")
	require.True(t, got.IsDeleted)
	require.Equal(t, "c1", cachedComment(t, h, pid, "c2").ParentID)
}

func TestCommentDelete_AlreadyDeletedRollsBack(t *testing.T) {
	me := uuid.New()
	h := newHarness(t, true, me)
	pid := uuid.New()
	seedComments(t, h, pid, models.Comment{ID: "c1", ProjectID: pid, Author: models.Author{ID: me}, Content: "x"})

	h.api.fail["comments.delete"] = &rpc.Error{Class: rpc.ClassNotFound}

	r, err := h.proto.Comments().Delete(context.Background(), pid, "c1")
	require.NoError(t, err)
	require.Equal(t, OutcomeRolledBack, r.Outcome)
	require.False(t, cachedComment(t, h, pid, "c1").IsDeleted)
	require.Equal(t, 1, h.noticeCount())
}

func TestCommentCreate_PendingFlagAndRefetch(t *testing.T) {
	h := newHarness(t, true, uuid.New())
	pid := uuid.New()
	h.api.projects[pid] = models.Project{ID: pid}
	_, err := h.proto.LoadProject(context.Background(), pid)
	require.NoError(t, err)
	seedComments(t, h, pid)

	var (
		pendingDuring bool
		nestedErr     error
	)
	h.api.during = func(string) {
		pendingDuring = h.proto.Comments().CreatePending(pid)
		_, _, nestedErr = h.proto.Comments().Create(context.Background(), pid, models.CreateCommentRequest{Content: "dup"})
	}

	created, r, err := h.proto.Comments().Create(context.Background(), pid, models.CreateCommentRequest{Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, r.Outcome)
	require.NotNil(t, created)

	require.True(t, pendingDuring)
	require.ErrorIs(t, nestedErr, ErrMutationInFlight)
	require.False(t, h.proto.Comments().CreatePending(pid))
	require.Equal(t, 1, h.api.count("comments.create"))

	// Список и счётчик перезагружены.
	require.Equal(t, "hello", cachedComment(t, h, pid, created.ID).Content)
	proj, err := h.proto.LoadProject(context.Background(), pid)
	require.NoError(t, err)
	require.EqualValues(t, 1, proj.CountComments)

	v, _ := h.proto.Cache().Get(ProjectKey(pid))
	require.EqualValues(t, 1, v.(*models.Project).CountComments)
}

func TestCommentCreate_FailureNotifies(t *testing.T) {
	h := newHarness(t, false, uuid.New())
	pid := uuid.New()
	seedComments(t, h, pid)

	h.api.fail["comments.create"] = &rpc.Error{Class: rpc.ClassInvalid}

	created, r, err := h.proto.Comments().Create(context.Background(), pid, models.CreateCommentRequest{Content: "x"})
	require.NoError(t, err)
	require.Nil(t, created)
	require.Equal(t, OutcomeFailed, r.Outcome)
	require.Equal(t, rpc.ClassInvalid, r.Class)
	require.Equal(t, 1, h.noticeCount())
}
