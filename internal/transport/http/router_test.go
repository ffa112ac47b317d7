package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/talas-dev/talas/internal/auth"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/config"
	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/service"
	"github.com/talas-dev/talas/internal/storage"
	"github.com/talas-dev/talas/internal/transport/http/middleware"
	"github.com/talas-dev/talas/mocks"
)

// Сквозные тесты HTTP API: chi-роутер + мидлвары + сервис на моках стораджа.
// Клиентом выступает internal/client/rpc, так что проверяется и контракт
// классификации ошибок (код в теле -> rpc.Class).

type apiEnv struct {
	srv       *httptest.Server
	projects  *mocks.MockProjectsStorage
	reactions *mocks.MockReactionsStorage
	comments  *mocks.MockCommentsStorage
	authCfg   auth.Config
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	env := &apiEnv{
		projects:  mocks.NewMockProjectsStorage(ctrl),
		reactions: mocks.NewMockReactionsStorage(ctrl),
		comments:  mocks.NewMockCommentsStorage(ctrl),
		authCfg:   auth.Config{Secret: "router-secret", Issuer: "talas", Audience: []string{"talas-api"}},
	}

	svc := service.New(env.projects, env.reactions, env.comments,
		config.LimitsConfig{Default: 20, Max: 100, CommentMax: 4000, MaxDepth: 8})

	env.srv = httptest.NewServer(NewRouter(svc, Options{
		Timeout: time.Second,
		Auth:    env.authCfg,
		Metrics: middleware.NewHTTPMetrics(prometheus.NewRegistry()),
	}))
	t.Cleanup(env.srv.Close)

	return env
}

func (e *apiEnv) client(t *testing.T, user uuid.UUID) *rpc.Client {
	t.Helper()

	var tok string
	if user != uuid.Nil {
		var err error
		tok, err = auth.Issue(e.authCfg, user, time.Now())
		require.NoError(t, err)
	}

	cl, err := rpc.New(rpc.Options{BaseURL: e.srv.URL, Token: tok, Timeout: 2 * time.Second})
	require.NoError(t, err)

	return cl
}

func TestRouter_ListProjects_Anonymous(t *testing.T) {
	env := newAPI(t)
	pid := uuid.New()

	env.projects.EXPECT().
		ListProjects(gomock.Any(), uuid.Nil, models.ListParams{PageSize: 5, PageToken: "abc"}).
		Return(&models.ProjectPage{Projects: []models.Project{{ID: pid, Title: "t"}}, NextPageToken: "next"}, nil)

	page, err := env.client(t, uuid.Nil).ListProjects(context.Background(), models.ListParams{PageSize: 5, PageToken: "abc"})
	require.NoError(t, err)
	require.Len(t, page.Projects, 1)
	require.Equal(t, pid, page.Projects[0].ID)
	require.Equal(t, "next", page.NextPageToken)
}

func TestRouter_Project_ViewerFlags(t *testing.T) {
	env := newAPI(t)
	pid, user := uuid.New(), uuid.New()

	env.projects.EXPECT().ProjectByID(gomock.Any(), pid, user).Return(&models.Project{ID: pid, IsLiked: true}, nil)

	p, err := env.client(t, user).Project(context.Background(), pid)
	require.NoError(t, err)
	require.True(t, p.IsLiked)
}

func TestRouter_WriteRequiresToken(t *testing.T) {
	env := newAPI(t)

	err := env.client(t, uuid.Nil).Like(context.Background(), uuid.New())
	require.Error(t, err)
	require.Equal(t, rpc.ClassUnauthenticated, rpc.ClassOf(err))
}

func TestRouter_ReactionClasses(t *testing.T) {
	env := newAPI(t)
	pid, user := uuid.New(), uuid.New()
	cl := env.client(t, user)
	ctx := context.Background()

	env.reactions.EXPECT().AddLike(gomock.Any(), pid, user).Return(nil)
	require.NoError(t, cl.Like(ctx, pid))

	env.reactions.EXPECT().AddLike(gomock.Any(), pid, user).Return(storage.ErrAlreadyExists)
	err := cl.Like(ctx, pid)
	require.Equal(t, rpc.ClassConflict, rpc.ClassOf(err))

	env.reactions.EXPECT().RemoveLike(gomock.Any(), pid, user).Return(storage.ErrNotFound)
	err = cl.Unlike(ctx, pid)
	require.Equal(t, rpc.ClassNotFound, rpc.ClassOf(err))

	env.reactions.EXPECT().AddBookmark(gomock.Any(), pid, user).Return(storage.ErrAlreadyExists)
	err = cl.Bookmark(ctx, pid)
	require.Equal(t, rpc.ClassConflict, rpc.ClassOf(err))

	env.reactions.EXPECT().RemoveBookmark(gomock.Any(), pid, user).Return(context.DeadlineExceeded)
	err = cl.Unbookmark(ctx, pid)
	require.Equal(t, rpc.ClassGeneric, rpc.ClassOf(err))

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, http.StatusInternalServerError, rpcErr.Status)
	require.NotEmpty(t, rpcErr.RequestID)
}

func TestRouter_CreateComment_AuthorFromToken(t *testing.T) {
	env := newAPI(t)
	pid, user := uuid.New(), uuid.New()

	env.projects.EXPECT().ProjectByID(gomock.Any(), pid, uuid.Nil).Return(&models.Project{ID: pid}, nil)
	env.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any(), int32(8)).
		DoAndReturn(func(_ context.Context, c models.Comment, _ int32) (*models.Comment, error) {
			require.Equal(t, user, c.Author.ID)
			require.Equal(t, "hello", c.Content)
			c.ID = "507f1f77bcf86cd799439011"
			return &c, nil
		})
	env.projects.EXPECT().AdjustCommentCount(gomock.Any(), pid, int64(1)).Return(nil)

	c, err := env.client(t, user).CreateComment(context.Background(), pid, models.CreateCommentRequest{Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, "507f1f77bcf86cd799439011", c.ID)
	require.Equal(t, user, c.Author.ID)
}

func TestRouter_CreateComment_Invalid(t *testing.T) {
	env := newAPI(t)
	pid, user := uuid.New(), uuid.New()

	_, err := env.client(t, user).CreateComment(context.Background(), pid, models.CreateCommentRequest{Content: " "})
	require.Equal(t, rpc.ClassInvalid, rpc.ClassOf(err))

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, "invalid_argument", rpcErr.Code)
	require.Equal(t, "content: required", rpcErr.Message)
}

func TestRouter_CreateComment_UnknownField(t *testing.T) {
	env := newAPI(t)
	tok, err := auth.Issue(env.authCfg, uuid.New(), time.Now())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/v1/projects/"+uuid.NewString()+"/comments",
		strings.NewReader(`{"content":"x","level":3}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "invalid_argument", body.Error.Code)
}

func TestRouter_CommentOwnership(t *testing.T) {
	env := newAPI(t)
	owner, stranger := uuid.New(), uuid.New()
	c := &models.Comment{ID: "507f1f77bcf86cd799439011", Author: models.Author{ID: owner}, Content: "mine"}
	ctx := context.Background()

	env.comments.EXPECT().CommentByID(gomock.Any(), c.ID).Return(c, nil)
	_, err := env.client(t, stranger).UpdateComment(ctx, c.ID, models.UpdateCommentRequest{Content: "hijack"})
	require.Equal(t, rpc.ClassForbidden, rpc.ClassOf(err))

	env.comments.EXPECT().CommentByID(gomock.Any(), c.ID).Return(c, nil)
	env.comments.EXPECT().SoftDelete(gomock.Any(), c.ID).Return(nil)
	require.NoError(t, env.client(t, owner).DeleteComment(ctx, c.ID))

	deleted := *c
	deleted.IsDeleted = true
	env.comments.EXPECT().CommentByID(gomock.Any(), c.ID).Return(&deleted, nil)
	err = env.client(t, owner).DeleteComment(ctx, c.ID)
	require.Equal(t, rpc.ClassNotFound, rpc.ClassOf(err))
}

func TestRouter_ListComments(t *testing.T) {
	env := newAPI(t)
	pid := uuid.New()

	env.projects.EXPECT().ProjectByID(gomock.Any(), pid, uuid.Nil).Return(&models.Project{ID: pid}, nil)
	env.comments.EXPECT().ListByProject(gomock.Any(), pid).Return([]models.Comment{
		{ID: "b", ParentID: "a", Level: 1},
		{ID: "a"},
	}, nil)

	items, err := env.client(t, uuid.Nil).Comments(context.Background(), pid)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "a", items[1].ID)
}

func TestRouter_BadProjectID(t *testing.T) {
	env := newAPI(t)

	resp, err := http.Get(env.srv.URL + "/v1/projects/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
