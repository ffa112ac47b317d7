package commenttree

// Тесты сборщика дерева комментариев.
//
//  Проверяем:
//  - ребёнок раньше родителя во входе;
//  - висячий parent_id при каждой политике;
//  - инвариантность состава дерева к перестановкам входа;
//  - round-trip flatten -> множество id;
//  - порядок корней и детей по входу;
//  - циклы и дубликаты не ломают сборку.

import (
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/talas-dev/talas/internal/models"
)

func silent() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// c — быстрый хелпер комментария.
func c(id, parentID string) models.Comment {
	return models.Comment{ID: id, ParentID: parentID, Content: "text " + id}
}

// membership — отображение parent -> отсортированные id детей, "" для корней.
func membership(roots []*Node) map[string][]string {
	out := map[string][]string{}
	for _, r := range roots {
		out[""] = append(out[""], r.ID)
	}
	Walk(roots, 0, func(n *Node, _ int) bool {
		for _, ch := range n.Children {
			out[n.ID] = append(out[n.ID], ch.ID)
		}
		return true
	})
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

func TestBuild_ChildBeforeParent(t *testing.T) {
	roots := Build([]models.Comment{c("c2", "c1"), c("c1", "")}, silent())

	require.Len(t, roots, 1)
	require.Equal(t, "c1", roots[0].ID)
	require.False(t, roots[0].Placeholder)
	require.Equal(t, "text c1", roots[0].Content)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "c2", roots[0].Children[0].ID)
}

func TestBuild_DanglingPlaceholder(t *testing.T) {
	res := New(silent()).Build([]models.Comment{c("c1", "missing")})

	require.Len(t, res.Roots, 1)
	ph := res.Roots[0]
	require.True(t, ph.Placeholder)
	require.Equal(t, "missing", ph.ID)
	require.Empty(t, ph.Content)
	require.Len(t, ph.Children, 1)
	require.Equal(t, "c1", ph.Children[0].ID)
	require.Equal(t, []string{"missing"}, res.Dangling)
	require.Empty(t, res.Cycles)
}

func TestBuild_DanglingReparent(t *testing.T) {
	res := New(silent(), WithDanglingPolicy(DanglingReparent)).Build([]models.Comment{
		c("r1", ""),
		c("o1", "gone"),
		c("o2", "gone"),
		c("o3", "o1"),
	})

	require.Equal(t, []string{"r1", "o1", "o2"}, ids(res.Roots))
	require.Equal(t, []string{"o3"}, ids(res.Roots[1].Children))
	require.Equal(t, []string{"gone"}, res.Dangling)
	require.Empty(t, res.Cycles)
}

func TestBuild_DanglingDrop(t *testing.T) {
	res := New(silent(), WithDanglingPolicy(DanglingDrop)).Build([]models.Comment{
		c("r1", ""),
		c("o1", "gone"),
		c("o2", "o1"),
	})

	require.Equal(t, []string{"r1"}, ids(res.Roots))
	require.Equal(t, []string{"gone"}, res.Dangling)
	require.Empty(t, res.Cycles, "dropped subtree must not be reported as a cycle")
}

func TestBuild_MembershipIsPermutationInvariant(t *testing.T) {
	input := []models.Comment{
		c("a", ""),
		c("b", "a"),
		c("c", "a"),
		c("d", "b"),
		c("e", ""),
		c("f", "e"),
		c("g", "d"),
	}
	want := membership(Build(input, silent()))

	perms := [][]int{
		{6, 5, 4, 3, 2, 1, 0},
		{3, 0, 6, 1, 5, 2, 4},
		{1, 3, 6, 2, 5, 4, 0},
	}
	for _, p := range perms {
		shuffled := make([]models.Comment, 0, len(input))
		for _, i := range p {
			shuffled = append(shuffled, input[i])
		}

		require.Equal(t, want, membership(Build(shuffled, silent())))
	}
}

func TestBuild_FlattenRoundTrip(t *testing.T) {
	input := []models.Comment{
		c("x3", "x2"),
		c("x1", ""),
		c("x2", "x1"),
		c("y1", ""),
		c("x4", "x1"),
	}

	got := Flatten(Build(input, silent()))
	sort.Strings(got)

	want := []string{"x1", "x2", "x3", "x4", "y1"}
	require.Equal(t, want, got)
}

func TestBuild_OrderFollowsInput(t *testing.T) {
	// Сервер отдаёт сначала новые.
	roots := Build([]models.Comment{
		c("r3", ""),
		c("a2", "r1"),
		c("r2", ""),
		c("a1", "r1"),
		c("r1", ""),
	}, silent())

	require.Equal(t, []string{"r3", "r2", "r1"}, ids(roots))
	require.Equal(t, []string{"a2", "a1"}, ids(roots[2].Children))
}

func TestBuild_CycleIsReportedNotRendered(t *testing.T) {
	res := New(silent()).Build([]models.Comment{
		c("r", ""),
		c("a", "b"),
		c("b", "a"),
		c("child", "a"),
		c("self", "self"),
	})

	require.Equal(t, []string{"r"}, ids(res.Roots))
	require.ElementsMatch(t, []string{"a", "b", "child", "self"}, res.Cycles)
	require.Empty(t, res.Dangling)
	require.Equal(t, 1, Count(res.Roots))
}

func TestBuild_DuplicateIDFirstWins(t *testing.T) {
	first := c("d", "")
	first.Content = "first"
	second := c("d", "")
	second.Content = "second"

	res := New(silent()).Build([]models.Comment{first, second})

	require.Len(t, res.Roots, 1)
	require.Equal(t, "first", res.Roots[0].Content)
	require.Equal(t, []string{"d"}, res.Duplicates)
}

func TestBuild_EmptyInput(t *testing.T) {
	res := New(silent()).Build(nil)
	require.Empty(t, res.Roots)
	require.Empty(t, res.Cycles)
}

func TestWalk_MaxDepth(t *testing.T) {
	roots := Build([]models.Comment{
		c("l0", ""),
		c("l1", "l0"),
		c("l2", "l1"),
		c("l3", "l2"),
	}, silent())

	var seen []string
	Walk(roots, 1, func(n *Node, depth int) bool {
		seen = append(seen, n.ID)
		require.LessOrEqual(t, depth, 1)
		return true
	})
	require.Equal(t, []string{"l0", "l1"}, seen)
}

func TestParseDanglingPolicy(t *testing.T) {
	tcs := []struct {
		in   string
		want DanglingPolicy
		err  bool
	}{
		{"", DanglingPlaceholder, false},
		{"placeholder", DanglingPlaceholder, false},
		{" Reparent ", DanglingReparent, false},
		{"drop", DanglingDrop, false},
		{"explode", DanglingPlaceholder, true},
	}

	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDanglingPolicy(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) DanglingPolicy {
	t.Helper()
	p, err := ParseDanglingPolicy(s)
	require.NoError(t, err)
	return p
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
