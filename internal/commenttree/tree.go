// Package commenttree собирает плоский список комментариев проекта в лес ответов.
//
// Сборка — один проход O(n) по входу с картой id -> узел. Ребёнок может прийти
// раньше родителя: для ещё не встреченного родителя создаётся узел-заглушка,
// который заполняется, когда приходит его собственная запись.
//
// Сборщик никогда не возвращает ошибку. Некорректные данные деградируют:
//   - висячий parent_id (родителя нет во входе) обрабатывается по DanglingPolicy;
//   - циклы parent_id обнаруживаются и не попадают в выдачу (см. Result.Cycles);
//   - повтор id: побеждает первая запись.
package commenttree

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/talas-dev/talas/internal/models"
	"github.com/talas-dev/talas/internal/pkg/log"
)

// DanglingPolicy — что делать с ответами, чей родитель так и не встретился во входе.
type DanglingPolicy int

const (
	// DanglingPlaceholder оставляет в выдаче корень-заглушку с пустыми полями
	// (Placeholder=true) и настоящими детьми.
	DanglingPlaceholder DanglingPolicy = iota
	// DanglingReparent поднимает осиротевшие ответы в корни.
	DanglingReparent
	// DanglingDrop выбрасывает осиротевшие ветки с предупреждением в лог.
	DanglingDrop
)

// String возвращает имя политики в формате конфигурации.
func (p DanglingPolicy) String() string {
	switch p {
	case DanglingPlaceholder:
		return "placeholder"
	case DanglingReparent:
		return "reparent"
	case DanglingDrop:
		return "drop"
	default:
		return fmt.Sprintf("DanglingPolicy(%d)", int(p))
	}
}

// ParseDanglingPolicy разбирает имя политики; пустая строка — DanglingPlaceholder.
func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "placeholder":
		return DanglingPlaceholder, nil
	case "reparent":
		return DanglingReparent, nil
	case "drop":
		return DanglingDrop, nil
	default:
		return DanglingPlaceholder, fmt.Errorf("unknown dangling policy %q", s)
	}
}

// Node — комментарий с прямыми ответами. Строится заново на каждую выборку и не хранится.
type Node struct {
	models.Comment
	// Placeholder — узел синтезирован по parent_id, собственной записи во входе не было.
	Placeholder bool
	Children    []*Node
}

// Result — итог сборки.
type Result struct {
	// Roots — корни в порядке входа; заглушки (или поднятые сироты) идут следом
	// в порядке первого упоминания.
	Roots []*Node
	// Dangling — id родителей, на которые ссылались, но которых не было во входе.
	Dangling []string
	// Cycles — id комментариев, которые лежат в цикле parent_id или под ним.
	// Такие узлы не достижимы из Roots и не рендерятся.
	Cycles []string
	// Duplicates — id, встретившиеся во входе повторно (повтор отброшен).
	Duplicates []string
}

// Builder — настраиваемый сборщик дерева.
type Builder struct {
	policy DanglingPolicy
	log    *slog.Logger
}

// Option настраивает Builder.
type Option func(*Builder)

// WithDanglingPolicy задаёт политику для висячих parent_id.
func WithDanglingPolicy(p DanglingPolicy) Option {
	return func(b *Builder) { b.policy = p }
}

// WithLogger задаёт логгер для предупреждений о некорректных данных.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// New создаёт сборщик; по умолчанию DanglingPlaceholder и slog.Default().
func New(opts ...Option) *Builder {
	b := &Builder{policy: DanglingPlaceholder}
	for _, opt := range opts {
		opt(b)
	}
	b.log = log.OrDefault(b.log)

	return b
}

// Build — сборка с настройками по умолчанию, возвращает только корни.
func Build(comments []models.Comment, opts ...Option) []*Node {
	return New(opts...).Build(comments).Roots
}

// Build собирает лес из плоского списка за один проход.
// Порядок детей внутри родителя — порядок появления во входе (без пересортировки).
func (b *Builder) Build(comments []models.Comment) Result {
	nodes := make(map[string]*Node, len(comments))

	var (
		res          Result
		roots        []*Node
		placeholders []*Node
	)

	for _, c := range comments {
		n, seen := nodes[c.ID]
		switch {
		case seen && !n.Placeholder:
			res.Duplicates = append(res.Duplicates, c.ID)
			continue
		case seen:
			// Заглушка, созданная ребёнком раньше, получает настоящие поля.
			n.Comment = c
			n.Placeholder = false
		default:
			n = &Node{Comment: c}
			nodes[c.ID] = n
		}

		if c.IsRoot() {
			roots = append(roots, n)
			continue
		}

		parent, ok := nodes[c.ParentID]
		if !ok {
			parent = &Node{Comment: models.Comment{ID: c.ParentID}, Placeholder: true}
			nodes[c.ParentID] = parent
			placeholders = append(placeholders, parent)
		}

		parent.Children = append(parent.Children, n)
	}

	for _, p := range placeholders {
		if !p.Placeholder {
			continue
		}

		res.Dangling = append(res.Dangling, p.ID)

		switch b.policy {
		case DanglingReparent:
			roots = append(roots, p.Children...)
		case DanglingDrop:
			b.log.Warn("comment_tree_dangling_dropped",
				slog.String("parent_id", p.ID),
				slog.Int("children", len(p.Children)),
			)
		default:
			roots = append(roots, p)
		}
	}

	res.Roots = roots
	res.Cycles = b.unreachable(comments, nodes, roots, placeholders)

	if len(res.Cycles) > 0 {
		b.log.Warn("comment_tree_cycle_detected", slog.Any("ids", res.Cycles))
	}

	if len(res.Duplicates) > 0 {
		b.log.Warn("comment_tree_duplicate_ids", slog.Any("ids", res.Duplicates))
	}

	return res
}

// unreachable возвращает id реальных узлов, недостижимых ни из корней, ни из
// незаполненных заглушек. В лесе parent-указателей это ровно узлы цикла и их потомки.
func (b *Builder) unreachable(comments []models.Comment, nodes map[string]*Node, roots, placeholders []*Node) []string {
	visited := make(map[*Node]struct{}, len(nodes))

	stack := make([]*Node, 0, len(roots)+len(placeholders))
	stack = append(stack, roots...)
	for _, p := range placeholders {
		if p.Placeholder {
			stack = append(stack, p)
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		stack = append(stack, n.Children...)
	}

	var out []string
	reported := make(map[string]struct{})
	for _, c := range comments {
		n := nodes[c.ID]
		if _, ok := visited[n]; ok {
			continue
		}
		if _, ok := reported[c.ID]; ok {
			continue
		}
		reported[c.ID] = struct{}{}
		out = append(out, c.ID)
	}

	return out
}
