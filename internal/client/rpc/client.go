// Package rpc — типизированный клиент RPC-over-HTTP API talas.
//
// Каждый вызов адресуется по имени (projects.like, comments.create, ...),
// принимает типизированный вход и возвращает типизированный результат либо *Error
// с закрытой классификацией (см. Class).
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/models"
)

// Options — параметры клиента.
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	Logger    *slog.Logger
	// Transport — базовый транспорт; nil -> http.DefaultTransport.
	Transport http.RoundTripper
}

// Client — RPC-клиент. Безопасен для конкурентного использования.
type Client struct {
	base *url.URL
	http *http.Client
}

// New создаёт клиент и собирает цепочку транспорта: metadata -> timeout -> logging.
func New(opts Options) (*Client, error) {
	const op = "client/rpc/New"

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url must be absolute, got %q", op, opts.BaseURL)
	}

	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &Client{
		base: base,
		http: &http.Client{
			Transport: Chain(rt,
				WithMetadata(opts.UserAgent, opts.Token),
				WithTimeout(opts.Timeout),
				WithLogging(opts.Logger),
			),
		},
	}, nil
}

// ListProjects — projects.list: страница ленты, сначала новые.
func (c *Client) ListProjects(ctx context.Context, p models.ListParams) (*models.ProjectPage, error) {
	q := url.Values{}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(int(p.PageSize)))
	}
	if p.PageToken != "" {
		q.Set("page_token", p.PageToken)
	}

	var out models.ProjectPage
	if err := c.call(ctx, "projects.list", http.MethodGet, "/v1/projects", q, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Project — projects.get.
func (c *Client) Project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var out models.Project
	if err := c.call(ctx, "projects.get", http.MethodGet, "/v1/projects/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Like — projects.like. Повторный лайк -> ClassConflict.
func (c *Client) Like(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, "projects.like", http.MethodPost, "/v1/projects/"+id.String()+"/like", nil, nil, nil)
}

// Unlike — projects.unlike. Лайка нет -> ClassNotFound.
func (c *Client) Unlike(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, "projects.unlike", http.MethodDelete, "/v1/projects/"+id.String()+"/like", nil, nil, nil)
}

// Bookmark — projects.bookmark. Повторная закладка -> ClassConflict.
func (c *Client) Bookmark(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, "projects.bookmark", http.MethodPost, "/v1/projects/"+id.String()+"/bookmark", nil, nil, nil)
}

// Unbookmark — projects.unbookmark. Закладки нет -> ClassNotFound.
func (c *Client) Unbookmark(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, "projects.unbookmark", http.MethodDelete, "/v1/projects/"+id.String()+"/bookmark", nil, nil, nil)
}

// Comments — comments.list: плоский список комментариев проекта.
func (c *Client) Comments(ctx context.Context, projectID uuid.UUID) ([]models.Comment, error) {
	var out models.CommentsResponse
	if err := c.call(ctx, "comments.list", http.MethodGet, "/v1/projects/"+projectID.String()+"/comments", nil, nil, &out); err != nil {
		return nil, err
	}

	return out.Comments, nil
}

// CreateComment — comments.create.
func (c *Client) CreateComment(ctx context.Context, projectID uuid.UUID, in models.CreateCommentRequest) (*models.Comment, error) {
	var out models.Comment
	if err := c.call(ctx, "comments.create", http.MethodPost, "/v1/projects/"+projectID.String()+"/comments", nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// UpdateComment — comments.update (только автор).
func (c *Client) UpdateComment(ctx context.Context, id string, in models.UpdateCommentRequest) (*models.Comment, error) {
	var out models.Comment
	if err := c.call(ctx, "comments.update", http.MethodPatch, "/v1/comments/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteComment — comments.delete (только автор).
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.call(ctx, "comments.delete", http.MethodDelete, "/v1/comments/"+url.PathEscape(id), nil, nil, nil)
}

// errorEnvelope — формат ошибок сервера: {"error":{"code","message","request_id"}}.
type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// call выполняет один вызов: сериализует in, проверяет статус, декодирует out.
func (c *Client) call(ctx context.Context, method, httpMethod, path string, q url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &Error{Class: ClassInvalid, Method: method, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, u.String(), body)
	if err != nil {
		return &Error{Class: ClassGeneric, Method: method, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		class := ClassUnavailable
		if errors.Is(err, context.Canceled) {
			class = ClassGeneric
		}

		return &Error{Class: class, Method: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(method, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Class: ClassGeneric, Method: method, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func (c *Client) decodeError(method string, resp *http.Response) error {
	var env errorEnvelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &env)

	rid := env.Error.RequestID
	if rid == "" {
		rid = resp.Header.Get("X-Request-Id")
	}

	msg := env.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &Error{
		Class:     classify(resp.StatusCode, env.Error.Code),
		Status:    resp.StatusCode,
		Code:      env.Error.Code,
		Message:   msg,
		RequestID: rid,
		Method:    method,
	}
}
