package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

const Schema = `
CREATE TABLE IF NOT EXISTS comments (
	id              BIGSERIAL PRIMARY KEY,
	post_id         BIGINT      NOT NULL,
	parent_id       BIGINT      NOT NULL DEFAULT 0,
	author_id       TEXT        NOT NULL,
	author_username TEXT        NOT NULL,
	author_role     TEXT        NOT NULL,
	author_verified BOOLEAN     NOT NULL DEFAULT FALSE,
	content         TEXT        NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS comments_post_parent_idx ON comments (post_id, parent_id, created_at);
CREATE INDEX IF NOT EXISTS comments_parent_idx ON comments (parent_id);

CREATE TABLE IF NOT EXISTS reactions (
	entity_kind TEXT   NOT NULL,
	entity_id   BIGINT NOT NULL,
	viewer_id   TEXT   NOT NULL,
	kind        TEXT   NOT NULL,
	PRIMARY KEY (entity_kind, entity_id, viewer_id)
);
`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const commentColumns = "id, post_id, parent_id, author_id, author_username, author_role, author_verified, content, created_at"

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Migrate creates the tables if they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

type nodePtr struct {
	c        model.Comment
	children []*nodePtr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(s rowScanner) (model.Comment, error) {
	var c model.Comment
	var role string
	err := s.Scan(&c.ID, &c.PostID, &c.ParentID,
		&c.Author.ID, &c.Author.Username, &role, &c.Author.Verified,
		&c.Content, &c.CreatedAt)
	c.Author.Role = model.Role(role)
	return c, err
}

func (r *Repo) Get(ctx context.Context, id int64) (model.Comment, error) {
	query, args, err := psql.Select(commentColumns).From("comments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Comment{}, err
	}
	return scanComment(r.db.QueryRowContext(ctx, query, args...))
}

func (r *Repo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	query, args, err := psql.Insert("comments").
		Columns("post_id", "parent_id", "author_id", "author_username", "author_role", "author_verified", "content").
		Values(c.PostID, c.ParentID, c.Author.ID, c.Author.Username, string(c.Author.Role), c.Author.Verified, c.Content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return model.Comment{}, err
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		return model.Comment{}, err
	}
	c.Replies = nil
	return c, nil
}

func (r *Repo) GetTreePage(ctx context.Context, postID int64, page, limit int, sortMode model.Sort) (model.TreePage, error) {
	countQuery, countArgs, err := psql.Select("count(*)").From("comments").
		Where(sq.Eq{"post_id": postID, "parent_id": 0}).ToSql()
	if err != nil {
		return model.TreePage{}, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return model.TreePage{}, err
	}

	order := "created_at ASC, id ASC"
	if sortMode == model.SortCreatedAtDesc {
		order = "created_at DESC, id DESC"
	}
	offset := (page - 1) * limit

	rootQuery, rootArgs, err := psql.Select("id").From("comments").
		Where(sq.Eq{"post_id": postID, "parent_id": 0}).
		OrderBy(order).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return model.TreePage{}, err
	}

	rows, err := r.db.QueryContext(ctx, rootQuery, rootArgs...)
	if err != nil {
		return model.TreePage{}, err
	}
	defer rows.Close()

	var roots []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return model.TreePage{}, err
		}
		roots = append(roots, id)
	}
	if err := rows.Err(); err != nil {
		return model.TreePage{}, err
	}

	if len(roots) == 0 {
		return model.TreePage{
			Items: []model.Comment{},
			Page:  page,
			Limit: limit,
			Total: total,
		}, nil
	}

	treeRows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		WITH RECURSIVE t AS (
			SELECT %[1]s
			FROM comments
			WHERE id = ANY($1)

			UNION ALL

			SELECT c.id, c.post_id, c.parent_id, c.author_id, c.author_username,
			       c.author_role, c.author_verified, c.content, c.created_at
			FROM comments c
			JOIN t ON c.parent_id = t.id
		)
		SELECT %[1]s
		FROM t
	`, commentColumns), roots)
	if err != nil {
		return model.TreePage{}, err
	}
	defer treeRows.Close()

	nodes := make(map[int64]*nodePtr, 256)
	for treeRows.Next() {
		c, err := scanComment(treeRows)
		if err != nil {
			return model.TreePage{}, err
		}
		nodes[c.ID] = &nodePtr{c: c}
	}
	if err := treeRows.Err(); err != nil {
		return model.TreePage{}, err
	}

	for _, n := range nodes {
		if p, ok := nodes[n.c.ParentID]; ok && n.c.ParentID != 0 {
			p.children = append(p.children, n)
		}
	}

	items := make([]model.Comment, 0, len(roots))
	for _, rid := range roots {
		if n, ok := nodes[rid]; ok {
			items = append(items, toValueTree(n))
		}
	}

	return model.TreePage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}

// toValueTree orders replies oldest-first so local appends match a refetch.
func toValueTree(n *nodePtr) model.Comment {
	out := n.c

	sort.Slice(n.children, func(i, j int) bool {
		a, b := n.children[i].c, n.children[j].c
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	out.Replies = make([]model.Comment, 0, len(n.children))
	for _, ch := range n.children {
		out.Replies = append(out.Replies, toValueTree(ch))
	}
	return out
}
