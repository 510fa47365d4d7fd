package postgres

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

type Reactions struct {
	db *sql.DB
}

func NewReactions(db *sql.DB) *Reactions {
	return &Reactions{db: db}
}

func (r *Reactions) Toggle(ctx context.Context, viewerID string, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ReactionState{}, err
	}
	defer func() { _ = tx.Rollback() }()

	key := sq.Eq{"entity_kind": string(ref.Kind), "entity_id": ref.ID, "viewer_id": viewerID}

	query, args, err := psql.Select("kind").From("reactions").Where(key).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return model.ReactionState{}, err
	}
	var current string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.ReactionState{}, err
	}

	next := model.NextReaction(model.ReactionKind(current), kind)
	if next == model.ReactionNone {
		query, args, err = psql.Delete("reactions").Where(key).ToSql()
	} else {
		query, args, err = psql.Insert("reactions").
			Columns("entity_kind", "entity_id", "viewer_id", "kind").
			Values(string(ref.Kind), ref.ID, viewerID, string(next)).
			Suffix("ON CONFLICT (entity_kind, entity_id, viewer_id) DO UPDATE SET kind = EXCLUDED.kind").
			ToSql()
	}
	if err != nil {
		return model.ReactionState{}, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return model.ReactionState{}, err
	}

	states, err := queryStates(ctx, tx, viewerID, ref.Kind, []int64{ref.ID})
	if err != nil {
		return model.ReactionState{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ReactionState{}, err
	}
	st := states[ref.ID]
	st.UserReaction = next
	return st, nil
}

func (r *Reactions) States(ctx context.Context, viewerID string, refs []model.EntityRef) (map[model.EntityRef]model.ReactionState, error) {
	byKind := make(map[model.EntityKind][]int64)
	for _, ref := range refs {
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}

	out := make(map[model.EntityRef]model.ReactionState, len(refs))
	for kind, ids := range byKind {
		states, err := queryStates(ctx, r.db, viewerID, kind, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			out[model.EntityRef{Kind: kind, ID: id}] = states[id]
		}
	}
	return out, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryStates(ctx context.Context, q queryer, viewerID string, kind model.EntityKind, ids []int64) (map[int64]model.ReactionState, error) {
	query, args, err := psql.
		Select("entity_id").
		Column("count(*) FILTER (WHERE kind = 'like')").
		Column("count(*) FILTER (WHERE kind = 'dislike')").
		Column(sq.Expr("max(CASE WHEN viewer_id = ? THEN kind END)", viewerID)).
		From("reactions").
		Where(sq.Eq{"entity_kind": string(kind), "entity_id": ids}).
		GroupBy("entity_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]model.ReactionState, len(ids))
	for rows.Next() {
		var id int64
		var st model.ReactionState
		var mine sql.NullString
		if err := rows.Scan(&id, &st.Likes, &st.Dislikes, &mine); err != nil {
			return nil, err
		}
		st.UserReaction = model.ReactionKind(mine.String)
		out[id] = st
	}
	return out, rows.Err()
}
