package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-notes-server/internal/model"
	"go-notes-server/pkg/apierror"
)

type NoteRepository struct {
	pool *pgxpool.Pool
}

func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func (r *NoteRepository) Create(ctx context.Context, n model.Note) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notes (id, user_id, title, content, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Title, n.Content, n.Completed, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// FindByID scopes by owner: a note id from another user reads as not found.
func (r *NoteRepository) FindByID(ctx context.Context, userID string, id string) (model.Note, error) {
	var n model.Note
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, content, completed, created_at, updated_at
		 FROM notes WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Completed, &n.CreatedAt, &n.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Note{}, apierror.New("NOT_FOUND", "note not found", id, http.StatusNotFound)
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("find note by id: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]model.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, content, completed, created_at, updated_at
		 FROM notes WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Completed, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) Update(ctx context.Context, n model.Note) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notes SET title = $3, content = $4, completed = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2`,
		n.ID, n.UserID, n.Title, n.Content, n.Completed, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("NOT_FOUND", "note not found", n.ID, http.StatusNotFound)
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, userID string, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("NOT_FOUND", "note not found", id, http.StatusNotFound)
	}
	return nil
}
