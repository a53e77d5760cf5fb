package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-notes-server/internal/model"
	"go-notes-server/pkg/apierror"
)

type noteStore interface {
	Create(ctx context.Context, n model.Note) error
	FindByID(ctx context.Context, userID string, id string) (model.Note, error)
	ListByUser(ctx context.Context, userID string) ([]model.Note, error)
	Update(ctx context.Context, n model.Note) error
	Delete(ctx context.Context, userID string, id string) error
}

// NoteService is deliberately thin: notes are a pass-through to the store,
// scoped to their owner. Ownership is enforced here per-record rather than
// in the authorization gate.
type NoteService struct {
	notes noteStore
}

func NewNoteService(notes noteStore) *NoteService {
	return &NoteService{notes: notes}
}

func (s *NoteService) Create(ctx context.Context, userID string, req model.NoteRequest) (model.Note, error) {
	if strings.TrimSpace(req.Title) == "" {
		return model.Note{}, apierror.New("BAD_REQUEST", "title is required", "title", http.StatusBadRequest)
	}

	now := time.Now().UTC()
	note := model.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Completed: req.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, userID string, id string) (model.Note, error) {
	return s.notes.FindByID(ctx, userID, id)
}

func (s *NoteService) List(ctx context.Context, userID string) ([]model.Note, error) {
	return s.notes.ListByUser(ctx, userID)
}

func (s *NoteService) Update(ctx context.Context, userID string, id string, req model.NoteRequest) (model.Note, error) {
	note, err := s.notes.FindByID(ctx, userID, id)
	if err != nil {
		return model.Note{}, err
	}

	if strings.TrimSpace(req.Title) != "" {
		note.Title = strings.TrimSpace(req.Title)
	}
	note.Content = req.Content
	note.Completed = req.Completed
	note.UpdatedAt = time.Now().UTC()

	if err := s.notes.Update(ctx, note); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID string, id string) error {
	return s.notes.Delete(ctx, userID, id)
}
