package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dekarrin/backchain/server/dao"
	"github.com/google/uuid"
)

func NewSessionsRepository() *InMemorySessionsRepository {
	return &InMemorySessionsRepository{
		seshes:        make(map[uuid.UUID]dao.Session),
		byUserIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemorySessionsRepository struct {
	seshes        map[uuid.UUID]dao.Session
	byUserIDIndex map[uuid.UUID][]uuid.UUID
}

func (imsr *InMemorySessionsRepository) Close() error {
	return nil
}

func (imsr *InMemorySessionsRepository) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	s.ID = newUUID
	s.Created = time.Now()
	if s.Facts == nil {
		s.Facts = make(map[rune]bool)
	}

	imsr.seshes[s.ID] = s

	byUser := imsr.byUserIDIndex[s.UserID]
	byUser = append(byUser, s.ID)
	imsr.byUserIDIndex[s.UserID] = byUser

	return s, nil
}

func (imsr *InMemorySessionsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}
	return s, nil
}

func (imsr *InMemorySessionsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	byUser := imsr.byUserIDIndex[userID]

	all := make([]dao.Session, len(byUser))
	for i := range byUser {
		all[i] = imsr.seshes[byUser[i]]
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (imsr *InMemorySessionsRepository) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	existing, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	if s.ID != id {
		if _, ok := imsr.seshes[s.ID]; ok {
			return dao.Session{}, dao.ErrConstraintViolation
		}
	}

	imsr.seshes[s.ID] = s
	if s.ID != id {
		delete(imsr.seshes, id)
	}

	if s.UserID != existing.UserID {
		byUser := imsr.byUserIDIndex[existing.UserID]
		byUser = removeUUID(byUser, existing.ID)
		imsr.byUserIDIndex[existing.UserID] = byUser
		if len(byUser) < 1 {
			delete(imsr.byUserIDIndex, existing.UserID)
		}

		newByUser := imsr.byUserIDIndex[s.UserID]
		newByUser = append(newByUser, s.ID)
		imsr.byUserIDIndex[s.UserID] = newByUser
	}

	return s, nil
}

func (imsr *InMemorySessionsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	byUser := imsr.byUserIDIndex[s.UserID]
	byUser = removeUUID(byUser, s.ID)
	imsr.byUserIDIndex[s.UserID] = byUser
	if len(byUser) < 1 {
		delete(imsr.byUserIDIndex, s.UserID)
	}

	delete(imsr.seshes, s.ID)

	return s, nil
}

func removeUUID(s []uuid.UUID, target uuid.UUID) []uuid.UUID {
	for i, id := range s {
		if id == target {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
