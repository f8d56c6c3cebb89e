// Package inmem provides non-persistent, in-memory implementations of the
// server's data access repositories. It is the default store when no
// on-disk database is configured.
package inmem

import (
	"fmt"

	"github.com/dekarrin/backchain/server/dao"
)

type store struct {
	users  *InMemoryUsersRepository
	seshes *InMemorySessionsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:  NewUsersRepository(),
		seshes: NewSessionsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.seshes
}

func (s *store) Close() error {
	var err error

	if usersErr := s.users.Close(); usersErr != nil {
		err = usersErr
	}
	if seshesErr := s.seshes.Close(); seshesErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, seshesErr)
		} else {
			err = seshesErr
		}
	}

	return err
}
