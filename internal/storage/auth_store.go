package storage

import (
	"fmt"
	"sort"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// User account operations. FileStore satisfies repositories.AuthRepository.

func (s *FileStore) CreateUser(user *models.User, hashedPassword string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Users {
		if existing.Username == user.Username {
			return 0, fmt.Errorf("%w: username '%s'", repositories.ErrDuplicateKey, user.Username)
		}
	}

	currentTime := time.Now()
	record := userRecord{
		User:         copyUser(*user),
		PasswordHash: hashedPassword,
	}
	record.ID = s.nextID("users")
	record.IsActive = true
	record.CreatedAt = currentTime
	record.UpdatedAt = currentTime

	s.data.Users = append(s.data.Users, record)
	s.markDirty()
	return record.ID, nil
}

func (s *FileStore) FindUserByUsername(username string) (*models.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.data.Users {
		if record.Username == username {
			user := copyUser(record.User)
			return &user, record.PasswordHash, nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (s *FileStore) FindUserByID(userID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.data.Users {
		if record.ID == userID {
			user := copyUser(record.User)
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) GetUsers() ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.data.Users))
	for _, record := range s.data.Users {
		users = append(users, copyUser(record.User))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}
