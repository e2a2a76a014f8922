package repository

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword возвращает bcrypt-хеш пароля.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с bcrypt-хешем.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate проверяет учётные данные. При неверном имени или пароле возвращается ErrNotFound.
func Authenticate(ctx context.Context, s Storage, username, password string) (UserRecord, error) {
	u, err := s.GetUser(ctx, username)
	if err != nil {
		return UserRecord{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return UserRecord{}, ErrNotFound
	}
	return u, nil
}

// EnsureAdmin создаёт пользователя-администратора, если его ещё нет.
//
// Существующий пользователь не изменяется. Возвращает true, если пользователь создан.
func EnsureAdmin(ctx context.Context, s Storage, username, password string) (bool, error) {
	if _, err := s.GetUser(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := s.CreateUser(ctx, UserRecord{Username: username, PasswordHash: hash, IsAdmin: true}); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
