package handler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Session данные пользователя, которому выдан токен.
type Session struct {
	Username string
	IsAdmin  bool
	Expires  time.Time
}

// TokenStore хранит выданные непрозрачные токены в памяти.
type TokenStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenStore(ttl time.Duration, now func() time.Time) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{sessions: make(map[string]Session), ttl: ttl, now: now}
}

// Issue выдаёт новый токен для пользователя.
func (s *TokenStore) Issue(username string, isAdmin bool) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = Session{Username: username, IsAdmin: isAdmin, Expires: s.now().Add(s.ttl)}
	return token, nil
}

// Lookup возвращает сессию токена. Просроченный токен удаляется.
func (s *TokenStore) Lookup(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if !s.now().Before(sess.Expires) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return sess, true
}

// Revoke удаляет все токены пользователя.
func (s *TokenStore) Revoke(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.Username == username {
			delete(s.sessions, token)
		}
	}
}
