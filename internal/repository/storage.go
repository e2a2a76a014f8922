// Package repository хранилище сервера разработки: пользователи, устройства,
// ключи и точки данных.
package repository

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
)

// Ошибки хранилища.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// UserRecord пользователь с хешем пароля.
type UserRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	IsAdmin      bool   `json:"isAdmin"`
}

// DataPoint сохранённое значение ключа. Value равен float64 или string.
type DataPoint struct {
	Key       string    `json:"key"`
	Machine   string    `json:"machine"`
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Storage определяет интерфейс хранилища сервера.
type Storage interface {
	CreateUser(ctx context.Context, u UserRecord) error
	GetUser(ctx context.Context, username string) (UserRecord, error)
	ListUsers(ctx context.Context) ([]UserRecord, error)
	SetPasswordHash(ctx context.Context, username, hash string) error
	DeleteUser(ctx context.Context, username string) error

	ListDevices(ctx context.Context) ([]models.Device, error)
	GetDevice(ctx context.Context, deviceID string) (models.Device, error)
	CreateDevice(ctx context.Context, d models.Device) error
	UpdateDevice(ctx context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) error

	ListKeys(ctx context.Context) ([]models.Key, error)
	GetKey(ctx context.Context, name string) (models.Key, error)
	CreateKey(ctx context.Context, k models.Key) error
	UpdateKey(ctx context.Context, name string, upd models.KeyUpdate) (models.Key, error)
	DeleteKey(ctx context.Context, name string) error

	// AddPoints сохраняет точки атомарно: либо все, либо ни одной.
	AddPoints(ctx context.Context, points []DataPoint) error
	// Points возвращает точки ключа устройства начиная с since, по возрастанию времени.
	Points(ctx context.Context, machine, key string, since time.Time) ([]DataPoint, error)

	Ping(ctx context.Context) error
}

// MemStorage реализует Storage в памяти.
type MemStorage struct {
	mu      sync.RWMutex
	users   map[string]UserRecord
	devices map[string]models.Device
	keys    map[string]models.Key
	points  []DataPoint
}

// NewMemStorage создаёт пустое хранилище в памяти.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:   make(map[string]UserRecord),
		devices: make(map[string]models.Device),
		keys:    make(map[string]models.Key),
	}
}

func (s *MemStorage) CreateUser(_ context.Context, u UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return ErrAlreadyExists
	}
	s.users[u.Username] = u
	return nil
}

func (s *MemStorage) GetUser(_ context.Context, username string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return UserRecord{}, ErrNotFound
	}
	return u, nil
}

func (s *MemStorage) ListUsers(_ context.Context) ([]UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *MemStorage) SetPasswordHash(_ context.Context, username, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	s.users[username] = u
	return nil
}

func (s *MemStorage) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return ErrNotFound
	}
	delete(s.users, username)
	return nil
}

func (s *MemStorage) ListDevices(_ context.Context) ([]models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

func (s *MemStorage) GetDevice(_ context.Context, deviceID string) (models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return models.Device{}, ErrNotFound
	}
	return d, nil
}

func (s *MemStorage) CreateDevice(_ context.Context, d models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[d.DeviceID]; ok {
		return ErrAlreadyExists
	}
	s.devices[d.DeviceID] = d
	return nil
}

func (s *MemStorage) UpdateDevice(_ context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return models.Device{}, ErrNotFound
	}
	d = ApplyDeviceUpdate(d, upd)
	s.devices[deviceID] = d
	return d, nil
}

func (s *MemStorage) DeleteDevice(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[deviceID]; !ok {
		return ErrNotFound
	}
	delete(s.devices, deviceID)
	return nil
}

func (s *MemStorage) ListKeys(_ context.Context) ([]models.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Key, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyName < out[j].KeyName })
	return out, nil
}

func (s *MemStorage) GetKey(_ context.Context, name string) (models.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[name]
	if !ok {
		return models.Key{}, ErrNotFound
	}
	return k, nil
}

func (s *MemStorage) CreateKey(_ context.Context, k models.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[k.KeyName]; ok {
		return ErrAlreadyExists
	}
	s.keys[k.KeyName] = k
	return nil
}

func (s *MemStorage) UpdateKey(_ context.Context, name string, upd models.KeyUpdate) (models.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[name]
	if !ok {
		return models.Key{}, ErrNotFound
	}
	k = ApplyKeyUpdate(k, upd)
	s.keys[name] = k
	return k, nil
}

func (s *MemStorage) DeleteKey(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[name]; !ok {
		return ErrNotFound
	}
	delete(s.keys, name)
	return nil
}

func (s *MemStorage) AddPoints(_ context.Context, points []DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, points...)
	return nil
}

func (s *MemStorage) Points(_ context.Context, machine, key string, since time.Time) ([]DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DataPoint
	for _, p := range s.points {
		if p.Machine == machine && p.Key == key && !p.Timestamp.Before(since) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemStorage) Ping(context.Context) error { return nil }

// ApplyDeviceUpdate применяет заданные поля обновления.
func ApplyDeviceUpdate(d models.Device, upd models.DeviceUpdate) models.Device {
	if upd.Name != nil {
		d.Name = *upd.Name
	}
	if upd.Description != nil {
		d.Description = *upd.Description
	}
	return d
}

// ApplyKeyUpdate применяет заданные поля обновления.
func ApplyKeyUpdate(k models.Key, upd models.KeyUpdate) models.Key {
	if upd.DataType != nil {
		k.DataType = *upd.DataType
	}
	if upd.NormalRange != nil {
		k.NormalRange = upd.NormalRange
	}
	if upd.WarningRange != nil {
		k.WarningRange = upd.WarningRange
	}
	if upd.MissingDataAllowance != nil {
		k.MissingDataAllowance = upd.MissingDataAllowance
	}
	if upd.EmailAlertRange != nil {
		k.EmailAlertRange = upd.EmailAlertRange
	}
	return k
}

// Snapshot содержимое MemStorage для сохранения в файл.
type Snapshot struct {
	Users   []UserRecord    `json:"users"`
	Devices []models.Device `json:"devices"`
	Keys    []models.Key    `json:"keys"`
	Points  []DataPoint     `json:"points"`
}

// Snapshot возвращает копию содержимого хранилища.
func (s *MemStorage) Snapshot() Snapshot {
	users, _ := s.ListUsers(context.Background())
	devices, _ := s.ListDevices(context.Background())
	keys, _ := s.ListKeys(context.Background())

	s.mu.RLock()
	points := slices.Clone(s.points)
	s.mu.RUnlock()

	return Snapshot{Users: users, Devices: devices, Keys: keys, Points: points}
}

// Restore заменяет содержимое хранилища снимком.
func (s *MemStorage) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]UserRecord, len(snap.Users))
	for _, u := range snap.Users {
		s.users[u.Username] = u
	}
	s.devices = make(map[string]models.Device, len(snap.Devices))
	for _, d := range snap.Devices {
		s.devices[d.DeviceID] = d
	}
	s.keys = make(map[string]models.Key, len(snap.Keys))
	for _, k := range snap.Keys {
		s.keys[k.KeyName] = k
	}
	s.points = slices.Clone(snap.Points)
}

var _ Storage = (*MemStorage)(nil)
