package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveToFile записывает снимок хранилища в filePath.
//
// Запись идёт во временный файл рядом с целевым и затем переименовывается,
// поэтому прерванная запись не портит предыдущий снимок.
func SaveToFile(storage *MemStorage, filePath string) error {
	data, err := json.Marshal(storage.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), filePath)
}

// LoadFromFile восстанавливает хранилище из снимка. Отсутствие файла возвращается
// как ошибка, проверяемая через os.IsNotExist.
func LoadFromFile(storage *MemStorage, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	storage.Restore(snap)
	return nil
}
