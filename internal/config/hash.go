package config

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashHeader заголовок с подписью тела запроса.
const HashHeader = "HashSHA256"

// ComputeHash возвращает HMAC-SHA256 от data с ключом key в шестнадцатеричном виде.
func ComputeHash(data []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHash сравнивает подпись с ожидаемой за постоянное время.
func VerifyHash(data []byte, key, got string) bool {
	want := ComputeHash(data, key)
	return hmac.Equal([]byte(want), []byte(got))
}
