package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AddrSetter определяет интерфейс для установки адреса из строки.
type AddrSetter interface {
	Set(string) error
}

// EnvServer устанавливает адрес сервера из переменной окружения envKey.
//
// Если переменная присутствует, вызывается addr.Set с её значением.
// Возвращает ошибку, если значение некорректно.
func EnvServer(addr AddrSetter, envKey string) error {
	if envVal, ok := os.LookupEnv(envKey); ok {
		if err := addr.Set(envVal); err != nil {
			return fmt.Errorf("invalid %s: %w", envKey, err)
		}
	}
	return nil
}

// EnvInt возвращает значение переменной окружения как int.
//
// Флаг set равен false, если переменная не задана или пуста.
// Если значение не удаётся преобразовать в int, возвращается ошибка.
func EnvInt(key string) (value int, set bool, err error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return 0, false, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, true, nil
}

// EnvBool возвращает значение переменной окружения как bool.
//
// Принимаются значения, понятные strconv.ParseBool.
func EnvBool(key string) (value bool, set bool, err error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return false, false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return false, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, true, nil
}

// EnvString возвращает значение переменной окружения как строку.
//
// Если переменная не задана или пуста, возвращает пустую строку.
func EnvString(key string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return ""
}
