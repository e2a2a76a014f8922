package config

import (
	"flag"
	"time"
)

// Вспомогательные функции наложения источников конфигурации: значение применяется, только если задано.

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, s string) error {
	d, err := ParseDuration(s)
	if err != nil {
		return err
	}
	if d != 0 {
		*dst = d
	}
	return nil
}

func envStringInto(dst *string, key string) {
	setString(dst, EnvString(key))
}

func envIntInto(dst *int, key string) error {
	v, ok, err := EnvInt(key)
	if err != nil {
		return err
	}
	if ok {
		*dst = v
	}
	return nil
}

func envSecondsInto(dst *time.Duration, key string) error {
	v, ok, err := EnvInt(key)
	if err != nil {
		return err
	}
	if ok {
		*dst = time.Duration(v) * time.Second
	}
	return nil
}

func envBoolInto(dst *bool, key string) error {
	v, ok, err := EnvBool(key)
	if err != nil {
		return err
	}
	if ok {
		*dst = v
	}
	return nil
}

// visited возвращает множество флагов, явно переданных в командной строке.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
