package sensor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultNetDevPath путь к статистике сетевых интерфейсов ядра.
const DefaultNetDevPath = "/proc/net/dev"

// NetDev читает накопленный счётчик байт интерфейса из /proc/net/dev.
type NetDev struct {
	Path      string
	Interface string
	Logger    *zap.Logger
}

// Read возвращает сумму принятых и отправленных байт интерфейса.
func (n *NetDev) Read(_ context.Context) (uint64, bool) {
	path := n.Path
	if path == "" {
		path = DefaultNetDevPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		nopIfNil(n.Logger).Warn("network statistics unavailable", zap.String("path", path), zap.Error(err))
		return 0, false
	}
	total, err := ParseNetDev(b, n.Interface)
	if err != nil {
		nopIfNil(n.Logger).Warn("network statistics unavailable", zap.String("interface", n.Interface), zap.Error(err))
		return 0, false
	}
	return total, true
}

// ParseNetDev находит строку интерфейса iface и возвращает receive bytes + transmit bytes.
//
// Имя интерфейса сравнивается целиком: "eth0" не совпадает с "veth0".
func ParseNetDev(data []byte, iface string) (uint64, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		name, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}
		// receive: bytes packets errs drop fifo frame compressed multicast; transmit: bytes ...
		fields := strings.Fields(rest)
		if len(fields) < 9 {
			return 0, fmt.Errorf("short statistics line for %s", iface)
		}
		rx, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse receive bytes: %w", err)
		}
		tx, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse transmit bytes: %w", err)
		}
		return rx + tx, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("interface %q not found", iface)
}
