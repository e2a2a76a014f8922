package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort порт, используемый, если в адресе он не указан.
const DefaultPort = 8080

// NetAddress представляет адрес, на котором слушает сервер разработки.
//
// Реализует интерфейсы flag.Value и AddrSetter.
type NetAddress struct {
	Host string
	Port int
}

// String возвращает адрес в формате host:port.
func (a NetAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set разбирает строку вида host:port. Без порта используется DefaultPort.
func (a *NetAddress) Set(s string) error {
	if !strings.Contains(s, ":") {
		a.Host = s
		a.Port = DefaultPort
		return nil
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	a.Host = host
	a.Port = port
	return nil
}

// ParseAddressFlag регистрирует в fs флаг -a для адреса сервера.
//
// Возвращает NetAddress со значением по умолчанию localhost:8080.
func ParseAddressFlag(fs *flag.FlagSet) *NetAddress {
	addr := &NetAddress{Host: "localhost", Port: DefaultPort}
	fs.Var(addr, FlagAddress, "Listen address host:port")
	return addr
}
