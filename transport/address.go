// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrInvalidAddress reports an address string that does not match the
// inet:/inet6:/unix: grammar.
var ErrInvalidAddress = errors.New("transport: invalid address")

// Family identifies the socket family an Address resolves to.
type Family uint8

const (
	FamilyInet Family = iota
	FamilyInet6
	FamilyUnix
)

// Address is a parsed pomp address string: inet:host:port, inet6:host:port,
// unix:path, or unix:@abstract-name.
type Address struct {
	Family   Family
	Host     string // inet/inet6 only
	Port     uint16 // inet/inet6 only
	Path     string // unix only, without the leading '@' for abstract names
	Abstract bool   // unix only
}

// ParseAddress parses the pomp address grammar.
func ParseAddress(s string) (Address, error) {
	switch {
	case strings.HasPrefix(s, "inet6:"):
		return parseInet(s[len("inet6:"):], FamilyInet6)
	case strings.HasPrefix(s, "inet:"):
		return parseInet(s[len("inet:"):], FamilyInet)
	case strings.HasPrefix(s, "unix:"):
		return parseUnix(s[len("unix:"):])
	default:
		return Address{}, ErrInvalidAddress
	}
}

func parseInet(rest string, fam Family) (Address, error) {
	// Split on the last colon rather than net.SplitHostPort: an IPv6 host
	// itself contains colons and the grammar here takes it unbracketed.
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return Address{}, fmt.Errorf("%w: missing port in %q", ErrInvalidAddress, rest)
	}
	host, portStr := rest[:i], rest[i+1:]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Address{}, fmt.Errorf("%w: bad port %q", ErrInvalidAddress, portStr)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return Address{}, fmt.Errorf("%w: non-numeric host %q", ErrInvalidAddress, host)
	}
	if fam == FamilyInet && ip.To4() == nil {
		return Address{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, host)
	}
	if fam == FamilyInet6 && ip.To4() != nil && !strings.Contains(host, ":") {
		return Address{}, fmt.Errorf("%w: %q is not an IPv6 address", ErrInvalidAddress, host)
	}
	return Address{Family: fam, Host: host, Port: uint16(port)}, nil
}

func parseUnix(rest string) (Address, error) {
	if rest == "" {
		return Address{}, fmt.Errorf("%w: empty unix path", ErrInvalidAddress)
	}
	if strings.HasPrefix(rest, "@") {
		return Address{Family: FamilyUnix, Path: rest[1:], Abstract: true}, nil
	}
	return Address{Family: FamilyUnix, Path: rest}, nil
}

// String formats a back into its address string. Host is printed exactly as
// stored, so ParseAddress(s).String() == s for every well-formed input;
// addresses built by FromSockaddr carry net.IP's lower-case IPv6 form.
func (a Address) String() string {
	switch a.Family {
	case FamilyInet:
		return fmt.Sprintf("inet:%s:%d", a.Host, a.Port)
	case FamilyInet6:
		return fmt.Sprintf("inet6:%s:%d", a.Host, a.Port)
	case FamilyUnix:
		if a.Abstract {
			return "unix:@" + a.Path
		}
		return "unix:" + a.Path
	default:
		return ""
	}
}

// IsUnix reports whether the address family is AF_UNIX.
func (a Address) IsUnix() bool { return a.Family == FamilyUnix }

// Network returns the net package network name suitable for net.Dial /
// net.Listen: "tcp", "tcp6", or "unix".
func (a Address) Network() string {
	switch a.Family {
	case FamilyInet:
		return "tcp"
	case FamilyInet6:
		return "tcp6"
	default:
		return "unix"
	}
}

// ToSockaddr converts a to the golang.org/x/sys/unix representation used
// by the raw socket calls in this package's Connection implementation.
func ToSockaddr(a Address) (unix.Sockaddr, error) {
	switch a.Family {
	case FamilyInet:
		ip := net.ParseIP(a.Host).To4()
		if ip == nil {
			return nil, ErrInvalidAddress
		}
		sa := &unix.SockaddrInet4{Port: int(a.Port)}
		copy(sa.Addr[:], ip)
		return sa, nil
	case FamilyInet6:
		ip := net.ParseIP(a.Host).To16()
		if ip == nil {
			return nil, ErrInvalidAddress
		}
		sa := &unix.SockaddrInet6{Port: int(a.Port)}
		copy(sa.Addr[:], ip)
		return sa, nil
	case FamilyUnix:
		name := a.Path
		if a.Abstract {
			name = "\x00" + a.Path
		}
		return &unix.SockaddrUnix{Name: name}, nil
	default:
		return nil, ErrInvalidAddress
	}
}

// FromSockaddr is ToSockaddr's inverse, used to turn the results of
// getsockname/getpeername/recvfrom back into an Address.
func FromSockaddr(sa unix.Sockaddr) (Address, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return Address{Family: FamilyInet, Host: net.IP(v.Addr[:]).String(), Port: uint16(v.Port)}, nil
	case *unix.SockaddrInet6:
		return Address{Family: FamilyInet6, Host: net.IP(v.Addr[:]).String(), Port: uint16(v.Port)}, nil
	case *unix.SockaddrUnix:
		if strings.HasPrefix(v.Name, "\x00") {
			return Address{Family: FamilyUnix, Path: v.Name[1:], Abstract: true}, nil
		}
		return Address{Family: FamilyUnix, Path: v.Name}, nil
	default:
		return Address{}, ErrInvalidAddress
	}
}

// NetAddr renders the net package dial/listen target string for this
// address: "host:port" for inet/inet6, or the filesystem path for unix.
// Abstract names are rendered with the leading '@' the net package itself
// recognizes and translates to the NUL-prefixed kernel form on Linux.
func (a Address) NetAddr() string {
	switch a.Family {
	case FamilyInet, FamilyInet6:
		return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
	default:
		if a.Abstract {
			return "@" + a.Path
		}
		return a.Path
	}
}
