// Package machineid derives a stable per-device fingerprint. Only the sha256
// hex digest of the fingerprint ever leaves the machine.
package machineid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
)

// Host describes the facts the fallback fingerprint is built from.
type Host struct {
	Platform string
	Arch     string
	Hostname string
	MACs     []string
	CPUs     int
}

// Source resolves machine facts; tests swap it out.
type Source struct {
	OSID func() (string, error)
	Host func() (Host, error)
}

// System reads the running machine.
var System = Source{
	OSID: machineid.ID,
	Host: currentHost,
}

// ID returns the raw fingerprint of the running machine.
func ID() (string, error) {
	return System.ID()
}

// Hashed returns the hex-encoded sha256 digest of ID.
func Hashed() (string, error) {
	return System.Hashed()
}

// ID prefers the OS-level identifier and falls back to a canonical host record.
func (s Source) ID() (string, error) {
	if s.OSID != nil {
		if id, err := s.OSID(); err == nil {
			if id = strings.TrimSpace(id); id != "" {
				return id, nil
			}
		}
	}
	if s.Host == nil {
		return "", fmt.Errorf("no machine identity source available")
	}
	host, err := s.Host()
	if err != nil {
		return "", fmt.Errorf("collecting host facts: %w", err)
	}
	return Hash(Canonical(host)), nil
}

func (s Source) Hashed() (string, error) {
	id, err := s.ID()
	if err != nil {
		return "", err
	}
	return Hash(id), nil
}

// Canonical renders host facts in an order-independent form.
func Canonical(h Host) string {
	macs := make([]string, 0, len(h.MACs))
	for _, mac := range h.MACs {
		mac = strings.ToLower(strings.TrimSpace(mac))
		if mac == "" || isZeroMAC(mac) {
			continue
		}
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	return strings.Join([]string{
		h.Platform,
		h.Arch,
		h.Hostname,
		strings.Join(macs, ","),
		strconv.Itoa(h.CPUs),
	}, "|")
}

// Hash returns the hex sha256 of value.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// ValidHash reports whether value has the shape Hashed emits: 64 lowercase hex characters.
func ValidHash(value string) bool {
	if len(value) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isZeroMAC(mac string) bool {
	return strings.Trim(mac, "0:-") == ""
}

func currentHost() (Host, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Host{}, fmt.Errorf("hostname: %w", err)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return Host{}, fmt.Errorf("network interfaces: %w", err)
	}
	macs := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		macs = append(macs, iface.HardwareAddr.String())
	}
	return Host{
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
		Hostname: hostname,
		MACs:     macs,
		CPUs:     runtime.NumCPU(),
	}, nil
}
