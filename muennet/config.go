package muennet

import (
	"strconv"
	"strings"

	"github.com/mvo5/goconfigparser"

	"github.com/ardnew/muenipc/pkg"
)

// Flag bit values recognized in a Config's Flags field.
const (
	FlagNetHdr uint = 1 << iota
	FlagEthDev
)

// flagNames maps the "+"-separated flag tokens recognized in an
// interface's flags option to their bit values.
var flagNames = map[string]uint{
	"net_hdr": FlagNetHdr,
	"eth_dev": FlagEthDev,
}

// Config describes one muennet interface, parsed from an INI-style
// configuration file with one section per interface.
type Config struct {
	Name           string
	In             string // sinfo name of input memory region; empty = send-only
	Out            string // sinfo name of output memory region; empty = recv-only
	MTU            int
	PMTU           string // sinfo name of read-only per-mark PMTU table
	Flags          uint
	WriterProtocol uint64
	ReaderProtocol uint64
	Poll           int // reader poll interval, microseconds
}

// DefaultMTU is used when an interface section omits mtu.
const DefaultMTU = 1500

// DefaultPollMicros is used when an interface section omits poll.
const DefaultPollMicros = 1000

// ParseConfig reads one Config per section from an INI-formatted string,
// keyed by section (interface) name. Recognized options per section:
// in, out, mtu, pmtu, flags, writer_protocol, reader_protocol, poll.
func ParseConfig(data string) (map[string]*Config, error) {
	cfg := goconfigparser.New()
	if err := cfg.ReadString(data); err != nil {
		return nil, pkg.ErrConfigInvalid
	}

	out := make(map[string]*Config)
	for _, name := range cfg.Sections() {
		c, err := parseSection(cfg, name)
		if err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}

func parseSection(cfg *goconfigparser.ConfigParser, name string) (*Config, error) {
	c := &Config{Name: name, MTU: DefaultMTU, Poll: DefaultPollMicros}

	if v, err := cfg.Get(name, "in"); err == nil {
		c.In = v
	}
	if v, err := cfg.Get(name, "out"); err == nil {
		c.Out = v
	}
	if v, err := cfg.Get(name, "pmtu"); err == nil {
		c.PMTU = v
	}

	if v, err := cfg.Get(name, "mtu"); err == nil && v != "" {
		mtu, perr := strconv.Atoi(v)
		if perr != nil || mtu <= 0 {
			return nil, pkg.ErrConfigInvalid
		}
		c.MTU = mtu
	}

	if v, err := cfg.Get(name, "poll"); err == nil && v != "" {
		poll, perr := strconv.Atoi(v)
		if perr != nil || poll <= 0 {
			return nil, pkg.ErrConfigInvalid
		}
		c.Poll = poll
	}

	if v, err := cfg.Get(name, "writer_protocol"); err == nil && v != "" {
		p, perr := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 64)
		if perr != nil {
			return nil, pkg.ErrConfigInvalid
		}
		c.WriterProtocol = p
	}
	if v, err := cfg.Get(name, "reader_protocol"); err == nil && v != "" {
		p, perr := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 64)
		if perr != nil {
			return nil, pkg.ErrConfigInvalid
		}
		c.ReaderProtocol = p
	}

	if v, err := cfg.Get(name, "flags"); err == nil && v != "" {
		flags, ferr := parseFlags(v)
		if ferr != nil {
			return nil, ferr
		}
		c.Flags = flags
	}

	if c.In == "" && c.Out == "" {
		return nil, pkg.ErrConfigInvalid
	}

	return c, nil
}

func parseFlags(v string) (uint, error) {
	var flags uint
	for _, tok := range strings.Split(v, "+") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		bit, ok := flagNames[tok]
		if !ok {
			return 0, pkg.ErrConfigInvalid
		}
		flags |= bit
	}
	return flags, nil
}

// HasNetHdr reports whether the net-hdr flag is set.
func (c *Config) HasNetHdr() bool { return c.Flags&FlagNetHdr != 0 }

// HasEthDev reports whether the eth-dev flag is set.
func (c *Config) HasEthDev() bool { return c.Flags&FlagEthDev != 0 }

// Mode returns the framing mode implied by the configuration's flags.
func (c *Config) Mode() Mode {
	switch {
	case c.HasEthDev():
		return ModeEth
	case c.HasNetHdr():
		return ModeNetHdr
	default:
		return ModeRaw
	}
}
