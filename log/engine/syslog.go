//go:build !windows

package engine

import (
	"fmt"
	"log/syslog"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/SplicePHP/cakephp/log"
)

func init() {
	log.RegisterEngine("syslog", func(cfg log.Config) (log.Engine, error) {
		return NewSyslog(cfg)
	})
}

// Syslog forwards entries to a syslog daemon. Entry levels map directly
// onto syslog severities; both sides use the RFC 5424 table.
//
// Options:
//
//	address:  "udp://host:port" or "tcp://host:port"; empty dials the
//	          local daemon
//	facility: "local0" (default) through "local7", "user", "daemon", ...
//	tag:      syslog tag; empty uses the process name
type Syslog struct {
	Base
	w *syslog.Writer
}

// NewSyslog builds a syslog engine from cfg, dialing the daemon up front
// so misconfiguration surfaces at construction.
func NewSyslog(cfg log.Config) (*Syslog, error) {
	opts := Options(cfg.Options)
	address, err := opts.String("address", "")
	if err != nil {
		return nil, err
	}
	facilityName, err := opts.String("facility", "local0")
	if err != nil {
		return nil, err
	}
	tag, err := opts.String("tag", "")
	if err != nil {
		return nil, err
	}

	facility, err := parseFacility(facilityName)
	if err != nil {
		return nil, err
	}

	var w *syslog.Writer
	if address == "" {
		w, err = syslog.New(facility, tag)
	} else {
		var network, host string
		network, host, err = parseSyslogAddress(address)
		if err != nil {
			return nil, err
		}
		w, err = syslog.Dial(network, host, facility, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: syslog dial: %w", err)
	}

	return &Syslog{Base: NewBase(cfg), w: w}, nil
}

// parseSyslogAddress parses "udp://host:port" or "tcp://host:port" into
// (network, address) suitable for syslog.Dial.
func parseSyslogAddress(addr string) (string, string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", "", fmt.Errorf("engine: invalid syslog address %q: %w", addr, err)
	}
	network := strings.ToLower(u.Scheme)
	if network != "udp" && network != "tcp" {
		return "", "", fmt.Errorf("engine: unsupported syslog address %q (use udp://host:port or tcp://host:port)", addr)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("engine: invalid syslog address %q (expected udp://host:port or tcp://host:port)", addr)
	}
	if _, _, splitErr := net.SplitHostPort(u.Host); splitErr != nil {
		return "", "", fmt.Errorf("engine: invalid syslog host:port %q: %w", u.Host, splitErr)
	}
	return network, u.Host, nil
}

// parseFacility converts a facility name to a syslog.Priority. Supports
// kern, user, mail, daemon, auth, syslog, lpr, news, uucp, and local0
// through local7.
func parseFacility(name string) (syslog.Priority, error) {
	switch strings.ToLower(name) {
	case "kern":
		return syslog.LOG_KERN, nil
	case "user":
		return syslog.LOG_USER, nil
	case "mail":
		return syslog.LOG_MAIL, nil
	case "daemon":
		return syslog.LOG_DAEMON, nil
	case "auth":
		return syslog.LOG_AUTH, nil
	case "syslog":
		return syslog.LOG_SYSLOG, nil
	case "lpr":
		return syslog.LOG_LPR, nil
	case "news":
		return syslog.LOG_NEWS, nil
	case "uucp":
		return syslog.LOG_UUCP, nil
	case "local0":
		return syslog.LOG_LOCAL0, nil
	case "local1":
		return syslog.LOG_LOCAL1, nil
	case "local2":
		return syslog.LOG_LOCAL2, nil
	case "local3":
		return syslog.LOG_LOCAL3, nil
	case "local4":
		return syslog.LOG_LOCAL4, nil
	case "local5":
		return syslog.LOG_LOCAL5, nil
	case "local6":
		return syslog.LOG_LOCAL6, nil
	case "local7":
		return syslog.LOG_LOCAL7, nil
	default:
		return 0, fmt.Errorf("engine: unrecognized syslog facility %q", name)
	}
}

// Write forwards the entry at the matching syslog severity. Scopes are
// appended to the line since syslog carries no structured fields.
func (s *Syslog) Write(level log.Level, message string, scopes []string) {
	line := sanitize(message)
	if len(scopes) > 0 {
		line = fmt.Sprintf("%s [%s]", line, sanitize(strings.Join(scopes, ",")))
	}

	var err error
	switch level {
	case log.LevelEmergency:
		err = s.w.Emerg(line)
	case log.LevelAlert:
		err = s.w.Alert(line)
	case log.LevelCritical:
		err = s.w.Crit(line)
	case log.LevelError:
		err = s.w.Err(line)
	case log.LevelWarning:
		err = s.w.Warning(line)
	case log.LevelNotice:
		err = s.w.Notice(line)
	case log.LevelInfo:
		err = s.w.Info(line)
	case log.LevelDebug:
		err = s.w.Debug(line)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: syslog write: %v\n", err)
	}
}

// Close closes the connection to the daemon. Safe on a nil receiver or
// after a failed construction.
func (s *Syslog) Close() error {
	if s == nil || s.w == nil {
		return nil
	}
	return s.w.Close()
}
