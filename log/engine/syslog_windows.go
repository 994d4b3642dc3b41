//go:build windows

package engine

import (
	"errors"

	"github.com/SplicePHP/cakephp/log"
)

// ErrSyslogUnavailable is returned on platforms without syslog support.
var ErrSyslogUnavailable = errors.New("engine: syslog is not available on windows")

func init() {
	log.RegisterEngine("syslog", func(log.Config) (log.Engine, error) {
		return nil, ErrSyslogUnavailable
	})
}
