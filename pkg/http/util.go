package http

import (
	"time"

	xutil "RugDetector/pkg/util"
)

// ParseTimeDefault parses a from/to query value, falling back to def.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
