//go:build !sonic

package statusmsg

import (
	"github.com/goccy/go-json"
)

var (
	Marshal   = json.Marshal
	Unmarshal = json.Unmarshal
)
