//go:build sonic

package statusmsg

import (
	"github.com/bytedance/sonic"
)

var (
	Marshal   = sonic.Marshal
	Unmarshal = sonic.Unmarshal
)
