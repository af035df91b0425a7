package uploadsdk

import (
	"time"

	"github.com/fileuploader/uploadwatch/internal/statusmsg"
	"github.com/fileuploader/uploadwatch/internal/version"
)

const (
	retryInterval = 1 * time.Second
)

var UploadWatchUserAgent = version.UserAgent()

var (
	jsonMarshal   = statusmsg.Marshal
	jsonUnmarshal = statusmsg.Unmarshal
)
