package bench

import (
	"fmt"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// ClientLog is the diagnostics stream of the ZooKeeper client library.
// It is opened once per process and handed to ZKDialer.
type ClientLog struct {
	logger *zap.Logger
}

// OpenClientLog sends client library messages to file.
func OpenClientLog(file string) (*ClientLog, error) {
	logger, _, err := log.InitLogger(&log.Config{
		Level:  "info",
		Format: "text",
		File: log.FileLogConfig{
			Filename: file,
		},
	})
	if err != nil {
		return nil, errors.Annotatef(err, "open client log %s", file)
	}
	return &ClientLog{logger: logger.Named("zk")}, nil
}

// Printf implements zk.Logger.
func (self *ClientLog) Printf(format string, args ...interface{}) {
	self.logger.Info(fmt.Sprintf(format, args...))
}

func (self *ClientLog) Close() error {
	err := self.logger.Sync()
	return errors.Trace(err)
}
