package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// OpenLogFile creates a timestamped log file under logDir and returns it
// ready to be passed to AddOutput
func OpenLogFile(fs afero.Fs, logDir string, started time.Time) (io.WriteCloser, string, error) {
	if err := fs.MkdirAll(logDir, 0755); err != nil {
		return nil, "", errors.Wrap(err, "failed to create log directory")
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("autoclick_%s.log", started.Format("2006-01-02_15-04-05")))
	logFile, err := fs.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create log file")
	}

	return logFile, logPath, nil
}
