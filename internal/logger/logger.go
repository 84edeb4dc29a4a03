package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// maxLogSize 超过该大小的日志文件在启动时轮转
const maxLogSize = 10 * 1024 * 1024

var (
	log     = newLogger(os.Stderr)
	logFile *os.File
	logPath string
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

// Options 日志初始化参数
type Options struct {
	Level string // debug/info/warn/error，空值为 info
	File  string // 日志文件路径，空值则输出到 stderr
}

// Init initializes the logger
func Init(opts Options) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}
	log.SetLevel(level)

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := openWithRotation(opts.File)
	if err != nil {
		return err
	}
	logFile = f
	logPath = opts.File
	log.SetOutput(f)

	LogInfo("Logger initialized, log file: %s", logPath)
	return nil
}

// openWithRotation 打开日志文件，文件过大时先改名备份
func openWithRotation(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if info, err := f.Stat(); err == nil && info.Size() > maxLogSize {
		_ = f.Close()
		backupPath := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		_ = os.Rename(path, backupPath)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to create new log file: %w", err)
		}
	}
	return f, nil
}

// Close closes the log file
func Close() {
	if logFile != nil {
		log.SetOutput(os.Stderr)
		_ = logFile.Close()
		logFile = nil
	}
}

// SetOutput 替换日志输出（测试用）
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// WithSession 返回带 session_id 字段的日志条目
func WithSession(sessionID string) *logrus.Entry {
	return log.WithField("session_id", sessionID)
}

// LogInfo logs an info message
func LogInfo(format string, args ...any) {
	log.Infof(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...any) {
	log.Warnf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...any) {
	log.Errorf(format, args...)
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	log.WithField("stack", string(debug.Stack())).Errorf("[PANIC] %v", r)
}

// GetLogPath returns the current log file path
func GetLogPath() string {
	return logPath
}
