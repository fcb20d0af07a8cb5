package meshvk

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

//Logger groups the info / warning / error streams of a renderer
type Logger struct {
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger

	files []*os.File
}

//NewLogger opens info_log.txt, warn_log.txt and error_log.txt in dir.
//An empty dir logs everything to stderr.
func NewLogger(dir string) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	l := &Logger{}
	open := func(name string) (io.Writer, error) {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", name)
		}
		l.files = append(l.files, f)
		return f, nil
	}
	info, err := open("info_log.txt")
	if err != nil {
		l.Close()
		return nil, err
	}
	warn, err := open("warn_log.txt")
	if err != nil {
		l.Close()
		return nil, err
	}
	errw, err := open("error_log.txt")
	if err != nil {
		l.Close()
		return nil, err
	}
	l.Info = log.New(info, "INFO: ", logFlags)
	l.Warn = log.New(warn, "WARNING: ", logFlags)
	l.Error = log.New(errw, "ERROR: ", logFlags)
	return l, nil
}

//NewWriterLogger sends all three streams to w
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		Info:  log.New(w, "INFO: ", logFlags),
		Warn:  log.New(w, "WARNING: ", logFlags),
		Error: log.New(w, "ERROR: ", logFlags),
	}
}

//DiscardLogger drops everything.
func DiscardLogger() *Logger {
	return NewWriterLogger(io.Discard)
}

func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}
