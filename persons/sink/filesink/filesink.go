// Package filesink writes persons to a CSV or JSON Lines file.
//
// Output goes to a temporary file next to the target and is only renamed to the target path on Close,
// so readers never see a half-written file. Abort removes the temporary file. Batches are appended whole,
// so a file closed after a failed run holds exactly the batches written before the failure.
package filesink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
)

const defaultPermissions os.FileMode = 0o644

const (
	logMsgPublished = "output file published"
	logMsgDiscarded = "output file discarded"
	logAttrPath     = "path"
	logAttrRecords  = "record_count"
	logAttrFormat   = "format"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrEmptyPath is returned when no output path is given.
	ErrEmptyPath = errors.New("output path must not be empty")

	// ErrUnsupportedFormat is returned for formats other than csv and jsonl.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidSlots is returned when a column slot count is below the minimum of its collection.
	ErrInvalidSlots = errors.New("invalid csv column slots")

	// ErrSlotOverflow is returned when a record has more children than the csv layout has columns for.
	ErrSlotOverflow = errors.New("record does not fit the csv column layout")
)

// Sink writes batches to a file. It is safe for concurrent use, batches are written whole.
type Sink struct {
	path        string
	format      string
	slots       Slots
	columns     []string
	permissions os.FileMode
	logger      persons.Logger

	mu      sync.Mutex
	file    *os.File
	size    int64
	records uint64
	buf     bytes.Buffer
}

// Option defines a functional option for configuring a Sink.
type Option func(*Sink) error

// New returns a file sink for path in format sink.FormatCSV or sink.FormatJSONL.
func New(path, format string, options ...Option) (*Sink, error) {
	if path == "" {
		return nil, persons.NewOpError("build file sink", persons.KindConfig, ErrEmptyPath)
	}

	if format != sink.FormatCSV && format != sink.FormatJSONL {
		return nil, persons.NewOpError("build file sink", persons.KindConfig, errors.Join(ErrUnsupportedFormat, fmt.Errorf("format %q", format)))
	}

	s := &Sink{
		path:        path,
		format:      format,
		slots:       defaultSlots,
		permissions: defaultPermissions,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, persons.NewOpError("build file sink", persons.KindConfig, err)
		}
	}

	if format == sink.FormatCSV {
		s.columns = s.slots.header()
	}

	return s, nil
}

// WithSlots sets the number of column groups per child collection of the csv layout.
func WithSlots(slots Slots) Option {
	return func(s *Sink) error {
		if err := slots.validate(); err != nil {
			return err
		}

		s.slots = slots

		return nil
	}
}

// WithPermissions sets the mode of the published file.
func WithPermissions(mode os.FileMode) Option {
	return func(s *Sink) error {
		s.permissions = mode
		return nil
	}
}

// WithLogger sets the logger for the Sink.
// Info level: publishing and discarding of the output file.
func WithLogger(logger persons.Logger) Option {
	return func(s *Sink) error {
		s.logger = logger
		return nil
	}
}

// Path returns the target path.
func (s *Sink) Path() string {
	return s.path
}

// Open creates the temporary file. For csv the header row is written right away.
func (s *Sink) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return nil
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return persons.NewOpError("open file sink", persons.KindSinkFatal, err)
	}

	if err := f.Chmod(s.permissions); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return persons.NewOpError("open file sink", persons.KindSinkFatal, err)
	}

	s.file, s.size, s.records = f, 0, 0

	if s.format == sink.FormatCSV {
		s.buf.Reset()
		if err := writeCSV(&s.buf, [][]string{s.columns}); err != nil {
			return err
		}

		return s.flush()
	}

	return nil
}

// Write encodes the whole batch before appending it, and truncates the file back if the append fails.
func (s *Sink) Write(ctx context.Context, batch persons.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return persons.NewOpError("write file sink", persons.KindSinkFatal, sink.ErrNotOpen)
	}

	s.buf.Reset()

	var err error
	if s.format == sink.FormatCSV {
		err = s.encodeCSV(batch)
	} else {
		err = s.encodeJSONL(batch)
	}
	if err != nil {
		return persons.NewOpError("encode batch", persons.KindSinkFatal, err)
	}

	if err := s.flush(); err != nil {
		return err
	}

	s.records += uint64(batch.Len())

	return nil
}

func (s *Sink) flush() error {
	n, err := s.file.Write(s.buf.Bytes())
	if err == nil {
		s.size += int64(n)
		return nil
	}

	if n > 0 {
		if truncErr := s.file.Truncate(s.size); truncErr != nil {
			return errors.Join(err, truncErr)
		}
		if _, seekErr := s.file.Seek(s.size, 0); seekErr != nil {
			return errors.Join(err, seekErr)
		}
	}

	return err
}

func (s *Sink) encodeJSONL(batch persons.Batch) error {
	for i := range batch.Records {
		line, err := json.Marshal(&batch.Records[i])
		if err != nil {
			return err
		}

		s.buf.Write(line)
		s.buf.WriteByte('\n')
	}

	return nil
}

// Close syncs the temporary file and renames it to the target path.
func (s *Sink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	f := s.file
	s.file = nil

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return persons.NewOpError("close file sink", persons.KindSinkFatal, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return persons.NewOpError("close file sink", persons.KindSinkFatal, err)
	}

	if err := os.Rename(f.Name(), s.path); err != nil {
		_ = os.Remove(f.Name())
		return persons.NewOpError("publish file", persons.KindSinkFatal, err)
	}

	s.logInfo(logMsgPublished, logAttrPath, s.path, logAttrFormat, s.format, logAttrRecords, s.records)

	return nil
}

// Abort removes the temporary file. The target path is left untouched.
func (s *Sink) Abort(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	f := s.file
	s.file = nil

	closeErr := f.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(closeErr, err)
	}

	s.logInfo(logMsgDiscarded, logAttrPath, s.path, logAttrRecords, s.records)

	return nil
}

func (s *Sink) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

var _ sink.Sink = (*Sink)(nil)
var _ sink.Aborter = (*Sink)(nil)
