package sink

import (
	"errors"
	"fmt"
	"strings"
)

// TargetKind is the type of output a target descriptor points to.
type TargetKind string

const (
	TargetFile     TargetKind = "file"
	TargetDatabase TargetKind = "database"
	TargetNATS     TargetKind = "nats"
)

// File formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// Table behaviors of database targets.
const (
	TableCreateIfNotExists = "create_if_not_exists"
	TableAppendOnly        = "append_only"
	TableDropAndCreate     = "drop_and_create"
)

// Insert modes of database targets.
const (
	InsertAppend         = "append"
	InsertSkipDuplicates = "skip_duplicates"
)

const (
	defaultSchema        = "public"
	defaultTableBehavior = TableCreateIfNotExists
	defaultInsertMode    = InsertAppend
)

var (
	// ErrInvalidTarget is returned when a target descriptor cannot be parsed.
	ErrInvalidTarget = errors.New("invalid target descriptor")

	// ErrUnknownTargetKind is returned for descriptors with an unsupported kind prefix.
	ErrUnknownTargetKind = errors.New("unknown target kind")
)

// Target is a parsed target descriptor.
//
//	file:<path>,<csv|jsonl>
//	database:<dsn>,<schema>,<table-prefix>,<table-behavior>,<insert-mode>
//	nats:<url>[,<url>...],<subject>
//
// Trailing database fields are optional and default to public, no prefix,
// create_if_not_exists and append.
type Target struct {
	Kind TargetKind

	Path   string
	Format string

	DSN           string
	Schema        string
	TablePrefix   string
	TableBehavior string
	InsertMode    string

	URL     string
	Subject string
}

// ParseTarget parses a target descriptor.
func ParseTarget(descriptor string) (Target, error) {
	kind, rest, ok := strings.Cut(strings.TrimSpace(descriptor), ":")
	if !ok || rest == "" {
		return Target{}, errors.Join(ErrInvalidTarget, fmt.Errorf("descriptor %q", descriptor))
	}

	switch TargetKind(kind) {
	case TargetFile:
		return parseFileTarget(rest)
	case TargetDatabase:
		return parseDatabaseTarget(rest)
	case TargetNATS:
		return parseNATSTarget(rest)
	default:
		return Target{}, errors.Join(ErrUnknownTargetKind, fmt.Errorf("kind %q", kind))
	}
}

func parseFileTarget(rest string) (Target, error) {
	i := strings.LastIndex(rest, ",")
	if i <= 0 {
		return Target{}, errors.Join(ErrInvalidTarget, errors.New("file target needs <path>,<format>"))
	}

	t := Target{Kind: TargetFile, Path: rest[:i], Format: strings.ToLower(strings.TrimSpace(rest[i+1:]))}
	if t.Format != FormatCSV && t.Format != FormatJSONL {
		return Target{}, errors.Join(ErrInvalidTarget, fmt.Errorf("file format %q", t.Format))
	}

	return t, nil
}

func parseDatabaseTarget(rest string) (Target, error) {
	fields := strings.Split(rest, ",")
	if len(fields) > 5 {
		return Target{}, errors.Join(ErrInvalidTarget, errors.New("database target has too many fields"))
	}

	t := Target{
		Kind:          TargetDatabase,
		DSN:           strings.TrimSpace(fields[0]),
		Schema:        defaultSchema,
		TableBehavior: defaultTableBehavior,
		InsertMode:    defaultInsertMode,
	}

	optional := []*string{&t.Schema, &t.TablePrefix, &t.TableBehavior, &t.InsertMode}
	for i, field := range fields[1:] {
		if v := strings.TrimSpace(field); v != "" {
			*optional[i] = v
		}
	}

	if t.DSN == "" {
		return Target{}, errors.Join(ErrInvalidTarget, errors.New("database target needs a dsn"))
	}

	switch t.TableBehavior {
	case TableCreateIfNotExists, TableAppendOnly, TableDropAndCreate:
	default:
		return Target{}, errors.Join(ErrInvalidTarget, fmt.Errorf("table behavior %q", t.TableBehavior))
	}

	switch t.InsertMode {
	case InsertAppend, InsertSkipDuplicates:
	default:
		return Target{}, errors.Join(ErrInvalidTarget, fmt.Errorf("insert mode %q", t.InsertMode))
	}

	return t, nil
}

func parseNATSTarget(rest string) (Target, error) {
	i := strings.LastIndex(rest, ",")
	if i < 0 {
		return Target{}, errors.Join(ErrInvalidTarget, errors.New("nats target needs <url>,<subject>"))
	}

	url, subject := strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+1:])
	if url == "" || subject == "" {
		return Target{}, errors.Join(ErrInvalidTarget, errors.New("nats target needs <url>,<subject>"))
	}

	return Target{Kind: TargetNATS, URL: url, Subject: subject}, nil
}
