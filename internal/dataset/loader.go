package dataset

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"

	"schoolpulse/internal/config"
	"schoolpulse/internal/infrastructure"
	"schoolpulse/pkg/contracts/domain"
)

const tracerName = "schoolpulse/dataset"

// Loader reads the configured yearly files and builds the unified table
type Loader struct {
	sources  []config.Source
	encoding string
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.DatasetMetrics
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithMetrics records load outcomes on m
func WithMetrics(m *infrastructure.DatasetMetrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a loader over sources, which are read in the given order
func NewLoader(sources []config.Source, encoding string, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	l := &Loader{
		sources:  append([]config.Source(nil), sources...),
		encoding: encoding,
		logger:   logger.With(slog.String("component", "dataset_loader")),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sources returns a copy of the configured sources
func (l *Loader) Sources() []config.Source {
	return append([]config.Source(nil), l.sources...)
}

// Load reads every source and returns the unified table
func (l *Loader) Load(ctx context.Context) (*domain.Table, error) {
	raw, err := l.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return l.parseAll(ctx, raw)
}

type rawSource struct {
	config.Source
	data []byte
}

func (l *Loader) readAll(ctx context.Context) ([]rawSource, error) {
	raw := make([]rawSource, 0, len(l.sources))
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, &DataUnavailableError{Path: src.Path, Year: src.Year, Reason: "read failed", Err: err}
		}
		raw = append(raw, rawSource{Source: src, data: data})
	}
	return raw, nil
}

// fingerprint hashes the year and bytes of every source in order
func fingerprint(raw []rawSource) string {
	h, _ := blake2b.New256(nil)
	var hdr [16]byte
	for _, src := range raw {
		binary.BigEndian.PutUint64(hdr[:8], uint64(src.Year))
		binary.BigEndian.PutUint64(hdr[8:], uint64(len(src.data)))
		h.Write(hdr[:])
		h.Write(src.data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (l *Loader) parseAll(ctx context.Context, raw []rawSource) (table *domain.Table, err error) {
	ctx, span := l.tracer.Start(ctx, "dataset.parse",
		trace.WithAttributes(attribute.Int("dataset.sources", len(raw))))
	start := time.Now()
	defer func() {
		infrastructure.RecordDatasetLoad(ctx, l.metrics, table.Len(), time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var rows []domain.Record
	for _, src := range raw {
		segment, err := parseSource(src, l.encoding)
		if err != nil {
			l.logger.ErrorContext(ctx, "source rejected",
				slog.Int("year", src.Year),
				slog.String("path", src.Path),
				slog.String("error", err.Error()))
			return nil, err
		}
		span.AddEvent("dataset.segment", trace.WithAttributes(
			attribute.Int("year", src.Year),
			attribute.Int("rows", len(segment))))
		rows = append(rows, segment...)
	}

	table = domain.NewTable(rows)
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("sources", len(raw)),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

// parseSource drops the header line and maps the first five columns of every
// following record onto the canonical schema by position.
func parseSource(src rawSource, encoding string) ([]domain.Record, error) {
	fail := func(line int, reason string, err error) error {
		return &DataUnavailableError{Path: src.Path, Year: src.Year, Line: line, Reason: reason, Err: err}
	}

	text, err := decode(src.data, encoding)
	if err != nil {
		return nil, fail(0, "decode failed", err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fail(0, "file is empty", nil)
	}
	if err != nil {
		return nil, fail(csvErrorLine(err), "malformed csv", err)
	}
	if len(header) < domain.SourceColumnCount {
		return nil, fail(1, fmt.Sprintf("header has %d columns, need %d", len(header), domain.SourceColumnCount), nil)
	}

	var rows []domain.Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fail(csvErrorLine(err), "malformed csv", err)
		}
		line, _ := r.FieldPos(0)

		if blank(rec) {
			continue
		}
		if len(rec) < domain.SourceColumnCount {
			return nil, fail(line, fmt.Sprintf("row has %d columns, need %d", len(rec), domain.SourceColumnCount), nil)
		}

		record, err := parseRecord(rec, src.Year)
		if err != nil {
			return nil, fail(line, "invalid numeric cell", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseRecord(rec []string, year int) (domain.Record, error) {
	capacity, err := parseCount(rec[2])
	if err != nil {
		return domain.Record{}, fmt.Errorf("%s: %w", domain.ColumnCapacity, err)
	}
	applicants, err := parseCount(rec[3])
	if err != nil {
		return domain.Record{}, fmt.Errorf("%s: %w", domain.ColumnFinalApplicants, err)
	}
	ratio, err := parseRatio(rec[4])
	if err != nil {
		return domain.Record{}, fmt.Errorf("%s: %w", domain.ColumnFinalRatio, err)
	}

	return domain.Record{
		Region:          rec[0],
		SchoolName:      rec[1],
		Capacity:        capacity,
		FinalApplicants: applicants,
		FinalRatio:      ratio,
		Year:            year,
	}, nil
}

// normalizeNumber trims the cell and drops thousands separators. The bureau
// publishes "-" where a school had no applicants; that and an empty cell read as zero.
func normalizeNumber(cell string) (string, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" || s == "-" {
		return "", false
	}
	return s, true
}

func parseCount(cell string) (int, error) {
	s, ok := normalizeNumber(cell)
	if !ok {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// spreadsheets sometimes save integral counts as "316.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid integer %q", cell)
	}
	return int(f), nil
}

func parseRatio(cell string) (float64, error) {
	s, ok := normalizeNumber(cell)
	if !ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", cell)
	}
	return f, nil
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func csvErrorLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}
