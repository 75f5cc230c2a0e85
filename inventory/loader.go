package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"showroom"
	"showroom/inventory/source"
)

// ErrSourceUnavailable means the export could not be fetched at all. Callers should
// treat it as "catalog temporarily empty", not as "no vehicles exist".
var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Loader turns the raw export into the active catalog snapshot.
type Loader struct {
	source       source.Source
	activeStatus string
}

type LoaderOpts struct {
	Source       source.Source
	ActiveStatus string
}

func NewLoader(opts LoaderOpts) *Loader {
	if opts.ActiveStatus == "" {
		opts.ActiveStatus = DefaultActiveStatus
	}
	return &Loader{
		source:       opts.Source,
		activeStatus: opts.ActiveStatus,
	}
}

// Load fetches the export and returns the active records in source order.
func (l *Loader) Load(ctx context.Context) ([]Record, error) {
	ctx, span := otel.Tracer(showroom.TracerNameCatalog).Start(ctx, "Loader.Load")
	defer span.End()

	raw, err := l.source.Load(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "source unavailable")
		span.RecordError(err)
		slog.Error("CATALOG: Failed to fetch export", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	records := Parse(string(raw), l.activeStatus)
	span.SetAttributes(
		attribute.Int("catalog.bytes", len(raw)),
		attribute.Int("catalog.records", len(records)),
	)
	return records, nil
}

// Parse splits text into lines, reads the first line as the header and keeps the
// active, well-formed rows. Bad rows are dropped one at a time; the load never fails
// because of them.
func Parse(text, activeStatus string) []Record {
	records := make([]Record, 0)

	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		slog.Warn("CATALOG: Export has no header row")
		return records
	}
	header := ParseHeader(lines[0])

	seen := make(map[int]bool)
	var dropped, inactive, unidentified int
	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")

		rec, err := ParseRow(header, line)
		if errors.Is(err, ErrBlankRow) {
			continue
		}
		if err != nil {
			dropped++
			slog.Debug("CATALOG: Dropping row", "line", i+2, "error", err)
			continue
		}

		if !rec.IsActive(activeStatus) {
			inactive++
			continue
		}
		if seen[rec.ID] {
			dropped++
			if rec.ID == 0 {
				// Blank and non-numeric id cells all read as 0.
				unidentified++
				slog.Warn("CATALOG: Dropping row without a usable id", "line", i+2, "name", rec.Name)
			} else {
				slog.Warn("CATALOG: Dropping duplicate id", "line", i+2, "id", rec.ID)
			}
			continue
		}
		seen[rec.ID] = true

		records = append(records, rec)
	}

	slog.Info("CATALOG: Parsed export",
		"records", len(records),
		"inactive", inactive,
		"dropped", dropped,
		"unidentified", unidentified,
	)
	return records
}
