package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ExportJSONL writes a run as JSONL: a header line with the run metadata
// followed by one line per recorded step.
func (s *Store) ExportJSONL(ctx context.Context, runID int64, w io.Writer) error {
	meta, err := s.Run(ctx, runID)
	if err != nil {
		return err
	}
	steps, err := s.Steps(ctx, runID)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("failed to encode run metadata: %w", err)
	}
	for _, step := range steps {
		if err := enc.Encode(step); err != nil {
			return fmt.Errorf("failed to encode step at time %v: %w", step.Time, err)
		}
	}
	return bw.Flush()
}

// seekTrackingWriter adapts an io.Writer to the io.WriteSeeker required by
// ipc.NewFileWriter, which only ever seeks with (0, io.SeekCurrent) to query
// the current write position.
type seekTrackingWriter struct {
	w   io.Writer
	pos int64
}

func (s *seekTrackingWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.pos += int64(n)
	return n, err
}

func (s *seekTrackingWriter) Seek(offset int64, whence int) (int64, error) {
	if offset != 0 || whence != io.SeekCurrent {
		return 0, fmt.Errorf("arrow export writer supports only current-position queries")
	}
	return s.pos, nil
}

// arrowSchema is the long-format layout of an exported run: one row per
// (time, deme) pair. Offspring size is null at the final time step.
var arrowSchema = arrow.NewSchema([]arrow.Field{
	{Name: "time", Type: arrow.PrimitiveTypes.Float64},
	{Name: "deme", Type: arrow.BinaryTypes.String},
	{Name: "parental_size", Type: arrow.PrimitiveTypes.Float64},
	{Name: "offspring_size", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// ExportArrow writes a run as an Arrow IPC file in long format, one row
// per (time, deme) pair.
func (s *Store) ExportArrow(ctx context.Context, runID int64, w io.Writer) error {
	meta, err := s.Run(ctx, runID)
	if err != nil {
		return err
	}
	steps, err := s.Steps(ctx, runID)
	if err != nil {
		return err
	}

	alloc := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(alloc, arrowSchema)
	defer builder.Release()

	timeB := builder.Field(0).(*array.Float64Builder)
	demeB := builder.Field(1).(*array.StringBuilder)
	parentalB := builder.Field(2).(*array.Float64Builder)
	offspringB := builder.Field(3).(*array.Float64Builder)

	for _, step := range steps {
		if len(step.ParentalSizes) != len(meta.DemeNames) ||
			(step.OffspringSizes != nil && len(step.OffspringSizes) != len(meta.DemeNames)) {
			return fmt.Errorf("step at time %v records %d sizes for %d demes",
				step.Time, len(step.ParentalSizes), len(meta.DemeNames))
		}
		for i, name := range meta.DemeNames {
			timeB.Append(step.Time)
			demeB.Append(name)
			parentalB.Append(step.ParentalSizes[i])
			if step.OffspringSizes != nil {
				offspringB.Append(step.OffspringSizes[i])
			} else {
				offspringB.AppendNull()
			}
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(&seekTrackingWriter{w: w}, ipc.WithSchema(arrowSchema), ipc.WithAllocator(alloc))
	if err != nil {
		return fmt.Errorf("failed to create Arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write Arrow record: %w", err)
	}
	return fw.Close()
}
