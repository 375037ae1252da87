package backend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Decoder parses a CSV stream whose first row holds the headings
// `category, <series>...` and whose later rows hold a category followed by
// one value per series. Empty cells are skipped. Cells that do not parse
// are logged and skipped.
type Decoder struct {
	csv     *csv.Reader
	columns []int
	log     zerolog.Logger
}

func NewDecoder(r io.Reader, log zerolog.Logger) *Decoder {
	csvReader := csv.NewReader(NewLineReader(r))
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	return &Decoder{
		csv: csvReader,
		log: log,
	}
}

// Decode reads every complete row currently available into ds and returns
// the number of records inserted. It returns nil at the end of the
// available input; calling it again later picks up rows appended since.
func (d *Decoder) Decode(ds *Dataset) (int, error) {
	if d.columns == nil {
		headings, err := d.csv.Read()
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed reading CSV headings: %w", err)
		}
		if len(headings) < 2 {
			return 0, fmt.Errorf("failed reading CSV headings: need a category and at least one series, got %q", headings)
		}
		for i := range headings {
			headings[i] = strings.TrimSpace(headings[i])
		}
		d.columns = ds.SetHeadings(headings[1:])
	}
	inserted := 0
	for {
		rec, err := d.csv.Read()
		if errors.Is(err, io.EOF) {
			return inserted, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				d.log.Warn().Err(err).Msg("skipping malformed row")
				continue
			}
			return inserted, fmt.Errorf("failed reading CSV data: %w", err)
		}
		category, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			d.log.Warn().Err(err).Str("cell", rec[0]).Msg("failed parsing category")
			continue
		}
		for i := 1; i < len(rec) && i <= len(d.columns); i++ {
			cell := strings.TrimSpace(rec[i])
			if len(cell) < 1 {
				// Skip null cells.
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				d.log.Warn().Err(err).Int("column", i).Str("cell", cell).Msg("failed parsing value")
				continue
			}
			if !ds.Insert(d.columns[i-1], Record{Category: category, Value: value}) {
				d.log.Warn().Float64("category", category).Int("column", i).Msg("duplicate category rejected")
				continue
			}
			inserted++
		}
	}
}

// ReadFile decodes the CSV file at path into a new Dataset.
func ReadFile(path string, log zerolog.Logger) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening %q: %w", path, err)
	}
	defer f.Close()
	ds := &Dataset{}
	if _, err := NewDecoder(f, log).Decode(ds); err != nil {
		return nil, fmt.Errorf("failed decoding %q: %w", path, err)
	}
	return ds, nil
}

// Update is emitted by a Watcher each time new records were read.
type Update struct {
	// Seq increases with every update of one watcher.
	Seq      uint64
	Data     *Dataset
	Inserted int
	Err      error
}

// Watcher follows a CSV file that is being appended to.
type Watcher struct {
	path    string
	seq     uint64
	watcher *fsnotify.Watcher
	log     zerolog.Logger
}

func NewWatcher(path string, log zerolog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed creating file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed watching %q: %w", path, err)
	}
	return &Watcher{
		path:    path,
		watcher: watcher,
		log:     log.With().Str("component", "watcher").Str("path", path).Logger(),
	}, nil
}

// Run emits the dataset once after the initial read and again after every
// write that added records. The channel is closed when ctx is done or the
// watcher fails.
func (w *Watcher) Run(ctx context.Context) <-chan Update {
	out := make(chan Update, 1)
	go func() {
		defer close(out)
		defer w.watcher.Close()
		f, err := os.Open(w.path)
		if err != nil {
			w.send(ctx, out, Update{Err: fmt.Errorf("failed opening %q: %w", w.path, err)})
			return
		}
		defer f.Close()
		ds := &Dataset{}
		dec := NewDecoder(f, w.log)
		n, err := dec.Decode(ds)
		if !w.send(ctx, out, Update{Data: ds, Inserted: n, Err: err}) || err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) {
					continue
				}
				n, err := dec.Decode(ds)
				if n == 0 && err == nil {
					continue
				}
				w.log.Debug().Int("inserted", n).Msg("file updated")
				if !w.send(ctx, out, Update{Data: ds, Inserted: n, Err: err}) || err != nil {
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Error().Err(err).Msg("watch failed")
				w.send(ctx, out, Update{Data: ds, Err: err})
				return
			}
		}
	}()
	return out
}

func (w *Watcher) send(ctx context.Context, out chan<- Update, u Update) bool {
	w.seq++
	u.Seq = w.seq
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
