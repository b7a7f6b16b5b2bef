package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	ConnID    string
	TimeStart string
	TimeEnd   string
	Direction string
	Category  string
	LocalID   string
}

// buildFilter converts the string options into a log.Filter.
func buildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{ConnectionID: opts.ConnID}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Direction != "" {
		d, err := ParseDirectionFlag(opts.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}

	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if opts.LocalID != "" {
		id, err := strconv.Atoi(opts.LocalID)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid alarm id: %s", opts.LocalID)
		}
		filter.LocalID = &id
	}

	return filter, nil
}

// RunFilter filters the log file and writes matching events to a new
// file. A summary line goes to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
