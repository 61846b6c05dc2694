package archive

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ExportCSV writes every archived mission to w as CSV, newest first.
// Anomalies are joined with "; " into one column; metadata is inlined as JSON.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	missions, err := s.List(ctx, 0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{
		"id", "kind", "created_at", "message_sent", "message_received",
		"ber", "snr_db", "packets_total", "packets_corrupted", "anomalies", "metadata",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, m := range missions {
		metadata, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", m.ID, err)
		}
		row := []string{
			m.ID,
			m.Kind,
			m.CreatedAt.Format(time.RFC3339Nano),
			m.MessageSent,
			m.MessageReceived,
			strconv.FormatFloat(m.BER, 'g', -1, 64),
			strconv.FormatFloat(m.SNRdB, 'g', -1, 64),
			strconv.Itoa(m.PacketsTotal),
			strconv.Itoa(m.PacketsCorrupted),
			strings.Join(m.Anomalies, "; "),
			string(metadata),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", m.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportJSON writes every archived mission to w as an indented JSON array,
// newest first.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	missions, err := s.List(ctx, 0)
	if err != nil {
		return err
	}
	if missions == nil {
		missions = []*Mission{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(missions)
}
