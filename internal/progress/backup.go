package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Export writes the whole ledger as zstd-compressed JSON.
func (l *Ledger) Export(ctx context.Context, w io.Writer) error {
	all, err := l.load(ctx)
	if err != nil {
		return err
	}

	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if err := json.NewEncoder(encoder).Encode(all); err != nil {
		encoder.Close()
		return fmt.Errorf("encoding backup: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

// Import replaces the ledger with a backup written by Export. It returns
// the number of categories restored.
func (l *Ledger) Import(ctx context.Context, r io.Reader) (int, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var all map[string]CategoryProgress
	if err := json.NewDecoder(decoder).Decode(&all); err != nil {
		return 0, fmt.Errorf("decoding backup: %w", err)
	}
	for name, p := range all {
		if p.LastCompletedIndex < -1 || p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
			return 0, fmt.Errorf("backup has invalid progress for %q", name)
		}
	}
	if all == nil {
		all = map[string]CategoryProgress{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.save(ctx, all); err != nil {
		return 0, err
	}
	return len(all), nil
}
