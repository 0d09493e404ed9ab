package persist

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/world"
)

// TurnRecord is one executed turn: the tick it ran on, its intents in
// order, and optionally the world digest after the tick.
type TurnRecord struct {
	Tick   world.Tick  `json:"tick"`
	Turn   intent.Turn `json:"turn"`
	Digest string      `json:"digest,omitempty"`
}

// ArchivePath is where the turn log of a game lives under dir.
func ArchivePath(dir, gameID string) string {
	return filepath.Join(dir, gameID+".jsonl.zst")
}

// TurnLog appends turn records to a zstd-compressed JSONL file, one record
// per line.
type TurnLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// OpenTurnLog creates (or truncates) the log at path.
func OpenTurnLog(path string) (*TurnLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open turn log: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &TurnLog{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (l *TurnLog) Write(rec TurnRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return fmt.Errorf("turn log closed")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal turn %d: %w", rec.Turn.Number, err)
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Flush pushes buffered records through the compressor to disk.
func (l *TurnLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.enc.Flush()
}

func (l *TurnLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Flush()
	if cerr := l.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.w, l.enc, l.f = nil, nil, nil
	return err
}

// ReadTurnLog calls fn for every record in the log at path, in order.
// A non-nil error from fn stops the read and is returned.
func ReadTurnLog(path string, fn func(TurnRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open turn log: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var rec TurnRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

var (
	blobEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blobDec, _ = zstd.NewReader(nil)
)

// compressTurn encodes a turn as zstd-compressed JSON for the database.
func compressTurn(t intent.Turn) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return blobEnc.EncodeAll(b, nil), nil
}

func decompressTurn(blob []byte) (intent.Turn, error) {
	var t intent.Turn
	b, err := blobDec.DecodeAll(blob, nil)
	if err != nil {
		return t, fmt.Errorf("decompress turn: %w", err)
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return t, err
	}
	return t, nil
}
