package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"smeltingmetal.dev/internal/sim/catalogs"
)

const Version = 1

var ErrVersion = errors.New("unsupported snapshot version")

type Header struct {
	Version   int    `json:"version"`
	PassID    string `json:"pass_id"`
	Trigger   string `json:"trigger"`
	Namespace string `json:"namespace"`
	TakenAt   int64  `json:"taken_at"`
	Recipes   int    `json:"recipes"`
}

// MetalV1 is the resolved view of one store record.
type MetalV1 struct {
	Kind     string            `json:"kind"`
	Name     string            `json:"name"`
	Primary  string            `json:"primary,omitempty"`
	Block    string            `json:"block,omitempty"`
	Raw      string            `json:"raw,omitempty"`
	RawBlock string            `json:"raw_block,omitempty"`
	Nugget   string            `json:"nugget,omitempty"`
	Crushed  string            `json:"crushed,omitempty"`
	Bucket   string            `json:"bucket,omitempty"`
	Fluid    string            `json:"fluid,omitempty"`
	Color    uint32            `json:"color"`
	Results  map[string]string `json:"results,omitempty"`
}

// SnapshotV1 is the recipe table as left by one pass.
type SnapshotV1 struct {
	Header Header `json:"header"`

	ItemsDigest  string `json:"items_digest"`
	BlocksDigest string `json:"blocks_digest"`
	ConfigDigest string `json:"config_digest"`

	Metals  []MetalV1            `json:"metals"`
	Recipes []catalogs.RecipeDef `json:"recipes"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	snap.Header.Recipes = len(snap.Recipes)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := encode(f, snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(f *os.File, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}

// PathFor names the snapshot file of a pass under dir.
func PathFor(dir string, takenAt int64, passID string) string {
	return filepath.Join(dir, fmt.Sprintf("%d-%s.snap.zst", takenAt, passID))
}
