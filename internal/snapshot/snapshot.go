// Package snapshot stores view server dumps on disk so they can be
// inspected or diffed after the device is gone.
//
// A snapshot file is a single CBOR map:
//
//	{version, serial, command, taken_at, size, raw}
//
// where raw is the zstd-compressed dump text and size is its length
// before compression. Encoding uses CBOR core deterministic rules, so the
// same snapshot always produces the same bytes.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

// Version is the envelope version written by Encode.
const Version = 1

// MaxDumpSize bounds the uncompressed dump a snapshot may hold.
const MaxDumpSize = 64 << 20

// ErrUnsupportedVersion is returned for files written by a newer version.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

// Snapshot is one dump with the context it was taken in.
type Snapshot struct {
	Serial  string
	Command string
	TakenAt time.Time
	Dump    string
}

type envelope struct {
	Version int    `cbor:"version"`
	Serial  string `cbor:"serial"`
	Command string `cbor:"command"`
	TakenAt int64  `cbor:"taken_at"` // Unix milliseconds
	Size    int    `cbor:"size"`
	Raw     []byte `cbor:"raw"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	// zstd encoders and decoders are safe for concurrent use.
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("snapshot: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDumpSize))
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode serializes s.
func Encode(s Snapshot) ([]byte, error) {
	env := envelope{
		Version: Version,
		Serial:  s.Serial,
		Command: s.Command,
		TakenAt: s.TakenAt.UnixMilli(),
		Size:    len(s.Dump),
		Raw:     zstdEncoder.EncodeAll([]byte(s.Dump), nil),
	}
	return encMode.Marshal(env)
}

// Decode parses data written by Encode.
func Decode(data []byte) (Snapshot, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	if env.Version != Version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.Size < 0 || env.Size > MaxDumpSize {
		return Snapshot{}, fmt.Errorf("snapshot: dump size %d out of range [0, %d]", env.Size, MaxDumpSize)
	}
	raw, err := zstdDecoder.DecodeAll(env.Raw, make([]byte, 0, env.Size))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: zstd decompress: %w", err)
	}
	if len(raw) != env.Size {
		return Snapshot{}, fmt.Errorf("snapshot: zstd decompress: got %d bytes, expected %d", len(raw), env.Size)
	}
	return Snapshot{
		Serial:  env.Serial,
		Command: env.Command,
		TakenAt: time.UnixMilli(env.TakenAt),
		Dump:    string(raw),
	}, nil
}

// Save writes s to path.
func Save(path string, s Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a snapshot file.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	s, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Tree parses the stored dump.
func (s Snapshot) Tree(logger *slog.Logger) (*model.Tree, error) {
	return viewdump.Parse(s.Dump, logger)
}
