package chronicle

import (
	"bytes"
	"errors"
	"fmt"

	"cinnarito/internal/chronicle/interfaces"

	"github.com/klauspost/compress/zstd"
)

// maxArchiveSize bounds the decoded size of a tree archive. A snapshot of
// every registered tree stays far below it.
const maxArchiveSize = 64 << 20

var (
	archiveMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

	ErrNotAnArchive = errors.New("not a zstd tree archive")
)

// ArchiveCodec compresses tree snapshots. Archives are written once per
// interval by a single goroutine and read back only at startup, so it trades
// speed for ratio and carries a frame checksum.
type ArchiveCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (c *ArchiveCodec) Compress(snapshot []byte) ([]byte, error) {
	return c.encoder.EncodeAll(snapshot, make([]byte, 0, len(snapshot)/4)), nil
}

func (c *ArchiveCodec) Decompress(archive []byte) ([]byte, error) {
	if !bytes.HasPrefix(archive, archiveMagic) {
		return nil, ErrNotAnArchive
	}
	snapshot, err := c.decoder.DecodeAll(archive, nil)
	if err != nil {
		return nil, fmt.Errorf("decode tree archive: %w", err)
	}
	return snapshot, nil
}

func (c *ArchiveCodec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

func NewArchiveCodec() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderCRC(true),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxArchiveSize),
	)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ArchiveCodec{encoder: encoder, decoder: decoder}, nil
}
