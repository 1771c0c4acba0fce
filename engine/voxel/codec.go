package voxel

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Chunk snapshot layout, little endian:
//
//	"MXCK" u8 version  i32 size  i32 x,y,z  u16 ids[size³]  u8 hasBounds  [i32 min, i32 max][size²]
//
// A map file is zstd("MXMP" u8 version i32 width,height,depth,size  i32 count  chunk...).
const (
	chunkMagic    = "MXCK"
	mapMagic      = "MXMP"
	codecVersion  = uint8(1)
	maxCodecChunk = 1 << 20
)

func WriteChunk(w io.Writer, c *Chunk) error {
	size := c.volume.Size()
	header := struct {
		Magic    [4]byte
		Version  uint8
		Size     int32
		Position Int3
	}{Version: codecVersion, Size: size, Position: c.position}
	copy(header.Magic[:], chunkMagic)
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return errors.Wrap(err, "write chunk header")
	}
	if err := binary.Write(w, binary.LittleEndian, c.volume.data); err != nil {
		return errors.Wrapf(err, "write chunk %s voxels", c.position.ToString())
	}
	bounds := c.HeightBounds()
	// derived bounds are recomputed on load
	c.boundsMutex.Lock()
	derived := c.boundsComputed != ""
	c.boundsMutex.Unlock()
	if bounds == nil || derived {
		_, err := w.Write([]byte{0})
		return errors.Wrap(err, "write bounds flag")
	}
	if _, err := w.Write([]byte{1}); err != nil {
		return errors.Wrap(err, "write bounds flag")
	}
	return errors.Wrapf(binary.Write(w, binary.LittleEndian, bounds.columns), "write chunk %s bounds", c.position.ToString())
}

func ReadChunk(r io.Reader) (*Chunk, error) {
	var header struct {
		Magic    [4]byte
		Version  uint8
		Size     int32
		Position Int3
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read chunk header")
	}
	if string(header.Magic[:]) != chunkMagic {
		return nil, errors.Errorf("invalid chunk magic %q", header.Magic[:])
	}
	if header.Version != codecVersion {
		return nil, errors.Errorf("unsupported chunk version %d", header.Version)
	}
	if header.Size < 1 || header.Size > MAX_CHUNK_SIZE {
		return nil, errors.Errorf("chunk %s: invalid size %d", header.Position.ToString(), header.Size)
	}
	volume := NewVolume(header.Size)
	if err := binary.Read(r, binary.LittleEndian, volume.data); err != nil {
		return nil, errors.Wrapf(err, "read chunk %s voxels", header.Position.ToString())
	}
	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return nil, errors.Wrap(err, "read bounds flag")
	}
	var bounds *HeightBounds
	if flag[0] == 1 {
		bounds = NewHeightBounds(header.Size)
		if err := binary.Read(r, binary.LittleEndian, bounds.columns); err != nil {
			return nil, errors.Wrapf(err, "read chunk %s bounds", header.Position.ToString())
		}
	}
	return NewChunk(header.Position, volume, bounds), nil
}

// EncodeChunk returns a zstd compressed snapshot of one chunk.
func EncodeChunk(c *Chunk) ([]byte, error) {
	var raw bytes.Buffer
	if err := WriteChunk(&raw, c); err != nil {
		return nil, err
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd writer")
	}
	defer encoder.Close()
	return encoder.EncodeAll(raw.Bytes(), nil), nil
}

func DecodeChunk(data []byte) (*Chunk, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd reader")
	}
	defer decoder.Close()
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decompress chunk")
	}
	return ReadChunk(bytes.NewReader(raw))
}

// WriteMap streams every chunk of the map through one zstd frame.
func WriteMap(w io.Writer, m *Map) error {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "zstd writer")
	}
	buffered := bufio.NewWriter(encoder)
	chunks := m.Chunks()
	header := struct {
		Magic                      [4]byte
		Version                    uint8
		Width, Height, Depth, Size int32
		Count                      int32
	}{Version: codecVersion, Width: m.width, Height: m.height, Depth: m.depth, Size: m.chunkSize, Count: int32(len(chunks))}
	copy(header.Magic[:], mapMagic)
	if err := binary.Write(buffered, binary.LittleEndian, &header); err != nil {
		encoder.Close()
		return errors.Wrap(err, "write map header")
	}
	for _, c := range chunks {
		if err := WriteChunk(buffered, c); err != nil {
			encoder.Close()
			return err
		}
	}
	if err := buffered.Flush(); err != nil {
		encoder.Close()
		return errors.Wrap(err, "flush map")
	}
	return errors.Wrap(encoder.Close(), "close zstd writer")
}

func ReadMap(r io.Reader) (*Map, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "zstd reader")
	}
	defer decoder.Close()
	buffered := bufio.NewReader(decoder)
	var header struct {
		Magic                      [4]byte
		Version                    uint8
		Width, Height, Depth, Size int32
		Count                      int32
	}
	if err := binary.Read(buffered, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read map header")
	}
	if string(header.Magic[:]) != mapMagic {
		return nil, errors.Errorf("invalid map magic %q", header.Magic[:])
	}
	if header.Version != codecVersion {
		return nil, errors.Errorf("unsupported map version %d", header.Version)
	}
	if header.Width < 1 || header.Height < 1 || header.Depth < 1 || header.Count < 0 || header.Count > maxCodecChunk ||
		int64(header.Width)*int64(header.Height)*int64(header.Depth) > maxCodecChunk {
		return nil, errors.Errorf("invalid map dimensions %dx%dx%d with %d chunks", header.Width, header.Height, header.Depth, header.Count)
	}
	m := NewMap(header.Width, header.Height, header.Depth, header.Size)
	for i := int32(0); i < header.Count; i++ {
		c, err := ReadChunk(buffered)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %d/%d", i+1, header.Count)
		}
		if c.Size() != header.Size {
			return nil, errors.Errorf("chunk %s has size %d, map size is %d", c.position.ToString(), c.Size(), header.Size)
		}
		if err := m.SetChunk(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
