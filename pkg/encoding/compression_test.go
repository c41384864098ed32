package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressors(t *testing.T) {
	frame := bytes.Repeat([]byte(`{"kind":"add_component","entity_id":7}`), 32)

	for _, name := range []string{"none", "zstd"} {
		t.Run(name, func(t *testing.T) {
			c, err := NewCompressor(name)
			require.NoError(t, err)
			defer c.Close()
			require.Equal(t, name, c.Name())

			packed := c.Compress(frame)
			if name == "zstd" {
				require.Less(t, len(packed), len(frame))
			}

			unpacked, err := c.Decompress(packed)
			require.NoError(t, err)
			require.Equal(t, frame, unpacked)
		})
	}

	_, err := NewCompressor("lz4")
	require.Error(t, err)
}

func TestZstd_RejectsGarbage(t *testing.T) {
	z, err := NewZstd()
	require.NoError(t, err)
	defer z.Close()

	_, err = z.Decompress([]byte("definitely not zstd"))
	require.Error(t, err)
}

func TestZstd_Close(t *testing.T) {
	z, err := NewZstd()
	require.NoError(t, err)
	packed := z.Compress([]byte("frame"))

	require.NoError(t, z.Close())
	require.NoError(t, z.Close())

	_, err = z.Decompress(packed)
	require.Error(t, err, "decoder is released")
	require.NoError(t, Identity{}.Close())
}
