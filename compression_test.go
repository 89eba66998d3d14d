package easysqlite

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "gz", CompressionGZ.String())
	assert.Equal(t, "bz2", CompressionBZ2.String())
	assert.Equal(t, "xz", CompressionXZ.String())
	assert.Equal(t, "zstd", CompressionZSTD.String())
}

func TestCompressionType_Extension(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CompressionNone.Extension())
	assert.Equal(t, ".gz", CompressionGZ.Extension())
	assert.Equal(t, ".bz2", CompressionBZ2.Extension())
	assert.Equal(t, ".xz", CompressionXZ.Extension())
	assert.Equal(t, ".zst", CompressionZSTD.Extension())
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want CompressionType
	}{
		{name: "plain csv", path: "data.csv", want: CompressionNone},
		{name: "gzip", path: "data.csv.gz", want: CompressionGZ},
		{name: "bzip2", path: "data.csv.bz2", want: CompressionBZ2},
		{name: "xz", path: "data.tsv.xz", want: CompressionXZ},
		{name: "zstd", path: "data.tsv.zst", want: CompressionZSTD},
		{name: "uppercase suffix", path: "DATA.CSV.GZ", want: CompressionGZ},
		{name: "no extension", path: "data", want: CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCompression(tt.path))
		})
	}
}

func TestStripCompressionExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data.csv", stripCompressionExtension("data.csv.gz"))
	assert.Equal(t, "data.tsv", stripCompressionExtension("data.tsv.zst"))
	assert.Equal(t, "data.csv", stripCompressionExtension("data.csv"))
}

func TestCompressionRoundTrip(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("compress me, compress me again\n"), 100)

	for _, compression := range []CompressionType{CompressionNone, CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			writer, closeWriter, err := newCompressionWriter(&buf, compression)
			require.NoError(t, err)
			_, err = writer.Write(payload)
			require.NoError(t, err)
			require.NoError(t, closeWriter())

			reader, closeReader, err := newCompressionReader(&buf, compression)
			require.NoError(t, err)
			got, err := io.ReadAll(reader)
			require.NoError(t, err)
			require.NoError(t, closeReader())

			assert.Equal(t, payload, got)
		})
	}
}

func TestNewCompressionWriter_BZ2(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, _, err := newCompressionWriter(&buf, CompressionBZ2)
	require.Error(t, err, "bzip2 has no encoder")
}
