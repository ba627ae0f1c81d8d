package compression

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "id,x,y\na,1,2.5\nb,,3.0\nc,4,4.5\n"

func compress(t *testing.T, alg Algorithm) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(alg, &buf, Default)
	require.NoError(t, err)
	_, err = io.WriteString(w, sample)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRoundTripWithDetection(t *testing.T) {
	for _, alg := range []Algorithm{Gzip, Zstd, LZ4, Snappy, S2} {
		t.Run(string(alg), func(t *testing.T) {
			data := compress(t, alg)
			assert.Equal(t, alg, Detect(data))

			br := bufio.NewReader(bytes.NewReader(data))
			detected := Sniff(br, Auto, "rows.bin")
			require.Equal(t, alg, detected)

			r, err := NewReader(detected, br)
			require.NoError(t, err)
			defer r.Close()
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, sample, string(out))
		})
	}
}

func TestDeflateNeedsHint(t *testing.T) {
	data := compress(t, Deflate)

	br := bufio.NewReader(bytes.NewReader(data))
	assert.Equal(t, Deflate, Sniff(br, Auto, "rows.csv.deflate"))

	r, err := NewReader(Deflate, br)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, sample, string(out))
}

func TestPlainText(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte(sample)))
	assert.Equal(t, None, Sniff(br, Auto, "rows.csv"))
	assert.Equal(t, Gzip, Sniff(br, Gzip, "rows.csv"))
}

func TestDetectZip(t *testing.T) {
	assert.Equal(t, Zip, Detect([]byte("PK\x03\x04rest")))
	assert.Equal(t, Zip, FromExtension("DATA.ZIP"))
	_, err := NewReader(Zip, bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, Auto, alg)

	alg, err = ParseAlgorithm(" GZIP ")
	require.NoError(t, err)
	assert.Equal(t, Gzip, alg)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestCorruptGzipHeader(t *testing.T) {
	_, err := NewReader(Gzip, bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	assert.Error(t, err)
}
