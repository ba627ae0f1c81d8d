package filereader

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/filereader/pkg/compression"
	ferrors "github.com/ajitpratap0/filereader/pkg/errors"
	"github.com/ajitpratap0/filereader/pkg/metrics"
	"github.com/ajitpratap0/filereader/pkg/testutil"
)

const ordersCSV = "id,x,y\na,1,2.5\nb,,3.0\nc,7,1.25\n"

type OpenSuite struct {
	testutil.FixtureSuite
}

func TestOpenSuite(t *testing.T) {
	suite.Run(t, new(OpenSuite))
}

func (s *OpenSuite) read(location string) *Stream {
	cfg := xyConfig()
	cfg.Format.HasColumnHeader = true

	stream, err := Open(s.Ctx, location, cfg,
		WithLogger(testutil.TestLogger(s.T())),
		WithRecorder(metrics.NewCollector("suite")))
	s.Require().NoError(err)
	return stream
}

func (s *OpenSuite) assertOrders(stream *Stream) {
	defer func() { s.NoError(stream.Close()) }()

	rows, err := readAll(s.T(), stream)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("a", rows[0].ID)
	s.True(rows[1].Cells[0].Missing)
	s.Equal(int64(7), rows[2].Cells[0].Value)
	s.Equal(int64(len(ordersCSV)), stream.BytesRead())
}

func (s *OpenSuite) TestPlainFile() {
	path := s.Fixture("orders.csv", []byte(ordersCSV))
	s.assertOrders(s.read(path))
}

func (s *OpenSuite) TestCompressedFiles() {
	for _, alg := range []compression.Algorithm{compression.Gzip, compression.Zstd, compression.LZ4, compression.S2} {
		s.Run(string(alg), func() {
			path := s.Fixture("orders."+string(alg), testutil.Compress(s.T(), alg, ordersCSV))
			s.assertOrders(s.read(path))
		})
	}
}

func (s *OpenSuite) TestZipEntry() {
	path := s.Fixture("exports.zip", testutil.Zip(s.T(),
		testutil.ZipEntry{Name: "readme.txt", Body: "not a table"},
		testutil.ZipEntry{Name: "2024/orders.csv", Body: ordersCSV},
	))

	stream := s.read(path + "!/2024/orders.csv")
	s.Equal("2024/orders.csv", stream.ArchiveEntry())
	s.False(stream.HasMoreArchiveEntries())
	s.assertOrders(stream)

	first := s.read(path)
	defer first.Close()
	s.Equal("readme.txt", first.ArchiveEntry())
	s.True(first.HasMoreArchiveEntries())
}

func (s *OpenSuite) TestMissingFile() {
	_, err := Open(s.Ctx, s.TempDir+"/nope.csv", xyConfig())
	s.Require().Error(err)
	s.True(ferrors.IsType(err, ferrors.ErrorTypeNotFound))
}

func (s *OpenSuite) TestEntryOnPlainFile() {
	path := s.Fixture("plain.csv", []byte(ordersCSV))
	_, err := Open(s.Ctx, path+"!/inner.csv", xyConfig())
	s.Require().Error(err)
	s.True(ferrors.IsType(err, ferrors.ErrorTypeData))
}
