package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dune-go/remoteindex/codec"
	"github.com/dune-go/remoteindex/index"
)

func TestPackUnpack_RoundTripsGlobalAndAttribute(t *testing.T) {
	pair := index.Pair{
		Global: 123456789,
		Tag: index.LocalTag{
			LocalIndex: 7,
			Attribute:  2,
			IsPublic:   true,
			State:      index.Valid,
		},
	}

	buf := make([]byte, codec.RecordSize)
	pos := 0
	require.NoError(t, codec.Pack(pair, buf, &pos))
	require.Equal(t, codec.RecordSize, pos)

	pos = 0
	rec, err := codec.Unpack(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, pair.Global, rec.Global)
	require.Equal(t, pair.Tag.Attribute, rec.Attribute)
	// IsPublic and State are intentionally not part of the wire record.
}

func TestPack_FailsOnShortBuffer(t *testing.T) {
	buf := make([]byte, 3)
	pos := 0
	err := codec.Pack(index.Pair{Global: 1}, buf, &pos)
	require.ErrorIs(t, err, codec.ErrBufferTooShort)
}

func TestUnpack_FailsOnShortBuffer(t *testing.T) {
	buf := make([]byte, 3)
	pos := 0
	_, err := codec.Unpack(buf, &pos)
	require.ErrorIs(t, err, codec.ErrBufferTooShort)
}

func TestHeader_RoundTrips(t *testing.T) {
	h := codec.Header{SendTwo: true, NSource: 4, NDest: 9}
	buf := make([]byte, codec.HeaderSize)
	pos := 0
	require.NoError(t, codec.PackHeader(h, buf, &pos))

	pos = 0
	got, err := codec.UnpackHeader(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestPack_MultipleRecordsAdvancePosition(t *testing.T) {
	buf := make([]byte, codec.RecordSize*2)
	pos := 0
	require.NoError(t, codec.Pack(index.Pair{Global: 1, Tag: index.LocalTag{Attribute: 9}}, buf, &pos))
	require.NoError(t, codec.Pack(index.Pair{Global: 2, Tag: index.LocalTag{Attribute: 8}}, buf, &pos))
	require.Equal(t, len(buf), pos)

	pos = 0
	r1, err := codec.Unpack(buf, &pos)
	require.NoError(t, err)
	r2, err := codec.Unpack(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, index.G(1), r1.Global)
	require.Equal(t, index.Attribute(9), r1.Attribute)
	require.Equal(t, index.G(2), r2.Global)
	require.Equal(t, index.Attribute(8), r2.Attribute)
}
