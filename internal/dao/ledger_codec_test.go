package dao

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRevisions() []revision.Revision[string] {
	return []revision.Revision[string]{
		{ID: 1, Patch: "@@ -1 +1,2 @@\n A\n+B\n", CreatedAt: 1704873600000, Author: "alice"},
	}
}

func TestLedgerCodec_PlainGolden(t *testing.T) {
	codec := MustLedgerCodec(false)
	defer codec.Close()

	encoded, err := codec.Encode(sampleRevisions())
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "ledger_plain", []byte(encoded))
}

func TestLedgerCodec_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		codec := MustLedgerCodec(compress)
		revs := append(sampleRevisions(), revision.Revision[string]{ID: 2, Patch: "@@ -1,2 +1,3 @@\n AB\n+C\n", CreatedAt: 1704873601000, Author: "bob"})

		encoded, err := codec.Encode(revs)
		require.NoError(t, err)
		assert.Equal(t, compress, strings.HasPrefix(encoded, zstdPrefix))

		decoded, err := codec.Decode(encoded)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(revs, decoded))
		codec.Close()
	}
}

func TestLedgerCodec_ReadsEitherForm(t *testing.T) {
	plain := MustLedgerCodec(false)
	zipped := MustLedgerCodec(true)
	defer plain.Close()
	defer zipped.Close()

	fromPlain, err := plain.Encode(sampleRevisions())
	require.NoError(t, err)
	fromZipped, err := zipped.Encode(sampleRevisions())
	require.NoError(t, err)

	got, err := zipped.Decode(fromPlain)
	require.NoError(t, err)
	assert.Equal(t, sampleRevisions(), got)

	got, err = plain.Decode(fromZipped)
	require.NoError(t, err)
	assert.Equal(t, sampleRevisions(), got)
}

func TestLedgerCodec_Empty(t *testing.T) {
	codec := MustLedgerCodec(true)
	defer codec.Close()

	encoded, err := codec.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "", encoded)

	decoded, err := codec.Decode("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestLedgerCodec_Corrupt(t *testing.T) {
	codec := MustLedgerCodec(false)
	defer codec.Close()

	for _, in := range []string{"{not json", zstdPrefix + "!!!", zstdPrefix + "AAAA"} {
		_, err := codec.Decode(in)
		assert.Error(t, err, in)
	}
}
