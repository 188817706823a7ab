package types

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/blockfile/common"
	"github.com/ledgerwatch/blockfile/rlp"
)

func testHeader() *Header {
	h := &Header{
		ParentHash:  common.HexToHash("0x8b0a54d569b15f4a1466e321eb8c8b401872ed90a151a5f1a2e6a9305fa42d93"),
		UncleHash:   common.HexToHash("0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347"),
		Coinbase:    common.HexToAddress("0xb0e5863d0ddf7e105e409fee0ecc0123a362e14b"),
		Root:        common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"),
		TxHash:      common.HexToHash("0x7a763338cf8a4d00d0572eeff4b8ae16cbd0e5923b5d693a9632a4d87a7cabfd"),
		ReceiptHash: common.HexToHash("0x056b23fbba480696b65fe5a59b8f2148a1299103c4f57df839233af2cf4ca2d2"),
		GasLimit:    8_000_000,
		GasUsed:     21_000,
		Time:        1_625_097_600,
		Extra:       []byte("blockfile test"),
		MixDigest:   common.HexToHash("0x2c85bcbce56429100b2108254bb56906257582aeafcbd682bc9af67a9f5aee46"),
		Nonce:       EncodeNonce(0xd594e1f5a0b1a9a1),
	}
	h.Difficulty.SetUint64(131_072)
	h.Number.SetUint64(42)
	h.Bloom[0] = 0xca
	h.Bloom[255] = 0xfe
	return h
}

func testTransaction(nonce uint64) *Transaction {
	to := common.HexToAddress("0x61815b13908d1bbda8d847b531b33bcbbc7cfe2a")
	txn := &Transaction{
		Data: TxLegacy{
			AccountNonce: nonce,
			GasLimit:     21_000,
			To:           &to,
			Input:        []byte{0x01, 0x02, 0x03},
		},
		Meta: TxMeta{
			Timestamp: 1_625_097_600,
			Rest:      []byte{0xff},
		},
		Hash: common.HexToHash("0x3f07bba9b833c05b108b8b4ad097f18bd1b55b7b7b3d4c8a64b7b3b0e57e0b81"),
		Size: 110,
		From: common.HexToAddress("0xcec62dbb7a4a8c45bff5ba22a0cb2d954a35e994"),
	}
	txn.Data.GasPrice.SetUint64(1_000_000_000)
	txn.Data.Value.SetUint64(1)
	txn.Data.V.SetUint64(27)
	txn.Data.R.SetUint64(0xdead)
	txn.Data.S.SetUint64(0xbeef)
	txn.Meta.BlockNumber.SetUint64(42)
	txn.Meta.MessageSender = txn.From
	return txn
}

// parseItem decodes exactly one item from payload, requiring that the whole
// buffer is consumed.
func parseItem(t *testing.T, payload []byte) rlp.Item {
	t.Helper()
	it, pos, err := rlp.Parse(payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), pos)
	return it
}

// encList wraps already-encoded children into one list item.
func encList(fields ...[]byte) []byte {
	payload := bytes.Join(fields, nil)
	out := make([]byte, rlp.ListPrefixLen(len(payload))+len(payload))
	n := rlp.EncodeListPrefix(len(payload), out)
	copy(out[n:], payload)
	return out
}

func encStr(s []byte) []byte {
	out := make([]byte, rlp.StringLen(s))
	rlp.EncodeString(s, out)
	return out
}

func encU64(v uint64) []byte {
	out := make([]byte, rlp.U64Len(v))
	rlp.EncodeU64(v, out)
	return out
}

// headerFields returns the 15 mandatory header fields, each individually encoded.
func headerFields(h *Header) [][]byte {
	return [][]byte{
		encStr(h.ParentHash[:]),
		encStr(h.UncleHash[:]),
		encStr(h.Coinbase[:]),
		encStr(h.Root[:]),
		encStr(h.TxHash[:]),
		encStr(h.ReceiptHash[:]),
		encStr(h.Bloom[:]),
		encStr(h.Difficulty.Bytes()),
		encStr(h.Number.Bytes()),
		encU64(h.GasLimit),
		encU64(h.GasUsed),
		encU64(h.Time),
		encStr(h.Extra),
		encStr(h.MixDigest[:]),
		encStr(h.Nonce[:]),
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	require := require.New(t)

	h := testHeader()
	decoded, err := DecodeHeader(parseItem(t, EncodeHeader(h)), rlp.TrailingStrict)
	require.NoError(err)
	require.Equal(h, decoded)

	// trailing base fee present
	h.BaseFee = uint256.NewInt(7_000_000_000)
	decoded, err = DecodeHeader(parseItem(t, EncodeHeader(h)), rlp.TrailingStrict)
	require.NoError(err)
	require.Equal(h, decoded)
}

func TestHeaderFieldCount(t *testing.T) {
	require := require.New(t)

	fields := headerFields(testHeader())
	for _, got := range []int{13, 14} {
		_, err := DecodeHeader(parseItem(t, encList(fields[:got]...)), rlp.TrailingStrict)
		var fieldCount *rlp.FieldCountError
		require.ErrorAs(err, &fieldCount)
		require.Equal("Header", fieldCount.Type)
		require.Equal(15, fieldCount.Expected)
		require.Equal(got, fieldCount.Got)
	}
}

func TestHeaderCoinbaseSize(t *testing.T) {
	for _, size := range []int{19, 21} {
		fields := headerFields(testHeader())
		fields[2] = encStr(make([]byte, size))
		_, err := DecodeHeader(parseItem(t, encList(fields...)), rlp.TrailingStrict)
		var fixedSize *rlp.FixedSizeError
		require.ErrorAs(t, err, &fixedSize)
		require.Equal(t, "coinbase", fixedSize.Field)
		require.Equal(t, 20, fixedSize.Expected)
		require.Equal(t, size, fixedSize.Got)
	}
}

func TestHeaderExtraDataTooLong(t *testing.T) {
	require := require.New(t)

	h := testHeader()
	h.Extra = make([]byte, 33)
	_, err := DecodeHeader(parseItem(t, EncodeHeader(h)), rlp.TrailingStrict)
	var validation *ValidationError
	require.ErrorAs(err, &validation)
	require.Equal("extra_data", validation.Field)

	h.Extra = make([]byte, 32)
	_, err = DecodeHeader(parseItem(t, EncodeHeader(h)), rlp.TrailingStrict)
	require.NoError(err)
}

func TestHeaderNonCanonicalInteger(t *testing.T) {
	fields := headerFields(testHeader())
	fields[9] = encStr([]byte{0x00, 0x05}) // gas_limit with a leading zero
	_, err := DecodeHeader(parseItem(t, encList(fields...)), rlp.TrailingStrict)
	require.ErrorIs(t, err, rlp.ErrNonCanonicalInt)
}

func TestTransactionRoundTrip(t *testing.T) {
	require := require.New(t)

	txn := testTransaction(7)
	decoded, err := DecodeTransaction(parseItem(t, EncodeTransaction(txn)), rlp.TrailingStrict)
	require.NoError(err)
	require.Equal(txn, decoded)
	require.False(decoded.Data.IsContractCreation())

	// contract creation: empty to field
	txn.Data.To = nil
	decoded, err = DecodeTransaction(parseItem(t, EncodeTransaction(txn)), rlp.TrailingStrict)
	require.NoError(err)
	require.Nil(decoded.Data.To)
	require.True(decoded.Data.IsContractCreation())
}

func TestTransactionToWrongSize(t *testing.T) {
	require := require.New(t)

	txn := testTransaction(7)
	// a 19-byte recipient in an otherwise well-formed legacy payload
	fields := [][]byte{
		encU64(txn.Data.AccountNonce),
		encStr(txn.Data.GasPrice.Bytes()),
		encU64(txn.Data.GasLimit),
		encStr(make([]byte, 19)),
		encStr(txn.Data.Value.Bytes()),
		encStr(txn.Data.Input),
		encStr(txn.Data.V.Bytes()),
		encStr(txn.Data.R.Bytes()),
		encStr(txn.Data.S.Bytes()),
	}
	var legacy TxLegacy
	err := rlp.Map(txLegacySchema, parseItem(t, encList(fields...)), rlp.TrailingStrict, &legacy)
	var fixedSize *rlp.FixedSizeError
	require.ErrorAs(err, &fixedSize)
	require.Equal("to", fixedSize.Field)
	require.Equal(20, fixedSize.Expected)
	require.Equal(19, fixedSize.Got)
}

func TestBlockRoundTrip(t *testing.T) {
	require := require.New(t)

	uncle := testHeader()
	uncle.Number.SetUint64(41)
	b := NewBlock(testHeader(), []*Transaction{testTransaction(1), testTransaction(2)}, []*Header{uncle}, nil)

	decoded, err := DecodeBlock(parseItem(t, EncodeBlock(b)), rlp.TrailingStrict)
	require.NoError(err)
	require.Equal(b, decoded)
	require.Len(decoded.Transactions(), 2)
	require.Len(decoded.Uncles(), 1)
	require.Nil(decoded.Withdrawals())
	require.Equal(uint64(42), decoded.NumberU64())

	// empty body
	empty := NewBlock(testHeader(), nil, nil, nil)
	decoded, err = DecodeBlock(parseItem(t, EncodeBlock(empty)), rlp.TrailingStrict)
	require.NoError(err)
	require.Equal(empty, decoded)
}

func TestBlockWithdrawalsTrailing(t *testing.T) {
	require := require.New(t)

	w := &Withdrawal{Index: 3, Validator: 9, Address: common.HexToAddress("0x61815b13908d1bbda8d847b531b33bcbbc7cfe2a"), Amount: 12_000_000}
	b := NewBlock(testHeader(), nil, nil, []*Withdrawal{w})

	decoded, err := DecodeBlock(parseItem(t, EncodeBlock(b)), rlp.TrailingStrict)
	require.NoError(err)
	require.Equal(b, decoded)
	require.Len(decoded.Withdrawals(), 1)
	require.Equal(w, decoded.Withdrawals()[0])
}

func TestBlockUnknownTrailingChild(t *testing.T) {
	require := require.New(t)

	w := &Withdrawal{Index: 1}
	wEncoded := make([]byte, rlp.ListPrefixLen(w.payloadSize())+w.payloadSize())
	w.encodeTo(wEncoded)

	// one unknown child grafted past the declared trailing set
	withExtra := encList(
		EncodeHeader(testHeader()),
		encList(), // transactions
		encList(), // uncles
		encList(wEncoded),
		encStr([]byte{0x01}), // unknown extension
	)

	_, err := DecodeBlock(parseItem(t, withExtra), rlp.TrailingStrict)
	var fieldCount *rlp.FieldCountError
	require.ErrorAs(err, &fieldCount)
	require.Equal("Block", fieldCount.Type)

	decoded, err := DecodeBlock(parseItem(t, withExtra), rlp.TrailingTolerant)
	require.NoError(err)
	require.Len(decoded.Withdrawals(), 1)
}

func TestBlockRejectsStringBody(t *testing.T) {
	_, err := DecodeBlock(parseItem(t, encStr([]byte("not a block"))), rlp.TrailingStrict)
	require.ErrorIs(t, err, rlp.ErrUnexpectedKind)
}
