package dao

import (
	"encoding/base64"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// zstdPrefix marks a compressed revisions column
const zstdPrefix = "zstd:"

// LedgerCodec encodes the revision list stored in the revisions column.
// Plain values are a JSON array; compressed values are "zstd:" followed by base64 of the zstd frame.
// Decode accepts both forms so compression can be switched on an existing database.
//
// LedgerCodec 版本列表编解码器，支持明文 JSON 与 zstd 压缩两种格式
type LedgerCodec struct {
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewLedgerCodec 创建编解码器
func NewLedgerCodec(compress bool) (*LedgerCodec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd writer")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, errors.Wrap(err, "zstd reader")
	}
	return &LedgerCodec{compress: compress, encoder: encoder, decoder: decoder}, nil
}

// MustLedgerCodec 创建编解码器，失败时 panic
func MustLedgerCodec(compress bool) *LedgerCodec {
	c, err := NewLedgerCodec(compress)
	if err != nil {
		panic(err)
	}
	return c
}

// Compressed reports whether Encode compresses
func (c *LedgerCodec) Compressed() bool {
	return c.compress
}

// Encode 编码版本列表，空列表编码为空字符串
func (c *LedgerCodec) Encode(revs []revision.Revision[string]) (string, error) {
	if len(revs) == 0 {
		return "", nil
	}
	data, err := sonic.Marshal(revs)
	if err != nil {
		return "", errors.Wrap(err, "marshal revisions")
	}
	if !c.compress {
		return string(data), nil
	}
	return zstdPrefix + base64.StdEncoding.EncodeToString(c.encoder.EncodeAll(data, nil)), nil
}

// Decode 解码版本列表
func (c *LedgerCodec) Decode(s string) ([]revision.Revision[string], error) {
	if s == "" {
		return nil, nil
	}
	data := []byte(s)
	if strings.HasPrefix(s, zstdPrefix) {
		raw, err := base64.StdEncoding.DecodeString(s[len(zstdPrefix):])
		if err != nil {
			return nil, errors.Wrap(err, "decode revisions base64")
		}
		if data, err = c.decoder.DecodeAll(raw, nil); err != nil {
			return nil, errors.Wrap(err, "decompress revisions")
		}
	}

	var revs []revision.Revision[string]
	if err := sonic.Unmarshal(data, &revs); err != nil {
		return nil, errors.Wrap(err, "unmarshal revisions")
	}
	return revs, nil
}

// Close releases the zstd decoder
func (c *LedgerCodec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
