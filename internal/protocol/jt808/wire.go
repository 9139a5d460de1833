package jt808

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Writer 大端字节写入器。首个错误之后的写入全部忽略，由 Err 统一返回
type Writer struct {
	buf []byte
	err error
}

func NewWriter(capacity int) *Writer { return &Writer{buf: make([]byte, 0, capacity)} }

func (w *Writer) Len() int      { return len(w.buf) }
func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Err() error    { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) PutUint8(v uint8) {
	if w.err == nil {
		w.buf = append(w.buf, v)
	}
}

func (w *Writer) PutUint16(v uint16) {
	if w.err == nil {
		w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	}
}

// SetUint16 回填已写入位置的 2 字节
func (w *Writer) SetUint16(off int, v uint16) {
	if w.err == nil {
		binary.BigEndian.PutUint16(w.buf[off:], v)
	}
}

// SetUint8 回填已写入位置的 1 字节
func (w *Writer) SetUint8(off int, v uint8) {
	if w.err == nil {
		w.buf[off] = v
	}
}

func (w *Writer) PutBytes(b []byte) {
	if w.err == nil {
		w.buf = append(w.buf, b...)
	}
}

// PutFixed 定长字段，长度不符即失败
func (w *Writer) PutFixed(field string, b []byte, n int) {
	if len(b) != n {
		w.fail(fmt.Errorf("%w: %s is %d bytes, want %d", ErrFieldLength, field, len(b), n))
		return
	}
	w.PutBytes(b)
}

// PutMax 不超过 max 字节的变长字段
func (w *Writer) PutMax(field string, b []byte, max int) {
	if len(b) > max {
		w.fail(fmt.Errorf("%w: %s is %d bytes, max %d", ErrFieldLength, field, len(b), max))
		return
	}
	w.PutBytes(b)
}

// PutPadTail 写入后在尾部补 pad 至 max 字节
func (w *Writer) PutPadTail(field string, b []byte, max int, pad byte) {
	w.PutMax(field, b, max)
	w.putRepeat(pad, max-len(b))
}

// PutPadHead 先在头部补 pad 至 max 字节再写入
func (w *Writer) PutPadHead(field string, b []byte, max int, pad byte) {
	if len(b) > max {
		w.fail(fmt.Errorf("%w: %s is %d bytes, max %d", ErrFieldLength, field, len(b), max))
		return
	}
	w.putRepeat(pad, max-len(b))
	w.PutBytes(b)
}

func (w *Writer) putRepeat(pad byte, n int) {
	for i := 0; i < n && w.err == nil; i++ {
		w.buf = append(w.buf, pad)
	}
}

// PutGBK 以 GBK 编码写入字符串，返回写入字节数
func (w *Writer) PutGBK(field, s string) int {
	b, err := encodeGBK(s)
	if err != nil {
		w.fail(fmt.Errorf("%w: %s: %v", ErrBadValue, field, err))
		return 0
	}
	w.PutBytes(b)
	return len(b)
}

// Reader 大端字节读取器，错误语义同 Writer
type Reader struct {
	b   []byte
	off int
	err error
}

func NewReader(b []byte) *Reader { return &Reader{b: b} }

// Len 剩余未读字节数
func (r *Reader) Len() int    { return len(r.b) - r.off }
func (r *Reader) Offset() int { return r.off }
func (r *Reader) Err() error  { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Len() < n {
		r.fail(fmt.Errorf("%w: %s needs %d bytes, %d left", ErrFieldLength, field, n, r.Len()))
		return nil
	}
	b := r.b[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint8(field string) uint8 {
	b := r.take(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Uint16(field string) uint16 {
	b := r.take(field, 2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// Bytes 返回底层切片的视图，调用方需要时自行拷贝
func (r *Reader) Bytes(field string, n int) []byte { return r.take(field, n) }

// ASCII 原样读取 n 字节
func (r *Reader) ASCII(field string, n int) string { return string(r.take(field, n)) }

// Trimmed 读取 n 字节并去除首尾空格与 0x00 填充
func (r *Reader) Trimmed(field string, n int) string {
	return strings.Trim(string(r.take(field, n)), " \x00")
}

// GBK 读取 n 字节 GBK 文本
func (r *Reader) GBK(field string, n int) string {
	b := r.take(field, n)
	if b == nil {
		return ""
	}
	s, err := decodeGBK(b)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrBadValue, field, err))
		return ""
	}
	return s
}

func encodeGBK(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
}

func decodeGBK(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
