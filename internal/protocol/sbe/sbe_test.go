package sbe

import (
	"errors"
	"testing"

	"github.com/danmuck/sbewire/internal/protocol/buffer"
	"github.com/danmuck/sbewire/internal/testutil/testlog"
)

// Price increment layout: compId u32 @0, instrumentId u32 @4, then groups
// bids and offers of price level increments (29 bytes): a 28-byte price level
// composite (id u32 @0, price f64 @4, leavesQty f64 @12, transactTime i64 @20)
// followed by updateAction u8 @28.
const (
	incrementBlock   = 8
	incrementElement = 29
	priceLevelLength = 28
)

var incrementHeader = Header{BlockLength: incrementBlock, TemplateID: 2, SchemaID: 1, Version: 0}

type level struct {
	id     uint32
	price  float64
	qty    float64
	ts     int64
	action uint8
}

func writeLevel[P EncodeFrame](t *testing.T, g *GroupEncoder[P], l level) {
	t.Helper()
	el, err := g.Element()
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	pl, err := NestEncoder(el, 0, priceLevelLength)
	if err != nil {
		t.Fatalf("nest price level: %v", err)
	}
	if err := pl.PutUint32(0, l.id); err != nil {
		t.Fatalf("put id: %v", err)
	}
	if err := pl.PutFloat64(4, l.price); err != nil {
		t.Fatalf("put price: %v", err)
	}
	if err := pl.PutFloat64(12, l.qty); err != nil {
		t.Fatalf("put qty: %v", err)
	}
	if err := pl.PutInt64(20, l.ts); err != nil {
		t.Fatalf("put ts: %v", err)
	}
	el, err = pl.Parent()
	if err != nil {
		t.Fatalf("price level parent: %v", err)
	}
	if err := el.PutUint8(28, l.action); err != nil {
		t.Fatalf("put action: %v", err)
	}
	if _, err := el.Parent(); err != nil {
		t.Fatalf("element parent: %v", err)
	}
}

func readLevel[P DecodeFrame](t *testing.T, g *GroupDecoder[P]) level {
	t.Helper()
	el, err := g.Element()
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	pl, err := NestDecoder(el, 0, priceLevelLength)
	if err != nil {
		t.Fatalf("nest price level: %v", err)
	}
	var l level
	if l.id, err = pl.Uint32(0); err != nil {
		t.Fatalf("id: %v", err)
	}
	if l.price, err = pl.Float64(4); err != nil {
		t.Fatalf("price: %v", err)
	}
	if l.qty, err = pl.Float64(12); err != nil {
		t.Fatalf("qty: %v", err)
	}
	if l.ts, err = pl.Int64(20); err != nil {
		t.Fatalf("ts: %v", err)
	}
	if el, err = pl.Parent(); err != nil {
		t.Fatalf("price level parent: %v", err)
	}
	if l.action, err = el.Uint8(28); err != nil {
		t.Fatalf("action: %v", err)
	}
	if _, err := el.Parent(); err != nil {
		t.Fatalf("element parent: %v", err)
	}
	return l
}

func encodeLevels(t *testing.T, enc *Encoder, levels []level) *Encoder {
	t.Helper()
	g, err := OpenGroupEncoder(enc, incrementElement, uint8(len(levels)))
	if err != nil {
		t.Fatalf("open group: %v", err)
	}
	for i, l := range levels {
		idx, ok, err := g.Advance()
		if err != nil || !ok || idx != i {
			t.Fatalf("advance %d: idx=%d ok=%v err=%v", i, idx, ok, err)
		}
		writeLevel(t, g, l)
	}
	if _, ok, err := g.Advance(); ok || err != nil {
		t.Fatalf("expected end of sequence, ok=%v err=%v", ok, err)
	}
	parent, err := g.Parent()
	if err != nil {
		t.Fatalf("group parent: %v", err)
	}
	return parent
}

func decodeLevels(t *testing.T, dec *Decoder) (*Decoder, []level) {
	t.Helper()
	g, err := OpenGroupDecoder(dec, incrementElement)
	if err != nil {
		t.Fatalf("open group: %v", err)
	}
	var out []level
	for {
		_, ok, err := g.Advance()
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, readLevel(t, g))
	}
	parent, err := g.Parent()
	if err != nil {
		t.Fatalf("group parent: %v", err)
	}
	return parent, out
}

func encodeIncrement(t *testing.T, buf []byte, bids, offers []level) *Encoder {
	t.Helper()
	enc, err := WrapEncoder(buf, 0, incrementHeader)
	if err != nil {
		t.Fatalf("wrap encoder: %v", err)
	}
	if err := enc.PutUint32(0, 7); err != nil {
		t.Fatalf("put compId: %v", err)
	}
	if err := enc.PutUint32(4, 42); err != nil {
		t.Fatalf("put instrumentId: %v", err)
	}
	enc = encodeLevels(t, enc, bids)
	return encodeLevels(t, enc, offers)
}

func TestPriceIncrementRoundTrip(t *testing.T) {
	testlog.Start(t)
	bids := []level{
		{id: 1, price: 100.25, qty: 10, ts: 1700000000001, action: 'N'},
		{id: 2, price: 100.00, qty: 5.5, ts: 1700000000002, action: 'U'},
	}
	offers := []level{
		{id: 3, price: 100.50, qty: 1, ts: 1700000000003, action: 'N'},
		{id: 4, price: 100.75, qty: 2, ts: 1700000000004, action: 'D'},
		{id: 5, price: 101.00, qty: 3, ts: 1700000000005, action: 'U'},
	}
	buf := make([]byte, 512)
	enc := encodeIncrement(t, buf, bids, offers)

	wantBody := incrementBlock + (GroupHeaderLength + 2*incrementElement) + (GroupHeaderLength + 3*incrementElement)
	if enc.EncodedLength() != wantBody {
		t.Fatalf("encoded length: got=%d want=%d", enc.EncodedLength(), wantBody)
	}
	if enc.MessageLength() != HeaderLength+wantBody {
		t.Fatalf("message length: got=%d want=%d", enc.MessageLength(), HeaderLength+wantBody)
	}

	dec, h, err := WrapDecoder(buf[:enc.MessageLength()], 0, Expect{TemplateID: 2, SchemaID: 1})
	if err != nil {
		t.Fatalf("wrap decoder: %v", err)
	}
	if h != incrementHeader {
		t.Fatalf("header mismatch: got=%+v want=%+v", h, incrementHeader)
	}
	if v, _ := dec.Uint32(0); v != 7 {
		t.Fatalf("compId: %d", v)
	}
	if v, _ := dec.Uint32(4); v != 42 {
		t.Fatalf("instrumentId: %d", v)
	}
	dec, gotBids := decodeLevels(t, dec)
	dec, gotOffers := decodeLevels(t, dec)
	if len(gotBids) != 2 || len(gotOffers) != 3 {
		t.Fatalf("counts: bids=%d offers=%d", len(gotBids), len(gotOffers))
	}
	for i := range bids {
		if gotBids[i] != bids[i] {
			t.Fatalf("bid %d: got=%+v want=%+v", i, gotBids[i], bids[i])
		}
	}
	for i := range offers {
		if gotOffers[i] != offers[i] {
			t.Fatalf("offer %d: got=%+v want=%+v", i, gotOffers[i], offers[i])
		}
	}
	if dec.EncodedLength() != wantBody {
		t.Fatalf("decoded length: got=%d want=%d", dec.EncodedLength(), wantBody)
	}
}

func TestGroupAdvanceIsIdempotentAtExhaustion(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 64)
	enc := NewEncoder(buf, 0, 4)
	g, err := OpenGroupEncoder(enc, 4, 3)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if g.State() != GroupOpen {
		t.Fatalf("expected open, got %s", g.State())
	}
	for want := 0; want < 3; want++ {
		idx, ok, err := g.Advance()
		if err != nil || !ok || idx != want {
			t.Fatalf("advance: idx=%d ok=%v err=%v", idx, ok, err)
		}
		if err := g.PutUint32(0, uint32(want)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if g.State() != GroupAdvancing {
		t.Fatalf("expected advancing, got %s", g.State())
	}
	for i := 0; i < 3; i++ {
		if _, ok, err := g.Advance(); ok || err != nil {
			t.Fatalf("call %d after exhaustion: ok=%v err=%v", i, ok, err)
		}
	}
	if g.State() != GroupExhausted {
		t.Fatalf("expected exhausted, got %s", g.State())
	}
	if err := g.PutUint32(0, 1); !errors.Is(err, ErrNoElement) {
		t.Fatalf("expected ErrNoElement after exhaustion, got %v", err)
	}
	if _, err := g.Parent(); err != nil {
		t.Fatalf("parent: %v", err)
	}
	if g.State() != GroupClosed {
		t.Fatalf("expected closed, got %s", g.State())
	}
	if enc.EncodedLength() != 4+GroupHeaderLength+3*4 {
		t.Fatalf("encoded length: %d", enc.EncodedLength())
	}
}

func TestEmptyGroup(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 16)
	enc := NewEncoder(buf, 0, 0)
	g, err := OpenGroupEncoder(enc, 29, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok, err := g.Advance(); ok || err != nil {
		t.Fatalf("expected immediate end: ok=%v err=%v", ok, err)
	}
	if _, err := g.Parent(); err != nil {
		t.Fatalf("parent: %v", err)
	}
	if enc.EncodedLength() != GroupHeaderLength {
		t.Fatalf("encoded length: %d", enc.EncodedLength())
	}
	if buf[0] != 29 || buf[1] != 0 {
		t.Fatalf("dimension header: %v", buf[:2])
	}
}

func TestParentReclaimedOnlyOnce(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 64)
	enc := NewEncoder(buf, 0, 8)

	c, err := NestEncoder(enc, 0, 4)
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	p, err := c.Parent()
	if err != nil || p != enc {
		t.Fatalf("first parent: p=%p err=%v", p, err)
	}
	p, err = c.Parent()
	if !errors.Is(err, ErrParentMissing) || !IsOwnershipViolation(err) {
		t.Fatalf("expected ErrParentMissing, got %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil parent on second reclaim, got %p", p)
	}

	g, err := OpenGroupEncoder(enc, 4, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := g.Parent(); err != nil {
		t.Fatalf("group parent: %v", err)
	}
	if _, err := g.Parent(); !errors.Is(err, ErrParentMissing) {
		t.Fatalf("expected ErrParentMissing, got %v", err)
	}

	dec := NewDecoder(buf, 0, 8, 0)
	dg, err := OpenGroupDecoder(dec, 4)
	if err != nil {
		t.Fatalf("open decoder group: %v", err)
	}
	if _, err := dg.Parent(); err != nil {
		t.Fatalf("decoder group parent: %v", err)
	}
	if _, err := dg.Parent(); !errors.Is(err, ErrParentMissing) {
		t.Fatalf("expected ErrParentMissing, got %v", err)
	}
}

func TestEnclosingFrameBusyWhileChildHoldsIt(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 64)
	enc := NewEncoder(buf, 0, 8)
	g, err := OpenGroupEncoder(enc, 4, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := enc.PutUint32(0, 1); !errors.Is(err, ErrFrameBusy) || !IsOwnershipViolation(err) {
		t.Fatalf("expected ErrFrameBusy on root, got %v", err)
	}
	if _, err := OpenGroupEncoder(enc, 4, 1); !errors.Is(err, ErrFrameBusy) {
		t.Fatalf("expected ErrFrameBusy opening sibling group, got %v", err)
	}

	if _, _, err := g.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	el, err := g.Element()
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	if _, _, err := g.Advance(); !errors.Is(err, ErrFrameBusy) {
		t.Fatalf("expected ErrFrameBusy advancing while element open, got %v", err)
	}
	if _, err := g.Parent(); !errors.Is(err, ErrFrameBusy) {
		t.Fatalf("expected ErrFrameBusy reclaiming while element open, got %v", err)
	}
	if _, err := el.Parent(); err != nil {
		t.Fatalf("element parent: %v", err)
	}
	if err := el.PutUint32(0, 1); !errors.Is(err, ErrFrameReleased) {
		t.Fatalf("expected ErrFrameReleased, got %v", err)
	}
	if _, err := g.Parent(); err != nil {
		t.Fatalf("group parent: %v", err)
	}
	if err := enc.PutUint32(0, 1); err != nil {
		t.Fatalf("root usable after pop: %v", err)
	}
}

func TestEncoderGroupRefusesIncompleteClose(t *testing.T) {
	testlog.Start(t)
	enc := NewEncoder(make([]byte, 64), 0, 0)
	g, err := OpenGroupEncoder(enc, 4, 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := g.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := g.Parent(); !errors.Is(err, ErrGroupIncomplete) {
		t.Fatalf("expected ErrGroupIncomplete, got %v", err)
	}
	if _, _, err := g.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := g.Parent(); err != nil {
		t.Fatalf("parent after completing: %v", err)
	}
}

func TestGroupOfMaxCountRoundTrips(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, GroupHeaderLength+MaxGroupCount*2)
	enc := NewEncoder(buf, 0, 0)
	g, err := OpenGroupEncoder(enc, 2, MaxGroupCount)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for {
		i, ok, err := g.Advance()
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !ok {
			break
		}
		if err := g.PutUint16(0, uint16(i*3)); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if _, err := g.Parent(); err != nil {
		t.Fatalf("parent: %v", err)
	}
	if enc.EncodedLength() != len(buf) {
		t.Fatalf("encoded length: %d want %d", enc.EncodedLength(), len(buf))
	}

	dec := NewDecoder(buf, 0, 0, 0)
	gd, err := OpenGroupDecoder(dec, 2)
	if err != nil {
		t.Fatalf("open decoder: %v", err)
	}
	if gd.Count() != MaxGroupCount {
		t.Fatalf("count: %d", gd.Count())
	}
	seen := 0
	for {
		i, ok, err := gd.Advance()
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if !ok {
			break
		}
		v, err := gd.Uint16(0)
		if err != nil || v != uint16(i*3) {
			t.Fatalf("element %d: v=%d err=%v", i, v, err)
		}
		seen++
	}
	if seen != MaxGroupCount {
		t.Fatalf("visited %d elements", seen)
	}
	if _, err := gd.Parent(); err != nil {
		t.Fatalf("parent: %v", err)
	}
	if dec.Limit() != len(buf) {
		t.Fatalf("decoder limit: %d", dec.Limit())
	}
}

func TestDecoderEarlyStopSkipsToSibling(t *testing.T) {
	testlog.Start(t)
	bids := []level{{id: 1, price: 1}, {id: 2, price: 2}, {id: 3, price: 3}}
	offers := []level{{id: 9, price: 9, action: 'N'}}
	buf := make([]byte, 512)
	encodeIncrement(t, buf, bids, offers)

	dec, _, err := WrapDecoder(buf, 0, Expect{TemplateID: 2})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	g, err := OpenGroupDecoder(dec, incrementElement)
	if err != nil {
		t.Fatalf("open bids: %v", err)
	}
	if g.Count() != 3 {
		t.Fatalf("bid count: %d", g.Count())
	}
	if _, ok, err := g.Advance(); !ok || err != nil {
		t.Fatalf("advance: ok=%v err=%v", ok, err)
	}
	first := readLevel(t, g)
	if first.id != 1 {
		t.Fatalf("first bid id: %d", first.id)
	}
	dec, err = g.Parent()
	if err != nil {
		t.Fatalf("parent: %v", err)
	}
	dec, gotOffers := decodeLevels(t, dec)
	if len(gotOffers) != 1 || gotOffers[0] != offers[0] {
		t.Fatalf("offers after early stop: %+v", gotOffers)
	}
}

func TestWrapDecoderRejectsTemplateMismatch(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 64)
	if _, err := WrapEncoder(buf, 0, Header{BlockLength: 8, TemplateID: 7, SchemaID: 1}); err != nil {
		t.Fatalf("wrap encoder: %v", err)
	}
	_, h, err := WrapDecoder(buf, 0, Expect{TemplateID: 8})
	if !errors.Is(err, ErrTemplateMismatch) {
		t.Fatalf("expected ErrTemplateMismatch, got %v", err)
	}
	var tm *TemplateMismatchError
	if !errors.As(err, &tm) || tm.Got != 7 || tm.Want != 8 {
		t.Fatalf("unexpected mismatch detail: %+v", tm)
	}
	if h.TemplateID != 7 {
		t.Fatalf("header should be returned for diagnostics: %+v", h)
	}
	if _, _, err := WrapDecoder(buf, 0, Expect{TemplateID: 7, SchemaID: 2}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestNewerProducerVersionSkipsUnknownFields(t *testing.T) {
	testlog.Start(t)
	// A version 1 producer appended a u32 at offset 8, growing the block to 12.
	buf := make([]byte, 128)
	enc, err := WrapEncoder(buf, 0, Header{BlockLength: 12, TemplateID: 2, SchemaID: 1, Version: 1})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	_ = enc.PutUint32(0, 7)
	_ = enc.PutUint32(4, 42)
	_ = enc.PutUint32(8, 0xDEADBEEF)
	enc = encodeLevels(t, enc, []level{{id: 5, price: 50, action: 'N'}})
	enc = encodeLevels(t, enc, nil)

	dec, h, err := WrapDecoder(buf, 0, Expect{TemplateID: 2, SchemaID: 1})
	if err != nil {
		t.Fatalf("wrap decoder: %v", err)
	}
	if h.Version != 1 || dec.ActingVersion() != 1 || dec.ActingBlockLength() != 12 {
		t.Fatalf("acting values: header=%+v version=%d block=%d", h, dec.ActingVersion(), dec.ActingBlockLength())
	}
	if v, _ := dec.Uint32(4); v != 42 {
		t.Fatalf("instrumentId: %d", v)
	}
	dec, bids := decodeLevels(t, dec)
	if len(bids) != 1 || bids[0].id != 5 {
		t.Fatalf("bids: %+v", bids)
	}
	dec, offers := decodeLevels(t, dec)
	if len(offers) != 0 {
		t.Fatalf("offers: %+v", offers)
	}
	if dec.EncodedLength() != enc.EncodedLength() {
		t.Fatalf("lengths differ: dec=%d enc=%d", dec.EncodedLength(), enc.EncodedLength())
	}
}

func TestOlderProducerFieldsAreAbsent(t *testing.T) {
	testlog.Start(t)
	// A version 0 producer wrote only compId; the reader knows instrumentId at 4.
	buf := make([]byte, 64)
	enc, err := WrapEncoder(buf, 0, Header{BlockLength: 4, TemplateID: 2, SchemaID: 1})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	_ = enc.PutUint32(0, 7)

	dec, _, err := WrapDecoder(buf, 0, Expect{TemplateID: 2})
	if err != nil {
		t.Fatalf("wrap decoder: %v", err)
	}
	if v, err := dec.Uint32(0); err != nil || v != 7 {
		t.Fatalf("compId: v=%d err=%v", v, err)
	}
	if dec.Has(4, 4) {
		t.Fatalf("instrumentId should be absent")
	}
	if _, err := dec.Uint32(4); !errors.Is(err, ErrFieldAbsent) {
		t.Fatalf("expected ErrFieldAbsent, got %v", err)
	}
	c, err := NestDecoder(dec, 2, 4)
	if err != nil {
		t.Fatalf("nest: %v", err)
	}
	if c.BlockLength() != 2 {
		t.Fatalf("composite acting length: %d", c.BlockLength())
	}
	if _, err := c.Uint16(0); err != nil {
		t.Fatalf("present composite field: %v", err)
	}
	if _, err := c.Uint16(2); !errors.Is(err, ErrFieldAbsent) {
		t.Fatalf("expected ErrFieldAbsent in composite tail, got %v", err)
	}
}

func TestTruncatedBufferSurfacesBoundsError(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 512)
	enc := encodeIncrement(t, buf, []level{{id: 1}, {id: 2}}, nil)
	truncated := buf[:enc.MessageLength()-10]

	dec, _, err := WrapDecoder(truncated, 0, Expect{TemplateID: 2})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	g, err := OpenGroupDecoder(dec, incrementElement)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := g.Advance(); err != nil {
		t.Fatalf("advance 0: %v", err)
	}
	if _, err := g.Uint32(0); err != nil {
		t.Fatalf("first element readable: %v", err)
	}
	if _, _, err := g.Advance(); err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	if _, err := g.Uint8(28); !errors.Is(err, buffer.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	if _, err := PeekHeader(buf[:4], 0); !errors.Is(err, buffer.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange on short header, got %v", err)
	}
	if _, err := WrapEncoder(make([]byte, 4), 0, incrementHeader); !errors.Is(err, buffer.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange writing header, got %v", err)
	}
}

func TestFieldWritesStayInsideBlock(t *testing.T) {
	testlog.Start(t)
	enc := NewEncoder(make([]byte, 64), 0, 8)
	if err := enc.PutUint64(4, 1); !errors.Is(err, ErrFieldOutsideBlock) {
		t.Fatalf("expected ErrFieldOutsideBlock, got %v", err)
	}
	if _, err := NestEncoder(enc, 4, 8); !errors.Is(err, ErrCompositeBounds) {
		t.Fatalf("expected ErrCompositeBounds, got %v", err)
	}
	if err := enc.PutUint(0, Int32, 1); !errors.Is(err, ErrPrimitiveMismatch) {
		t.Fatalf("expected ErrPrimitiveMismatch, got %v", err)
	}
}

func TestNestedGroupInsideElement(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 128)
	enc := NewEncoder(buf, 0, 2)
	_ = enc.PutUint16(0, 0xBEEF)

	outer, err := OpenGroupEncoder(enc, 4, 2)
	if err != nil {
		t.Fatalf("open outer: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, ok, err := outer.Advance(); !ok || err != nil {
			t.Fatalf("outer advance: ok=%v err=%v", ok, err)
		}
		_ = outer.PutUint32(0, uint32(100+i))
		inner, err := OpenGroupEncoder(outer, 1, uint8(i+1))
		if err != nil {
			t.Fatalf("open inner: %v", err)
		}
		for j := 0; j <= i; j++ {
			if _, ok, err := inner.Advance(); !ok || err != nil {
				t.Fatalf("inner advance: ok=%v err=%v", ok, err)
			}
			_ = inner.PutUint8(0, uint8(10*i+j))
		}
		if _, err := inner.Parent(); err != nil {
			t.Fatalf("inner parent: %v", err)
		}
	}
	if _, err := outer.Parent(); err != nil {
		t.Fatalf("outer parent: %v", err)
	}
	// 2 + outer(2) + [4 + inner(2) + 1] + [4 + inner(2) + 2]
	if enc.EncodedLength() != 2+2+7+8 {
		t.Fatalf("encoded length: %d", enc.EncodedLength())
	}

	dec := NewDecoder(buf, 0, 2, 0)
	og, err := OpenGroupDecoder(dec, 4)
	if err != nil {
		t.Fatalf("open outer decoder: %v", err)
	}
	var got []uint8
	for {
		_, ok, err := og.Advance()
		if err != nil {
			t.Fatalf("outer advance: %v", err)
		}
		if !ok {
			break
		}
		ig, err := OpenGroupDecoder(og, 1)
		if err != nil {
			t.Fatalf("open inner decoder: %v", err)
		}
		for {
			_, ok, err := ig.Advance()
			if err != nil || !ok {
				break
			}
			v, _ := ig.Uint8(0)
			got = append(got, v)
		}
		if _, err := ig.Parent(); err != nil {
			t.Fatalf("inner parent: %v", err)
		}
	}
	if _, err := og.Parent(); err != nil {
		t.Fatalf("outer parent: %v", err)
	}
	want := []uint8{0, 10, 11}
	if len(got) != len(want) {
		t.Fatalf("inner values: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("inner values: got=%v want=%v", got, want)
		}
	}
	if dec.EncodedLength() != enc.EncodedLength() {
		t.Fatalf("decoded length %d != encoded %d", dec.EncodedLength(), enc.EncodedLength())
	}
}

func TestParsePrimitive(t *testing.T) {
	testlog.Start(t)
	cases := map[string]Primitive{"uint32": Uint32, "double": Float64, "float64": Float64, "char": Char, "i64": Int64}
	for name, want := range cases {
		got, err := ParsePrimitive(name)
		if err != nil || got != want {
			t.Fatalf("ParsePrimitive(%q): got=%s err=%v", name, got, err)
		}
	}
	if _, err := ParsePrimitive("decimal"); err == nil {
		t.Fatalf("expected error for unknown primitive")
	}
	if Float64.Width() != 8 || Char.Width() != 1 || PrimitiveInvalid.Width() != 0 {
		t.Fatalf("unexpected widths")
	}
}

func TestHeaderFieldsAreLittleEndian(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 3+HeaderLength)
	want := Header{BlockLength: 0x0102, TemplateID: 0x0304, SchemaID: 0x0506, Version: 0x0708}
	if err := EncodeHeader(buffer.NewWriteView(buf), 3, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf[3] != 0x02 || buf[4] != 0x01 || buf[9] != 0x08 || buf[10] != 0x07 {
		t.Fatalf("wire bytes: %x", buf)
	}
	got, err := DecodeHeader(buffer.NewReadView(buf), 3)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("header: got %+v want %+v", got, want)
	}
	if _, err := DecodeHeader(buffer.NewReadView(buf), 4); !errors.Is(err, buffer.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}
