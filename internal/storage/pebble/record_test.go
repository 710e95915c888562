package pebblestore

import "testing"

func TestRecordRoundtrip(t *testing.T) {
	rec := EncodeRecord([]byte("h"), []byte("payload"))
	dec, ok := DecodeRecord(rec)
	if !ok {
		t.Fatalf("decode failed")
	}
	if string(dec.Header) != "h" || string(dec.Payload) != "payload" {
		t.Fatalf("mismatch: %q %q", dec.Header, dec.Payload)
	}
}

func TestRecordEmptyParts(t *testing.T) {
	dec, ok := DecodeRecord(EncodeRecord(nil, nil))
	if !ok || len(dec.Header) != 0 || len(dec.Payload) != 0 {
		t.Fatalf("empty record: %v %+v", ok, dec)
	}
}

func TestRecordCorruption(t *testing.T) {
	rec := EncodeRecord([]byte("x"), []byte("y"))
	bad := append([]byte(nil), rec...)
	bad[len(bad)-1] ^= 0xFF
	if _, ok := DecodeRecord(bad); ok {
		t.Fatalf("expected crc failure")
	}
	if _, ok := DecodeRecord(rec[:3]); ok {
		t.Fatalf("expected truncation failure")
	}
	huge := append([]byte{0xff, 0xff, 0xff, 0x7f}, rec...)
	if _, ok := DecodeRecord(huge); ok {
		t.Fatalf("expected header length failure")
	}
}
