package sample

import "testing"

func TestFloat32Pool_GetReturnsZeroedWidth(t *testing.T) {
	p := NewFloat32Pool(4)
	buf := p.Get()
	if len(buf) != 4 {
		t.Fatalf("len = %d, want 4", len(buf))
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestFloat32Pool_PutGetRecycles(t *testing.T) {
	p := NewFloat32Pool(3)
	buf := p.Get()
	buf[0], buf[1], buf[2] = 1, 2, 3
	p.Put(buf)

	next := p.Get()
	if len(next) != 3 {
		t.Fatalf("len = %d, want 3", len(next))
	}
	for i, v := range next {
		if v != 0 {
			t.Fatalf("recycled buf[%d] = %v, want zeroed", i, v)
		}
	}
}

func TestFloat32Pool_PutWrongWidthIgnored(t *testing.T) {
	p := NewFloat32Pool(4)
	p.Put(make([]float32, 2))

	buf := p.Get()
	if len(buf) != 4 {
		t.Fatalf("len = %d, want 4", len(buf))
	}
}
