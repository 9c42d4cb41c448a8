package resource

import "testing"

type countingReleaser struct {
	released int
}

func (c *countingReleaser) Release() { c.released++ }

func TestOwnedResetReleasesPrevious(t *testing.T) {
	first := &countingReleaser{}
	second := &countingReleaser{}

	o := Own[*countingReleaser](first)
	o.Reset(second)

	if first.released != 1 {
		t.Errorf("first released %d times, want 1", first.released)
	}
	if o.Get() != second {
		t.Error("Get should return the replacement")
	}
}

func TestOwnedReleaseIdempotent(t *testing.T) {
	r := &countingReleaser{}
	o := Own[*countingReleaser](r)
	o.Release()
	o.Release()

	if r.released != 1 {
		t.Errorf("released %d times, want 1", r.released)
	}
	if o.Valid() {
		t.Error("wrapper should be empty after Release")
	}
	if o.Get() != nil {
		t.Error("Get should return nil after Release")
	}
}

func TestZeroOwnedRelease(t *testing.T) {
	var o Owned[*countingReleaser]
	o.Release()
	if o.Valid() {
		t.Error("zero value should not be valid")
	}
}

func TestTextureByteSize(t *testing.T) {
	d := TextureDescriptor{Width: 16, Height: 16, Layers: 2, Format: TextureFormatRGBA16Float}
	if got := d.ByteSize(); got != 16*16*2*8 {
		t.Errorf("ByteSize() = %d, want %d", got, 16*16*2*8)
	}
}
