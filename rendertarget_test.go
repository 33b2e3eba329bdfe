package flowscene

import "testing"

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{64, 64},
		{65, 128},
		{1000, 1024},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPoolKeyDistinct(t *testing.T) {
	if poolKey(64, 128) == poolKey(128, 64) {
		t.Error("poolKey must distinguish width from height")
	}
}

func TestPoolReleaseNil(t *testing.T) {
	var p renderTexturePool
	p.Release(nil)
	if p.live != 0 {
		t.Errorf("live = %d", p.live)
	}
	p.Drop()
}

// pooled counts the images waiting in p's buckets.
func pooled(p *renderTexturePool) int {
	n := 0
	for _, stack := range p.buckets {
		n += len(stack)
	}
	return n
}

func TestPoolAcquireReleaseReuse(t *testing.T) {
	var p renderTexturePool
	a := p.Acquire(30, 20)
	if b := a.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("bounds = %v, want 32x32", b)
	}
	a.Fill(ColorWhite.RGBA())
	if p.live != 1 {
		t.Errorf("live = %d, want 1", p.live)
	}

	p.Release(a)
	if p.live != 0 || pooled(&p) != 1 {
		t.Errorf("after Release: live = %d, pooled = %d", p.live, pooled(&p))
	}

	b := p.Acquire(17, 31)
	if b != a {
		t.Error("same power-of-two size should reuse the released image")
	}
	c := p.Acquire(32, 32)
	if c == a {
		t.Error("an acquired image was handed out twice")
	}
	if p.live != 2 || pooled(&p) != 0 {
		t.Errorf("live = %d, pooled = %d; want 2, 0", p.live, pooled(&p))
	}

	d := p.Acquire(64, 32)
	if d == a || d == c {
		t.Error("different size should not share a bucket")
	}
	p.Release(b)
	p.Release(c)
	p.Release(d)
	if pooled(&p) != 3 {
		t.Errorf("pooled = %d, want 3", pooled(&p))
	}
	p.Drop()
	if pooled(&p) != 0 {
		t.Errorf("pooled after Drop = %d", pooled(&p))
	}
}

func TestPoolDropThenAcquire(t *testing.T) {
	var p renderTexturePool
	img := p.Acquire(8, 8)
	p.Release(img)
	p.Drop()
	if next := p.Acquire(8, 8); next == img {
		t.Error("dropped image handed out again")
	}
}
