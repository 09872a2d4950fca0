package fixed

import (
	"testing"
)

func assertRingBufferEqual(t *testing.T, rb *RingBuffer, expected []float64, msg string) {
	t.Helper()
	if rb.Size() != len(expected) {
		t.Errorf("%s: size mismatch - got %d, want %d", msg, rb.Size(), len(expected))
		return
	}

	for i, exp := range expected {
		got := rb.Get(i)
		want := FromFloat64(exp)
		if !got.Eq(want) {
			t.Errorf("%s: at index %d - got %v, want %v", msg, i, got, want)
		}
	}
}

func TestFixedRingBuffer_NewRingBuffer(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		wantPanic bool
	}{
		{
			name:      "positive capacity",
			capacity:  10,
			wantPanic: false,
		},
		{
			name:      "capacity of 1",
			capacity:  1,
			wantPanic: false,
		},
		{
			name:      "zero capacity",
			capacity:  0,
			wantPanic: true,
		},
		{
			name:      "negative capacity",
			capacity:  -5,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("expected panic for capacity %d", tt.capacity)
					}
				}()
			}

			rb := NewRingBuffer(tt.capacity)

			if !tt.wantPanic && rb.Size() != 0 {
				t.Errorf("initial size: got %d, want 0", rb.Size())
			}
		})
	}
}

func TestFixedRingBuffer_Add(t *testing.T) {
	rb := NewRingBuffer(3)

	rb.Add(FromFloat64(1.0))
	assertRingBufferEqual(t, rb, []float64{1.0}, "after first add")

	rb.Add(FromFloat64(2.0))
	assertRingBufferEqual(t, rb, []float64{2.0, 1.0}, "after second add")

	rb.Add(FromFloat64(3.0))
	assertRingBufferEqual(t, rb, []float64{3.0, 2.0, 1.0}, "after third add")

	rb.Add(FromFloat64(4.0))
	assertRingBufferEqual(t, rb, []float64{4.0, 3.0, 2.0}, "after wraparound")

	rb.Add(FromFloat64(5.0))
	assertRingBufferEqual(t, rb, []float64{5.0, 4.0, 3.0}, "after second wraparound")
}

func TestFixedRingBuffer_Get(t *testing.T) {
	rb := NewRingBuffer(5)

	t.Run("empty buffer panic", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic when getting from empty buffer")
			}
		}()
		rb.Get(0)
	})

	values := []float64{10.0, 20.0, 30.0, 40.0, 50.0}
	for _, v := range values {
		rb.Add(FromFloat64(v))
	}

	tests := []struct {
		idx      int
		expected float64
	}{
		{0, 50.0},
		{1, 40.0},
		{2, 30.0},
		{3, 20.0},
		{4, 10.0},
	}

	for _, tt := range tests {
		t.Run("valid index", func(t *testing.T) {
			got := rb.Get(tt.idx)
			want := FromFloat64(tt.expected)
			if !got.Eq(want) {
				t.Errorf("Get(%d): got %v, want %v", tt.idx, got, want)
			}
		})
	}

	invalidIndices := []int{-1, 5, 100}
	for _, idx := range invalidIndices {
		t.Run("invalid index panic", func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for index %d", idx)
				}
			}()
			rb.Get(idx)
		})
	}
}

func TestFixedRingBuffer_ToSliceFifo(t *testing.T) {
	rb := NewRingBuffer(3)

	if data := rb.ToSliceFifo(); data != nil {
		t.Error("ToSliceFifo() should return nil for empty buffer")
	}

	rb.Add(FromFloat64(1.0))
	rb.Add(FromFloat64(2.0))
	rb.Add(FromFloat64(3.0))

	data := rb.ToSliceFifo()
	expected := []float64{1.0, 2.0, 3.0}
	for i, v := range expected {
		if !data[i].Eq(FromFloat64(v)) {
			t.Errorf("ToSliceFifo()[%d]: got %v, want %v", i, data[i], v)
		}
	}

	rb.Add(FromFloat64(4.0))
	data = rb.ToSliceFifo()
	expected = []float64{2.0, 3.0, 4.0}
	for i, v := range expected {
		if !data[i].Eq(FromFloat64(v)) {
			t.Errorf("ToSliceFifo() after wraparound[%d]: got %v, want %v", i, data[i], v)
		}
	}
}

func TestFixedRingBuffer_EdgeCases(t *testing.T) {
	t.Run("single capacity buffer", func(t *testing.T) {
		rb := NewRingBuffer(1)

		rb.Add(FromFloat64(1.0))
		if rb.Size() != 1 {
			t.Error("Size should be 1 after one add")
		}

		rb.Add(FromFloat64(2.0))
		if !rb.Get(0).Eq(FromFloat64(2.0)) {
			t.Error("Single capacity buffer should only keep latest")
		}

		if rb.Size() != 1 {
			t.Error("Size should remain 1")
		}
	})

	t.Run("large wraparound", func(t *testing.T) {
		rb := NewRingBuffer(3)

		for i := 1; i <= 10; i++ {
			rb.Add(FromFloat64(float64(i)))
		}

		expected := []float64{10.0, 9.0, 8.0}
		for i, v := range expected {
			if !rb.Get(i).Eq(FromFloat64(v)) {
				t.Errorf("After multiple wraps[%d]: got %v, want %v", i, rb.Get(i), v)
			}
		}
	})
}

func BenchmarkFixedRingBuffer_Add(b *testing.B) {
	rb := NewRingBuffer(100)
	point := FromFloat64(3.14159)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb.Add(point)
	}
}

func BenchmarkFixedRingBuffer_Get(b *testing.B) {
	rb := NewRingBuffer(100)
	for i := 0; i < 100; i++ {
		rb.Add(FromFloat64(float64(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rb.Get(i % 100)
	}
}

func BenchmarkFixedRingBuffer_ToSliceFifo(b *testing.B) {
	rb := NewRingBuffer(100)
	for i := 0; i < 100; i++ {
		rb.Add(FromFloat64(float64(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rb.ToSliceFifo()
	}
}
