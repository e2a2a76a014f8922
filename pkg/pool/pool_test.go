package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// buffer тестовый объект с методом Reset.
type buffer struct {
	Owner string
	Lines []string
	Sent  bool
}

func (b *buffer) Reset() {
	b.Owner = ""
	b.Lines = b.Lines[:0]
	b.Sent = false
}

func newBuffer() *buffer {
	return &buffer{Lines: make([]string, 0, 8)}
}

func TestPool_Get(t *testing.T) {
	p := New(newBuffer)

	b := p.Get()
	require.NotNil(t, b)
	require.NotNil(t, b.Lines)
}

func TestPool_PutResets(t *testing.T) {
	p := New(newBuffer)

	b := p.Get()
	b.Owner = "rig-01"
	b.Lines = append(b.Lines, "a", "b")
	b.Sent = true

	p.Put(b)

	// Put сбрасывает объект независимо от того, вернёт ли его Get.
	require.Empty(t, b.Owner)
	require.Empty(t, b.Lines)
	require.Equal(t, 8, cap(b.Lines))
	require.False(t, b.Sent)

	got := p.Get()
	require.Empty(t, got.Owner)
	require.Empty(t, got.Lines)
}

func TestPool_Concurrent(t *testing.T) {
	p := New(newBuffer)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := p.Get()
			b.Owner = "worker"
			b.Lines = append(b.Lines, "x")
			p.Put(b)
		}()
	}
	wg.Wait()

	require.Empty(t, p.Get().Owner)
}

func BenchmarkPool_GetPut(b *testing.B) {
	p := New(newBuffer)
	for i := 0; i < b.N; i++ {
		buf := p.Get()
		buf.Lines = append(buf.Lines, "a", "b", "c")
		p.Put(buf)
	}
}
