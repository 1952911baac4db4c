package persistence

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-browserstore/kvstore"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPersister struct {
	*Filesystem
}

func (f failingPersister) Write(key string, data *kvstore.ValueItem) error {
	return errors.New("disk full")
}

func TestBuffer_NilPersistence(t *testing.T) {
	_, err := NewBuffer(nil, 10)
	assert.Error(t, err)
}

func TestBuffer_Crud(t *testing.T) {
	p, _ := newTestFilesystem(t, "test_buffer_crud")
	buf, err := NewBuffer(p, 10)
	require.NoError(t, err)
	defer buf.Close()

	require.NoError(t, buf.Write("todos-1", kvstore.NewValueItem([]byte("a"), time.Now())))

	mv, err := buf.Read("todos-1", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), mv.Data)

	keys, err := buf.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"todos-1"}, keys)

	require.NoError(t, buf.Delete("todos-1"))
	_, err = buf.Read("todos-1", true)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestBuffer_PropagatesWriteErrors(t *testing.T) {
	p, _ := newTestFilesystem(t, "test_buffer_errors")
	buf, err := NewBuffer(failingPersister{p}, 10)
	require.NoError(t, err)
	defer buf.Close()

	err = buf.Write("todos-1", kvstore.NewValueItem([]byte("a"), time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBuffer_ClosedBufferFails(t *testing.T) {
	p, _ := newTestFilesystem(t, "test_buffer_closed")
	buf, err := NewBuffer(p, 10)
	require.NoError(t, err)
	buf.Close()
	buf.Close()

	assert.ErrorIs(t, buf.Write("k", kvstore.NewValueItem([]byte("a"), time.Now())), ErrBufferClosed)
	_, err = buf.Keys()
	assert.ErrorIs(t, err, ErrBufferClosed)
}

func TestBuffer_ConcurrentWritersAreSerialised(t *testing.T) {
	p, _ := newTestFilesystem(t, "test_buffer_threaded")
	buf, err := NewBuffer(p, 10)
	require.NoError(t, err)
	defer buf.Close()

	const nRoutines = 50
	var wg sync.WaitGroup
	wg.Add(nRoutines)
	for i := 0; i < nRoutines; i++ {
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("Key-%d", n)
			assert.NoError(t, buf.Write(key, kvstore.NewValueItem([]byte(key), time.Now())))
		}(i)
	}
	wg.Wait()

	keys, err := buf.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, nRoutines)
}
