package persistence

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-browserstore/kvstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrBufferClosed is returned by every Buffer operation issued after Close.
var ErrBufferClosed = errors.New("persistence buffer closed")

type commandType int

const (
	writeCommand commandType = iota + 1
	deleteCommand
	readMetadataCommand
	readValueCommand
	keysCommand
)

type responseType struct {
	mv   *kvstore.ValueItem
	keys []string
	err  error
}

type commandBuffer struct {
	cmdType  commandType
	key      string
	mv       *kvstore.ValueItem
	response chan responseType
}

// Buffer turns a DataPersister into an asynchronous driver: every command is queued and
// executed in order by a single goroutine, and the caller waits for its response.
type Buffer struct {
	persistence kvstore.DataPersister
	cb          chan commandBuffer
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewBuffer creates a new Buffer.
func NewBuffer(persistence kvstore.DataPersister, bufferSize uint) (*Buffer, error) {
	if persistence == nil {
		return nil, errors.New("persistence cannot be nil")
	}
	ctx, cancelFunc := context.WithCancel(context.Background())
	buffer := &Buffer{
		cb:          make(chan commandBuffer, bufferSize),
		ctx:         ctx,
		cancel:      cancelFunc,
		persistence: persistence,
	}
	buffer.wg.Add(1)
	go buffer.commandBuffer()
	return buffer, nil
}

// Close stops the background command processing and closes the persister.
func (b *Buffer) Close() {
	b.closeOnce.Do(func() {
		b.cancel()
		b.wg.Wait()
		b.persistence.Close()
	})
}

// Write queues a write command and waits for it to be applied.
func (b *Buffer) Write(key string, data *kvstore.ValueItem) error {
	r := b.submit(commandBuffer{cmdType: writeCommand, key: key, mv: data})
	if r.err != nil {
		return errors.Wrap(r.err, "Buffer.Write")
	}
	return nil
}

// Read queues a read command and waits for a response.
func (b *Buffer) Read(key string, readValue bool) (*kvstore.ValueItem, error) {
	cmd := readMetadataCommand
	if readValue {
		cmd = readValueCommand
	}

	r := b.submit(commandBuffer{cmdType: cmd, key: key})
	if r.err != nil {
		return nil, errors.Wrap(r.err, "Buffer.Read")
	}
	return r.mv, nil
}

// Delete queues a delete command and waits for it to be applied.
func (b *Buffer) Delete(key string) error {
	r := b.submit(commandBuffer{cmdType: deleteCommand, key: key})
	if r.err != nil {
		return errors.Wrap(r.err, "Buffer.Delete")
	}
	return nil
}

// Keys queues a key listing behind any pending writes.
func (b *Buffer) Keys() ([]string, error) {
	r := b.submit(commandBuffer{cmdType: keysCommand})
	if r.err != nil {
		return nil, errors.Wrap(r.err, "Buffer.Keys")
	}
	return r.keys, nil
}

func (b *Buffer) submit(command commandBuffer) responseType {
	command.response = make(chan responseType, 1)
	select {
	case b.cb <- command:
	case <-b.ctx.Done():
		return responseType{err: ErrBufferClosed}
	}
	select {
	case r := <-command.response:
		return r
	case <-b.ctx.Done():
		return responseType{err: ErrBufferClosed}
	}
}

// commandBuffer processes commands.
func (b *Buffer) commandBuffer() {
	defer b.wg.Done()
	for {
		select {
		case command := <-b.cb:
			b.processCommand(command)
		case <-b.ctx.Done():
			log.Debug().Msg("Buffer.commandBuffer cancelled")
			return
		}
	}
}

// processCommand processes an individual command.
func (b *Buffer) processCommand(command commandBuffer) {
	var r responseType
	switch command.cmdType {
	case writeCommand:
		r.err = b.persistence.Write(command.key, command.mv)
	case deleteCommand:
		r.err = b.persistence.Delete(command.key)
	case readMetadataCommand:
		r.mv, r.err = b.persistence.Read(command.key, false)
	case readValueCommand:
		r.mv, r.err = b.persistence.Read(command.key, true)
	case keysCommand:
		r.keys, r.err = b.persistence.Keys()
	}

	if r.err != nil && !errors.Is(r.err, kvstore.ErrNotFound) {
		log.Error().Msgf("Buffer.processCommand command: %d error: %s", command.cmdType, r.err.Error())
	}
	command.response <- r
}
