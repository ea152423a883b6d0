package template

import (
	"context"
	"hbasekit/store"
	"hbasekit/util/logging"
)

// BufferedMutator collects mutations and sends them to the table once the buffered size reaches the write buffer
// size. It is not safe for concurrent use.
type BufferedMutator struct {
	ctx             context.Context
	table           store.Table
	writeBufferSize int64
	buffer          []*store.Mutation
	bufferedBytes   int64
	flushed         int
	logger          *logging.PrefixLogger
}

func newBufferedMutator(ctx context.Context, table store.Table, writeBufferSize int64,
	logger *logging.PrefixLogger) *BufferedMutator {
	return &BufferedMutator{
		ctx:             ctx,
		table:           table,
		writeBufferSize: writeBufferSize,
		logger:          logger,
	}
}

// Mutate buffers the mutations and flushes if the buffer is full.
func (mutator *BufferedMutator) Mutate(mutations ...*store.Mutation) error {
	for _, mutation := range mutations {
		if mutation == nil {
			return ErrNilMutation
		}
		mutator.buffer = append(mutator.buffer, mutation)
		mutator.bufferedBytes += mutation.Size()
	}
	if mutator.bufferedBytes >= mutator.writeBufferSize {
		return mutator.Flush()
	}
	return nil
}

// Flush sends the buffered mutations.
func (mutator *BufferedMutator) Flush() error {
	if len(mutator.buffer) == 0 {
		return nil
	}
	mutator.logger.VInfof(1, "Flushing %d mutations (%d bytes) to table: %s", len(mutator.buffer),
		mutator.bufferedBytes, mutator.table.Name())
	if err := mutator.table.Mutate(mutator.ctx, mutator.buffer); err != nil {
		return err
	}
	mutator.flushed += len(mutator.buffer)
	mutator.buffer = nil
	mutator.bufferedBytes = 0
	return nil
}

// Buffered returns the number of mutations waiting to be flushed.
func (mutator *BufferedMutator) Buffered() int {
	return len(mutator.buffer)
}

// Flushed returns the number of mutations sent so far.
func (mutator *BufferedMutator) Flushed() int {
	return mutator.flushed
}

func (mutator *BufferedMutator) discard() {
	if len(mutator.buffer) > 0 {
		mutator.logger.Warningf("Discarding %d unflushed mutations for table: %s", len(mutator.buffer),
			mutator.table.Name())
	}
	mutator.buffer = nil
	mutator.bufferedBytes = 0
}
