package match

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrDisruptorTimeout is returned when shutdown times out
var ErrDisruptorTimeout = errors.New("disruptor: shutdown timeout")

// EventHandler consumes events from a RingBuffer. The pointer refers to a slot
// that is reused once OnEvent returns, so handlers must not retain it.
type EventHandler[T any] interface {
	OnEvent(event *T)
}

// RingBuffer is a multi-producer, single-consumer ring buffer.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence last written to slot i.
	published []int64

	handler    EventHandler[T]
	isShutdown atomic.Bool
}

// NewRingBuffer creates a ring buffer. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("size must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		atomic.StoreInt64(&rb.published[i], -1)
	}

	return rb
}

// Publish copies event into the next slot. Safe for multiple producers.
// It spins while the buffer is full and drops the event after Shutdown.
func (rb *RingBuffer[T]) Publish(event T) {
	if rb.isShutdown.Load() {
		return
	}

	var nextSeq int64
	for {
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		// The producer may not lap the consumer.
		wrapPoint := nextSeq - rb.capacity
		if wrapPoint > rb.consumerSequence.Load() {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event
	atomic.StoreInt64(&rb.published[index], nextSeq)
}

// Start launches the consumer goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops accepting events and waits until every claimed event is consumed.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ErrDisruptorTimeout
		default:
			if rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if rb.isShutdown.Load() {
			rb.processRemainingEvents(nextConsumerSeq)
			return
		}

		processed := false
		for nextConsumerSeq <= availableSeq {
			rb.consume(nextConsumerSeq)
			nextConsumerSeq++
			processed = true
		}

		if !processed {
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) processRemainingEvents(nextConsumerSeq int64) {
	availableSeq := rb.producerSequence.Load()

	for nextConsumerSeq <= availableSeq {
		rb.consume(nextConsumerSeq)
		nextConsumerSeq++
	}
}

// consume waits for the slot of seq to be published, then hands it to the handler.
func (rb *RingBuffer[T]) consume(seq int64) {
	index := seq & rb.bufferMask
	for atomic.LoadInt64(&rb.published[index]) != seq {
		runtime.Gosched()
	}

	rb.handler.OnEvent(&rb.buffer[index])
	rb.consumerSequence.Store(seq)
}

// ConsumerSequence returns the last consumed sequence.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the last claimed sequence.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// GetPendingEvents returns how many claimed events are not consumed yet.
func (rb *RingBuffer[T]) GetPendingEvents() int64 {
	return rb.producerSequence.Load() - rb.consumerSequence.Load()
}

// AsyncPublishLog hands book logs to a downstream handler on its own goroutine,
// keeping that work off the matching loop. Logs are copied into the ring,
// so the pooled originals can be released as soon as Publish returns.
type AsyncPublishLog struct {
	rb *RingBuffer[BookLog]
}

func NewAsyncPublishLog(capacity int64, handler EventHandler[BookLog]) *AsyncPublishLog {
	return &AsyncPublishLog{
		rb: NewRingBuffer[BookLog](capacity, handler),
	}
}

func (p *AsyncPublishLog) Publish(logs ...*BookLog) {
	for _, log := range logs {
		p.rb.Publish(*log)
	}
}

func (p *AsyncPublishLog) Start() {
	p.rb.Start()
}

// Shutdown waits until every published log reached the handler.
func (p *AsyncPublishLog) Shutdown(ctx context.Context) error {
	return p.rb.Shutdown(ctx)
}
