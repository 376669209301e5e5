package admission

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/seatwise-systems/seatwise/internal/messaging"
)

// Dispatcher routes stream deliveries to a fixed pool of shard workers,
// hashing the partition key so every message for one event lands on the same
// worker. Each shard drains its queue in a single goroutine, so messages
// sharing a key are handled strictly in arrival order by at most one active
// handler, while distinct keys proceed in parallel. This is the sharded
// task/worker model that replaces per-event locks.
type Dispatcher struct {
	handler  messaging.DeliveryHandler
	shards   []chan *messaging.Delivery
	wg       sync.WaitGroup
	started  bool
	mu       sync.RWMutex
	queueLen int
}

// NewDispatcher creates a dispatcher with the given shard count and per-shard
// queue length.
func NewDispatcher(shardCount, queueLen int, handler messaging.DeliveryHandler) *Dispatcher {
	if shardCount <= 0 {
		shardCount = 8
	}
	if queueLen <= 0 {
		queueLen = 64
	}
	return &Dispatcher{
		handler:  handler,
		shards:   make([]chan *messaging.Delivery, shardCount),
		queueLen: queueLen,
	}
}

// Start launches one worker goroutine per shard.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := range d.shards {
		d.shards[i] = make(chan *messaging.Delivery, d.queueLen)
		d.wg.Add(1)
		go d.run(ctx, d.shards[i])
	}
}

func (d *Dispatcher) run(ctx context.Context, queue chan *messaging.Delivery) {
	defer d.wg.Done()
	for delivery := range queue {
		d.handler(ctx, delivery)
	}
}

// Dispatch enqueues a delivery on the shard owning its partition key. It
// blocks when the shard queue is full, which applies backpressure to the
// stream consumer and preserves arrival order; the consumer callback hands
// over deliveries sequentially.
//
// A delivery arriving after Stop is dropped unacknowledged, so the stream
// redelivers it after its ack wait.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery *messaging.Delivery) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.started {
		return
	}

	shard := d.shardFor(PartitionKey(delivery.Msg.Subject))
	select {
	case shard <- delivery:
	case <-ctx.Done():
	}
}

// Stop closes the shard queues and waits for in-flight work to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return
	}
	d.started = false

	for _, shard := range d.shards {
		close(shard)
	}
	d.wg.Wait()
}

func (d *Dispatcher) shardFor(key string) chan *messaging.Delivery {
	h := fnv.New32a()
	h.Write([]byte(key))
	return d.shards[int(h.Sum32())%len(d.shards)]
}

// PartitionKey extracts the partition key from a partitioned subject: the
// final subject token. For registrations.submit.{eventID} this is the event ID.
func PartitionKey(subject string) string {
	if idx := strings.LastIndex(subject, "."); idx >= 0 {
		return subject[idx+1:]
	}
	return subject
}
