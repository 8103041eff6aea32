package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler consumes messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	brokers    []string
	groupID    string
	workers    int
	buffer     int
	retryMax   int
	backoffMin time.Duration
	backoffMax time.Duration
	dlqTopic   string
	minBytes   int
	maxBytes   int
}

// WithConsumerBrokers sets the broker list.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *consumerConfig) { c.brokers = brokers }
}

// WithConsumerGroupID sets the consumer group.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *consumerConfig) { c.groupID = groupID }
}

// WithConsumerWorkers sets how many goroutines process messages.
func WithConsumerWorkers(n int) ConsumerOption {
	return func(c *consumerConfig) { c.workers = n }
}

// WithConsumerRetry sets handler retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		c.retryMax = max
		c.backoffMin = backoffMin
		c.backoffMax = backoffMax
	}
}

// WithConsumerDLQ routes messages that exhaust retries to a dead
// letter topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *consumerConfig) { c.dlqTopic = topic }
}

// WithConsumerFetch sets fetch min/max bytes.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *consumerConfig) {
		c.minBytes = minBytes
		c.maxBytes = maxBytes
	}
}

// WithConsumerBufferSize sets the internal queue length.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *consumerConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// Consumer reads registered topics and dispatches to a worker pool.
// One message per (topic, partition) is in flight at a time so scan
// requests for the same contract are handled in order.
type Consumer struct {
	cfg      *consumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	hook     ConsumerHook

	msgCh    chan *inflight
	ctx      context.Context
	cancel   context.CancelFunc
	readerWg sync.WaitGroup
	workerWg sync.WaitGroup
	once     sync.Once
	dlq      *kafka.Writer

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

type inflight struct {
	topic string
	msg   kafka.Message
}

// NewConsumer creates a consumer; topics come from RegisterHandler.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &consumerConfig{
		groupID:    "default",
		workers:    1,
		buffer:     10,
		retryMax:   3,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		minBytes:   10e3,
		maxBytes:   10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:      cfg,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		hook:     NoopHook{},
		msgCh:    make(chan *inflight, cfg.buffer),
		ctx:      ctx,
		cancel:   cancel,
		locks:    make(map[string]*sync.Mutex),
	}
	if cfg.dlqTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.brokers...), Balancer: &kafka.LeastBytes{}}
	}
	registerConsumerMetrics()
	return c, nil
}

// WithConsumerHook installs a lifecycle hook.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler binds a handler to its topic. Call before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, ok := c.handlers[h.Topic()]; ok {
		log.Printf("kafka: handler already registered for topic %s", h.Topic())
		return
	}
	c.handlers[h.Topic()] = h
}

// Start spawns the reader and worker goroutines.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.brokers,
			Topic:    topic,
			GroupID:  c.cfg.groupID,
			MinBytes: c.cfg.minBytes,
			MaxBytes: c.cfg.maxBytes,
		})
	}

	for i := 0; i < c.cfg.workers; i++ {
		c.workerWg.Add(1)
		go c.work()
	}
	for topic, reader := range c.readers {
		c.readerWg.Add(1)
		go c.read(topic, reader)
	}

	log.Printf("kafka: consuming %d topics with %d workers", len(c.readers), c.cfg.workers)
	return nil
}

// Stop drains the consumer, bounded by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.once.Do(func() {
		c.cancel()

		// readers must be gone before the queue closes
		done := make(chan struct{})
		go func() {
			c.readerWg.Wait()
			close(c.msgCh)
			c.workerWg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("consumer shutdown: %w", ctx.Err())
		case <-done:
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("kafka: close reader %s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("kafka: close dlq writer: %v", err)
			}
		}
	})
	return stopErr
}

func (c *Consumer) read(topic string, reader *kafka.Reader) {
	defer c.readerWg.Done()

	for {
		msg, err := reader.FetchMessage(c.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("kafka: fetch from %s: %v", topic, err)
			continue
		}

		select {
		case c.msgCh <- &inflight{topic: topic, msg: msg}:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgCh)))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) work() {
	defer c.workerWg.Done()

	for in := range c.msgCh {
		handler, ok := c.handlers[in.topic]
		if !ok {
			continue
		}
		c.handleOne(handler, in)
	}
}

func (c *Consumer) handleOne(handler MessageHandler, in *inflight) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("kafka: panic handling %s: %v", in.topic, r)
		}
	}()

	lock := c.partitionLock(in.topic, in.msg.Partition)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	err := c.handleWithRetry(handler, in)
	consumerHandleLatency.WithLabelValues(in.topic).Observe(time.Since(start).Seconds())

	if err != nil {
		c.hook.OnError(c.ctx, in.topic, in.msg.Value, err)
		log.Printf("kafka: giving up on message from %s: %v", in.topic, err)
		if !c.deadLetter(in) {
			return // no DLQ: leave offset uncommitted for redelivery
		}
	}
	if reader := c.readers[in.topic]; reader != nil {
		c.commit(reader, in.msg)
	}
}

func (c *Consumer) handleWithRetry(handler MessageHandler, in *inflight) error {
	for attempt := 0; ; attempt++ {
		ctx, data, err := c.hook.BeforeHandle(c.ctx, in.topic, in.msg.Value)
		if err == nil {
			err = handler.Handle(ctx, data)
			c.hook.AfterHandle(ctx, in.topic, data, err)
		}
		if err == nil || attempt >= c.cfg.retryMax {
			return err
		}

		select {
		case <-time.After(jitterBackoff(c.cfg.backoffMin, c.cfg.backoffMax, attempt+1)):
		case <-c.ctx.Done():
			return err
		}
	}
}

// deadLetter reports whether the message was parked (and may be committed).
func (c *Consumer) deadLetter(in *inflight) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.dlqTopic,
		Value:   in.msg.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(in.topic)}},
	})
	if err != nil {
		log.Printf("kafka: write to dlq %s: %v", c.cfg.dlqTopic, err)
		return false
	}
	return true
}

func (c *Consumer) commit(reader *kafka.Reader, msg kafka.Message) {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(jitterBackoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	log.Printf("kafka: commit failed: %v", err)
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", topic, partition)
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	if l, ok := c.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	c.locks[key] = l
	return l
}

func jitterBackoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min << uint(attempt-1)
	if d > max || d < min {
		d = max
	}
	return d - time.Duration(rand.Int63n(int64(d)/2))
}

var (
	consumerMetricsOnce   sync.Once
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rugdetector_kafka_consumer_queue_depth",
				Help: "Messages waiting for a worker",
			},
			[]string{"topic"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "rugdetector_kafka_consumer_handle_seconds",
				Help: "Handling time per message",
			},
			[]string{"topic"},
		)
	})
}
