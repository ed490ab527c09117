package kafka

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"

	"transpipe/internal/logging"
	"transpipe/sink"
)

type producerFunc func(brokers []string, sc *sarama.Config) (sarama.AsyncProducer, error)

type driver struct {
	cfg         Config
	newProducer producerFunc

	p         sarama.AsyncProducer
	done      chan struct{}
	closeOnce sync.Once
}

// Configure accepts a Config or the path of a YAML file LoadConfig reads.
func (d *driver) Configure(raw any) error {
	var cfg Config
	switch c := raw.(type) {
	case Config:
		cfg = c
		applyDefaults(&cfg)
	case string:
		var err error
		if cfg, err = LoadConfig(c); err != nil {
			return err
		}
	default:
		return errors.Newf("kafka-sink: want Config or path, got %T", raw)
	}
	sc, err := saramaConfig(cfg)
	if err != nil {
		return err
	}
	if d.newProducer == nil {
		d.newProducer = sarama.NewAsyncProducer
	}
	p, err := d.newProducer(cfg.Brokers, sc)
	if err != nil {
		return errors.Wrap(err, "kafka-sink: producer")
	}
	d.cfg, d.p, d.done = cfg, p, make(chan struct{})
	go d.drain()
	return nil
}

func saramaConfig(cfg Config) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	sc.Producer.Return.Errors = true
	sc.Producer.Flush.Frequency = time.Duration(cfg.FlushMS) * time.Millisecond
	if cfg.Version != "" {
		v, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, errors.Wrap(err, "kafka-sink: version")
		}
		sc.Version = v
	}
	var codec sarama.CompressionCodec
	if err := codec.UnmarshalText([]byte(cfg.Compression)); err != nil {
		return nil, errors.Wrap(err, "kafka-sink: compression")
	}
	sc.Producer.Compression = codec
	return sc, nil
}

func (d *driver) drain() {
	defer close(d.done)
	log := logging.Component("sink.kafka")
	for err := range d.p.Errors() {
		log.Warn("publish failed", "topic", d.cfg.Topic, "err", err.Err)
	}
}

func (d *driver) Push(ev sink.Event) error {
	if d.p == nil {
		return errors.New("kafka-sink: not configured")
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "kafka-sink: encode")
	}
	d.p.Input() <- &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Key:   sarama.StringEncoder(ev.Identity),
		Value: sarama.ByteEncoder(value),
	}
	return nil
}

func (d *driver) Close() error {
	d.closeOnce.Do(func() {
		if d.p == nil {
			return
		}
		d.p.AsyncClose()
		<-d.done
	})
	return nil
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
