package kafka

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpipe/sink"
)

func mockDriver(t *testing.T, expect func(*mocks.AsyncProducer)) *driver {
	return &driver{newProducer: func(brokers []string, sc *sarama.Config) (sarama.AsyncProducer, error) {
		assert.Equal(t, []string{"k1:9092"}, brokers)
		mp := mocks.NewAsyncProducer(t, sc)
		expect(mp)
		return mp, nil
	}}
}

func TestDriver_PublishesEventsAsJSON(t *testing.T) {
	ev := sink.NewEvent("/src/a.ts", "transform", 1, "unsupported syntax")
	d := mockDriver(t, func(mp *mocks.AsyncProducer) {
		mp.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
			var got sink.Event
			if err := json.Unmarshal(val, &got); err != nil {
				return err
			}
			if got.ID != ev.ID || got.Message != ev.Message || got.Stage != 1 {
				return errors.Newf("unexpected event %+v", got)
			}
			return nil
		})
	})
	require.NoError(t, d.Configure(Config{Brokers: []string{"k1:9092"}}))
	assert.Equal(t, "transpipe.diagnostics", d.cfg.Topic)

	require.NoError(t, d.Push(ev))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close(), "close is idempotent")
}

func TestDriver_PublishFailureDoesNotFailPush(t *testing.T) {
	d := mockDriver(t, func(mp *mocks.AsyncProducer) {
		mp.ExpectInputAndFail(sarama.ErrOutOfBrokers)
	})
	require.NoError(t, d.Configure(Config{Brokers: []string{"k1:9092"}, Topic: "t"}))
	require.NoError(t, d.Push(sink.NewEvent("/a.js", "transform", 0, "m")))
	require.NoError(t, d.Close())
}

func TestDriver_RequiresConfigure(t *testing.T) {
	d := &driver{}
	assert.Error(t, d.Push(sink.NewEvent("/a.js", "transform", 0, "m")))
	assert.Error(t, d.Configure(42))
}

func TestSaramaConfig(t *testing.T) {
	sc, err := saramaConfig(Config{ClientID: "c", RequiredAcks: -1, Version: "3.6.0", Compression: "zstd", FlushMS: 10})
	require.NoError(t, err)
	assert.Equal(t, sarama.WaitForAll, sc.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionZSTD, sc.Producer.Compression)
	assert.True(t, sc.Version.IsAtLeast(sarama.V3_6_0_0))

	_, err = saramaConfig(Config{Compression: "brotli"})
	assert.Error(t, err)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kafka.yml")
	require.NoError(t, os.WriteFile(path, []byte(`schema_version: v1
brokers: [a:9092]
topic: lint
`), 0o644))
	t.Setenv("TRANSPIPE_KAFKA__BROKERS", "b:9092,c:9092")
	t.Setenv("TRANSPIPE_KAFKA__REQUIRED_ACKS", "-1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b:9092", "c:9092"}, cfg.Brokers)
	assert.Equal(t, "lint", cfg.Topic)
	assert.Equal(t, int16(-1), cfg.RequiredAcks)
	assert.Equal(t, "transpipe", cfg.ClientID)
}

func TestLoadConfig_Rejects(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("schema_version: v9\nbrokers: [a:1]\n"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err, "no brokers from file or env")
}
