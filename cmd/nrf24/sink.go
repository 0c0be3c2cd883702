package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/NV4RE/gnrf24"
)

// sink receives every payload taken off the air.
type sink interface {
	Publish(ctx context.Context, m gnrf24.Message) error
	Close() error
}

type logSink struct {
	log logrus.FieldLogger
}

func (s logSink) Publish(_ context.Context, m gnrf24.Message) error {
	s.log.WithFields(logrus.Fields{"pipe": m.Pipe, "len": len(m.Data)}).Infof("%x", m.Data)
	return nil
}

func (logSink) Close() error { return nil }

// redisSink publishes each payload on <channel>:<pipe>.
type redisSink struct {
	db      *redis.Client
	channel string
	log     logrus.FieldLogger
}

func newRedisSink(ctx context.Context, addr string, db int, channel string, log logrus.FieldLogger) (*redisSink, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, errors.Wrapf(err, "redis %s", addr)
	}
	return &redisSink{db: c, channel: channel, log: log}, nil
}

func (s *redisSink) topic(p gnrf24.Pipe) string {
	return fmt.Sprintf("%s:%d", s.channel, p)
}

func (s *redisSink) Publish(ctx context.Context, m gnrf24.Message) error {
	topic := s.topic(m.Pipe)
	if err := s.db.Publish(ctx, topic, m.Data).Err(); err != nil {
		return errors.Wrapf(err, "publish %s", topic)
	}
	s.log.WithFields(logrus.Fields{"topic": topic, "len": len(m.Data)}).Debug("published")
	return nil
}

func (s *redisSink) Close() error { return s.db.Close() }
