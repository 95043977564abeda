// Package mqtt publishes session lifecycle events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
)

type Options struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	QueueSize   int
}

// Publisher queues events and publishes them from one background goroutine,
// so a slow broker never stalls a session.
type Publisher struct {
	client pahomqtt.Client
	opts   Options
	logger *Logger.Logger

	queue chan xio.LifecycleEvent
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

var _ xio.Publisher = (*Publisher)(nil)

func New(opts Options, logger *Logger.Logger) *Publisher {
	if opts.ClientID == "" {
		opts.ClientID = fmt.Sprintf("parley-%d", time.Now().UnixNano())
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "parley"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 512
	}
	logger = logger.Named("mqtt")

	co := pahomqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(pahomqtt.Client) { logger.Infof("connected to %s", opts.Broker) }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { logger.Warnf("connection lost: %v", err) })
	if opts.Username != "" {
		co.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		co.SetPassword(opts.Password)
	}

	return newWithClient(pahomqtt.NewClient(co), opts, logger)
}

func newWithClient(c pahomqtt.Client, opts Options, logger *Logger.Logger) *Publisher {
	return &Publisher{
		client: c,
		opts:   opts,
		logger: logger,
		queue:  make(chan xio.LifecycleEvent, opts.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start connects and begins draining the queue. A connect timeout is not fatal;
// paho keeps retrying in the background.
func (p *Publisher) Start() {
	token := p.client.Connect()
	if token.WaitTimeout(10 * time.Second) {
		if err := token.Error(); err != nil {
			p.logger.Errorf("connection failed: %v", err)
		}
	} else {
		p.logger.Warnf("connection timeout, will retry in background")
	}

	p.wg.Add(1)
	go p.loop()
}

func (p *Publisher) Publish(_ context.Context, ev xio.LifecycleEvent) {
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.queue <- ev:
	default:
		p.logger.Warnf("queue full, dropping %s for session %s", ev.Kind, ev.SessionID)
	}
}

// Topic is <prefix>/sessions/<id>/<kind>.
func (p *Publisher) Topic(ev xio.LifecycleEvent) string {
	return fmt.Sprintf("%s/sessions/%s/%s", p.opts.TopicPrefix, ev.SessionID, ev.Kind)
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case ev := <-p.queue:
			p.send(ev)
		}
	}
}

func (p *Publisher) send(ev xio.LifecycleEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Errorf("marshal %s: %v", ev.Kind, err)
		return
	}
	token := p.client.Publish(p.Topic(ev), p.opts.QoS, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.logger.Warnf("publish timeout for %s", p.Topic(ev))
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warnf("publish failed: %v", err)
	}
}

// Close stops the loop, then sends whatever is still queued before disconnecting.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.drain()
		if p.client.IsConnected() {
			p.client.Disconnect(500)
		}
	})
}

func (p *Publisher) drain() {
	for {
		select {
		case ev := <-p.queue:
			p.send(ev)
		default:
			return
		}
	}
}
