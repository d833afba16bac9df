// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zmqpub publishes memory pool acceptances over ZeroMQ PUB sockets
// using the hashtx and rawtx topics.  Each message is made of three frames:
// the topic, the body and a little-endian uint32 sequence number counted per
// topic.
package zmqpub

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/go-zeromq/zmq4"
	"github.com/syscoin/sysd/mempool"
)

const (
	// TopicHashTx carries the transaction hash in display byte order.
	TopicHashTx = "hashtx"

	// TopicRawTx carries the serialized transaction.
	TopicRawTx = "rawtx"

	// DefaultQueueSize is the default number of accepted transactions
	// buffered for publishing.
	DefaultQueueSize = 1000
)

// ErrStopped is returned by Start on a stopped publisher.
var ErrStopped = errors.New("zmqpub: publisher stopped")

// Config configures a Publisher.  An empty address disables its topic.
// Topics sharing an address share a socket.
type Config struct {
	HashTxAddr string
	RawTxAddr  string
	QueueSize  int
}

// topic is a published topic bound to a socket.
type topic struct {
	name     string
	socket   zmq4.Socket
	sequence uint32
	body     func(*btcutil.Tx) ([]byte, error)
}

// Publisher publishes accepted transactions.  Notify is meant to be
// registered with mempool.TxPool.Subscribe.
type Publisher struct {
	cfg     Config
	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan *btcutil.Tx
	sockets map[string]zmq4.Socket
	topics  []*topic
	wg      sync.WaitGroup
}

// New returns a publisher for cfg.  No socket is bound until Start.
func New(ctx context.Context, cfg Config) *Publisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Publisher{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan *btcutil.Tx, cfg.QueueSize),
		sockets: make(map[string]zmq4.Socket),
	}
}

// Start binds the configured sockets and starts the publishing goroutine.
func (p *Publisher) Start() error {
	if p.ctx.Err() != nil {
		return ErrStopped
	}

	if err := p.addTopic(TopicHashTx, p.cfg.HashTxAddr, hashBody); err != nil {
		p.closeSockets()
		return err
	}
	if err := p.addTopic(TopicRawTx, p.cfg.RawTxAddr, rawBody); err != nil {
		p.closeSockets()
		return err
	}

	p.wg.Add(1)
	go p.publishHandler()
	return nil
}

func (p *Publisher) addTopic(name, addr string,
	body func(*btcutil.Tx) ([]byte, error)) error {

	if addr == "" {
		return nil
	}

	socket, ok := p.sockets[addr]
	if !ok {
		socket = zmq4.NewPub(p.ctx)
		if err := socket.Listen(addr); err != nil {
			socket.Close()
			return fmt.Errorf("unable to bind %s publisher to %s: %w",
				name, addr, err)
		}
		p.sockets[addr] = socket
		log.Infof("Publishing %s notifications on %s", name, addr)
	}

	p.topics = append(p.topics, &topic{
		name:   name,
		socket: socket,
		body:   body,
	})
	return nil
}

// Notify queues the transaction of an NTTxAccepted notification.  It never
// blocks; when the queue is full the notification is dropped.
func (p *Publisher) Notify(n *mempool.Notification) {
	if n.Type != mempool.NTTxAccepted {
		return
	}
	data, ok := n.Data.(*mempool.NTTxAcceptedData)
	if !ok {
		return
	}

	select {
	case p.queue <- data.Tx:
	default:
		log.Warnf("Publish queue full, dropping notification for %v",
			data.Tx.Hash())
	}
}

// publishHandler publishes queued transactions until the publisher stops.
// It must be run as a goroutine.
func (p *Publisher) publishHandler() {
	defer p.wg.Done()

	for {
		select {
		case tx := <-p.queue:
			for _, t := range p.topics {
				if err := p.publish(t, tx); err != nil {
					log.Errorf("Unable to publish %s for %v: %v",
						t.name, tx.Hash(), err)
				}
			}

		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Publisher) publish(t *topic, tx *btcutil.Tx) error {
	body, err := t.body(tx)
	if err != nil {
		return err
	}

	var seq [4]byte
	binary.LittleEndian.PutUint32(seq[:], t.sequence)
	t.sequence++

	log.Tracef("Publishing %s for %v", t.name, tx.Hash())
	return t.socket.Send(zmq4.NewMsgFrom([]byte(t.name), body, seq[:]))
}

// Stop stops publishing and closes the sockets.
func (p *Publisher) Stop() {
	p.cancel()
	p.wg.Wait()
	p.closeSockets()
}

func (p *Publisher) closeSockets() {
	for addr, socket := range p.sockets {
		if err := socket.Close(); err != nil {
			log.Debugf("Unable to close publisher on %s: %v", addr, err)
		}
		delete(p.sockets, addr)
	}
}

// hashBody returns the transaction hash in display byte order.
func hashBody(tx *btcutil.Tx) ([]byte, error) {
	hash := *tx.Hash()
	for i, j := 0, len(hash)-1; i < j; i, j = i+1, j-1 {
		hash[i], hash[j] = hash[j], hash[i]
	}
	return hash[:], nil
}

// rawBody returns the serialized transaction including any witness.
func rawBody(tx *btcutil.Tx) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(tx.MsgTx().SerializeSize())
	if err := tx.MsgTx().Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
