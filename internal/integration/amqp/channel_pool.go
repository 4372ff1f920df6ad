package amqp

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// DefaultChannelPoolSize is the number of publish channels kept open when
// no pool size is configured.
const DefaultChannelPoolSize = 10

var errPoolClosed = errors.New("integration/amqp: channel pool is closed")

// channelPool keeps a bounded set of idle publish channels on a single
// connection. When all channels are borrowed, a new channel is opened; it is
// closed again on release when the pool is full.
type channelPool struct {
	mu   sync.RWMutex
	conn *amqp.Connection
	idle chan *amqp.Channel
}

// borrowedChannel is a channel taken from the pool. It must be released
// after use. A broken channel (e.g. after a publish error) is closed on
// release instead of being returned to the pool.
type borrowedChannel struct {
	*amqp.Channel

	pool   *channelPool
	mu     sync.Mutex
	broken bool
}

func newChannelPool(conn *amqp.Connection, size int) (*channelPool, error) {
	if size <= 0 {
		size = DefaultChannelPoolSize
	}

	p := &channelPool{
		conn: conn,
		idle: make(chan *amqp.Channel, size),
	}

	for i := 0; i < size; i++ {
		ch, err := conn.Channel()
		if err != nil {
			p.close()
			return nil, errors.Wrap(err, "open channel error")
		}
		channelCounter("opened").Inc()
		p.idle <- ch
	}

	return p, nil
}

// idleCount returns the number of idle channels in the pool.
func (p *channelPool) idleCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.idle)
}

func (p *channelPool) borrow() (*borrowedChannel, error) {
	p.mu.RLock()
	idle, conn := p.idle, p.conn
	p.mu.RUnlock()

	if idle == nil {
		return nil, errPoolClosed
	}

	select {
	case ch, ok := <-idle:
		if !ok {
			return nil, errPoolClosed
		}
		return &borrowedChannel{Channel: ch, pool: p}, nil
	default:
		ch, err := conn.Channel()
		if err != nil {
			return nil, errors.Wrap(err, "open channel error")
		}
		channelCounter("opened").Inc()
		return &borrowedChannel{Channel: ch, pool: p}, nil
	}
}

func (p *channelPool) giveBack(ch *amqp.Channel) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.idle != nil {
		select {
		case p.idle <- ch:
			channelCounter("returned").Inc()
			return nil
		default:
		}
	}

	channelCounter("closed").Inc()
	return ch.Close()
}

func (p *channelPool) close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.conn = nil
	p.mu.Unlock()

	if idle == nil {
		return
	}

	close(idle)
	for ch := range idle {
		channelCounter("closed").Inc()
		ch.Close()
	}
}

// markBroken marks the channel as not reusable.
func (bc *borrowedChannel) markBroken() {
	bc.mu.Lock()
	bc.broken = true
	bc.mu.Unlock()
}

// release returns the channel to the pool or closes it when broken.
func (bc *borrowedChannel) release() error {
	bc.mu.Lock()
	broken := bc.broken
	bc.mu.Unlock()

	if broken {
		channelCounter("discarded").Inc()
		// closing a channel the server already closed returns an error
		// which is of no use to the caller
		bc.Channel.Close()
		return nil
	}

	return bc.pool.giveBack(bc.Channel)
}
