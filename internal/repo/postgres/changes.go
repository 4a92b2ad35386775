package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/repo"
)

// Subscribe holds one pooled connection in LISTEN on Channel until the
// subscription is closed or ctx ends. fn runs on the listener goroutine.
func (s *Store) Subscribe(ctx context.Context, fn func(repo.Change)) (repo.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	sub := &listener{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer func() {
			if !conn.Conn().IsClosed() {
				_, _ = conn.Exec(context.Background(), "UNLISTEN *")
			}
			conn.Release()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(lctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && lctx.Err() == nil {
					s.log.Warn("sites_listen_error", zap.Error(err))
					sub.setErr(err)
				}
				return
			}
			fn(repo.Change{Table: repo.SitesTable, Op: repo.Op(n.Payload)})
		}
	}()
	return sub, nil
}

type listener struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (l *listener) setErr(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// Close stops listening and returns the error that ended the loop, if any.
func (l *listener) Close() error {
	l.cancel()
	<-l.done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
