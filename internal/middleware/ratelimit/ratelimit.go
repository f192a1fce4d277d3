// Package ratelimit throttles mutating requests per client IP. The
// service runs inside a customs office network with a handful of agents,
// so the limiter only has to stop runaway scripts, not distributed abuse.
package ratelimit

import (
	"sync"
	"time"
)

// Config bounds the request rate per client.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows one request per second sustained, well above what
// a saisie workflow generates.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

type window struct {
	start    time.Time
	lastSeen time.Time
	requests int
}

// Limiter counts requests per client over fixed one-minute windows.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*window
	limit    int
	stop     chan struct{}
	stopOnce sync.Once
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		clients: make(map[string]*window),
		limit:   config.RequestsPerMinute,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop(config.CleanupInterval)
	return l
}

// Allow reports whether a request from the client fits in its current
// window. The window restarts one minute after its first request.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[clientIP]
	if !ok || now.Sub(w.start) > time.Minute {
		l.clients[clientIP] = &window{start: now, lastSeen: now, requests: 1}
		return true
	}

	w.requests++
	w.lastSeen = now
	return w.requests <= l.limit
}

// ActiveClients returns the number of currently tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Stop shuts down the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropIdleClients()
		case <-l.stop:
			return
		}
	}
}

// dropIdleClients removes entries idle for more than ten minutes.
func (l *Limiter) dropIdleClients() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, w := range l.clients {
		if w.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}
