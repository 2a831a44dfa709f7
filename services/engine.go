package services

import (
	"log/slog"
	"sync"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/config"
)

// Engine binds the pure computations of this package to a record store.
// Mutations that touch the same project are serialized through a per-key
// mutex and each runs inside a single store transaction.
type Engine struct {
	App    core.App
	Config config.Config

	locks keyedMutex
}

// NewEngine returns an Engine over app using cfg.
func NewEngine(app core.App, cfg config.Config) *Engine {
	return &Engine{App: app, Config: cfg}
}

func (eng *Engine) logger() *slog.Logger {
	return eng.App.Logger()
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
