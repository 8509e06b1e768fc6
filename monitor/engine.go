package monitor

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	Logger "github.com/viralmux/viralmux/utils/log"
)

// Engine owns the monitor modules and the event bus they communicate over.
// Every module runs in its own goroutine for the lifetime of the engine; a
// module that returns an error is restarted, a module that returns nil is
// done. The bus is an in-process go channel implementation, sufficient for a
// single binary and swappable for a broker backed one later.
type Engine struct {
	modules []Module

	ctx    context.Context
	cancel context.CancelFunc

	EventBus *gochannel.GoChannel
}

func NewEngine(ctx context.Context, cancel context.CancelFunc, bus *gochannel.GoChannel, modules ...Module) *Engine {
	return &Engine{
		modules:  modules,
		ctx:      ctx,
		cancel:   cancel,
		EventBus: bus,
	}
}

// Run starts every module and blocks until all of them finish, which in
// practice means until the root context is cancelled.
func (e *Engine) Run() {
	var wg sync.WaitGroup
	for i := range e.modules {
		wg.Add(1)
		go func(m *Module) {
			defer wg.Done()
			Logger.Log.Infof("starting module %s", (*m).Name())
			RunModuleWithGracefulRestart(e.ctx, m)
			Logger.Log.Infof("module %s finished", (*m).Name())
		}(&e.modules[i])
	}
	wg.Wait()
}

// Shutdown cancels the root context and tears every module down in
// parallel.
func (e *Engine) Shutdown() {
	Logger.Log.Infoln("shutting down monitor engine")
	e.cancel()

	var wg sync.WaitGroup
	for i := range e.modules {
		wg.Add(1)
		go func(m Module) {
			defer wg.Done()
			m.Shutdown()
			Logger.Log.Infof("module %s shut down", m.Name())
		}(e.modules[i])
	}
	wg.Wait()
}
