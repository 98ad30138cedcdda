package util

import (
	"sync"

	"github.com/mohitkumar/actionhandler/logger"
	"go.uber.org/zap"
)

type Action any

// Worker runs handler on the actions sent to it with a fixed number of goroutines.
type Worker struct {
	name        string
	concurrency int
	stop        chan struct{}
	wg          *sync.WaitGroup
	handler     func(Action) error
	actionChan  chan Action
}

func (w *Worker) Start() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()

			for {
				select {
				case action := <-w.actionChan:
					err := w.handler(action)
					if err != nil {
						logger.Error("error in executing action in worker", zap.String("worker", w.name), zap.Error(err))
					}
				case <-w.stop:
					return
				}
			}
		}()
	}
	logger.Info("worker started", zap.String("worker", w.name), zap.Int("concurrency", w.concurrency))
}

// Sender blocks until a goroutine is free to take the action.
func (w *Worker) Sender() chan<- Action {
	return w.actionChan
}

func (w *Worker) Stop() {
	logger.Info("stopping worker", zap.String("worker", w.name))
	close(w.stop)
}

func NewWorker(name string, wg *sync.WaitGroup, handler func(Action) error, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		actionChan:  make(chan Action),
		name:        name,
		concurrency: concurrency,
		wg:          wg,
		stop:        make(chan struct{}),
		handler:     handler,
	}
}
