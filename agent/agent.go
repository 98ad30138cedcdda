package agent

import (
	"context"
	"sync"

	"github.com/mohitkumar/actionhandler/config"
	"github.com/mohitkumar/actionhandler/container"
	"github.com/mohitkumar/actionhandler/dispatch"
	"github.com/mohitkumar/actionhandler/handler"
	"github.com/mohitkumar/actionhandler/host"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/rest"
	"github.com/mohitkumar/actionhandler/validation"
	"go.uber.org/zap"
)

const SMTP_SEND_RETRIES = 2

type Agent struct {
	Config       config.Config
	diContainer  *container.DIContiner
	statusBoard  *handler.StatusBoard
	helpers      map[model.ActionType]handler.ActionHelper
	host         *host.Host
	httpServer   *rest.Server
	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupContainer,
		a.setupHelpers,
		a.setupHost,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			if a.diContainer != nil {
				_ = a.diContainer.Close()
			}
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupContainer() error {
	a.diContainer = container.NewDiContainer()
	return a.diContainer.Init(context.Background(), a.Config)
}

func (a *Agent) setupHelpers() error {
	decrypter := a.diContainer.GetDecrypter()
	webhookConf := a.Config.WebhookConfig
	a.statusBoard = handler.NewStatusBoard()
	a.helpers = handler.NewHelpers(handler.Config{
		Publisher: a.diContainer.GetTransport(),
		Webhooks:  dispatch.NewWebhookDispatcher(decrypter, webhookConf.RetryInterval, webhookConf.ConnectionTimeout),
		Notifier: dispatch.NewNotificationDispatcher(
			dispatch.NewSmtpTransport(webhookConf.ConnectionTimeout, SMTP_SEND_RETRIES),
			decrypter,
			webhookConf.RetryInterval,
		),
		Jobs:       dispatch.NewGenerateDispatcher(a.diContainer.GetJobQueue()),
		Validators: validation.NewValidators(),
		Status:     a.statusBoard,
	})
	return nil
}

func (a *Agent) setupHost() error {
	a.host = host.NewHost(host.Config{
		Transport:      a.diContainer.GetTransport(),
		Tenants:        a.diContainer.GetTenantRegistry(),
		Repositories:   a.diContainer.GetRepositoryFactory(),
		Helpers:        a.helpers,
		Collector:      a.diContainer.GetDataCollector(),
		MaxConcurrency: a.Config.MaxConcurrency,
		MaxRetryCount:  a.Config.QueueConfig.MaxRetryCount,
		RetryInterval:  a.Config.WebhookConfig.RetryInterval,
	})
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.diContainer.GetTransport(), a.statusBoard, a.diContainer.GetTenantRegistry(), a.diContainer.GetJobQueue())
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	a.host.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down action handler")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			a.host.Stop()
			return nil
		},
		a.diContainer.Close,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("action handler stopped")
	logger.Sync()
	return nil
}
