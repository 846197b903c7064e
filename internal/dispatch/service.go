// Package dispatch delivers created alerts to operators: a worker pool
// drains a buffered queue and fans each alert out to the configured
// notification providers and connected dashboard clients.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"

	"solar-analytics/internal/config"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/models"
	"solar-analytics/internal/providers"
)

// Service processes created alerts and notifies operators.
type Service struct {
	logger        *logging.Logger
	config        config.Config
	alerts        chan models.Alert
	ctx           context.Context
	cancel        context.CancelFunc
	wg            *sync.WaitGroup
	providerFuncs map[string]func(context.Context, models.Alert) error
	hub           *Hub
}

// New constructs a dispatch Service. Providers without configuration are not
// registered.
func New(logger *logging.Logger, cfg config.Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		logger: logger,
		config: cfg,
		alerts: make(chan models.Alert, cfg.Dispatch.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		hub:    NewHub(logger),
	}

	svc.providerFuncs = map[string]func(context.Context, models.Alert) error{}
	if cfg.Telegram.BotToken != "" {
		svc.providerFuncs["telegram"] = func(ctx context.Context, alert models.Alert) error {
			return providers.SendTelegram(ctx, alert, svc.config, logger)
		}
	}
	if cfg.Email.SMTPServer != "" {
		svc.providerFuncs["email"] = func(_ context.Context, alert models.Alert) error {
			return providers.SendEmail(alert, svc.config)
		}
	}
	return svc
}

// Hub exposes the WebSocket hub so the API can register dashboard clients.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Start launches the worker pool.
func (s *Service) Start(wg *sync.WaitGroup) {
	s.wg = wg
	for i := 0; i < s.config.Dispatch.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop cancels the workers.
func (s *Service) Stop() {
	s.cancel()
}

// QueueActions enqueues the Create outcomes of an evaluation run and
// broadcasts resolves to the dashboard feed.
func (s *Service) QueueActions(actions []models.Action) {
	for _, action := range actions {
		switch action.Kind {
		case models.ActionCreate:
			s.QueueAlert(*action.Alert)
		case models.ActionResolve:
			s.hub.Broadcast(feedEvent{Kind: "resolved", AlertID: action.AlertID.String()})
		}
	}
}

// QueueAlert enqueues one alert for delivery.
func (s *Service) QueueAlert(alert models.Alert) {
	select {
	case s.alerts <- alert:
		s.logger.Infof("Queued alert %s (%s/%s)", alert.ID, alert.Type, alert.Severity)
	default:
		s.logger.Errorf("Queue full, dropping alert %s", alert.ID)
	}
}

// worker delivers alerts until context is cancelled.
func (s *Service) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Dispatch worker %d stopped", id)
			return
		case alert := <-s.alerts:
			s.handleAlert(alert)
		}
	}
}

// handleAlert pushes one alert to the dashboard feed and, when its severity
// clears the configured floor, to every registered provider.
func (s *Service) handleAlert(alert models.Alert) {
	payload, err := json.Marshal(alert)
	if err == nil {
		s.hub.Broadcast(feedEvent{Kind: "created", AlertID: alert.ID.String(), Alert: payload})
	}

	if alert.Severity.Rank() < models.Severity(s.config.Dispatch.MinSeverity).Rank() {
		s.logger.Debugf("Alert %s below dispatch severity floor, dashboard only", alert.ID)
		return
	}

	for name, send := range s.providerFuncs {
		if err := send(s.ctx, alert); err != nil {
			s.logger.Errorf("Dispatch via %s failed for alert %s: %v", name, alert.ID, err)
			continue
		}
		s.logger.Infof("Alert %s dispatched via %s", alert.ID, name)
	}
}
