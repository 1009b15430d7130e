package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veriperu/dniverify/internal/queue"
)

// ControlService broadcasts worker control signals. Signals only reach
// workers subscribed at publish time; a worker that reconnects later starts
// from its default running state.
type ControlService struct {
	log     *slog.Logger
	signals SignalPublisher
}

func NewControlService(log *slog.Logger, signals SignalPublisher) *ControlService {
	return &ControlService{log: log, signals: signals}
}

func (s *ControlService) Pause(ctx context.Context) error {
	return s.publish(ctx, queue.SignalPause)
}

func (s *ControlService) Resume(ctx context.Context) error {
	return s.publish(ctx, queue.SignalResume)
}

func (s *ControlService) Stop(ctx context.Context) error {
	return s.publish(ctx, queue.SignalStop)
}

func (s *ControlService) publish(ctx context.Context, signal string) error {
	if err := s.signals.PublishSignal(ctx, queue.SignalChannel, signal); err != nil {
		return fmt.Errorf("failed to publish %s signal: %w", signal, err)
	}

	s.log.InfoContext(ctx, "control signal published", slog.String("signal", signal))

	return nil
}
