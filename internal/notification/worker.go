package notification

import (
	"sync"

	"push-service/internal/models"
)

// Start launches the worker pool that drains queued tasks.
func (s *Service) Start(wg *sync.WaitGroup) {
	s.wg = wg
	for i := 0; i < s.config.Notification.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop signals the workers to exit after their current task.
func (s *Service) Stop() {
	s.cancel()
}

// QueueTask enqueues a Task for processing. It reports false when the queue is full.
func (s *Service) QueueTask(task models.Task) bool {
	select {
	case s.tasks <- task:
		s.logger.WithRequestID(task.RequestID).Infof("Queued push for user %s", task.Request.UserID)
		return true
	default:
		s.logger.WithRequestID(task.RequestID).Errorf("Queue full, dropping push for user %s", task.Request.UserID)
		return false
	}
}

// worker processes Tasks until the service is stopped.
func (s *Service) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Worker %d stopped", id)
			return
		case task := <-s.tasks:
			s.handleTask(task)
		}
	}
}

func (s *Service) handleTask(task models.Task) {
	result := s.Send(s.ctx, task.RequestID, task.Request)
	s.logger.WithRequestID(task.RequestID).Debugf("Queued push finished: %s", result.Message)
}
