// Package scheduler owns the one-shot due-date reminders. Reminders live in
// memory only: nothing is persisted and a pending reminder is lost when the
// process exits.
package scheduler

import (
	"log"
	"sync"
	"time"
)

// Notifier receives a reminder when it fires.
type Notifier interface {
	Notify(taskID, text string, due time.Time)
}

// LogNotifier writes reminders to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(taskID, text string, due time.Time) {
	log.Printf("reminder: task %s (%q) due at %s", taskID, text, due.Format(time.RFC3339))
}

// Scheduler holds at most one pending reminder per task.
type Scheduler struct {
	notifier Notifier

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New(n Notifier) *Scheduler {
	return &Scheduler{notifier: n, timers: make(map[string]*time.Timer)}
}

// Schedule arms a reminder for the task, replacing any pending one. Due
// moments already in the past are ignored.
func (s *Scheduler) Schedule(taskID, text string, due time.Time) {
	d := time.Until(due)
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[taskID]; ok {
		t.Stop()
	}
	s.timers[taskID] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, taskID)
		s.mu.Unlock()
		s.notifier.Notify(taskID, text, due)
	})
}

// Cancel disarms the task's pending reminder, if any. Called when the task
// is edited or deleted before the reminder fires.
func (s *Scheduler) Cancel(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[taskID]; ok {
		t.Stop()
		delete(s.timers, taskID)
	}
}

// Pending reports whether the task has an armed reminder.
func (s *Scheduler) Pending(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[taskID]
	return ok
}

// Stop disarms every pending reminder.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
