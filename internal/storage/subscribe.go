package storage

import (
	"context"

	"zero/internal/task"
)

// Subscribe returns a channel that first carries the current snapshot and
// then one snapshot per committed write. A subscriber that falls behind only
// sees the newest snapshot: a pending one is replaced, never merged. The
// channel is closed when ctx is done or the store is closed.
//
// Snapshots are shared between subscribers and must not be modified.
func (s *Store) Subscribe(ctx context.Context) (<-chan []task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	ch := make(chan []task.Task, 1)
	ch <- snap
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}()
	return ch, nil
}

// Watch follows a single task. It emits nil while the task does not exist.
func (s *Store) Watch(ctx context.Context, id string) (<-chan *task.Task, error) {
	all, err := s.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan *task.Task, 1)
	go func() {
		defer close(out)
		for snap := range all {
			offer(out, find(snap, id))
		}
	}()
	return out, nil
}

func find(tasks []task.Task, id string) *task.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			t := tasks[i].Clone()
			return &t
		}
	}
	return nil
}

// publishLocked must be called with s.mu held.
func (s *Store) publishLocked(ctx context.Context) {
	if len(s.subs) == 0 {
		return
	}
	snap, err := s.All(ctx)
	if err != nil {
		s.logger.Printf("storage: snapshot after write failed: %v", err)
		return
	}
	for _, ch := range s.subs {
		offer(ch, snap)
	}
}

// offer delivers v, replacing any value the reader has not taken yet.
// Only one goroutine may send on ch.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
