// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package session

import (
	"context"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/models"
	"github.com/tomtom215/upnext/internal/recommend"
	"github.com/tomtom215/upnext/internal/validation"
)

// QueueState summarizes where playback stands relative to the queue.
type QueueState string

const (
	// StateEmpty means there is no session or its queue is empty.
	StateEmpty QueueState = "empty"
	// StateHasMore means Next can advance.
	StateHasMore QueueState = "has_more"
	// StateExhausted means Next has nothing left to play.
	StateExhausted QueueState = "exhausted"
)

// Navigation operation names used for metrics.
const (
	opNext     = "next"
	opPrevious = "previous"
	opSkip     = "skip"
	opAdd      = "add"
	opRemove   = "remove"
	opReorder  = "reorder"
	opRefill   = "refill"
)

// CanPlay reports whether id may be played next without repeating recent
// history. The most recent video is never allowed. Any other video already
// in history is allowed only when every queued video has been played.
func (s *Store) CanPlay(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canPlayLocked(id)
}

func (s *Store) canPlayLocked(id string) bool {
	if s.session == nil {
		return false
	}
	last, ok := s.session.LastPlayed()
	if ok && last == id {
		return false
	}

	played := historySet(s.session.History)
	if _, inHistory := played[id]; !inHistory {
		return true
	}
	for i := range s.session.Queue {
		other := s.session.Queue[i].ID
		if other == id {
			continue
		}
		if _, p := played[other]; !p {
			return false
		}
	}
	return true
}

// Next advances to the following video and returns it. It returns nil
// when the queue is exhausted or there is no session.
func (s *Store) Next(ctx context.Context) *models.VideoItem {
	s.mu.Lock()
	if s.session == nil || len(s.session.Queue) == 0 {
		s.mu.Unlock()
		metrics.RecordNavigation(opNext, false)
		return nil
	}

	sess := s.session
	if sess.Repeat == models.RepeatOne {
		cur := sess.Queue[sess.CurrentIndex].Clone()
		s.mu.Unlock()
		metrics.RecordNavigation(opNext, true)
		return &cur
	}

	target, ok := s.nextIndexLocked()
	if !ok {
		s.exhausted = true
		s.mu.Unlock()
		metrics.RecordNavigation(opNext, false)
		s.logger.Debug().Str("session_id", sess.SessionID).Msg("queue exhausted")
		return nil
	}

	video := s.moveToLocked(ctx, target)
	ev := s.eventLocked(EventVideoChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opNext, true)
	s.notify(ctx, ev)
	return video
}

// nextIndexLocked picks the index Next moves to. Caller holds mu and has
// checked the queue is non-empty.
func (s *Store) nextIndexLocked() (int, bool) {
	sess := s.session
	cur := sess.CurrentIndex
	n := len(sess.Queue)

	if sess.Shuffle {
		return s.shuffleIndexLocked()
	}

	target := cur + 1
	if target >= n {
		if sess.Repeat != models.RepeatAll {
			return 0, false
		}
		target = 0
	}
	if n == 1 && target == cur {
		// Repeat all on a single video replays it.
		return target, true
	}

	// Scan forward from target, wrapping, for at most one lap. When every
	// entry is inside the anti-repeat window the computed index stands.
	for j := 0; j < n; j++ {
		idx := (target + j) % n
		if s.canPlayLocked(sess.Queue[idx].ID) {
			return idx, true
		}
	}
	return target, true
}

// shuffleIndexLocked picks a random unplayed video. With repeat all it
// falls back to any video other than the current one.
func (s *Store) shuffleIndexLocked() (int, bool) {
	sess := s.session
	played := historySet(sess.History)

	candidates := make([]int, 0, len(sess.Queue))
	for i := range sess.Queue {
		if i == sess.CurrentIndex {
			continue
		}
		if _, p := played[sess.Queue[i].ID]; !p {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 && sess.Repeat == models.RepeatAll {
		for i := range sess.Queue {
			if i != sess.CurrentIndex {
				candidates = append(candidates, i)
			}
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[s.rng.Intn(len(candidates))], true
}

// moveToLocked makes idx current and records it in history. Caller holds mu.
func (s *Store) moveToLocked(ctx context.Context, idx int) *models.VideoItem {
	sess := s.session
	sess.CurrentIndex = idx
	sess.PositionMS = 0
	sess.AppendHistory(sess.Queue[idx].ID)
	s.exhausted = false
	s.persistLocked(ctx)

	v := sess.Queue[idx].Clone()
	return &v
}

// Previous steps back to the most recently played video before the
// current one. It returns nil when history has fewer than two entries.
// If the previous video has since been removed from the queue the history
// entry is still consumed.
func (s *Store) Previous(ctx context.Context) *models.VideoItem {
	s.mu.Lock()
	if s.session == nil || len(s.session.History) < 2 {
		s.mu.Unlock()
		metrics.RecordNavigation(opPrevious, false)
		return nil
	}

	sess := s.session
	sess.History = sess.History[:len(sess.History)-1]
	prevID := sess.History[len(sess.History)-1]
	idx := models.IndexOfVideo(sess.Queue, prevID)
	if idx < 0 {
		s.persistLocked(ctx)
		s.mu.Unlock()
		metrics.RecordNavigation(opPrevious, false)
		s.logger.Debug().Str("video_id", prevID).Msg("previous video no longer queued")
		return nil
	}

	sess.CurrentIndex = idx
	sess.PositionMS = 0
	s.exhausted = false
	s.persistLocked(ctx)
	video := sess.Queue[idx].Clone()
	ev := s.eventLocked(EventVideoChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opPrevious, true)
	s.notify(ctx, ev)
	return &video
}

// SkipTo jumps to the queued video with id. Skipping to the current video
// restarts it without touching history. Unknown ids return nil.
func (s *Store) SkipTo(ctx context.Context, id string) *models.VideoItem {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		metrics.RecordNavigation(opSkip, false)
		return nil
	}

	sess := s.session
	idx := models.IndexOfVideo(sess.Queue, id)
	if idx < 0 {
		s.mu.Unlock()
		metrics.RecordNavigation(opSkip, false)
		return nil
	}

	var video *models.VideoItem
	if idx == sess.CurrentIndex {
		sess.PositionMS = 0
		s.persistLocked(ctx)
		v := sess.Queue[idx].Clone()
		video = &v
	} else {
		video = s.moveToLocked(ctx, idx)
	}
	ev := s.eventLocked(EventVideoChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opSkip, true)
	s.notify(ctx, ev)
	return video
}

// AddToQueue inserts item after the current video when playNext is set and
// appends it otherwise. Videos already queued are ignored.
func (s *Store) AddToQueue(ctx context.Context, item models.VideoItem, playNext bool) bool {
	if !validation.IsVideoID(item.ID) {
		metrics.RecordNavigation(opAdd, false)
		return false
	}

	s.mu.Lock()
	if s.session == nil || models.IndexOfVideo(s.session.Queue, item.ID) >= 0 {
		s.mu.Unlock()
		metrics.RecordNavigation(opAdd, false)
		return false
	}

	sess := s.session
	item = item.Clone()
	if playNext && len(sess.Queue) > 0 {
		at := sess.CurrentIndex + 1
		sess.Queue = append(sess.Queue, models.VideoItem{})
		copy(sess.Queue[at+1:], sess.Queue[at:])
		sess.Queue[at] = item
	} else {
		sess.Queue = append(sess.Queue, item)
	}
	s.exhausted = false
	s.persistLocked(ctx)
	ev := s.eventLocked(EventQueueChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opAdd, true)
	s.notify(ctx, ev)
	return true
}

// RemoveFromQueue drops the video with id. Removing the current video makes
// the following one current (or the new last one at the end of the queue).
func (s *Store) RemoveFromQueue(ctx context.Context, id string) bool {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		metrics.RecordNavigation(opRemove, false)
		return false
	}

	sess := s.session
	idx := models.IndexOfVideo(sess.Queue, id)
	if idx < 0 {
		s.mu.Unlock()
		metrics.RecordNavigation(opRemove, false)
		return false
	}

	wasCurrent := idx == sess.CurrentIndex
	sess.Queue = append(sess.Queue[:idx], sess.Queue[idx+1:]...)
	switch {
	case len(sess.Queue) == 0:
		sess.CurrentIndex = 0
	case idx < sess.CurrentIndex:
		sess.CurrentIndex--
	case sess.CurrentIndex >= len(sess.Queue):
		sess.CurrentIndex = len(sess.Queue) - 1
	}
	if wasCurrent {
		sess.PositionMS = 0
	}
	s.persistLocked(ctx)
	ev := s.eventLocked(EventQueueChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opRemove, true)
	s.notify(ctx, ev)
	return true
}

// ReorderQueue moves the video at from to position to. The current video
// keeps being current wherever it ends up.
func (s *Store) ReorderQueue(ctx context.Context, from, to int) bool {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		metrics.RecordNavigation(opReorder, false)
		return false
	}

	sess := s.session
	n := len(sess.Queue)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.mu.Unlock()
		metrics.RecordNavigation(opReorder, false)
		return false
	}
	if from == to {
		s.mu.Unlock()
		metrics.RecordNavigation(opReorder, true)
		return true
	}

	currentID := sess.Queue[sess.CurrentIndex].ID
	moved := sess.Queue[from]
	if from < to {
		copy(sess.Queue[from:to], sess.Queue[from+1:to+1])
	} else {
		copy(sess.Queue[to+1:from+1], sess.Queue[to:from])
	}
	sess.Queue[to] = moved
	sess.CurrentIndex = models.IndexOfVideo(sess.Queue, currentID)

	s.persistLocked(ctx)
	ev := s.eventLocked(EventQueueChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opReorder, true)
	s.notify(ctx, ev)
	return true
}

// UpNext returns up to count videos after the current one in queue order,
// wrapping around when repeat all is on.
func (s *Store) UpNext(count int) []models.VideoItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.VideoItem, 0)
	if s.session == nil || count <= 0 || len(s.session.Queue) == 0 {
		return out
	}

	sess := s.session
	n := len(sess.Queue)
	limit := n - sess.CurrentIndex - 1
	if sess.Repeat == models.RepeatAll {
		limit = n - 1
	}
	for j := 1; j <= limit && len(out) < count; j++ {
		out = append(out, sess.Queue[(sess.CurrentIndex+j)%n].Clone())
	}
	return out
}

// State reports whether Next can advance.
func (s *Store) State() QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// stateLocked derives the queue state from the session itself, so it holds
// for a resumed session as well as a live one.
func (s *Store) stateLocked() QueueState {
	if s.session == nil || len(s.session.Queue) == 0 {
		return StateEmpty
	}
	if s.exhausted {
		return StateExhausted
	}

	sess := s.session
	if sess.Repeat == models.RepeatOne {
		return StateHasMore
	}
	if sess.Shuffle {
		if _, ok := s.peekShuffleLocked(); !ok {
			return StateExhausted
		}
		return StateHasMore
	}
	if sess.CurrentIndex >= len(sess.Queue)-1 && sess.Repeat != models.RepeatAll {
		return StateExhausted
	}
	return StateHasMore
}

// peekShuffleLocked reports whether a shuffle pick exists without consuming
// randomness.
func (s *Store) peekShuffleLocked() (int, bool) {
	sess := s.session
	if sess.Repeat == models.RepeatAll && len(sess.Queue) > 1 {
		return 0, true
	}
	played := historySet(sess.History)
	n := 0
	for i := range sess.Queue {
		if i == sess.CurrentIndex {
			continue
		}
		if _, p := played[sess.Queue[i].ID]; !p {
			n++
		}
	}
	return n, n > 0
}

// Refill extends an exhausted algorithmic queue with fresh recommendations
// seeded by the current video. It returns the number of videos appended.
func (s *Store) Refill(ctx context.Context) int {
	s.mu.Lock()
	if s.session == nil || !s.session.ContextType.Algorithmic() || s.stateLocked() != StateExhausted {
		s.mu.Unlock()
		return 0
	}
	sessionID := s.session.SessionID
	cur := s.session.Current()
	if cur == nil {
		s.mu.Unlock()
		return 0
	}
	req := recommend.Request{
		CurrentVideoID: cur.ID,
		Category:       cur.Category,
		ChannelID:      cur.ChannelID,
		Count:          s.config.RecommendCount,
	}
	s.mu.Unlock()

	resp := s.recommender.Recommend(ctx, req)

	s.mu.Lock()
	if s.session == nil || s.session.SessionID != sessionID {
		s.mu.Unlock()
		metrics.RecordNavigation(opRefill, false)
		return 0
	}
	sess := s.session
	added := 0
	for i := range resp.Videos {
		if models.IndexOfVideo(sess.Queue, resp.Videos[i].ID) >= 0 {
			continue
		}
		sess.Queue = append(sess.Queue, resp.Videos[i].Clone())
		added++
	}
	if added == 0 {
		s.mu.Unlock()
		metrics.RecordNavigation(opRefill, false)
		return 0
	}
	s.exhausted = false
	s.persistLocked(ctx)
	ev := s.eventLocked(EventQueueChanged)
	s.mu.Unlock()

	metrics.RecordNavigation(opRefill, true)
	s.logger.Info().
		Str("session_id", sessionID).
		Int("added", added).
		Msg("refilled exhausted queue")
	s.notify(ctx, ev)
	return added
}

func historySet(history []string) map[string]struct{} {
	set := make(map[string]struct{}, len(history))
	for _, id := range history {
		set[id] = struct{}{}
	}
	return set
}
