package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
)

const (
	// DefaultCooldown suppresses re-raising the same time-change while the
	// viewer's snapshot has not caught up yet.
	DefaultCooldown = 2 * time.Minute

	// DefaultFeedCap bounds the persisted per-therapist feed.
	DefaultFeedCap = 200
)

// Labeler resolves a patient id number to a display label. A nil Labeler
// falls back to the raw id.
type Labeler interface {
	Label(ctx context.Context, idNumber string) string
}

// Engine detects what changed in the appointment set since a viewer last
// looked, by diffing snapshots pulled from shared state. It never throws for
// malformed appointment data, and corrupt persisted state resets to empty
// instead of halting computation.
type Engine struct {
	State    StateStore
	Labels   Labeler
	Cooldown time.Duration
	FeedCap  int
	Log      zerolog.Logger

	now func() time.Time
}

func NewEngine(state StateStore, labels Labeler) *Engine {
	return &Engine{
		State:    state,
		Labels:   labels,
		Cooldown: DefaultCooldown,
		FeedCap:  DefaultFeedCap,
		Log:      zerolog.Nop(),
		now:      time.Now,
	}
}

// ComputeAndStore diffs the viewer's stored snapshot against the current
// appointment set, advances the baseline unconditionally, and returns the
// notifications emitted by this call. Calling it again with an unchanged set
// returns nothing. For non-admin viewers the emissions are also merged into
// the persisted feed.
func (e *Engine) ComputeAndStore(ctx context.Context, scope Scope, appts []appointment.Appointment) ([]Notification, error) {
	prev, err := e.loadSnapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	dismissed, err := e.loadDismissed(ctx, scope)
	if err != nil {
		return nil, err
	}
	sent, err := e.loadSent(ctx, scope)
	if err != nil {
		return nil, err
	}

	next := BuildSnapshot(appts, scope)
	now := e.now()

	var changes []Change
	sentDirty := false

	for id, cur := range next {
		old, seen := prev[id]
		if !seen {
			// Admins book most appointments themselves; telling them about
			// new bookings would be noise.
			if !scope.IsAdmin() {
				changes = append(changes, Change{Kind: KindCreated, AppointmentID: id, At: cur.Start})
			}
			continue
		}

		// Cancellation wins over a simultaneous time change; one transition
		// must not produce two notifications.
		if old.Status != appointment.StatusCancelled && cur.Status == appointment.StatusCancelled {
			changes = append(changes, Change{Kind: KindCancelled, AppointmentID: id, At: cur.Start})
			continue
		}

		if !old.Start.Equal(cur.Start) || !old.End.Equal(cur.End) {
			c := Change{Kind: KindTimeChanged, AppointmentID: id, At: cur.Start}
			if last, ok := sent[c.CooldownKey()]; ok && now.Sub(last) < e.Cooldown {
				continue
			}
			sent[c.CooldownKey()] = now
			sentDirty = true
			changes = append(changes, c)
		}
	}

	for id, old := range prev {
		if _, still := next[id]; !still {
			changes = append(changes, Change{Kind: KindRemoved, AppointmentID: id, At: old.Start})
		}
	}

	var emitted []Notification
	for _, c := range changes {
		nid := c.NotificationID()
		if _, muted := dismissed[nid]; muted {
			continue
		}
		emitted = append(emitted, e.render(ctx, c, prev, next, now))
	}

	// The baseline advances whether or not anything was shown.
	if err := e.saveJSON(ctx, snapshotKey(scope), next); err != nil {
		return nil, err
	}
	if sentDirty {
		e.pruneSent(sent, now)
		if err := e.saveJSON(ctx, sentKey(scope), encodeSent(sent)); err != nil {
			return nil, err
		}
	}

	if !scope.IsAdmin() && len(emitted) > 0 {
		if err := e.mergeFeed(ctx, scope, emitted); err != nil {
			return nil, err
		}
	}

	return emitted, nil
}

// Feed returns the viewer's persisted, not-yet-dismissed notifications.
// Admins do not accumulate a feed and always get an empty list.
func (e *Engine) Feed(ctx context.Context, scope Scope) ([]Notification, error) {
	if scope.IsAdmin() {
		return []Notification{}, nil
	}
	return e.loadItems(ctx, scope)
}

// Dismiss permanently mutes a notification id for this viewer and drops it
// from the persisted feed. The mute is keyed by content: replaying the
// identical transition never resurfaces it.
func (e *Engine) Dismiss(ctx context.Context, scope Scope, notificationID string) error {
	dismissed, err := e.loadDismissed(ctx, scope)
	if err != nil {
		return err
	}
	dismissed[notificationID] = struct{}{}

	ids := make([]string, 0, len(dismissed))
	for id := range dismissed {
		ids = append(ids, id)
	}
	if err := e.saveJSON(ctx, dismissedKey(scope), ids); err != nil {
		return err
	}

	if scope.IsAdmin() {
		return nil
	}

	items, err := e.loadItems(ctx, scope)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, n := range items {
		if n.ID != notificationID {
			kept = append(kept, n)
		}
	}
	return e.saveJSON(ctx, itemsKey(scope), kept)
}

func (e *Engine) render(ctx context.Context, c Change, prev, next map[string]SnapshotEntry, now time.Time) Notification {
	entry, ok := next[c.AppointmentID]
	if !ok {
		entry = prev[c.AppointmentID]
	}
	label := entry.PatientID
	if e.Labels != nil {
		label = e.Labels.Label(ctx, entry.PatientID)
	}
	window := fmt.Sprintf("%s – %s",
		entry.Start.Format("Mon 2 Jan 15:04"), entry.End.Format("15:04"))

	n := Notification{ID: c.NotificationID(), CreatedAt: now}
	switch c.Kind {
	case KindCreated:
		n.Type = TypeSuccess
		n.Title = titleCreated
		n.Message = fmt.Sprintf("%s booked %s", label, window)
	case KindCancelled:
		n.Type = TypeError
		n.Title = titleCancelled
		n.Message = fmt.Sprintf("%s, %s", label, window)
	case KindRemoved:
		n.Type = TypeError
		n.Title = titleRemoved
		n.Message = fmt.Sprintf("%s, %s", label, window)
	case KindTimeChanged:
		n.Type = TypeInfo
		n.Title = titleTimeChanged
		n.Message = fmt.Sprintf("%s moved to %s", label, window)
	}
	return n
}

func (e *Engine) mergeFeed(ctx context.Context, scope Scope, emitted []Notification) error {
	items, err := e.loadItems(ctx, scope)
	if err != nil {
		return err
	}

	merged := make([]Notification, 0, len(emitted)+len(items))
	seen := make(map[string]struct{}, len(emitted)+len(items))
	for _, n := range emitted {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	for _, n := range items {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}

	limit := e.FeedCap
	if limit <= 0 {
		limit = DefaultFeedCap
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	return e.saveJSON(ctx, itemsKey(scope), merged)
}

func (e *Engine) loadSnapshot(ctx context.Context, scope Scope) (map[string]SnapshotEntry, error) {
	var snap map[string]SnapshotEntry
	if ok, err := e.loadJSON(ctx, snapshotKey(scope), &snap); err != nil || !ok {
		snap = nil
		if err != nil {
			return nil, err
		}
	}
	if snap == nil {
		snap = make(map[string]SnapshotEntry)
	}
	return snap, nil
}

func (e *Engine) loadDismissed(ctx context.Context, scope Scope) (map[string]struct{}, error) {
	var ids []string
	if ok, err := e.loadJSON(ctx, dismissedKey(scope), &ids); err != nil || !ok {
		ids = nil
		if err != nil {
			return nil, err
		}
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (e *Engine) loadSent(ctx context.Context, scope Scope) (map[string]time.Time, error) {
	var raw map[string]int64
	if ok, err := e.loadJSON(ctx, sentKey(scope), &raw); err != nil || !ok {
		raw = nil
		if err != nil {
			return nil, err
		}
	}
	sent := make(map[string]time.Time, len(raw))
	for k, ms := range raw {
		sent[k] = time.UnixMilli(ms)
	}
	return sent, nil
}

func (e *Engine) loadItems(ctx context.Context, scope Scope) ([]Notification, error) {
	var items []Notification
	if ok, err := e.loadJSON(ctx, itemsKey(scope), &items); err != nil || !ok {
		items = nil
		if err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

// loadJSON reads one state key. Storage errors propagate; corrupt JSON
// reports ok=false so the caller resets that piece of state to empty rather
// than halting computation.
func (e *Engine) loadJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := e.State.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		e.Log.Warn().Str("key", key).Err(err).Msg("corrupt notification state reset")
		return false, nil
	}
	return true, nil
}

func (e *Engine) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return e.State.Set(ctx, key, data)
}

func (e *Engine) pruneSent(sent map[string]time.Time, now time.Time) {
	cooldown := e.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	for k, at := range sent {
		if now.Sub(at) >= cooldown {
			delete(sent, k)
		}
	}
}

func encodeSent(sent map[string]time.Time) map[string]int64 {
	raw := make(map[string]int64, len(sent))
	for k, at := range sent {
		raw[k] = at.UnixMilli()
	}
	return raw
}
