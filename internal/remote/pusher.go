package remote

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
)

// Pusher drains the store's pendingSync records to the remote API. Push
// failures are recorded on the entity via markSyncError, never raised: sync
// state is informational, and the next run retries.
type Pusher struct {
	Store  *appointment.Store
	Client Client
	Log    zerolog.Logger
}

// Run pushes every pending record once and reports how many synced.
func (p *Pusher) Run(ctx context.Context) (int, error) {
	pending, err := p.Store.ListPendingSync(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, a := range pending {
		if err := p.pushOne(ctx, a); err != nil {
			p.Log.Warn().Str("appointment", a.ID).Err(err).Msg("remote push failed")
			if _, merr := p.Store.MarkSyncError(ctx, a.ID, err.Error()); merr != nil {
				p.Log.Error().Str("appointment", a.ID).Err(merr).Msg("could not record sync error")
			}
			continue
		}

		if _, err := p.Store.MarkSynced(ctx, a.ID); err != nil {
			p.Log.Error().Str("appointment", a.ID).Err(err).Msg("could not mark synced")
			continue
		}
		synced++
	}

	return synced, nil
}

func (p *Pusher) pushOne(ctx context.Context, a appointment.Appointment) error {
	exists, err := p.Client.Search(ctx, a.ID)
	if err != nil {
		return err
	}
	if exists {
		return p.Client.UpdateResource(ctx, a)
	}
	return p.Client.CreateResource(ctx, a)
}
