// Package checker runs the recurring anniversary sweep: load every
// record, decide which are due right now, and announce them.
package checker

import (
	"context"
	"log"
	"time"

	"github.com/powpow420-boom/HRTversaryBot/anniversary"
	"github.com/powpow420-boom/HRTversaryBot/dal"
)

const sweepTimeout = 30 * time.Second

// Checker evaluates all stored records against the current time and
// notifies the due ones. The same sweep serves the hourly tick, the
// startup run and the manual trigger.
type Checker struct {
	store    dal.Store
	notifier *Notifier
}

// New returns a Checker over the given store and notifier.
func New(store dal.Store, notifier *Notifier) *Checker {
	return &Checker{store: store, notifier: notifier}
}

// Sweep runs one full pass at the given instant. A failure loading the
// record set aborts the whole pass; a failure matching or notifying one
// record is logged and only that record is skipped. Record order does
// not matter, each outcome is independent.
func (c *Checker) Sweep(now time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	recs, err := c.store.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		due, err := anniversary.IsDue(rec, now)
		if err != nil {
			log.Printf("Skipping anniversary %v: %v", rec.ID, err)
			continue
		}
		if !due {
			continue
		}

		if err := c.notifier.Notify(rec, now); err != nil {
			log.Printf("Skipping announcement for anniversary %v: %v", rec.ID, err)
			continue
		}
		log.Printf("Sent anniversary announcement for user %v in channel %v", rec.UserID, rec.ChannelID)
	}

	return nil
}

// Run sweeps once immediately, then once an hour on the hour, until done
// is closed. Tick times are wall-clock driven; nothing is persisted
// between runs, a missed tick is simply retried on the next one.
func (c *Checker) Run(done <-chan struct{}) {
	log.Println("Anniversary checker started.")

	c.sweep(time.Now())

	timer := time.NewTimer(untilNextHour(time.Now()))
	defer timer.Stop()

	for {
		select {
		case <-done:
			log.Println("Stopped anniversary checker.")
			return
		case now := <-timer.C:
			c.sweep(now)
			timer.Reset(untilNextHour(time.Now()))
		}
	}
}

func (c *Checker) sweep(now time.Time) {
	log.Println("Checking for anniversaries...")
	if err := c.Sweep(now); err != nil {
		log.Printf("Anniversary sweep failed: %v", err)
	}
}

func untilNextHour(now time.Time) time.Duration {
	return now.Truncate(time.Hour).Add(time.Hour).Sub(now)
}
