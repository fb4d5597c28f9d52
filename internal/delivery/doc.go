// Package delivery follows a feed that can only be listed, such as a
// conversation log on the relay, and reports items it has not seen before.
//
// # Usage
//
//	p := delivery.NewPoller(fetch, func(m Message) string { return m.ID }, delivery.Config{})
//	if err := p.Prime(ctx); err != nil { // skip what is already there
//	    return err
//	}
//	err := p.Run(ctx, func(m Message) {
//	    // Handle new message
//	})
//
// # Backoff
//
// The poll interval starts at 2s and grows by 1.5x up to 30s while nothing
// new arrives, then resets when something does. Fetch errors back off the
// same way. Each wait carries up to 30% jitter so many clients watching the
// same relay do not poll in lockstep.
//
// # Thread Safety
//
// A Poller is driven by one goroutine. Run, Poll and Prime must not be
// called concurrently on the same Poller.
package delivery
