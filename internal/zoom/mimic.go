// internal/zoom/mimic.go
package zoom

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/osdlabs/chromepuppet/internal/browser"
)

// Mimic paces browser interaction like a person would: per-key typing
// delays, occasional longer pauses, small scroll nudges. The admin
// console runs bot detection on the sign-in page, so form fills go
// through here instead of a single SendKeys burst.
type Mimic struct {
	rng *rand.Rand
}

// NewMimic seeds a mimic from the clock.
func NewMimic() *Mimic {
	return &Mimic{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Pause sleeps for a random duration between min and max, honoring
// context cancellation.
func (m *Mimic) Pause(ctx context.Context, min, max time.Duration) error {
	if max <= min {
		max = min + time.Millisecond
	}
	d := min + time.Duration(m.rng.Int63n(int64(max-min)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Type enters text one rune at a time with jittered inter-key delays.
// Roughly one keystroke in twenty gets a longer pause, as if the typist
// stopped to think.
func (m *Mimic) Type(ctx context.Context, b browser.Client, selector, text string) error {
	for _, r := range text {
		if err := b.SendKeys(ctx, selector, string(r)); err != nil {
			return err
		}
		min, max := 40*time.Millisecond, 180*time.Millisecond
		if m.rng.Intn(20) == 0 {
			min, max = 350*time.Millisecond, 900*time.Millisecond
		}
		if err := m.Pause(ctx, min, max); err != nil {
			return err
		}
	}
	return nil
}

// Nudge scrolls the page by a small random amount in either direction.
func (m *Mimic) Nudge(ctx context.Context, b browser.Client) error {
	amount := 50 + m.rng.Intn(550)
	if m.rng.Intn(2) == 0 {
		amount = -amount
	}
	if _, err := b.Evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %d)", amount)); err != nil {
		return err
	}
	return m.Pause(ctx, 200*time.Millisecond, 700*time.Millisecond)
}
