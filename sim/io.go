package sim

import "sync"

// Button is the simulated control input. Without its pull-up the input
// floats and reads as actuated.
type Button struct {
	mu      sync.Mutex
	pullUp  bool
	pressed bool
}

// Press holds the input at its active level.
func (b *Button) Press() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed = true
}

// Release lets the input go.
func (b *Button) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed = false
}

func (b *Button) EnablePullUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pullUp = true
}

func (b *Button) Actuated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed || !b.pullUp
}

func (b *Button) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pullUp = false
}

// LED is the simulated indicator.
type LED struct {
	mu      sync.Mutex
	lit     bool
	toggles int
}

func (l *LED) On() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lit = true
}

func (l *LED) Toggle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lit = !l.lit
	l.toggles++
}

// Lit reports whether the indicator is on.
func (l *LED) Lit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lit
}

// Toggles returns the number of toggles so far.
func (l *LED) Toggles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.toggles
}

func (l *LED) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lit = false
}
