package bootloader

import "fmt"

// Action is the outcome of the entry decision.
type Action int

const (
	// ActionUpdate runs an update session
	ActionUpdate Action = iota

	// ActionJump transfers control to the application
	ActionJump
)

func (a Action) String() string {
	switch a {
	case ActionUpdate:
		return "update"
	case ActionJump:
		return "jump"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision tells the caller what to do after reset.
type Decision struct {
	Action Action

	// EntryPoint is the application start address when Action is ActionJump
	EntryPoint uint32

	// FlagErased reports whether the persisted flag requested the update
	FlagErased bool
}

// Decide reads the persisted flag and, only when it holds a programmed
// marker, samples the control input after enabling its pull-up and waiting
// cfg.SettleDelay. An erased flag or an actuated input selects ActionUpdate.
func Decide(flag FlagStore, button Input, waiter Waiter, cfg Config) Decision {
	if flag.ReadFlag() == FlagErased {
		return Decision{Action: ActionUpdate, FlagErased: true}
	}

	button.EnablePullUp()
	waiter.Delay(cfg.SettleDelay)
	if button.Actuated() {
		return Decision{Action: ActionUpdate}
	}

	return Decision{Action: ActionJump, EntryPoint: cfg.AppStart}
}

// RequestReentry is what a running application calls to hand control back
// to the updater: it erases the flag, waits for the write to complete and
// resets the device.
func RequestReentry(flag FlagStore, waiter Waiter, ticks uint32, reset func()) error {
	if err := writeFlag(flag, waiter, FlagErased, ticks); err != nil {
		return err
	}
	reset()
	return nil
}
