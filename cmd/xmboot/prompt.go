package main

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// assumeYes skips confirmation prompts.
var assumeYes bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

// confirm asks a yes/no question. It returns false without error when the
// user declines.
func confirm(label string) (bool, error) {
	if assumeYes {
		return true, nil
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
