package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// NeedUserConfirm prompts the user for confirmation using charmbracelet/huh.
// An aborted prompt counts as "no".
func NeedUserConfirm(info string, prompt string, description string) (bool, error) {
	if len(strings.TrimSpace(info)) > 0 {
		fmt.Println(info)
	}

	var confirm bool
	confirmField := huh.NewConfirm().
		Title(prompt).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No")

	if description = strings.TrimSpace(description); description != "" {
		confirmField.Description(description)
	}

	form := huh.NewForm(huh.NewGroup(confirmField)).WithKeyMap(GetHuhKeyMap())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("error in confirmation prompt: %v", err)
	}

	return confirm, nil
}
