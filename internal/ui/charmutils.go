package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
)

// ErrPromptAborted is returned when the user leaves a prompt with Esc or Ctrl+C.
var ErrPromptAborted = errors.New("prompt aborted")

const compactStyleJSON = `{
  "document": {
    "margin": 0
  },
  "paragraph": {
    "margin": 0
  },
  "list": {
    "margin": 0
  },
  "code_block": {
    "margin": 0
  }
}`

// GetHuhKeyMap returns the keymap used by every form: Esc quits as well as Ctrl+C.
func GetHuhKeyMap() *huh.KeyMap {
	keyMap := huh.NewDefaultKeyMap()
	keyMap.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "cancel"))
	return keyMap
}

// NewMarkdownRenderer returns a compact glamour renderer wrapped at width.
func NewMarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(compactStyleJSON)),
		glamour.WithPreservedNewLines(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	}
	return renderer, nil
}

// RenderMarkdown renders text, falling back to the raw text on failure.
func RenderMarkdown(text string, width int) string {
	renderer, err := NewMarkdownRenderer(width)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// PromptName asks for a person's name. validate runs on every keystroke.
func PromptName(title string, description string, validate func(string) error) (string, error) {
	var name string
	input := huh.NewInput().
		Title(title).
		Placeholder("Your name").
		CharLimit(64).
		Value(&name)
	if description != "" {
		input.Description(description)
	}
	if validate != nil {
		input.Validate(validate)
	}

	form := huh.NewForm(huh.NewGroup(input)).WithKeyMap(GetHuhKeyMap())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrPromptAborted
		}
		return "", fmt.Errorf("error in name prompt: %w", err)
	}
	return strings.TrimSpace(name), nil
}

// SelectOption shows a single choice list. labels and values must have the
// same length.
func SelectOption(title string, labels []string, values []string) (string, error) {
	if len(labels) != len(values) || len(values) == 0 {
		return "", fmt.Errorf("nothing to select")
	}
	options := make([]huh.Option[string], len(values))
	for i := range values {
		options[i] = huh.NewOption(labels[i], values[i])
	}

	var choice string
	sel := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Height(min(len(options)+2, 12)).
		Value(&choice)

	form := huh.NewForm(huh.NewGroup(sel)).WithKeyMap(GetHuhKeyMap())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrPromptAborted
		}
		return "", fmt.Errorf("error in selection prompt: %w", err)
	}
	return choice, nil
}
