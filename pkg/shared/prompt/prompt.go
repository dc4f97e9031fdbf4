// Package prompt asks the user for values on an interactive terminal.
package prompt

import (
	"os"

	"github.com/erikgeiser/promptkit/selection"
	"github.com/erikgeiser/promptkit/textinput"
	"golang.org/x/term"
)

// Interactive reports whether stdin is a terminal. Tests replace it.
var Interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Select asks the user to choose one of choices. The current value is listed first.
func Select(label string, choices []string, current string) (string, error) {
	sel := selection.New(label, Ordered(choices, current))
	sel.Filter = nil
	return sel.RunPrompt()
}

// Ordered moves current to the front of choices.
func Ordered(choices []string, current string) []string {
	ordered := make([]string, 0, len(choices))
	for _, choice := range choices {
		if choice == current {
			ordered = append(ordered, choice)
		}
	}
	for _, choice := range choices {
		if choice != current {
			ordered = append(ordered, choice)
		}
	}
	return ordered
}

// Input asks for free text prefilled with current.
func Input(label, current string) (string, error) {
	input := textinput.New(label)
	input.InitialValue = current
	return input.RunPrompt()
}
