// Package prompt defines the confirmation provider the interactive parts of
// the program talk to, plus the option-matching rules they share.
package prompt

import (
	"errors"
	"strings"
)

// ErrNoInput is returned when a provider has no more responses to give.
var ErrNoInput = errors.New("no input")

// Prompter asks the user to pick among options.
//
// Options are plain words. A leading '*' marks the default, returned when
// the user just presses enter. A leading '#' marks a hint that is shown
// but is not itself a choice (e.g. "#<indexes>").
type Prompter interface {
	AskUser(message string, options []string) (string, error)
	YesNo(message string, defaultYes bool) (bool, error)
}

// Matches reports whether s is a non-empty prefix of the option.
// Matching is case-sensitive so "k" and "K" can select different options.
func Matches(s, option string) bool {
	option = Name(option)
	return s != "" && strings.HasPrefix(option, s)
}

// Name strips the default and hint markers from an option.
func Name(option string) string {
	return strings.TrimLeft(option, "*#")
}

// Default returns the starred option of a list, or "".
func Default(options []string) string {
	for _, o := range options {
		if strings.HasPrefix(o, "*") {
			return Name(o)
		}
	}
	return ""
}

// Choices returns the selectable option names, hints excluded.
func Choices(options []string) []string {
	var out []string
	for _, o := range options {
		if strings.HasPrefix(o, "#") {
			continue
		}
		out = append(out, Name(o))
	}
	return out
}

// Resolve maps raw user input onto an option: empty input picks the
// default, a prefix of exactly one choice picks that choice. Anything
// else is returned trimmed and unchanged so callers can parse arguments.
func Resolve(input string, options []string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return Default(options)
	}
	var hit string
	for _, c := range Choices(options) {
		if input == c {
			return c
		}
		if Matches(input, c) {
			if hit != "" {
				return input
			}
			hit = c
		}
	}
	if hit != "" {
		return hit
	}
	return input
}

// YesNoOptions returns the options of a yes/no question with the default starred.
func YesNoOptions(defaultYes bool) []string {
	if defaultYes {
		return []string{"*yes", "no"}
	}
	return []string{"yes", "*no"}
}

// Scripted replays canned responses in order. It is used to drive the
// interactive paths without a terminal.
type Scripted struct {
	Responses []string
	Asked     []string
}

// AskUser returns the next scripted response, resolved against options.
func (s *Scripted) AskUser(message string, options []string) (string, error) {
	s.Asked = append(s.Asked, message)
	if len(s.Responses) == 0 {
		return "", ErrNoInput
	}
	r := s.Responses[0]
	s.Responses = s.Responses[1:]
	return Resolve(r, options), nil
}

// YesNo consumes the next scripted response as a yes/no answer.
func (s *Scripted) YesNo(message string, defaultYes bool) (bool, error) {
	r, err := s.AskUser(message, YesNoOptions(defaultYes))
	if err != nil {
		return false, err
	}
	return Matches(r, "yes"), nil
}
