package runner

import (
	"errors"

	"github.com/matsen/bibshelf/internal/prompt"
)

// Loop reads and executes commands until quit, then offers to save a
// modified collection. A non-empty initial command runs first. When input
// ends without a quit, unsaved changes are reported and left unwritten.
func (s *Session) Loop(initial string) error {
	pending := initial != ""
	for {
		line := initial
		if !pending {
			var err error
			line, err = s.console.ReadCommand()
			if errors.Is(err, prompt.ErrNoInput) {
				if s.Collection.Modified() {
					s.console.Warn("Input closed: unsaved changes were not written.")
				}
				return nil
			}
			if err != nil {
				return err
			}
		}
		pending = false

		s.console.Debug("command", "line", line)
		quit, err := s.Execute(line)
		if err != nil {
			if Fatal(err) {
				return err
			}
			s.console.Error(err.Error())
		}
		if quit {
			break
		}
	}
	return s.SaveIfModified()
}
