package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/jira_cli/src/db"
	logs "github.com/danmuck/smplog"
)

// Session drives the draw, read, dispatch loop over a Navigator.
type Session struct {
	Navigator   *Navigator
	ClearScreen bool

	reader *bufio.Reader
}

// NewSession builds a session whose prompts and page commands share one
// buffered reader over input.
func NewSession(store *db.Store, input io.Reader, clearScreen bool) *Session {
	reader := getBufferedReader(input)
	return &Session{
		Navigator:   NewNavigator(store, NewLinePrompts(reader)),
		ClearScreen: clearScreen,
		reader:      reader,
	}
}

// Run loops until the page stack is empty or input is exhausted. Errors from
// a single step are shown to the user and the loop continues; only read
// failures other than io.EOF end it with an error.
func (s *Session) Run() error {
	for {
		page, ok := s.Navigator.CurrentPage()
		if !ok {
			return nil
		}

		s.clear()
		if err := page.Draw(); err != nil {
			if waitErr := s.report(err); waitErr != nil {
				return waitErr
			}
			// The page's record is gone; step back so the loop cannot stick.
			s.Navigator.pop()
			continue
		}

		logs.Prompt("Choose: ")
		line, err := readLine(s.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		action, err := page.HandleInput(line)
		if err != nil {
			if waitErr := s.report(err); waitErr != nil {
				return waitErr
			}
			continue
		}
		if action == nil {
			continue
		}

		if err := s.Navigator.HandleAction(action); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if waitErr := s.report(err); waitErr != nil {
				return waitErr
			}
		}
	}
}

func (s *Session) clear() {
	if !s.ClearScreen {
		return
	}
	fmt.Print("\033[H\033[2J")
}

// report shows err and blocks until the user presses enter.
func (s *Session) report(err error) error {
	logs.Printf("\n")
	logs.StatusWarn(err.Error())
	logs.Printf("\n")
	logs.Prompt("Press enter to continue...")
	if _, readErr := readLine(s.reader); readErr != nil {
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to read input: %w", readErr)
	}
	return nil
}
