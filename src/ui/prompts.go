package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/jira_cli/src/db"
	logs "github.com/danmuck/smplog"
)

// Fields holds the user-entered name and description of a new epic or story.
type Fields struct {
	Name        string
	Description string
}

// Prompts collects input for the actions that need more than a page command.
// Implementations do their own I/O and never touch the store.
type Prompts interface {
	CreateEpic() (Fields, error)
	CreateStory() (Fields, error)
	DeleteEpic() (bool, error)
	DeleteStory() (bool, error)
	// UpdateStatus returns false when the selection is not a valid status.
	UpdateStatus() (db.Status, bool, error)
}

// LinePrompts asks its questions on the terminal and reads one line per answer.
type LinePrompts struct {
	reader *bufio.Reader
}

// NewLinePrompts reads answers from input. Pass the session's *bufio.Reader
// so both share one buffer.
func NewLinePrompts(input io.Reader) *LinePrompts {
	return &LinePrompts{reader: getBufferedReader(input)}
}

func getBufferedReader(input io.Reader) *bufio.Reader {
	if reader, ok := input.(*bufio.Reader); ok {
		return reader
	}
	return bufio.NewReader(input)
}

// readLine returns the next line without its terminator. A final line with
// no newline is returned as is; io.EOF is only reported when nothing was read.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *LinePrompts) ask(question string) (string, error) {
	logs.Prompt(question)
	line, err := readLine(p.reader)
	if err != nil {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *LinePrompts) fields(kind string) (Fields, error) {
	logs.Printf("\n")
	logs.DividerRune(0, '-')
	logs.Printf("\n")
	name, err := p.ask(kind + " Name: ")
	if err != nil {
		return Fields{}, err
	}
	description, err := p.ask(kind + " Description: ")
	if err != nil {
		return Fields{}, err
	}
	return Fields{Name: name, Description: description}, nil
}

func (p *LinePrompts) confirm(question string) (bool, error) {
	logs.Printf("\n")
	logs.DividerRune(0, '-')
	logs.Printf("\n")
	answer, err := p.ask(question + " [Y/n]: ")
	if err != nil {
		return false, err
	}
	return isConfirmation(answer), nil
}

// isConfirmation treats "y", "Y" and an empty answer (the default) as yes.
func isConfirmation(answer string) bool {
	switch strings.TrimSpace(answer) {
	case "", "y", "Y":
		return true
	}
	return false
}

func (p *LinePrompts) CreateEpic() (Fields, error) {
	return p.fields("Epic")
}

func (p *LinePrompts) CreateStory() (Fields, error) {
	return p.fields("Story")
}

func (p *LinePrompts) DeleteEpic() (bool, error) {
	return p.confirm("Are you sure you want to delete this epic? All stories in this epic will also be deleted")
}

func (p *LinePrompts) DeleteStory() (bool, error) {
	return p.confirm("Are you sure you want to delete this story?")
}

func (p *LinePrompts) UpdateStatus() (db.Status, bool, error) {
	logs.Printf("\n")
	logs.DividerRune(0, '-')
	logs.Printf("\n")
	answer, err := p.ask("New Status (1 - OPEN, 2 - IN-PROGRESS, 3 - RESOLVED, 4 - CLOSED): ")
	if err != nil {
		return "", false, err
	}
	status, ok := db.StatusFromChoice(answer)
	return status, ok, nil
}
