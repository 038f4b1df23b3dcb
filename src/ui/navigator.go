package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/jira_cli/src/db"
)

// Navigator owns the page stack and carries out Actions against the store.
// An empty stack is terminal.
type Navigator struct {
	pages   []Page
	prompts Prompts
	store   *db.Store
}

// NewNavigator starts with the home page on the stack.
func NewNavigator(store *db.Store, prompts Prompts) *Navigator {
	return &Navigator{
		pages:   []Page{NewHomePage(store)},
		prompts: prompts,
		store:   store,
	}
}

// CurrentPage returns the top of the stack, or false once the stack is empty.
func (n *Navigator) CurrentPage() (Page, bool) {
	if len(n.pages) == 0 {
		return nil, false
	}
	return n.pages[len(n.pages)-1], true
}

// Depth is the number of pages on the stack.
func (n *Navigator) Depth() int {
	return len(n.pages)
}

// Pages returns the stack bottom first.
func (n *Navigator) Pages() []Page {
	return append([]Page(nil), n.pages...)
}

func (n *Navigator) push(p Page) {
	n.pages = append(n.pages, p)
}

func (n *Navigator) pop() {
	if len(n.pages) > 0 {
		n.pages = n.pages[:len(n.pages)-1]
	}
}

// keptAfter reports whether a store mutation took effect in memory: it either
// succeeded or only failed to persist.
func keptAfter(err error) bool {
	return err == nil || errors.Is(err, db.ErrPersist)
}

// HandleAction applies one Action. Store failures, including db.ErrNotFound
// for stale ids, are returned for the caller to display.
func (n *Navigator) HandleAction(action Action) error {
	switch a := action.(type) {
	case NavigateToEpicDetail:
		n.push(NewEpicDetail(n.store, a.EpicID))

	case NavigateToStoryDetail:
		n.push(NewStoryDetail(n.store, a.EpicID, a.StoryID))

	case NavigateToPreviousPage:
		n.pop()

	case CreateEpic:
		fields, err := n.prompts.CreateEpic()
		if err != nil {
			return err
		}
		if strings.TrimSpace(fields.Name) == "" {
			return nil
		}
		if _, err := n.store.CreateEpic(fields.Name, fields.Description); err != nil {
			return fmt.Errorf("create epic: %w", err)
		}

	case UpdateEpicStatus:
		status, ok, err := n.prompts.UpdateStatus()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, err := n.store.UpdateEpicStatus(a.EpicID, status); err != nil {
			return fmt.Errorf("update epic %d: %w", a.EpicID, err)
		}

	case DeleteEpic:
		confirmed, err := n.prompts.DeleteEpic()
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
		_, err = n.store.DeleteEpic(a.EpicID)
		if !keptAfter(err) {
			return fmt.Errorf("delete epic %d: %w", a.EpicID, err)
		}
		n.pop()
		if err != nil {
			return fmt.Errorf("delete epic %d: %w", a.EpicID, err)
		}

	case CreateStory:
		fields, err := n.prompts.CreateStory()
		if err != nil {
			return err
		}
		if strings.TrimSpace(fields.Name) == "" {
			return nil
		}
		if _, err := n.store.CreateStory(a.EpicID, fields.Name, fields.Description); err != nil {
			return fmt.Errorf("create story in epic %d: %w", a.EpicID, err)
		}

	case UpdateStoryStatus:
		status, ok, err := n.prompts.UpdateStatus()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, err := n.store.UpdateStoryStatus(a.StoryID, status); err != nil {
			return fmt.Errorf("update story %d: %w", a.StoryID, err)
		}

	case DeleteStory:
		confirmed, err := n.prompts.DeleteStory()
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
		_, err = n.store.DeleteStory(a.EpicID, a.StoryID)
		if !keptAfter(err) {
			return fmt.Errorf("delete story %d: %w", a.StoryID, err)
		}
		n.pop()
		if err != nil {
			return fmt.Errorf("delete story %d: %w", a.StoryID, err)
		}

	case Exit:
		n.pages = n.pages[:0]

	default:
		return fmt.Errorf("unsupported action %T", action)
	}

	return nil
}
