package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/danmuck/jira_cli/src/db"
	logs "github.com/danmuck/smplog"
)

// Page renders a view of the store and turns one line of input into an Action.
// HandleInput returns a nil Action for input it does not recognise. Pages keep
// only ids and re-read the store on every call.
type Page interface {
	Draw() error
	HandleInput(input string) (Action, error)
}

var (
	listWidths   = []int{11, 32, 17}
	detailWidths = []int{5, 12, 27, 13}
)

type keyHint struct {
	key  string
	desc string
}

func drawPage(title string, lines []string, hints []keyHint) {
	logs.Titlef("%s\n", title)
	for _, line := range lines {
		logs.Dataf("%s\n", line)
	}
	logs.Printf("\n")
	for _, h := range hints {
		logs.KeyHint(h.key, h.desc)
		logs.Printf("\n")
	}
	logs.Printf("\n")
}

func normalizeInput(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func parseID(input string) (uint64, bool) {
	id, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// HomePage lists every epic.
type HomePage struct {
	store *db.Store
}

func NewHomePage(store *db.Store) *HomePage {
	return &HomePage{store: store}
}

func (p *HomePage) lines() []string {
	lines := []string{header(listWidths, "id", "name", "status")}
	for _, rec := range p.store.ListEpics() {
		lines = append(lines, row(listWidths, formatID(rec.ID), rec.Name, rec.Status.Label()))
	}
	return lines
}

func (p *HomePage) Draw() error {
	drawPage(banner("EPICS", tableWidth(listWidths)), p.lines(), []keyHint{
		{"q", "quit"},
		{"c", "create epic"},
		{":id:", "navigate to epic"},
	})
	return nil
}

func (p *HomePage) HandleInput(input string) (Action, error) {
	choice := normalizeInput(input)
	switch choice {
	case "q":
		return Exit{}, nil
	case "c":
		return CreateEpic{}, nil
	}

	id, ok := parseID(choice)
	if !ok {
		return nil, nil
	}
	if _, err := p.store.GetEpicByID(id); err != nil {
		return nil, nil
	}
	return NavigateToEpicDetail{EpicID: id}, nil
}

// EpicDetail shows one epic and the stories it lists.
type EpicDetail struct {
	EpicID uint64
	store  *db.Store
}

func NewEpicDetail(store *db.Store, epicID uint64) *EpicDetail {
	return &EpicDetail{EpicID: epicID, store: store}
}

func (p *EpicDetail) lines() ([]string, error) {
	epic, err := p.store.GetEpicByID(p.EpicID)
	if err != nil {
		return nil, err
	}
	stories, err := p.store.ListStories(p.EpicID)
	if err != nil {
		return nil, err
	}

	lines := []string{
		header(detailWidths, "id", "name", "description", "status"),
		row(detailWidths, formatID(p.EpicID), epic.Name, epic.Description, epic.Status.Label()),
		"",
		banner("STORIES", tableWidth(listWidths)),
		header(listWidths, "id", "name", "status"),
	}
	for _, rec := range stories {
		lines = append(lines, row(listWidths, formatID(rec.ID), rec.Name, rec.Status.Label()))
	}
	return lines, nil
}

func (p *EpicDetail) Draw() error {
	lines, err := p.lines()
	if err != nil {
		return fmt.Errorf("render epic %d: %w", p.EpicID, err)
	}
	drawPage(banner("EPIC", tableWidth(detailWidths)), lines, []keyHint{
		{"p", "previous"},
		{"u", "update epic"},
		{"d", "delete epic"},
		{"c", "create story"},
		{":id:", "navigate to story"},
	})
	return nil
}

func (p *EpicDetail) HandleInput(input string) (Action, error) {
	choice := normalizeInput(input)
	switch choice {
	case "p":
		return NavigateToPreviousPage{}, nil
	case "u":
		return UpdateEpicStatus{EpicID: p.EpicID}, nil
	case "d":
		return DeleteEpic{EpicID: p.EpicID}, nil
	case "c":
		return CreateStory{EpicID: p.EpicID}, nil
	}

	id, ok := parseID(choice)
	if !ok {
		return nil, nil
	}
	epic, err := p.store.GetEpicByID(p.EpicID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(epic.Stories, id) {
		return nil, nil
	}
	return NavigateToStoryDetail{EpicID: p.EpicID, StoryID: id}, nil
}

// StoryDetail shows a single story.
type StoryDetail struct {
	EpicID  uint64
	StoryID uint64
	store   *db.Store
}

func NewStoryDetail(store *db.Store, epicID, storyID uint64) *StoryDetail {
	return &StoryDetail{EpicID: epicID, StoryID: storyID, store: store}
}

func (p *StoryDetail) lines() ([]string, error) {
	story, err := p.store.GetStoryByID(p.StoryID)
	if err != nil {
		return nil, err
	}
	return []string{
		header(detailWidths, "id", "name", "description", "status"),
		row(detailWidths, formatID(p.StoryID), story.Name, story.Description, story.Status.Label()),
	}, nil
}

func (p *StoryDetail) Draw() error {
	lines, err := p.lines()
	if err != nil {
		return fmt.Errorf("render story %d: %w", p.StoryID, err)
	}
	drawPage(banner("STORY", tableWidth(detailWidths)), lines, []keyHint{
		{"p", "previous"},
		{"u", "update story"},
		{"d", "delete story"},
	})
	return nil
}

func (p *StoryDetail) HandleInput(input string) (Action, error) {
	switch normalizeInput(input) {
	case "p":
		return NavigateToPreviousPage{}, nil
	case "u":
		return UpdateStoryStatus{StoryID: p.StoryID}, nil
	case "d":
		return DeleteStory{EpicID: p.EpicID, StoryID: p.StoryID}, nil
	}
	return nil, nil
}
