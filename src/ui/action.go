package ui

// Action is an intent produced by a page's input handler and carried out by
// the Navigator. The set is closed: only the types below implement it.
type Action interface {
	isAction()
}

type NavigateToEpicDetail struct {
	EpicID uint64
}

type NavigateToStoryDetail struct {
	EpicID  uint64
	StoryID uint64
}

type NavigateToPreviousPage struct{}

type CreateEpic struct{}

type UpdateEpicStatus struct {
	EpicID uint64
}

type DeleteEpic struct {
	EpicID uint64
}

type CreateStory struct {
	EpicID uint64
}

type UpdateStoryStatus struct {
	StoryID uint64
}

type DeleteStory struct {
	EpicID  uint64
	StoryID uint64
}

type Exit struct{}

func (NavigateToEpicDetail) isAction()   {}
func (NavigateToStoryDetail) isAction()  {}
func (NavigateToPreviousPage) isAction() {}
func (CreateEpic) isAction()             {}
func (UpdateEpicStatus) isAction()       {}
func (DeleteEpic) isAction()             {}
func (CreateStory) isAction()            {}
func (UpdateStoryStatus) isAction()      {}
func (DeleteStory) isAction()            {}
func (Exit) isAction()                   {}
