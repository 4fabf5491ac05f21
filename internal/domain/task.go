package domain

// Task is the single record type managed by the API.
//
// Every field except ID and Done is optional; absent optional fields are
// omitted from the JSON representation. ID is assigned by the store when the
// task is created and never changes afterwards.
type Task struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Done        bool    `json:"done"`
}

// TaskPatch is a partial set of Task fields. An absent field leaves the
// corresponding Task field untouched when applied; a string field sent as
// null clears it. Done cannot be cleared, so a nil Done is treated as absent.
type TaskPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	DueDate     Optional[string] `json:"dueDate"`
	Priority    Optional[string] `json:"priority"`
	Done        *bool            `json:"done,omitempty"`
}

// DonePatch builds a patch that only carries the completion flag.
func DonePatch(done *bool) TaskPatch {
	return TaskPatch{Done: done}
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Present &&
		!p.Description.Present &&
		!p.DueDate.Present &&
		!p.Priority.Present &&
		p.Done == nil
}

// NewTask builds a Task with the given identifier from a create patch.
// Done defaults to false when the patch does not carry it.
func NewTask(id string, patch TaskPatch) *Task {
	t := &Task{ID: id}
	t.Apply(patch)
	return t
}

// Apply merges the fields present in patch over the task. Fields sent as
// null are cleared.
func (t *Task) Apply(patch TaskPatch) {
	if patch.Title.Present {
		t.Title = cloneString(patch.Title.Value)
	}
	if patch.Description.Present {
		t.Description = cloneString(patch.Description.Value)
	}
	if patch.DueDate.Present {
		t.DueDate = cloneString(patch.DueDate.Value)
	}
	if patch.Priority.Present {
		t.Priority = cloneString(patch.Priority.Value)
	}
	if patch.Done != nil {
		t.Done = *patch.Done
	}
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	return &Task{
		ID:          t.ID,
		Title:       cloneString(t.Title),
		Description: cloneString(t.Description),
		DueDate:     cloneString(t.DueDate),
		Priority:    cloneString(t.Priority),
		Done:        t.Done,
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
