package tablestorage

import (
	"encoding/json"

	"github.com/phrazzld/todo-api/internal/domain"
)

// PartitionKey is the partition every task entity is stored under.
const PartitionKey = "tasks"

// entityKeys are the addressing properties of a table entity.
type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

// taskEntity is the full stored form of a task.
type taskEntity struct {
	entityKeys
	Title       *string `json:"Title,omitempty"`
	Description *string `json:"Description,omitempty"`
	DueDate     *string `json:"DueDate,omitempty"`
	Priority    *string `json:"Priority,omitempty"`
	Done        bool    `json:"Done"`
}

func keysFor(id string) entityKeys {
	return entityKeys{PartitionKey: PartitionKey, RowKey: id}
}

func newTaskEntity(task *domain.Task) taskEntity {
	return taskEntity{
		entityKeys:  keysFor(task.ID),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
		Done:        task.Done,
	}
}

// decodeTask converts a raw entity payload into a task.
func decodeTask(data []byte) (*domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, err
	}
	return &domain.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		DueDate:     ent.DueDate,
		Priority:    ent.Priority,
		Done:        ent.Done,
	}, nil
}
