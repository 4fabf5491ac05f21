// Package tablestorage implements store.TaskStore on Azure Table Storage.
//
// All tasks live in a single partition. The row key is a time-ordered UUID
// (version 7), so listing the partition returns tasks in creation order.
package tablestorage
