package models

import "time"

// MonitoringRequest is the input of a monitoring cycle.
type MonitoringRequest struct {
	Entities   []string    `json:"entities"`
	Dimensions []Dimension `json:"dimensions"`
	Query      string      `json:"query,omitempty"`
}

// Task priority labels
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// TaskTypeMonitor is the only task type the planner emits.
const TaskTypeMonitor = "monitor"

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TaskParameters carry what the executor needs to fetch data.
type TaskParameters struct {
	Query     string    `json:"query"`
	DateRange DateRange `json:"date_range"`
}

// Task is one (entity, dimension) unit of work. It is never mutated after planning.
type Task struct {
	TaskID        string         `json:"task_id" binding:"required"`
	Type          string         `json:"type"`
	Entity        string         `json:"entity" binding:"required"`
	Dimension     Dimension      `json:"dimension" binding:"required"`
	Sector        string         `json:"sector"`
	Parameters    TaskParameters `json:"parameters"`
	Priority      string         `json:"priority"`
	PriorityScore int            `json:"priority_score"`
}

// Plan is the planner output.
type Plan struct {
	PlanID     string            `json:"plan_id"`
	Entities   []string          `json:"entities"`
	Dimensions []Dimension       `json:"dimensions"`
	Tasks      []Task            `json:"tasks"`
	Priorities map[Dimension]int `json:"priorities"`
	CreatedAt  time.Time         `json:"created_at"`
}
