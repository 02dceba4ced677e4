package transform

import (
	"fmt"
	"strings"
)

// Sample is one normalized training record, written as a single JSONL line.
type Sample struct {
	IssueKey  string `json:"issue_key"`
	Project   string `json:"project"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	Status    string   `json:"status"`
	Priority  string   `json:"priority"`
	IssueType string   `json:"issue_type"`
	Reporter  *string  `json:"reporter"`
	Assignee  *string  `json:"assignee"`
	Labels    []string `json:"labels"`

	Title           string `json:"title"`
	DescriptionText string `json:"description_text"`
	CommentsText    string `json:"comments_text"`

	DerivedTasks []DerivedTask `json:"derived_tasks"`
}

// DerivedTask is one instruction-tuning example synthesized from an issue.
type DerivedTask struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// Builder accumulates sample fields and performs an all-or-nothing Build:
// either every required field is present and a Sample is returned, or the
// error names what is missing and no partial sample escapes.
type Builder struct {
	IssueKey  string
	Project   string
	CreatedAt string
	UpdatedAt string
	Status    string
	Priority  string
	IssueType string
	Reporter  *string
	Assignee  *string
	Labels    []string

	Title           string
	DescriptionText string
	CommentsText    string

	DerivedTasks []DerivedTask
}

// Build validates the accumulated fields and constructs the Sample.
// Title, description and comments may be empty strings; the identity,
// temporal and categorical fields may not.
func (b *Builder) Build() (*Sample, error) {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	require("issue_key", b.IssueKey)
	require("project", b.Project)
	require("created_at", b.CreatedAt)
	require("updated_at", b.UpdatedAt)
	require("status", b.Status)
	require("priority", b.Priority)
	require("issue_type", b.IssueType)

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	labels := b.Labels
	if labels == nil {
		labels = []string{}
	}
	tasks := b.DerivedTasks
	if tasks == nil {
		tasks = []DerivedTask{}
	}

	return &Sample{
		IssueKey:        b.IssueKey,
		Project:         b.Project,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Status:          b.Status,
		Priority:        b.Priority,
		IssueType:       b.IssueType,
		Reporter:        b.Reporter,
		Assignee:        b.Assignee,
		Labels:          labels,
		Title:           b.Title,
		DescriptionText: b.DescriptionText,
		CommentsText:    b.CommentsText,
		DerivedTasks:    tasks,
	}, nil
}
