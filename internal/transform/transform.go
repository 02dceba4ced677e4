// Package transform converts raw Jira issues into validated training samples.
// One malformed record never aborts a batch: every failure comes back as an
// error naming the record, and the caller drops that record and moves on.
package transform

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/quarry/internal/jira"
)

// commentSeparator joins cleaned comment bodies into comments_text.
const commentSeparator = "\n---\n"

// summarizeThreshold is the extra text (beyond the title) required before a
// summarization task is worth emitting.
const summarizeThreshold = 50

// Transform converts one raw issue into a validated Sample. It never panics:
// missing or oddly-typed fields extract as empty, and validation decides
// whether the result is usable. A nil Sample with an error means the record
// is dropped with that diagnostic.
func Transform(raw jira.RawIssue) (*Sample, error) {
	key := raw.Key()
	fields := mapAt(map[string]any(raw), "fields")

	title := stringAt(fields, "summary")
	description := CleanMarkup(stringAt(fields, "description"))
	comments := collectComments(fields)

	b := Builder{
		IssueKey:        key,
		Project:         resolveName(fields["project"]),
		CreatedAt:       stringAt(fields, "created"),
		UpdatedAt:       stringAt(fields, "updated"),
		Status:          resolveName(fields["status"]),
		Priority:        resolveName(fields["priority"]),
		IssueType:       resolveName(fields["issuetype"]),
		Labels:          stringsAt(fields, "labels"),
		Title:           title,
		DescriptionText: description,
		CommentsText:    comments,
		DerivedTasks:    deriveTasks(key, title, description, comments, fields),
	}
	if reporter := resolveName(fields["reporter"]); reporter != "" {
		b.Reporter = &reporter
	}
	if assignee := resolveName(fields["assignee"]); assignee != "" {
		b.Assignee = &assignee
	}

	sample, err := b.Build()
	if err != nil {
		if key == "" {
			key = "(no key)"
		}
		return nil, fmt.Errorf("issue %s: %w", key, err)
	}
	return sample, nil
}

// collectComments cleans every comment body and joins them with the
// separator. Issues without comments yield "".
func collectComments(fields map[string]any) string {
	bodies := sliceAt(mapAt(fields, "comment"), "comments")
	if len(bodies) == 0 {
		return ""
	}

	cleaned := make([]string, 0, len(bodies))
	for _, c := range bodies {
		comment, ok := c.(map[string]any)
		if !ok {
			continue
		}
		cleaned = append(cleaned, CleanMarkup(stringAt(comment, "body")))
	}
	return strings.Join(cleaned, commentSeparator)
}

// deriveTasks generates 0-4 instruction-tuning tasks in fixed order:
// summarize, priority Q&A, type Q&A, status classification. Each is emitted
// only when its source field is present; the summarize task additionally
// requires the combined text to be substantially longer than the title.
func deriveTasks(key, title, description, comments string, fields map[string]any) []DerivedTask {
	tasks := []DerivedTask{}

	fullText := fmt.Sprintf("Title: %s\nDescription: %s\nComments: %s", title, description, comments)
	if len(fullText) > len(title)+summarizeThreshold {
		tasks = append(tasks, DerivedTask{
			Instruction: "Summarize the following issue report.",
			Input:       fullText,
			Output:      title,
		})
	}

	shortInput := fmt.Sprintf("Title: %s\nDescription: %s", title, description)

	if priority := resolveName(fields["priority"]); priority != "" {
		tasks = append(tasks, DerivedTask{
			Instruction: fmt.Sprintf("What is the priority of issue %s?", key),
			Input:       shortInput,
			Output:      priority,
		})
	}

	if issueType := resolveName(fields["issuetype"]); issueType != "" {
		tasks = append(tasks, DerivedTask{
			Instruction: fmt.Sprintf("What is the issue type for %s?", key),
			Input:       shortInput,
			Output:      issueType,
		})
	}

	if status := resolveName(fields["status"]); status != "" {
		tasks = append(tasks, DerivedTask{
			Instruction: "Classify the current status of this issue.",
			Input:       shortInput,
			Output:      status,
		})
	}

	return tasks
}
