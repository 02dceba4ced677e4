package transform

import (
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/quarry/internal/jira"
)

// rawIssue builds a well-formed raw issue the way the search API returns it.
func rawIssue(key string) jira.RawIssue {
	return jira.RawIssue{
		"key": key,
		"fields": map[string]any{
			"summary":     "NPE in scheduler",
			"description": "The scheduler crashes with a null pointer when the queue is empty and retries are enabled.",
			"comment": map[string]any{
				"comments": []any{
					map[string]any{"body": "Reproduced on trunk."},
					map[string]any{"body": "Fix attached, see [patch|http://example.com/p.diff]"},
				},
			},
			"status":    map[string]any{"name": "Open"},
			"priority":  map[string]any{"name": "Major"},
			"issuetype": map[string]any{"name": "Bug"},
			"reporter":  map[string]any{"displayName": "Ada Lovelace", "name": "ada"},
			"assignee":  nil,
			"labels":    []any{"scheduler", "npe"},
			"created":   "2019-03-01T10:00:00.000+0000",
			"updated":   "2019-03-05T12:00:00.000+0000",
			"project":   map[string]any{"name": "Hadoop", "key": "HADOOP"},
		},
	}
}

func TestTransform_FullIssue(t *testing.T) {
	sample, err := Transform(rawIssue("HADOOP-123"))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if sample.IssueKey != "HADOOP-123" {
		t.Errorf("issue key = %q", sample.IssueKey)
	}
	if sample.Project != "Hadoop" {
		t.Errorf("project = %q", sample.Project)
	}
	if sample.Status != "Open" || sample.Priority != "Major" || sample.IssueType != "Bug" {
		t.Errorf("categoricals = %q/%q/%q", sample.Status, sample.Priority, sample.IssueType)
	}
	if sample.CreatedAt != "2019-03-01T10:00:00.000+0000" {
		t.Errorf("created_at not passed through verbatim: %q", sample.CreatedAt)
	}
	if sample.Reporter == nil || *sample.Reporter != "Ada Lovelace" {
		t.Errorf("reporter = %v, want displayName preferred", sample.Reporter)
	}
	if sample.Assignee != nil {
		t.Errorf("assignee = %v, want nil for null field", sample.Assignee)
	}
	if len(sample.Labels) != 2 || sample.Labels[0] != "scheduler" {
		t.Errorf("labels = %v", sample.Labels)
	}

	wantComments := "Reproduced on trunk.\n---\nFix attached, see patch"
	if sample.CommentsText != wantComments {
		t.Errorf("comments_text = %q, want %q", sample.CommentsText, wantComments)
	}
}

func TestTransform_DerivedTasksFullSet(t *testing.T) {
	sample, err := Transform(rawIssue("HADOOP-123"))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if len(sample.DerivedTasks) != 4 {
		t.Fatalf("got %d derived tasks, want 4", len(sample.DerivedTasks))
	}

	summarize := sample.DerivedTasks[0]
	if summarize.Instruction != "Summarize the following issue report." {
		t.Errorf("task[0] instruction = %q", summarize.Instruction)
	}
	if summarize.Output != "NPE in scheduler" {
		t.Errorf("summarize output = %q, want the title", summarize.Output)
	}
	if !strings.Contains(summarize.Input, "Comments: ") {
		t.Errorf("summarize input must include comments: %q", summarize.Input)
	}

	priority := sample.DerivedTasks[1]
	if priority.Instruction != "What is the priority of issue HADOOP-123?" {
		t.Errorf("task[1] instruction = %q", priority.Instruction)
	}
	if priority.Output != "Major" {
		t.Errorf("priority output = %q", priority.Output)
	}
	if strings.Contains(priority.Input, "Comments:") {
		t.Errorf("Q&A input must exclude comments: %q", priority.Input)
	}

	if sample.DerivedTasks[2].Output != "Bug" {
		t.Errorf("task[2] output = %q, want issue type", sample.DerivedTasks[2].Output)
	}
	status := sample.DerivedTasks[3]
	if status.Instruction != "Classify the current status of this issue." {
		t.Errorf("task[3] instruction = %q", status.Instruction)
	}
	if status.Output != "Open" {
		t.Errorf("status output = %q", status.Output)
	}
}

func TestTransform_MinimalTextOmitsSummarizeTask(t *testing.T) {
	raw := rawIssue("HADOOP-7")
	fields := raw["fields"].(map[string]any)
	fields["summary"] = "Short"
	fields["description"] = nil
	fields["comment"] = nil

	sample, err := Transform(raw)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if len(sample.DerivedTasks) != 3 {
		t.Fatalf("got %d derived tasks, want 3 (no summarize)", len(sample.DerivedTasks))
	}
	for _, task := range sample.DerivedTasks {
		if task.Instruction == "Summarize the following issue report." {
			t.Error("summarize task present despite minimal text")
		}
	}
}

func TestTransform_MissingStatusProducesNothing(t *testing.T) {
	raw := rawIssue("HADOOP-9")
	delete(raw["fields"].(map[string]any), "status")

	sample, err := Transform(raw)
	if sample != nil {
		t.Fatal("no sample may be produced for a record missing a required field")
	}
	if err == nil {
		t.Fatal("expected a diagnostic error")
	}
	if !strings.Contains(err.Error(), "HADOOP-9") {
		t.Errorf("diagnostic should name the record: %v", err)
	}
	if !strings.Contains(err.Error(), "status") {
		t.Errorf("diagnostic should name the missing field: %v", err)
	}
}

func TestTransform_MissingKeyProducesNothing(t *testing.T) {
	raw := rawIssue("X")
	delete(map[string]any(raw), "key")

	if sample, err := Transform(raw); sample != nil || err == nil {
		t.Fatalf("Transform = (%v, %v), want (nil, error)", sample, err)
	}
}

func TestTransform_CompletelyMalformedRecord(t *testing.T) {
	// Fields of entirely wrong types must not panic, only fail validation.
	raw := jira.RawIssue{
		"key": 12345,
		"fields": map[string]any{
			"summary":  []any{"not", "a", "string"},
			"status":   "not a map",
			"comment":  "also not a map",
			"labels":   "nope",
			"priority": map[string]any{"name": 7},
		},
	}

	sample, err := Transform(raw)
	if sample != nil {
		t.Fatal("malformed record must not produce a sample")
	}
	if err == nil {
		t.Fatal("expected a diagnostic error")
	}
}

func TestTransform_EmptyLabelsMarshalAsEmptyList(t *testing.T) {
	raw := rawIssue("HADOOP-11")
	delete(raw["fields"].(map[string]any), "labels")

	sample, err := Transform(raw)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if sample.Labels == nil || len(sample.Labels) != 0 {
		t.Errorf("labels = %#v, want empty non-nil slice", sample.Labels)
	}
}

func TestResolveName_Fallback(t *testing.T) {
	if got := resolveName(map[string]any{"displayName": "Grace Hopper", "name": "grace"}); got != "Grace Hopper" {
		t.Errorf("resolveName = %q, want displayName", got)
	}
	if got := resolveName(map[string]any{"name": "Blocker"}); got != "Blocker" {
		t.Errorf("resolveName = %q, want name fallback", got)
	}
	if got := resolveName(nil); got != "" {
		t.Errorf("resolveName(nil) = %q, want empty", got)
	}
	if got := resolveName("plain string"); got != "" {
		t.Errorf("resolveName(non-map) = %q, want empty", got)
	}
}

func TestBuilder_AllOrNothing(t *testing.T) {
	b := Builder{
		IssueKey:  "K-1",
		Project:   "K",
		CreatedAt: "2020-01-01",
		UpdatedAt: "2020-01-02",
		Status:    "Open",
		Priority:  "Minor",
		IssueType: "Task",
	}
	if _, err := b.Build(); err != nil {
		t.Fatalf("complete builder should build: %v", err)
	}

	b.Priority = ""
	b.UpdatedAt = ""
	_, err := b.Build()
	if err == nil {
		t.Fatal("incomplete builder must not build")
	}
	if !strings.Contains(err.Error(), "priority") || !strings.Contains(err.Error(), "updated_at") {
		t.Errorf("error should list every missing field: %v", err)
	}
}
