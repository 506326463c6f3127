// Package changes detects what changed between two versions of a record
// or task and renders notification payloads describing it.
//
// Detection produces FieldChange values and team/task lines. Rendering
// assembles them into a Summary, a presentation-neutral value with two
// renderers: Text for the notification message and Component/HTML for the
// email body. Output is deterministic: fields keep a fixed order and team
// and assignee lists are sorted by display name.
package changes
