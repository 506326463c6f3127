package changes

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/daoboard/notifier/pkg/dao"
	"github.com/daoboard/notifier/pkg/notifications"
)

// Context carries who made a change and how to resolve user names.
type Context struct {
	// Actor is the display name of the user making the change.
	Actor string
	// Names resolves user ids not found in the record's team.
	Names NameFunc
}

func (c Context) names(r dao.Record) NameFunc {
	return func(id string) string {
		if m, ok := r.Member(id); ok && m.DisplayName != "" {
			return m.DisplayName
		}
		if c.Names != nil {
			if n := c.Names(id); n != "" {
				return n
			}
		}
		return id
	}
}

func (c Context) by() string {
	if c.Actor == "" {
		return ""
	}
	return " par " + c.Actor
}

const noChanges = "Aucune modification détectée."

// RecordDiff is every change between two versions of a record.
type RecordDiff struct {
	Fields         []FieldChange
	Team           []Line
	Tasks          []TaskDiff
	ProgressBefore int
	ProgressAfter  int
}

// TaskDiff is the change set of one task inside a record update.
type TaskDiff struct {
	TaskID  string
	Name    string
	Changes []FieldChange
	Added   bool
	Removed bool
}

// Empty reports whether nothing changed.
func (d RecordDiff) Empty() bool {
	return len(d.Fields) == 0 && len(d.Team) == 0 && len(d.Tasks) == 0 && d.ProgressBefore == d.ProgressAfter
}

// ChangedFields lists changed field keys; team and task changes appear as
// "equipe" and "tasks".
func (d RecordDiff) ChangedFields() []string {
	out := make([]string, 0, len(d.Fields)+2)
	for _, f := range d.Fields {
		out = append(out, f.Field)
	}
	if len(d.Team) > 0 {
		out = append(out, "equipe")
	}
	if len(d.Tasks) > 0 {
		out = append(out, "tasks")
	}
	return out
}

// DiffRecords computes the full diff between two record versions.
func DiffRecords(before, after dao.Record, names NameFunc) RecordDiff {
	d := RecordDiff{
		Fields:         DetectRecordChanges(before, after),
		Team:           DetectTeamChanges(before.Team, after.Team),
		ProgressBefore: before.Progress(),
		ProgressAfter:  after.Progress(),
	}
	for _, t := range after.Tasks {
		prev, ok := before.Task(t.ID)
		if !ok {
			d.Tasks = append(d.Tasks, TaskDiff{TaskID: t.ID, Name: t.Name, Added: true})
			continue
		}
		if changes := DetectTaskChanges(prev, t, names); len(changes) > 0 {
			d.Tasks = append(d.Tasks, TaskDiff{TaskID: t.ID, Name: t.Name, Changes: changes})
		}
	}
	for _, t := range before.Tasks {
		if _, ok := after.Task(t.ID); !ok {
			d.Tasks = append(d.Tasks, TaskDiff{TaskID: t.ID, Name: t.Name, Removed: true})
		}
	}
	return d
}

// RenderCreated describes a newly created record.
func RenderCreated(record dao.Record, c Context) notifications.Payload {
	s := Summary{
		Title: "Nouveau DAO : " + record.Number,
		Intro: fmt.Sprintf("Le dossier %s a été créé%s.", record.Number, c.by()),
		Sections: []Section{
			{Title: "Informations", Lines: recordInfo(record)},
			{Title: "Équipe", Lines: teamLines(record.Team)},
		},
	}
	return payload(notifications.TypeDAOCreated, "dao_created", record, s, map[string]any{
		"numeroListe": record.Number,
	})
}

// RenderUpdated describes what changed between two versions of a record.
func RenderUpdated(before, after dao.Record, c Context) notifications.Payload {
	d := DiffRecords(before, after, c.names(after))

	s := Summary{
		Title: "DAO mis à jour : " + after.Number,
		Intro: fmt.Sprintf("Le dossier %s a été modifié%s.", after.Number, c.by()),
	}
	if d.Empty() {
		s.Sections = []Section{{Title: "Modifications", Lines: []Line{{Kind: LinePlain, Text: noChanges}}}}
	} else {
		var fields []Line
		for _, f := range d.Fields {
			fields = append(fields, f.Lines()...)
		}
		s.Sections = append(s.Sections,
			Section{Title: "Modifications", Lines: fields},
			Section{Title: "Équipe", Lines: d.Team},
		)
		for _, t := range d.Tasks {
			s.Sections = append(s.Sections, taskSection(t))
		}
		if d.ProgressBefore != d.ProgressAfter {
			s.Sections = append(s.Sections, Section{
				Title: "Avancement",
				Lines: FieldChange{
					Label:  Label{"Progression globale", true},
					Before: percent(d.ProgressBefore),
					After:  percent(d.ProgressAfter),
				}.Lines(),
			})
		}
	}

	return payload(notifications.TypeDAOUpdated, "dao_updated", after, s, map[string]any{
		"changedFields": d.ChangedFields(),
		"diff":          nonNil(s.Diff()),
	})
}

// RenderDeleted describes a deleted record.
func RenderDeleted(record dao.Record, c Context) notifications.Payload {
	s := Summary{
		Title:    "DAO supprimé : " + record.Number,
		Intro:    fmt.Sprintf("Le dossier %s a été supprimé%s.", record.Number, c.by()),
		Sections: []Section{{Title: "Informations", Lines: recordInfo(record)}},
	}
	return payload(notifications.TypeDAODeleted, "dao_deleted", record, s, map[string]any{
		"numeroListe": record.Number,
	})
}

// RenderTaskUpdated describes a change to one task of a record.
func RenderTaskUpdated(record dao.Record, before, after dao.Task, c Context) notifications.Payload {
	changes := DetectTaskChanges(before, after, c.names(record))

	var lines []Line
	for _, ch := range changes {
		lines = append(lines, ch.Lines()...)
	}
	if len(lines) == 0 {
		lines = []Line{{Kind: LinePlain, Text: noChanges}}
	}
	s := Summary{
		Title:    "Tâche mise à jour : " + after.Name,
		Intro:    fmt.Sprintf("La tâche « %s » du dossier %s a été modifiée%s.", after.Name, record.Number, c.by()),
		Sections: []Section{{Title: "Détails", Lines: lines}},
	}

	fields := make([]string, 0, len(changes))
	for _, ch := range changes {
		fields = append(fields, ch.Field)
	}
	return payload(notifications.TypeTaskNotification, "task_updated", record, s, map[string]any{
		"taskId":        after.ID,
		"changedFields": fields,
		"diff":          nonNil(s.Diff()),
	})
}

func payload(t notifications.Type, event string, record dao.Record, s Summary, extra map[string]any) notifications.Payload {
	// Rendering into a strings.Builder cannot fail.
	html, _ := s.HTML(context.Background())
	data := map[string]any{
		notifications.DataEvent:    event,
		notifications.DataRecordID: record.ID,
		notifications.DataHTML:     html,
	}
	for k, v := range extra {
		data[k] = v
	}
	return notifications.Payload{Type: t, Title: s.Title, Message: s.Text(), Data: data}
}

func recordInfo(r dao.Record) []Line {
	var lines []Line
	for _, f := range recordFields {
		if v := f.value(r); v != "" {
			lines = append(lines, Line{Kind: LinePlain, Text: f.label.Name + " : " + v})
		}
	}
	applicable := 0
	for _, t := range r.Tasks {
		if t.Applicable {
			applicable++
		}
	}
	lines = append(lines,
		Line{Kind: LinePlain, Text: "Progression : " + percent(r.Progress())},
		Line{Kind: LinePlain, Text: fmt.Sprintf("Tâches : %d (%d applicables)", len(r.Tasks), applicable)},
	)
	return lines
}

func teamLines(team []dao.Member) []Line {
	if len(team) == 0 {
		return []Line{{Kind: LinePlain, Text: "Aucun membre assigné"}}
	}
	members := slices.Clone(team)
	sortMembers(members)
	lines := make([]Line, 0, len(members))
	for _, m := range members {
		lines = append(lines, Line{Kind: LinePlain, Text: fmt.Sprintf("%s (%s)", memberName(m), m.Role.Label())})
	}
	return lines
}

func taskSection(t TaskDiff) Section {
	sec := Section{Title: "Tâche « " + t.Name + " »"}
	switch {
	case t.Added:
		sec.Lines = []Line{{Kind: LineAdded, Text: "Tâche ajoutée"}}
	case t.Removed:
		sec.Lines = []Line{{Kind: LineRemoved, Text: "Tâche supprimée"}}
	default:
		for _, ch := range t.Changes {
			sec.Lines = append(sec.Lines, ch.Lines()...)
		}
	}
	return sec
}

func percent(n int) string { return strconv.Itoa(n) + "%" }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
