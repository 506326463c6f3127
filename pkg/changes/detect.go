package changes

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/daoboard/notifier/pkg/dao"
)

// CommentBudget is the number of characters of a comment shown in a diff.
const CommentBudget = 120

// Label is a French field label. Feminine selects adjective agreement.
type Label struct {
	Name     string
	Feminine bool
}

func (l Label) before() string {
	if l.Feminine {
		return l.Name + " antérieure"
	}
	return l.Name + " antérieur"
}

func (l Label) after() string {
	if l.Feminine {
		return l.Name + " modifiée"
	}
	return l.Name + " modifié"
}

// FieldChange is one field whose value differs.
type FieldChange struct {
	Field  string
	Label  Label
	Before string
	After  string
}

// Lines renders the change as a before line followed by an after line.
func (c FieldChange) Lines() []Line {
	return []Line{
		{Kind: LineBefore, Text: c.Label.before() + " : " + c.Before},
		{Kind: LineAfter, Text: c.Label.after() + " : " + c.After},
	}
}

type recordField struct {
	key   string
	label Label
	value func(dao.Record) string
}

var recordFields = []recordField{
	{"numeroListe", Label{"Numéro de liste", false}, func(r dao.Record) string { return r.Number }},
	{"objetDossier", Label{"Objet du dossier", false}, func(r dao.Record) string { return r.Object }},
	{"reference", Label{"Référence", true}, func(r dao.Record) string { return r.Reference }},
	{"autoriteContractante", Label{"Autorité contractante", true}, func(r dao.Record) string { return r.Authority }},
	{"description", Label{"Description", true}, func(r dao.Record) string { return r.Description }},
	{"dateDepot", Label{"Date de dépôt", true}, func(r dao.Record) string { return FormatDate(r.SubmissionDate) }},
}

// DetectRecordChanges compares the tracked scalar fields of a record.
func DetectRecordChanges(before, after dao.Record) []FieldChange {
	var out []FieldChange
	for _, f := range recordFields {
		b, a := f.value(before), f.value(after)
		if b == a {
			continue
		}
		out = append(out, FieldChange{Field: f.key, Label: f.label, Before: orNone(b), After: orNone(a)})
	}
	return out
}

// DetectTeamChanges lists added, removed and role-changed members in that
// order, each group sorted by display name.
func DetectTeamChanges(before, after []dao.Member) []Line {
	prev := make(map[string]dao.Member, len(before))
	for _, m := range before {
		prev[m.UserID] = m
	}
	next := make(map[string]dao.Member, len(after))
	for _, m := range after {
		next[m.UserID] = m
	}

	var added, removed, changed []dao.Member
	for id, m := range next {
		old, ok := prev[id]
		switch {
		case !ok:
			added = append(added, m)
		case old.Role != m.Role:
			changed = append(changed, m)
		}
	}
	for id, m := range prev {
		if _, ok := next[id]; !ok {
			removed = append(removed, m)
		}
	}
	sortMembers(added)
	sortMembers(removed)
	sortMembers(changed)

	var lines []Line
	for _, m := range added {
		lines = append(lines, Line{Kind: LineAdded, Text: fmt.Sprintf("Membre ajouté : %s (%s)", memberName(m), m.Role.Label())})
	}
	for _, m := range removed {
		lines = append(lines, Line{Kind: LineRemoved, Text: "Membre retiré : " + memberName(m)})
	}
	for _, m := range changed {
		lines = append(lines, Line{Kind: LineAfter, Text: fmt.Sprintf("Rôle modifié : %s (%s → %s)",
			memberName(m), prev[m.UserID].Role.Label(), m.Role.Label())})
	}
	return lines
}

// NameFunc resolves a user id to a display name.
type NameFunc func(userID string) string

// DetectTaskChanges compares progress, applicability, comment and
// assignees. Assignees are compared as sets of resolved display names.
func DetectTaskChanges(before, after dao.Task, names NameFunc) []FieldChange {
	if names == nil {
		names = func(id string) string { return id }
	}

	var out []FieldChange
	if before.Progress != after.Progress {
		out = append(out, FieldChange{
			Field:  string(dao.FieldProgress),
			Label:  Label{"Progression", true},
			Before: fmt.Sprintf("%d%%", before.Progress),
			After:  fmt.Sprintf("%d%%", after.Progress),
		})
	}
	if before.Applicable != after.Applicable {
		out = append(out, FieldChange{
			Field:  string(dao.FieldApplicable),
			Label:  Label{"Applicabilité", true},
			Before: yesNo(before.Applicable),
			After:  yesNo(after.Applicable),
		})
	}
	if before.Comment != after.Comment {
		out = append(out, FieldChange{
			Field:  string(dao.FieldComment),
			Label:  Label{"Commentaire", false},
			Before: orNone(Truncate(before.Comment, CommentBudget)),
			After:  orNone(Truncate(after.Comment, CommentBudget)),
		})
	}
	b, a := assigneeNames(before.AssignedTo, names), assigneeNames(after.AssignedTo, names)
	if strings.Join(b, "\x00") != strings.Join(a, "\x00") {
		out = append(out, FieldChange{
			Field:  string(dao.FieldAssignedTo),
			Label:  Label{"Assignation", true},
			Before: joinNames(b),
			After:  joinNames(a),
		})
	}
	return out
}

// Truncate shortens s to budget characters, marking the cut with an ellipsis.
func Truncate(s string, budget int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:budget])) + "…"
}

// FormatDate renders a YYYY-MM-DD date as DD/MM/YYYY. Other values are
// returned unchanged.
func FormatDate(raw string) string {
	t, err := time.Parse(dao.DateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format("02/01/2006")
}

func assigneeNames(ids []string, names NameFunc) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n := names(id)
		if n == "" {
			n = id
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "Aucun"
	}
	return strings.Join(names, ", ")
}

func sortMembers(ms []dao.Member) {
	sort.Slice(ms, func(i, j int) bool {
		if ni, nj := memberName(ms[i]), memberName(ms[j]); ni != nj {
			return ni < nj
		}
		return ms[i].UserID < ms[j].UserID
	})
}

func memberName(m dao.Member) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.UserID
}

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}

func orNone(s string) string {
	if s == "" {
		return "(vide)"
	}
	return s
}
