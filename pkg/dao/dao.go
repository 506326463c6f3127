package dao

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRecord is returned by Validate.
var ErrInvalidRecord = errors.New("dao: invalid record")

// DateLayout is the layout of SubmissionDate.
const DateLayout = "2006-01-02"

// TeamRole is a member's role within one record's team.
type TeamRole string

const (
	TeamLeader TeamRole = "chef_equipe"
	TeamMember TeamRole = "membre_equipe"
)

// Label returns the French display label of the role.
func (r TeamRole) Label() string {
	switch r {
	case TeamLeader:
		return "Chef d'équipe"
	case TeamMember:
		return "Membre"
	default:
		return string(r)
	}
}

// Member is a user assigned to a record's team.
type Member struct {
	UserID      string   `json:"userId" bson:"userId"`
	DisplayName string   `json:"displayName" bson:"displayName"`
	Email       string   `json:"email,omitempty" bson:"email,omitempty"`
	Role        TeamRole `json:"role" bson:"role"`
}

// Task is a sub-task of a record.
type Task struct {
	ID         string   `json:"id" bson:"id"`
	Name       string   `json:"name" bson:"name"`
	Progress   int      `json:"progress" bson:"progress"`
	Applicable bool     `json:"isApplicable" bson:"isApplicable"`
	Comment    string   `json:"comment,omitempty" bson:"comment,omitempty"`
	AssignedTo []string `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
}

// Record is one case file.
type Record struct {
	ID             string    `json:"id" bson:"_id"`
	Number         string    `json:"numeroListe" bson:"numeroListe"`
	Object         string    `json:"objetDossier" bson:"objetDossier"`
	Reference      string    `json:"reference" bson:"reference"`
	Authority      string    `json:"autoriteContractante" bson:"autoriteContractante"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	SubmissionDate string    `json:"dateDepot" bson:"dateDepot"`
	Team           []Member  `json:"equipe" bson:"equipe"`
	Tasks          []Task    `json:"tasks" bson:"tasks"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ComputeProgress is the rounded mean progress of applicable tasks, or 0
// when none is applicable.
func ComputeProgress(tasks []Task) int {
	var sum, n int
	for _, t := range tasks {
		if !t.Applicable {
			continue
		}
		sum += t.Progress
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Progress is ComputeProgress over the record's tasks.
func (r Record) Progress() int { return ComputeProgress(r.Tasks) }

// Task returns the task with the given id.
func (r Record) Task(id string) (Task, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Member returns the team member with the given user id.
func (r Record) Member(userID string) (Member, bool) {
	for _, m := range r.Team {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// IsLeader reports whether userID leads the record's team.
func (r Record) IsLeader(userID string) bool {
	m, ok := r.Member(userID)
	return ok && m.Role == TeamLeader
}

// DisplayName resolves a user id to a team member's name, falling back to
// the id itself.
func (r Record) DisplayName(userID string) string {
	if m, ok := r.Member(userID); ok && m.DisplayName != "" {
		return m.DisplayName
	}
	return userID
}

// Validate checks the fields the notification pipeline relies on.
func (r Record) Validate() error {
	var errs []error
	if r.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if r.Number == "" {
		errs = append(errs, errors.New("numeroListe is required"))
	}
	if r.SubmissionDate != "" {
		if _, err := time.Parse(DateLayout, r.SubmissionDate); err != nil {
			errs = append(errs, fmt.Errorf("dateDepot %q is not a YYYY-MM-DD date", r.SubmissionDate))
		}
	}
	for _, t := range r.Tasks {
		if t.Progress < 0 || t.Progress > 100 {
			errs = append(errs, fmt.Errorf("task %s progress %d out of range", t.ID, t.Progress))
		}
	}
	for _, m := range r.Team {
		if m.Role != TeamLeader && m.Role != TeamMember {
			errs = append(errs, fmt.Errorf("member %s has unknown role %q", m.UserID, m.Role))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidRecord}, errs...)...)
	}
	return nil
}
