package dao

import (
	"errors"
	"slices"
)

// ErrRestrictedTaskEdit is returned when an administrator who does not
// lead the team tries to change progress, applicability or assignment.
var ErrRestrictedTaskEdit = errors.New("dao: only the team leader can change task progress, applicability or assignment")

// Role is a user's application-wide role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Actor is the user performing an edit.
type Actor struct {
	UserID string
	Role   Role
}

// TaskField names an editable task attribute.
type TaskField string

const (
	FieldProgress   TaskField = "progress"
	FieldApplicable TaskField = "isApplicable"
	FieldComment    TaskField = "comment"
	FieldAssignedTo TaskField = "assignedTo"
	FieldName       TaskField = "name"
)

var restrictedFields = []TaskField{FieldProgress, FieldApplicable, FieldAssignedTo}

// CheckTaskEdit enforces the task edit rule for both single-task and bulk
// record updates: an admin who is not a leader of record may not touch
// restricted fields.
func CheckTaskEdit(actor Actor, record Record, fields ...TaskField) error {
	if actor.Role != RoleAdmin || record.IsLeader(actor.UserID) {
		return nil
	}
	for _, f := range fields {
		if slices.Contains(restrictedFields, f) {
			return ErrRestrictedTaskEdit
		}
	}
	return nil
}

// ChangedTaskFields lists the fields that differ between two task versions.
// Assignment is compared as a set.
func ChangedTaskFields(before, after Task) []TaskField {
	var fields []TaskField
	if before.Name != after.Name {
		fields = append(fields, FieldName)
	}
	if before.Progress != after.Progress {
		fields = append(fields, FieldProgress)
	}
	if before.Applicable != after.Applicable {
		fields = append(fields, FieldApplicable)
	}
	if before.Comment != after.Comment {
		fields = append(fields, FieldComment)
	}
	if !sameSet(before.AssignedTo, after.AssignedTo) {
		fields = append(fields, FieldAssignedTo)
	}
	return fields
}

// CheckRecordEdit applies CheckTaskEdit to every task present in both
// versions of a record.
func CheckRecordEdit(actor Actor, before, after Record) error {
	for _, t := range after.Tasks {
		prev, ok := before.Task(t.ID)
		if !ok {
			continue
		}
		if err := CheckTaskEdit(actor, before, ChangedTaskFields(prev, t)...); err != nil {
			return err
		}
	}
	return nil
}

func sameSet(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	other := make(map[string]bool, len(b))
	for _, v := range b {
		if !set[v] {
			return false
		}
		other[v] = true
	}
	return len(set) == len(other)
}
