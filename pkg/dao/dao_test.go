package dao_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/dao"
)

func TestComputeProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tasks []dao.Task
		want  int
	}{
		{
			name: "mean of applicable tasks only",
			tasks: []dao.Task{
				{Applicable: true, Progress: 10},
				{Applicable: true, Progress: 30},
				{Applicable: false, Progress: 100},
			},
			want: 20,
		},
		{name: "no tasks", want: 0},
		{name: "nothing applicable", tasks: []dao.Task{{Progress: 80}}, want: 0},
		{
			name:  "rounds half up",
			tasks: []dao.Task{{Applicable: true, Progress: 10}, {Applicable: true, Progress: 15}},
			want:  13,
		},
		{
			name:  "rounds down",
			tasks: []dao.Task{{Applicable: true, Progress: 0}, {Applicable: true, Progress: 0}, {Applicable: true, Progress: 100}},
			want:  33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dao.ComputeProgress(tt.tasks))
			assert.Equal(t, tt.want, dao.Record{Tasks: tt.tasks}.Progress())
		})
	}
}

func TestRecord_Lookups(t *testing.T) {
	t.Parallel()

	r := dao.Record{
		Team: []dao.Member{
			{UserID: "u1", DisplayName: "Awa Diop", Role: dao.TeamLeader},
			{UserID: "u2", DisplayName: "Moussa Ba", Role: dao.TeamMember},
		},
		Tasks: []dao.Task{{ID: "t1", Name: "Rédaction"}},
	}

	assert.True(t, r.IsLeader("u1"))
	assert.False(t, r.IsLeader("u2"))
	assert.False(t, r.IsLeader("u3"))
	assert.Equal(t, "Moussa Ba", r.DisplayName("u2"))
	assert.Equal(t, "u9", r.DisplayName("u9"))

	task, ok := r.Task("t1")
	require.True(t, ok)
	assert.Equal(t, "Rédaction", task.Name)
	_, ok = r.Task("nope")
	assert.False(t, ok)
}

func TestRecord_Validate(t *testing.T) {
	t.Parallel()

	valid := dao.Record{ID: "r1", Number: "DAO-2025-001", SubmissionDate: "2025-03-01"}
	require.NoError(t, valid.Validate())

	invalid := dao.Record{
		SubmissionDate: "01/03/2025",
		Tasks:          []dao.Task{{ID: "t1", Progress: 140}},
		Team:           []dao.Member{{UserID: "u1", Role: "boss"}},
	}
	err := invalid.Validate()
	require.ErrorIs(t, err, dao.ErrInvalidRecord)
	assert.Contains(t, err.Error(), "numeroListe is required")
	assert.Contains(t, err.Error(), "dateDepot")
	assert.Contains(t, err.Error(), "progress 140")
	assert.Contains(t, err.Error(), "unknown role")
}

func TestTeamRole_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Chef d'équipe", dao.TeamLeader.Label())
	assert.Equal(t, "Membre", dao.TeamMember.Label())
}
