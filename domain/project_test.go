package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProjectMembership(t *testing.T) {
	project := &Project{
		ID:      "p1",
		OwnerID: "owner",
		Members: []Member{
			{UserID: "alice", Role: RoleAdmin},
			{UserID: "bob", Role: RoleMember},
		},
	}

	assert.True(t, project.HasMember("owner"))
	assert.True(t, project.HasMember("alice"))
	assert.True(t, project.HasMember("bob"))
	assert.False(t, project.HasMember("mallory"))
	assert.False(t, project.HasMember(""))

	assert.True(t, project.CanManage("owner"))
	assert.True(t, project.CanManage("alice"))
	assert.False(t, project.CanManage("bob"))
	assert.False(t, project.CanManage("mallory"))
}

func TestProjectMemberCountIncludesOwner(t *testing.T) {
	empty := &Project{OwnerID: "owner"}
	assert.Equal(t, 1, empty.MemberCount())

	two := &Project{OwnerID: "owner", Members: []Member{{UserID: "a"}, {UserID: "b"}}}
	assert.Equal(t, 3, two.MemberCount())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleMember))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("owner"))
	assert.False(t, ValidRole(""))
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Task{Status: TaskStatusTodo, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: TaskStatusDone, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: TaskStatusTodo, DueDate: &future}).IsOverdue(now))
	assert.False(t, (&Task{Status: TaskStatusTodo}).IsOverdue(now))
}

func TestInvitationConsumable(t *testing.T) {
	now := time.Now()

	pending := &Invitation{Status: InvitationPending, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, pending.Consumable(now))

	expired := &Invitation{Status: InvitationPending, ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.Consumable(now))

	accepted := &Invitation{Status: InvitationAccepted, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, accepted.Consumable(now))
}
