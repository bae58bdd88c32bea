package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

type fakeProjects struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domain.ErrProjectNotFound
}

func (f *fakeProjects) ListForUser(_ context.Context, _ string) ([]domain.Project, error) {
	return nil, nil
}
func (f *fakeProjects) Create(_ context.Context, p *domain.Project) error { return nil }
func (f *fakeProjects) Update(_ context.Context, p *domain.Project) error { return nil }
func (f *fakeProjects) Delete(_ context.Context, _ string) error          { return nil }
func (f *fakeProjects) AddMember(_ context.Context, _ string, _ domain.Member) (bool, error) {
	return false, nil
}
func (f *fakeProjects) RemoveMember(_ context.Context, _, _ string) error { return nil }

func (f *fakeProjects) adjustTaskCounters(_ context.Context, projectID string, totalDelta, completedDelta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.TotalTasks += totalDelta
	p.CompletedTasks += completedDelta
	return nil
}

// fakeTasks mirrors the transactional counter behavior of the real
// repository: create, done-edge updates and delete move the project
// counters through fakeProjects.
type fakeTasks struct {
	mu       sync.Mutex
	tasks    map[string]*domain.Task
	projects *fakeProjects
}

func (f *fakeTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task, ok := f.tasks[id]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (f *fakeTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, task := range f.tasks {
		if filter.ProjectID != "" && task.ProjectID != filter.ProjectID {
			continue
		}
		if filter.AssigneeID != "" && task.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		out = append(out, *task)
	}
	return out, len(out), nil
}

func (f *fakeTasks) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	f.mu.Lock()
	copied := *task
	f.tasks[task.ID] = &copied
	f.mu.Unlock()

	completed := 0
	if task.IsDone() {
		completed = 1
	}
	if err := f.projects.adjustTaskCounters(ctx, task.ProjectID, 1, completed); err != nil {
		return nil, err
	}
	return task, nil
}

func (f *fakeTasks) Update(ctx context.Context, id string, patch repository.TaskPatch) (*domain.Task, error) {
	f.mu.Lock()
	task, ok := f.tasks[id]
	if !ok {
		f.mu.Unlock()
		return nil, domain.ErrTaskNotFound
	}
	wasDone := task.IsDone()
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	isDone := task.IsDone()
	copied := *task
	f.mu.Unlock()

	if wasDone != isDone {
		delta := 1
		if wasDone {
			delta = -1
		}
		if err := f.projects.adjustTaskCounters(ctx, task.ProjectID, 0, delta); err != nil {
			return nil, err
		}
	}
	return &copied, nil
}

func (f *fakeTasks) Delete(ctx context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	task, ok := f.tasks[id]
	if !ok {
		f.mu.Unlock()
		return nil, domain.ErrTaskNotFound
	}
	delete(f.tasks, id)
	copied := *task
	f.mu.Unlock()

	completed := 0
	if copied.IsDone() {
		completed = -1
	}
	if err := f.projects.adjustTaskCounters(ctx, copied.ProjectID, -1, completed); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (f *fakeTasks) AddComment(_ context.Context, taskID string, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.Comments = append(task.Comments, *comment)
	return nil
}

var (
	owner    = domain.Identity{ID: "owner", Email: "owner@example.com"}
	member   = domain.Identity{ID: "member", Email: "member@example.com"}
	outsider = domain.Identity{ID: "outsider", Email: "outsider@example.com"}
)

func newTestSetup() (*UseCase, *fakeTasks, *fakeProjects) {
	projects := &fakeProjects{projects: map[string]*domain.Project{
		"p1": {
			ID:      "p1",
			OwnerID: "owner",
			Members: []domain.Member{{UserID: "member", Role: domain.RoleMember}},
		},
	}}
	tasks := &fakeTasks{tasks: make(map[string]*domain.Task), projects: projects}
	return New(tasks, projects, nil, nil), tasks, projects
}

func counters(t *testing.T, projects *fakeProjects) (int, int) {
	t.Helper()
	p, err := projects.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	return p.TotalTasks, p.CompletedTasks
}

func TestCreateDefaultsAndCounter(t *testing.T) {
	uc, _, projects := newTestSetup()
	ctx := context.Background()

	task, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "Write docs"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
	assert.Equal(t, "member", task.AssigneeID)
	assert.Equal(t, "member", task.CreatedBy)

	total, completed := counters(t, projects)
	assert.Equal(t, 1, total)
	assert.Zero(t, completed)
}

func TestCreateValidation(t *testing.T) {
	uc, _, projects := newTestSetup()
	ctx := context.Background()

	_, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "  "})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "ok", Status: "archived"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "ok", DueDate: "tomorrow"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "ok", AssigneeID: "outsider"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	total, _ := counters(t, projects)
	assert.Zero(t, total)
}

func TestCreateForbiddenForOutsider(t *testing.T) {
	uc, _, projects := newTestSetup()

	_, err := uc.Create(context.Background(), outsider, CreateInput{ProjectID: "p1", Title: "sneaky"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	total, _ := counters(t, projects)
	assert.Zero(t, total)
}

func TestDoneEdgeMovesCompletedCounter(t *testing.T) {
	uc, _, projects := newTestSetup()
	ctx := context.Background()

	task, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "ship it"})
	require.NoError(t, err)

	status := domain.TaskStatusDone
	_, err = uc.Update(ctx, member, task.ID, repository.TaskPatch{Status: &status})
	require.NoError(t, err)

	total, completed := counters(t, projects)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, completed)

	// done -> done is a no-op for the counter.
	_, err = uc.Update(ctx, member, task.ID, repository.TaskPatch{Status: &status})
	require.NoError(t, err)
	_, completed = counters(t, projects)
	assert.Equal(t, 1, completed)

	todo := domain.TaskStatusTodo
	_, err = uc.Update(ctx, member, task.ID, repository.TaskPatch{Status: &todo})
	require.NoError(t, err)
	_, completed = counters(t, projects)
	assert.Zero(t, completed)
}

func TestDeleteDoneTaskAdjustsBothCounters(t *testing.T) {
	uc, _, projects := newTestSetup()
	ctx := context.Background()

	task, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "done deal", Status: domain.TaskStatusDone})
	require.NoError(t, err)

	total, completed := counters(t, projects)
	require.Equal(t, 1, total)
	require.Equal(t, 1, completed)

	require.NoError(t, uc.Delete(ctx, member, task.ID))

	total, completed = counters(t, projects)
	assert.Zero(t, total)
	assert.Zero(t, completed)
}

func TestDeleteRequiresOwnerOrCreator(t *testing.T) {
	uc, _, _ := newTestSetup()
	ctx := context.Background()

	task, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "precious"})
	require.NoError(t, err)

	// Another member is neither owner nor creator.
	other := domain.Identity{ID: "owner2", Email: "o2@example.com"}
	err = uc.Delete(ctx, other, task.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	// The project owner always may.
	require.NoError(t, uc.Delete(ctx, owner, task.ID))
}

func TestUpdateForbiddenForOutsider(t *testing.T) {
	uc, _, _ := newTestSetup()
	ctx := context.Background()

	task, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "locked"})
	require.NoError(t, err)

	title := "hijacked"
	_, err = uc.Update(ctx, outsider, task.ID, repository.TaskPatch{Title: &title})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestListScoping(t *testing.T) {
	uc, _, _ := newTestSetup()
	ctx := context.Background()

	_, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "a"})
	require.NoError(t, err)

	_, _, err = uc.List(ctx, outsider, repository.TaskFilter{ProjectID: "p1"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	tasks, total, err := uc.List(ctx, member, repository.TaskFilter{ProjectID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, tasks, 1)
}

func TestAddComment(t *testing.T) {
	uc, tasks, _ := newTestSetup()
	ctx := context.Background()

	task, err := uc.Create(ctx, member, CreateInput{ProjectID: "p1", Title: "talk"})
	require.NoError(t, err)

	comment, err := uc.AddComment(ctx, owner, task.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, "owner", comment.UserID)
	assert.WithinDuration(t, time.Now(), comment.CreatedAt, time.Minute)

	_, err = uc.AddComment(ctx, owner, task.ID, "   ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	stored, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 1)
}
