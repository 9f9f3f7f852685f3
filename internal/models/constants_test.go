package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsTransitionAllowed(t *testing.T) {
	allowed := [][2]string{
		{TaskStatusAssigned, TaskStatusInProgress},
		{TaskStatusAssigned, TaskStatusCompleted},
		{TaskStatusAssigned, TaskStatusCancelled},
		{TaskStatusInProgress, TaskStatusCompleted},
		{TaskStatusInProgress, TaskStatusCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, IsTransitionAllowed(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	forbidden := [][2]string{
		// open покидается только через назначение исполнителя.
		{TaskStatusOpen, TaskStatusInProgress},
		{TaskStatusOpen, TaskStatusCompleted},
		{TaskStatusOpen, TaskStatusCancelled},
		{TaskStatusInProgress, TaskStatusAssigned},
		// Терминальные статусы не покидаются.
		{TaskStatusCompleted, TaskStatusOpen},
		{TaskStatusCompleted, TaskStatusCancelled},
		{TaskStatusCancelled, TaskStatusOpen},
		{TaskStatusAssigned, TaskStatusOpen},
	}
	for _, tr := range forbidden {
		assert.False(t, IsTransitionAllowed(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestCanPerformTasks(t *testing.T) {
	assert.True(t, CanPerformTasks(RoleHustler))
	assert.True(t, CanPerformTasks(RoleBoth))
	assert.False(t, CanPerformTasks(RoleCustomer))
	assert.False(t, CanPerformTasks("admin"))
}

func TestTask_IsParticipant(t *testing.T) {
	task := Task{PosterID: uuid.New()}
	hustlerID := uuid.New()
	task.HustlerID = &hustlerID

	assert.True(t, task.IsParticipant(task.PosterID))
	assert.True(t, task.IsParticipant(hustlerID))
	assert.False(t, task.IsParticipant(uuid.New()))
}
