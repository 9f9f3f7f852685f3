package models

// TaskStatus константы статусов задач
const (
	TaskStatusOpen       = "open"
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Role константы ролей пользователей
const (
	RoleCustomer = "customer"
	RoleHustler  = "hustler"
	RoleBoth     = "both"
)

// TaskCategory константы категорий задач
const (
	CategoryCleaning  = "cleaning"
	CategoryDelivery  = "delivery"
	CategoryMoving    = "moving"
	CategoryRepair    = "repair"
	CategoryAssembly  = "assembly"
	CategoryGardening = "gardening"
	CategoryErrands   = "errands"
	CategoryOther     = "other"
)

// TaskPriority константы приоритетов задач
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// MessageType константы типов сообщений
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeSystem = "system"
)

// NotificationType константы типов уведомлений
const (
	NotificationTaskAssigned      = "task_assigned"
	NotificationTaskStatusChanged = "task_status_changed"
	NotificationNewMessage        = "new_message"
	NotificationNewReview         = "new_review"
)

// ValidTaskStatuses список валидных статусов задач
var ValidTaskStatuses = map[string]struct{}{
	TaskStatusOpen:       {},
	TaskStatusAssigned:   {},
	TaskStatusInProgress: {},
	TaskStatusCompleted:  {},
	TaskStatusCancelled:  {},
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleCustomer: {},
	RoleHustler:  {},
	RoleBoth:     {},
}

// ValidCategories список валидных категорий
var ValidCategories = map[string]struct{}{
	CategoryCleaning:  {},
	CategoryDelivery:  {},
	CategoryMoving:    {},
	CategoryRepair:    {},
	CategoryAssembly:  {},
	CategoryGardening: {},
	CategoryErrands:   {},
	CategoryOther:     {},
}

// ValidPriorities список валидных приоритетов
var ValidPriorities = map[string]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// ValidMessageTypes список валидных типов сообщений
var ValidMessageTypes = map[string]struct{}{
	MessageTypeText:   {},
	MessageTypeImage:  {},
	MessageTypeSystem: {},
}

// CanPerformTasks сообщает, может ли пользователь с этой ролью брать задачи.
func CanPerformTasks(role string) bool {
	switch role {
	case RoleHustler, RoleBoth:
		return true
	default:
		return false
	}
}

// AllowedStatusTransitions описывает допустимые переходы статусов задачи.
// Терминальные статусы (completed, cancelled) переходов не имеют.
var AllowedStatusTransitions = map[string]map[string]struct{}{
	TaskStatusAssigned: {
		TaskStatusInProgress: {},
		TaskStatusCompleted:  {},
		TaskStatusCancelled:  {},
	},
	TaskStatusInProgress: {
		TaskStatusCompleted: {},
		TaskStatusCancelled: {},
	},
}

// IsTransitionAllowed проверяет переход из текущего статуса в целевой.
func IsTransitionAllowed(from, to string) bool {
	targets, ok := AllowedStatusTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}
