package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hustlehub/backend/internal/models"
)

// ErrTaskNotFound возвращается, когда задача не найдена.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskNotOpen возвращается, когда задача уже не в статусе open.
// Именно эту ошибку видит проигравший при гонке двух одновременных назначений.
var ErrTaskNotOpen = errors.New("task is not open")

// ErrStatusConflict возвращается, когда статус задачи изменился между
// проверкой и обновлением (конкурентный переход выиграл).
var ErrStatusConflict = errors.New("task status changed concurrently")

// TaskRepository отвечает за работу с таблицами tasks и связанными агрегатами.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository создаёт экземпляр репозитория.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, poster_id, hustler_id, title, description, category, budget, status, priority, deadline_at, address, latitude, longitude, image_urls, created_at, updated_at`

// scanTask читает строку задачи вместе с массивом image_urls.
func scanTask(row sqlx.ColScanner) (*models.Task, error) {
	var task models.Task
	var images pq.StringArray
	if err := row.Scan(
		&task.ID,
		&task.PosterID,
		&task.HustlerID,
		&task.Title,
		&task.Description,
		&task.Category,
		&task.Budget,
		&task.Status,
		&task.Priority,
		&task.DeadlineAt,
		&task.Address,
		&task.Latitude,
		&task.Longitude,
		&images,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.ImageURLs = []string(images)
	return &task, nil
}

// Create сохраняет задачу и увеличивает счётчик размещённых задач автора
// в одной транзакции.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("task repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO tasks (poster_id, title, description, category, budget, status, priority, deadline_at, address, latitude, longitude, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	if err = tx.QueryRowxContext(ctx, query,
		task.PosterID, task.Title, task.Description, task.Category, task.Budget,
		task.Status, task.Priority, task.DeadlineAt, task.Address, task.Latitude,
		task.Longitude, pq.Array(task.ImageURLs),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return fmt.Errorf("task repository: create %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET tasks_posted = tasks_posted + 1, updated_at = NOW() WHERE id = $1`,
		task.PosterID,
	); err != nil {
		return fmt.Errorf("task repository: increment tasks_posted %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("task repository: commit %w", err)
	}

	return nil
}

// GetByID возвращает задачу по идентификатору.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := r.db.QueryRowxContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("task repository: get by id %w", err)
	}

	return task, nil
}

// TaskFilter описывает параметры выборки задач.
type TaskFilter struct {
	Status    string
	Category  string
	MinBudget *int64
	MaxBudget *int64
	Limit     int
	Offset    int
}

// List возвращает задачи с фильтрацией и общее количество подходящих строк.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.MinBudget != nil {
		where += fmt.Sprintf(" AND budget >= $%d", argIndex)
		args = append(args, *filter.MinBudget)
		argIndex++
	}
	if filter.MaxBudget != nil {
		where += fmt.Sprintf(" AND budget <= $%d", argIndex)
		args = append(args, *filter.MaxBudget)
		argIndex++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tasks`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("task repository: count %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("task repository: list %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("task repository: list scan %w", err)
		}
		tasks = append(tasks, *task)
	}

	return tasks, total, rows.Err()
}

// ListMine возвращает задачи пользователя: размещённые им и взятые им.
func (r *TaskRepository) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Task, []models.Task, error) {
	posted, err := r.selectTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE poster_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("task repository: list posted %w", err)
	}

	assigned, err := r.selectTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE hustler_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("task repository: list assigned %w", err)
	}

	return posted, assigned, nil
}

func (r *TaskRepository) selectTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// AssignResult содержит результат атомарного назначения исполнителя.
type AssignResult struct {
	Task         *models.Task
	Chat         *models.Chat
	Notification *models.Notification
}

// Assign атомарно назначает исполнителя на открытую задачу: переводит статус,
// создаёт чат с двумя участниками и уведомление автору. Строка задачи
// блокируется (FOR UPDATE), поэтому из двух конкурентных вызовов побеждает
// ровно один, второй получает ErrTaskNotOpen.
func (r *TaskRepository) Assign(ctx context.Context, taskID, hustlerID uuid.UUID, notification *models.Notification) (result *AssignResult, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("task repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowxContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, taskID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("task repository: assign lock %w", err)
	}

	if task.Status != models.TaskStatusOpen || task.HustlerID != nil {
		err = ErrTaskNotOpen
		return nil, err
	}

	if err = tx.QueryRowxContext(ctx, `
		UPDATE tasks SET status = $2, hustler_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, taskID, models.TaskStatusAssigned, hustlerID).Scan(&task.UpdatedAt); err != nil {
		return nil, fmt.Errorf("task repository: assign update %w", err)
	}
	task.Status = models.TaskStatusAssigned
	task.HustlerID = &hustlerID

	chat := &models.Chat{TaskID: taskID}
	if err = tx.QueryRowxContext(ctx, `
		INSERT INTO chats (task_id) VALUES ($1)
		ON CONFLICT (task_id) DO UPDATE SET updated_at = chats.updated_at
		RETURNING id, created_at, updated_at
	`, taskID).Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
		return nil, fmt.Errorf("task repository: assign chat %w", err)
	}

	for _, memberID := range []uuid.UUID{task.PosterID, hustlerID} {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, chat.ID, memberID); err != nil {
			return nil, fmt.Errorf("task repository: assign member %w", err)
		}
	}

	// Уведомление автору входит в ту же транзакцию: частичный успех
	// (задача назначена, а уведомления нет) невозможен.
	notification.UserID = task.PosterID
	notification.TaskID = &taskID
	notification.ChatID = &chat.ID
	if err = tx.QueryRowxContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message, task_id, chat_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id, created_at
	`, notification.UserID, notification.Type, notification.Title, notification.Message,
		notification.TaskID, notification.ChatID,
	).Scan(&notification.ID, &notification.CreatedAt); err != nil {
		return nil, fmt.Errorf("task repository: assign notification %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("task repository: assign commit %w", err)
	}

	return &AssignResult{Task: task, Chat: chat, Notification: notification}, nil
}

// UpdateStatus переводит задачу из ожидаемого статуса в новый.
// Переход выполняется условным UPDATE: если статус уже изменился, строка
// не обновится и вернётся ErrStatusConflict. При переходе в completed
// исполнителю в той же транзакции начисляются счётчик и заработок —
// ровно один раз, потому что переход в completed возможен один раз.
func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID uuid.UUID, expectedFrom, to string) (task *models.Task, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("task repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowxContext(ctx, `
		UPDATE tasks SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+taskColumns,
		taskID, expectedFrom, to)
	task, err = scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrStatusConflict
			return nil, err
		}
		return nil, fmt.Errorf("task repository: update status %w", err)
	}

	if to == models.TaskStatusCompleted && task.HustlerID != nil {
		if _, err = tx.ExecContext(ctx, `
			UPDATE users
			SET tasks_completed = tasks_completed + 1,
			    total_earnings = total_earnings + $2,
			    updated_at = NOW()
			WHERE id = $1
		`, *task.HustlerID, task.Budget); err != nil {
			return nil, fmt.Errorf("task repository: credit hustler %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("task repository: update status commit %w", err)
	}

	return task, nil
}

// Delete удаляет задачу автора, пока она открыта.
// Удаление назначенной задачи запрещено на уровне запроса.
func (r *TaskRepository) Delete(ctx context.Context, taskID, posterID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND poster_id = $2 AND status = $3`,
		taskID, posterID, models.TaskStatusOpen)
	if err != nil {
		return fmt.Errorf("task repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("task repository: delete rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}
