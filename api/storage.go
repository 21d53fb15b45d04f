package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var errDuplicateUsername = errors.New("duplicate username")

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// taskFilters narrows and orders a task listing. Zero values mean
// "no filter"; ordering must be "", "due_date" or "-due_date".
type taskFilters struct {
	status   string
	dueDate  time.Time
	ordering string
	page     int
	pageSize int
}

// store is the persistence boundary for tasks and users. Lookups return
// (nil, nil) when the row does not exist; deletes report whether a row
// was removed.
type store interface {
	insertTask(t *task) error
	getTaskByID(id int) (*task, error)
	getTasks(f taskFilters) ([]*task, int, error)
	updateTask(t *task) error
	deleteTask(id int) (bool, error)

	insertUser(u *user) error
	getUserByID(id int) (*user, error)
	getUserByUsername(username string) (*user, error)
	updateUser(u *user) error
	deleteUser(id int) (bool, error)
}

type storage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) *storage {
	return &storage{
		db: db,
	}
}

func (s *storage) insertTask(t *task) error {
	query := `INSERT INTO tasks (title, description, due_date, status, assigned_to)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at, updated_at`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, t.Title, t.Description, t.DueDate.Time, t.Status, t.AssignedTo)
	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *storage) getTaskByID(id int) (*task, error) {
	query := `SELECT t.id, t.title, t.description, t.due_date, t.status, t.assigned_to, u.username, t.created_at, t.updated_at
			  FROM tasks t
			  INNER JOIN users u ON u.id = t.assigned_to
			  WHERE t.id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	var t task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate.Time, &t.Status, &t.AssignedTo, &t.AssignedToUsername, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *storage) getTasks(f taskFilters) ([]*task, int, error) {
	orderBy := "t.created_at ASC, t.id ASC"
	switch f.ordering {
	case "due_date":
		orderBy = "t.due_date ASC, t.id ASC"
	case "-due_date":
		orderBy = "t.due_date DESC, t.id ASC"
	}
	query := fmt.Sprintf(`SELECT count(*) OVER(), t.id, t.title, t.description, t.due_date, t.status, t.assigned_to, u.username, t.created_at, t.updated_at
			  FROM tasks t
			  INNER JOIN users u ON u.id = t.assigned_to
			  WHERE ($1 = '' OR t.status = $1)
			  AND ($2::date IS NULL OR t.due_date = $2)
			  ORDER BY %s
			  LIMIT $3 OFFSET $4`, orderBy)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dueDate := sql.NullTime{Time: f.dueDate, Valid: !f.dueDate.IsZero()}
	offset := (f.page - 1) * f.pageSize
	rows, err := s.db.QueryContext(ctx, query, f.status, dueDate, f.pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	tasks := []*task{}
	for rows.Next() {
		var t task
		err := rows.Scan(&total, &t.ID, &t.Title, &t.Description, &t.DueDate.Time, &t.Status, &t.AssignedTo, &t.AssignedToUsername, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *storage) updateTask(t *task) error {
	query := `UPDATE tasks SET title = $1, description = $2, due_date = $3, status = $4, assigned_to = $5, updated_at = now()
			  WHERE id = $6
			  RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, t.Title, t.Description, t.DueDate.Time, t.Status, t.AssignedTo, t.ID)
	return row.Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (s *storage) deleteTask(id int) (bool, error) {
	query := `DELETE FROM tasks
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func (s *storage) insertUser(u *user) error {
	query := `INSERT INTO users (username, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at, version`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash)
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Version)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "users_username_key"`:
			return errDuplicateUsername
		default:
			return err
		}
	}
	return nil
}

func (s *storage) getUserByID(id int) (*user, error) {
	query := `SELECT id, created_at, username, email, password_hash, version
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.PasswordHash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) getUserByUsername(username string) (*user, error) {
	query := `SELECT id, created_at, username, email, password_hash, version
			  FROM users
			  WHERE username = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, username)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.PasswordHash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) updateUser(u *user) error {
	query := `UPDATE users SET username = $1, email = $2, password_hash = $3, version = version + 1
			  WHERE id = $4 and version = $5
			  RETURNING version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.ID, u.Version)
	err := row.Scan(&u.Version)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "users_username_key"`:
			return errDuplicateUsername
		default:
			return err
		}
	}
	return nil
}

// deleteUser removes the user row; tasks assigned to the user go with it
// through the ON DELETE CASCADE constraint.
func (s *storage) deleteUser(id int) (bool, error) {
	query := `DELETE FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n != 0, nil
}
