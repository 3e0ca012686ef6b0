package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"reelforge-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *sql.DB
var GormDB *gorm.DB

func InitDB() {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	DB = db
	GormDB, err = gorm.Open(mysql.New(mysql.Config{
		Conn: DB,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("gorm init failed: %v", err)
	}

	log.Println("database connected (native SQL + GORM)")

	// Apply schema from doc/sql/reelforge.sql (idempotent CREATE TABLE IF NOT EXISTS).
	b, err := os.ReadFile("doc/sql/reelforge.sql")
	if err != nil {
		log.Printf("failed to read schema file (skipping): %v", err)
		return
	}
	sqls := strings.Split(string(b), ";")
	for _, s := range sqls {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := DB.Exec(s); err != nil {
			log.Printf("schema statement failed: %v ; sql: %s", err, s)
		}
	}
}

// Project CRUD
func CreateProject(p *Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := DB.Exec(
		`INSERT INTO project (id, user_id, topic, style, status, language, video_count, duration, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserId, p.Topic, p.Style, p.Status, p.Language, p.VideoCount, p.Duration, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func GetProjectByID(id string) (Project, error) {
	var p Project
	row := DB.QueryRow(`SELECT id, user_id, topic, style, status, language, video_count, duration, created_at, updated_at FROM project WHERE id = ?`, id)
	var createdAt, updatedAt time.Time
	if err := row.Scan(&p.ID, &p.UserId, &p.Topic, &p.Style, &p.Status, &p.Language, &p.VideoCount, &p.Duration, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}

// UpdateProjectStatus moves a project forward through its status enum.
func UpdateProjectStatus(id, status string) error {
	_, err := DB.Exec(`UPDATE project SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	return err
}

func DeleteProjectByID(id string) error {
	_, err := DB.Exec(`DELETE FROM project WHERE id = ?`, id)
	return err
}

// Profile / credits

// EnsureProfile creates the profile row with a starting balance when missing.
func EnsureProfile(id string, startingCredits int) error {
	_, err := DB.Exec(
		`INSERT INTO profile (id, credits, created_at, updated_at) VALUES (?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE id = id`,
		id, startingCredits, time.Now(), time.Now(),
	)
	return err
}

func GetProfileByID(id string) (Profile, error) {
	var p Profile
	row := DB.QueryRow(`SELECT id, credits, created_at, updated_at FROM profile WHERE id = ?`, id)
	if err := row.Scan(&p.ID, &p.Credits, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	return p, nil
}

// DeductCredits performs a single conditional decrement so concurrent
// generations cannot oversell the balance. Returns false (and performs no
// mutation) when the balance is below n.
func DeductCredits(id string, n int) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("invalid credit amount: %d", n)
	}
	res, err := DB.Exec(
		`UPDATE profile SET credits = credits - ?, updated_at = ? WHERE id = ? AND credits >= ?`,
		n, time.Now(), id, n,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AddCredits tops a balance up. Not called by the pipeline; admin/refund only.
func AddCredits(id string, n int) error {
	if n <= 0 {
		return fmt.Errorf("invalid credit amount: %d", n)
	}
	_, err := DB.Exec(`UPDATE profile SET credits = credits + ?, updated_at = ? WHERE id = ?`, n, time.Now(), id)
	return err
}

// Task helpers

func CreateTask(t *Task) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	params, _ := json.Marshal(t.Parameters)
	result, _ := json.Marshal(t.Result)

	var startedAtParam interface{}
	if !t.StartedAt.IsZero() {
		startedAtParam = t.StartedAt
	}
	var finishedAtParam interface{}
	if !t.FinishedAt.IsZero() {
		finishedAtParam = t.FinishedAt
	}

	_, err := DB.Exec(`INSERT INTO task (id, project_id, type, status, stage, progress, message, parameters, result, error, started_at, finished_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectId, t.Type, t.Status, t.Stage, t.Progress, t.Message, params, result, t.Error, startedAtParam, finishedAtParam, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func GetTaskByID(id string) (Task, error) {
	var t Task
	row := DB.QueryRow(`SELECT id, project_id, type, status, stage, progress, message, parameters, result, error, started_at, finished_at, created_at, updated_at FROM task WHERE id = ?`, id)

	var paramsBytes, resultBytes []byte
	var startedAt, finishedAt, createdAt, updatedAt sql.NullTime
	var stageNull, messageNull, errorNull sql.NullString

	if err := row.Scan(&t.ID, &t.ProjectId, &t.Type, &t.Status, &stageNull, &t.Progress, &messageNull, &paramsBytes, &resultBytes, &errorNull, &startedAt, &finishedAt, &createdAt, &updatedAt); err != nil {
		return t, err
	}

	if stageNull.Valid {
		t.Stage = stageNull.String
	}
	if messageNull.Valid {
		t.Message = messageNull.String
	}
	if errorNull.Valid {
		t.Error = errorNull.String
	}

	_ = json.Unmarshal(paramsBytes, &t.Parameters)
	_ = json.Unmarshal(resultBytes, &t.Result)

	if startedAt.Valid {
		t.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		t.FinishedAt = finishedAt.Time
	}
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}
	return t, nil
}

func GetRecentTaskByProjectID(projectID string) (*Task, error) {
	row := DB.QueryRow(`SELECT id FROM task WHERE project_id = ? ORDER BY created_at DESC LIMIT 1`, projectID)
	var id string
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t, err := GetTaskByID(id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTasksByProjectID clears pending tasks when a project is updated or
// removed, to avoid duplicating work.
func DeleteTasksByProjectID(projectID string, statuses ...string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := []interface{}{projectID}
	for _, s := range statuses {
		args = append(args, s)
	}
	res, err := DB.Exec(`DELETE FROM task WHERE project_id = ? AND status IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
