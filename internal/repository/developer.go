package repository

import (
	"database/sql"

	"github.com/emilianohg/aimetrics/internal/models"
)

type DeveloperRepo struct {
	db *sql.DB
}

func NewDeveloperRepo(db *sql.DB) *DeveloperRepo {
	return &DeveloperRepo{db: db}
}

// Upsert adds a developer or replaces the name and group of an existing email.
func (r *DeveloperRepo) Upsert(d models.Developer) error {
	_, err := r.db.Exec(`
		INSERT INTO developers (email, name, group_type) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, group_type = excluded.group_type
	`, d.Email, d.Name, string(d.GroupType))
	return err
}

func (r *DeveloperRepo) GetByEmail(email string) (*models.Developer, error) {
	var d models.Developer
	var group string
	err := r.db.QueryRow(`SELECT email, name, group_type FROM developers WHERE email = ?`, email).
		Scan(&d.Email, &d.Name, &group)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.GroupType = models.AITool(group)
	return &d, nil
}

func (r *DeveloperRepo) GetAll() ([]models.Developer, error) {
	rows, err := r.db.Query(`SELECT email, name, group_type FROM developers ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var developers []models.Developer
	for rows.Next() {
		var d models.Developer
		var group string
		if err := rows.Scan(&d.Email, &d.Name, &group); err != nil {
			return nil, err
		}
		d.GroupType = models.AITool(group)
		developers = append(developers, d)
	}
	return developers, rows.Err()
}

func (r *DeveloperRepo) Delete(email string) error {
	_, err := r.db.Exec("DELETE FROM developers WHERE email = ?", email)
	return err
}
