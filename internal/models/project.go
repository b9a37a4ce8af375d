package models

// Project - проект task-board в форме REST-бэкенда.
type Project struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}
