package model

import "time"

// Backup запись о выполненном снимке данных
type Backup struct {
	ID   int64     `json:"id"`
	Path string    `json:"path"`
	TS   time.Time `json:"ts"`
}
