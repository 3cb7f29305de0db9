package model

import "time"

type Student struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	NationalID   string    `json:"national_id"`
	ParentChatID *int64    `json:"parent_chat_id"` // Telegram chat родителя, nil - уведомления не отправляются
	CreatedAt    time.Time `json:"created_at"`
}

// FullName возвращает имя и фамилию через пробел
func (s *Student) FullName() string {
	if s.Surname == "" {
		return s.Name
	}
	return s.Name + " " + s.Surname
}

// HasParentChat проверяет, можно ли уведомить родителя
func (s *Student) HasParentChat() bool {
	return s.ParentChatID != nil && *s.ParentChatID != 0
}

// StudentPatch описывает частичное изменение студента, nil поля не меняются
type StudentPatch struct {
	Name         *string `json:"name"`
	Surname      *string `json:"surname"`
	NationalID   *string `json:"national_id"`
	ParentChatID *int64  `json:"parent_chat_id"`
}

// IsEmpty проверяет что в патче нет ни одного поля
func (p StudentPatch) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.NationalID == nil && p.ParentChatID == nil
}
