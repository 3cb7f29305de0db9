package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type studentStore interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	List(ctx context.Context) ([]*model.Student, error)
	GetByParentChatID(ctx context.Context, chatID int64) ([]*model.Student, error)
	GetWithParentChat(ctx context.Context) ([]*model.Student, error)
	Update(ctx context.Context, id int64, patch model.StudentPatch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// CreateStudentRequest данные нового студента
type CreateStudentRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Surname      string `json:"surname" validate:"max=100"`
	NationalID   string `json:"national_id" validate:"max=32"`
	ParentChatID *int64 `json:"parent_chat_id"`
}

type StudentService struct {
	students  studentStore
	validator *validator.Validate
	logger    *zap.Logger
}

func NewStudentService(students studentStore, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:  students,
		validator: validator.New(),
		logger:    logger,
	}
}

// Create добавляет студента
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*model.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.NationalID = strings.TrimSpace(req.NationalID)

	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation, "invalid student")
	}

	student := &model.Student{
		Name:         req.Name,
		Surname:      req.Surname,
		NationalID:   req.NationalID,
		ParentChatID: req.ParentChatID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	s.logger.Info("Student created",
		zap.Int64("student_id", student.ID),
		zap.String("name", student.FullName()),
	)

	return student, nil
}

// Get возвращает студента или ErrNotFound
func (s *StudentService) Get(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, apperrors.Wrap(nil, apperrors.ErrNotFound, "student not found")
	}
	return student, nil
}

func (s *StudentService) List(ctx context.Context) ([]*model.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Update меняет только переданные поля. Пустой патч ничего не делает и возвращает false.
func (s *StudentService) Update(ctx context.Context, id int64, patch model.StudentPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return false, apperrors.Wrap(nil, apperrors.ErrValidation, "name must not be empty")
	}

	updated, err := s.students.Update(ctx, id, patch)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}
	if !updated {
		return false, apperrors.Wrap(nil, apperrors.ErrNotFound, "student not found")
	}

	s.logger.Info("Student updated", zap.Int64("student_id", id))
	return true, nil
}

// Delete удаляет студента. Записи, посещаемость и оценки остаются.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.students.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if !deleted {
		return apperrors.Wrap(nil, apperrors.ErrNotFound, "student not found")
	}

	s.logger.Info("Student deleted", zap.Int64("student_id", id))
	return nil
}

// FindByParentChat возвращает студентов, привязанных к чату родителя
func (s *StudentService) FindByParentChat(ctx context.Context, chatID int64) ([]*model.Student, error) {
	students, err := s.students.GetByParentChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("find students by parent chat: %w", err)
	}
	return students, nil
}

// WithParentChat возвращает студентов, родителей которых можно уведомить
func (s *StudentService) WithParentChat(ctx context.Context) ([]*model.Student, error) {
	students, err := s.students.GetWithParentChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students with parent chat: %w", err)
	}
	return students, nil
}
