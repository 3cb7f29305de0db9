package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type examStore interface {
	Create(ctx context.Context, exam *model.Exam) error
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Exam, error)
}

// AddExamRequest результат экзамена. Пустой TS - текущее время.
type AddExamRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Score int    `json:"score" validate:"gte=0,lte=100"`
	TS    string `json:"ts"`
}

type ExamService struct {
	exams     examStore
	validator *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

func NewExamService(exams examStore, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		exams:     exams,
		validator: validator.New(),
		now:       time.Now,
		logger:    logger,
	}
}

// Add сохраняет оценку студента
func (s *ExamService) Add(ctx context.Context, studentID int64, req AddExamRequest) (*model.Exam, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation, "invalid exam")
	}

	ts := model.Wall(s.now()).Truncate(time.Second)
	if req.TS != "" {
		parsed, err := model.ParseLocal(req.TS)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrValidation, "invalid ts")
		}
		ts = parsed
	}

	exam := &model.Exam{
		StudentID: studentID,
		Name:      req.Name,
		Score:     req.Score,
		TS:        ts,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.logger.Info("Exam score added",
		zap.Int64("exam_id", exam.ID),
		zap.Int64("student_id", studentID),
		zap.String("name", exam.Name),
		zap.Int("score", exam.Score),
	)

	return exam, nil
}

func (s *ExamService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Exam, error) {
	exams, err := s.exams.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}
