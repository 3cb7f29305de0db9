package service

import (
	"context"
	"sync"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/notifier"
)

type fakeStudents struct {
	students []*model.Student
	nextID   int64
	err      error
	gets     int
}

func (f *fakeStudents) Create(ctx context.Context, student *model.Student) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	student.ID = f.nextID
	f.students = append(f.students, student)
	return nil
}

func (f *fakeStudents) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStudents) List(ctx context.Context) ([]*model.Student, error) {
	return f.students, f.err
}

func (f *fakeStudents) GetByParentChatID(ctx context.Context, chatID int64) ([]*model.Student, error) {
	var out []*model.Student
	for _, s := range f.students {
		if s.ParentChatID != nil && *s.ParentChatID == chatID {
			out = append(out, s)
		}
	}
	return out, f.err
}

func (f *fakeStudents) GetWithParentChat(ctx context.Context) ([]*model.Student, error) {
	var out []*model.Student
	for _, s := range f.students {
		if s.HasParentChat() {
			out = append(out, s)
		}
	}
	return out, f.err
}

func (f *fakeStudents) Update(ctx context.Context, id int64, patch model.StudentPatch) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, s := range f.students {
		if s.ID != id {
			continue
		}
		if patch.Name != nil {
			s.Name = *patch.Name
		}
		if patch.Surname != nil {
			s.Surname = *patch.Surname
		}
		if patch.NationalID != nil {
			s.NationalID = *patch.NationalID
		}
		if patch.ParentChatID != nil {
			s.ParentChatID = patch.ParentChatID
		}
		return true, nil
	}
	return false, nil
}

func (f *fakeStudents) Delete(ctx context.Context, id int64) (bool, error) {
	for i, s := range f.students {
		if s.ID == id {
			f.students = append(f.students[:i], f.students[i+1:]...)
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeStudents) add(name, surname string, chatID *int64) *model.Student {
	st := &model.Student{Name: name, Surname: surname, ParentChatID: chatID}
	_ = f.Create(context.Background(), st)
	return st
}

type fakeAttendance struct {
	records []*model.Attendance
	err     error
}

func (f *fakeAttendance) Create(ctx context.Context, a *model.Attendance) error {
	if f.err != nil {
		return f.err
	}
	a.ID = int64(len(f.records) + 1)
	f.records = append(f.records, a)
	return nil
}

func (f *fakeAttendance) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Attendance, error) {
	var out []*model.Attendance
	for _, a := range f.records {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, f.err
}

func (f *fakeAttendance) GetAll(ctx context.Context) ([]*model.Attendance, error) {
	return f.records, f.err
}

type fakeExams struct {
	exams []*model.Exam
	err   error
}

func (f *fakeExams) Create(ctx context.Context, exam *model.Exam) error {
	if f.err != nil {
		return f.err
	}
	exam.ID = int64(len(f.exams) + 1)
	f.exams = append(f.exams, exam)
	return nil
}

func (f *fakeExams) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Exam, error) {
	var out []*model.Exam
	for _, e := range f.exams {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, f.err
}

func (f *fakeExams) GetAll(ctx context.Context) ([]*model.Exam, error) {
	return f.exams, f.err
}

type fakeUsers struct {
	users []*model.User
	err   error
}

func (f *fakeUsers) Create(ctx context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	user.ID = int64(len(f.users) + 1)
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]*model.User, error) {
	return f.users, f.err
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id int64, hash string) (bool, error) {
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) (bool, error) {
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return true, nil
		}
	}
	return false, f.err
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) Get(ctx context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSettings) Set(ctx context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeBackups struct {
	backups []*model.Backup
	err     error
}

func (f *fakeBackups) Create(ctx context.Context, b *model.Backup) error {
	if f.err != nil {
		return f.err
	}
	b.ID = int64(len(f.backups) + 1)
	f.backups = append(f.backups, b)
	return nil
}

func (f *fakeBackups) List(ctx context.Context) ([]*model.Backup, error) {
	return f.backups, f.err
}

type recordingQueue struct {
	mu       sync.Mutex
	messages []notifier.Message
}

func (q *recordingQueue) Enqueue(msg notifier.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return true
}

type recordingAttendanceNotifier struct {
	records []*model.Attendance
}

func (r *recordingAttendanceNotifier) AttendanceRecorded(ctx context.Context, a *model.Attendance) {
	r.records = append(r.records, a)
}

type recordingBackupObserver struct {
	results []string
}

func (r *recordingBackupObserver) BackupFinished(result string) {
	r.results = append(r.results, result)
}

func chat(id int64) *int64 {
	return &id
}

func str(s string) *string {
	return &s
}

// deferredJobs копит фоновые задачи, тест запускает их явно
type deferredJobs struct {
	jobs []func()
}

func (d *deferredJobs) schedule(job func()) {
	d.jobs = append(d.jobs, job)
}

func (d *deferredJobs) runAll() {
	for _, job := range d.jobs {
		job()
	}
	d.jobs = nil
}

func runNow(job func()) {
	job()
}
