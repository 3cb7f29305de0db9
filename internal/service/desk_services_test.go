package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fixedClock(value string) func() time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestAvailabilityServiceAddWindow(t *testing.T) {
	windows := &fakeWindows{}
	svc := NewAvailabilityService(windows, nil)
	ctx := context.Background()

	w, err := svc.AddWindow(ctx, 7, "2024-03-05T09:00:00", "2024-03-05T11:00:00")
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.TeacherID)

	_, err = svc.AddWindow(ctx, 7, "2024-03-05T10:00:00", "2024-03-05T12:00:00")
	require.NoError(t, err, "overlapping windows are allowed")

	_, err = svc.AddWindow(ctx, 7, "09:00", "2024-03-05T11:00:00")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.AddWindow(ctx, 7, "2024-03-05T11:00:00", "2024-03-05T11:00:00")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	list, err := svc.WindowsFor(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	empty, err := svc.WindowsFor(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, svc.DeleteWindow(ctx, w.ID))
	assert.ErrorIs(t, svc.DeleteWindow(ctx, w.ID), apperrors.ErrNotFound)
}

func TestStudentServiceCRUD(t *testing.T) {
	store := &fakeStudents{}
	svc := NewStudentService(store, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, CreateStudentRequest{Name: "  Ayşe ", Surname: "Yılmaz", NationalID: "12345678901"})
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", st.Name)
	assert.Equal(t, "Ayşe Yılmaz", st.FullName())

	_, err = svc.Create(ctx, CreateStudentRequest{Name: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	changed, err := svc.Update(ctx, st.ID, model.StudentPatch{})
	require.NoError(t, err)
	assert.False(t, changed, "empty patch is a no-op")

	changed, err = svc.Update(ctx, st.ID, model.StudentPatch{Surname: str("Demir"), ParentChatID: chat(555)})
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", got.Name)
	assert.Equal(t, "Demir", got.Surname)
	assert.Equal(t, "12345678901", got.NationalID)

	linked, err := svc.FindByParentChat(ctx, 555)
	require.NoError(t, err)
	assert.Len(t, linked, 1)

	_, err = svc.Update(ctx, st.ID, model.StudentPatch{Name: str(" ")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(ctx, 99, model.StudentPatch{Name: str("X")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, st.ID))
	_, err = svc.Get(ctx, st.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, st.ID), apperrors.ErrNotFound)
}

func TestAttendanceServiceRecord(t *testing.T) {
	store := &fakeAttendance{}
	notify := &recordingAttendanceNotifier{}
	svc := NewAttendanceService(store, notify, nil)
	svc.now = fixedClock("2024-03-05T14:30:15")

	rec, err := svc.Record(context.Background(), 3, model.AttendanceLate)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T14:30:15", model.FormatLocal(rec.TS))
	require.Len(t, notify.records, 1)
	assert.Equal(t, rec, notify.records[0])

	_, err = svc.Record(context.Background(), 3, "sick")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Len(t, store.records, 1)

	store.err = errors.New("disk full")
	_, err = svc.Record(context.Background(), 3, model.AttendancePresent)
	assert.ErrorIs(t, err, store.err)
	assert.Len(t, notify.records, 1, "no notification when the write fails")
}

func TestExamServiceAdd(t *testing.T) {
	store := &fakeExams{}
	svc := NewExamService(store, nil)
	svc.now = fixedClock("2024-03-05T10:00:00")
	ctx := context.Background()

	e, err := svc.Add(ctx, 1, AddExamRequest{Name: "Deneme 1", Score: 87})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T10:00:00", model.FormatLocal(e.TS))

	e, err = svc.Add(ctx, 1, AddExamRequest{Name: "Deneme 2", Score: 100, TS: "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01T00:00:00", model.FormatLocal(e.TS))

	for _, req := range []AddExamRequest{
		{Name: "", Score: 50},
		{Name: "x", Score: 101},
		{Name: "x", Score: -1},
		{Name: "x", Score: 1, TS: "yesterday"},
	} {
		_, err := svc.Add(ctx, 1, req)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "%+v", req)
	}

	list, err := svc.ListByStudent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUserServiceAuthentication(t *testing.T) {
	store := &fakeUsers{}
	svc := NewUserService(store, nil)
	svc.cost = bcrypt.MinCost
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "secret"))
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "other"), "second call keeps the existing admin")
	require.Len(t, store.users, 1)
	assert.NotEqual(t, "secret", store.users[0].PasswordHash)

	user, err := svc.Authenticate(ctx, "admin", "secret", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminUsername, user.Username)

	_, err = svc.Authenticate(ctx, "admin", "wrong", model.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "admin", "secret", model.RoleTeacher)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "ghost", "secret", "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	teacher, err := svc.CreateUser(ctx, CreateUserRequest{Username: "mehmet", Password: "1234", Role: model.RoleTeacher})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "mehmet", Password: "abcd", Role: model.RoleTeacher})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "ali", Password: "abcd", Role: "owner"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, "mehmet", "1234", "5678"))
	_, err = svc.Authenticate(ctx, "mehmet", "5678", model.RoleTeacher)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "mehmet", "1234", "0000"), apperrors.ErrUnauthorized)

	require.NoError(t, svc.DeleteUser(ctx, teacher.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, teacher.ID), apperrors.ErrNotFound)
}

func TestNotificationServiceAttendanceMessage(t *testing.T) {
	students := &fakeStudents{}
	withChat := students.add("Ayşe", "Yılmaz", chat(555))
	noChat := students.add("Can", "Demir", nil)
	queue := &recordingQueue{}
	svc := NewNotificationService(students, &fakeAppointments{}, queue, &fakeSettings{}, nil)
	svc.async = runNow

	ts, _ := model.ParseLocal("2024-03-05T14:30:15")
	svc.AttendanceRecorded(context.Background(), &model.Attendance{StudentID: withChat.ID, Status: model.AttendanceAbsent, TS: ts})
	svc.AttendanceRecorded(context.Background(), &model.Attendance{StudentID: noChat.ID, Status: model.AttendancePresent, TS: ts})
	svc.AttendanceRecorded(context.Background(), &model.Attendance{StudentID: 404, Status: model.AttendancePresent, TS: ts})

	require.Len(t, queue.messages, 1)
	msg := queue.messages[0]
	assert.Equal(t, int64(555), msg.ChatID)
	assert.Equal(t, notifier.KindText, msg.Kind)
	assert.Contains(t, msg.Text, "Ayşe Yılmaz")
	assert.Contains(t, msg.Text, "отсутствовал(а)")
	assert.Contains(t, msg.Text, "2024-03-05 14:30:15")
}

func TestNotificationServiceAppointmentBooked(t *testing.T) {
	students := &fakeStudents{}
	st := students.add("Ayşe", "Yılmaz", chat(555))
	queue := &recordingQueue{}
	svc := NewNotificationService(students, &fakeAppointments{}, queue, &fakeSettings{}, nil)
	svc.async = runNow

	svc.AppointmentBooked(context.Background(), &model.Appointment{StudentID: st.ID, TeacherID: 7, StartTS: "2024-03-05T09:30:00", DurationMin: 15})

	require.Len(t, queue.messages, 1)
	assert.Contains(t, queue.messages[0].Text, "Вторник, 05.03.2024 09:30")
	assert.Contains(t, queue.messages[0].Text, "15 мин")
	assert.Contains(t, queue.messages[0].Text, "#7")
}

func TestNotificationServiceLooksUpParentOutsideRequest(t *testing.T) {
	students := &fakeStudents{}
	st := students.add("Ayşe", "Yılmaz", chat(555))
	queue := &recordingQueue{}
	jobs := &deferredJobs{}
	svc := NewNotificationService(students, &fakeAppointments{}, queue, &fakeSettings{}, nil)
	svc.async = jobs.schedule

	ctx, cancel := context.WithCancel(context.Background())
	appt := &model.Appointment{StudentID: st.ID, TeacherID: 7, StartTS: "2024-03-05T09:30:00", DurationMin: 15}
	svc.AppointmentBooked(ctx, appt)
	svc.AttendanceRecorded(ctx, &model.Attendance{StudentID: st.ID, Status: model.AttendanceLate, TS: time.Date(2024, 3, 5, 9, 40, 0, 0, time.UTC)})

	assert.Zero(t, students.gets)
	assert.Empty(t, queue.messages)

	// Запрос завершился, задачи всё равно отправляют сообщения
	cancel()
	appt.DurationMin = 90
	jobs.runAll()

	assert.Equal(t, 2, students.gets)
	require.Len(t, queue.messages, 2)
	assert.Contains(t, queue.messages[0].Text, "15 мин")
	assert.Contains(t, queue.messages[1].Text, "опоздал(а)")
}

func TestNotificationServiceWeeklyDigest(t *testing.T) {
	students := &fakeStudents{}
	st := students.add("Ayşe", "Yılmaz", chat(555))
	students.add("Can", "Demir", nil)
	appts := &fakeAppointments{}
	appts.seed(st.ID, 7, "2024-03-04T09:00:00", "2024-03-06T10:00:00", "2024-03-12T09:00:00", "broken")
	queue := &recordingQueue{}
	svc := NewNotificationService(students, appts, queue, &fakeSettings{}, nil)
	svc.now = fixedClock("2024-03-07T18:00:00")

	sent, err := svc.SendWeeklyDigests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, queue.messages, 1)
	msg := queue.messages[0]
	assert.Equal(t, notifier.KindPhoto, msg.Kind)
	assert.Equal(t, "week.png", msg.Filename)
	assert.True(t, bytes.HasPrefix(msg.Data, []byte("\x89PNG")))
	assert.Contains(t, msg.Text, "2 занятия")
}

func TestNotificationServiceToken(t *testing.T) {
	settings := &fakeSettings{}
	svc := NewNotificationService(&fakeStudents{}, &fakeAppointments{}, nil, settings, nil)
	ctx := context.Background()

	token, err := svc.Token(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, svc.SetToken(ctx, " 123:abc "))
	token, err = svc.Token(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", token)

	token, err = svc.Token(ctx, "999:env")
	require.NoError(t, err)
	assert.Equal(t, "999:env", token, "configured token wins")
}

func TestBackupServiceWritesSnapshot(t *testing.T) {
	students := &fakeStudents{}
	st := students.add("Ayşe", "Yılmaz, Jr", chat(555))
	appts := &fakeAppointments{}
	appts.seed(st.ID, 7, "2024-03-04T09:00:00", "legacy garbage")
	windows := &fakeWindows{}
	windows.add(7, "2024-03-04T08:00:00", "2024-03-04T12:00:00")
	backups := &fakeBackups{}
	observer := &recordingBackupObserver{}
	dir := t.TempDir()

	svc := NewBackupService(BackupSources{
		Students:     students,
		Appointments: appts,
		Availability: windows,
		Attendance:   &fakeAttendance{},
		Exams:        &fakeExams{},
	}, backups, dir, observer, nil)
	svc.now = fixedClock("2024-03-05T03:00:00")

	backup, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_20240305_030000"), backup.Path)
	assert.Equal(t, []string{"ok"}, observer.results)

	for _, name := range []string{"students", "appointments", "teacher_availability", "attendance", "exams"} {
		assert.FileExists(t, filepath.Join(backup.Path, name+".csv"))
	}

	data, err := os.ReadFile(filepath.Join(backup.Path, "appointments.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,student_id,teacher_id,start_ts,duration_min", lines[0])
	assert.Contains(t, lines[2], "legacy garbage")

	data, err = os.ReadFile(filepath.Join(backup.Path, "students.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Yılmaz, Jr"`)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBackupServiceFailure(t *testing.T) {
	observer := &recordingBackupObserver{}
	storeErr := errors.New("db down")
	svc := NewBackupService(BackupSources{
		Students:     &fakeStudents{err: storeErr},
		Appointments: &fakeAppointments{},
		Availability: &fakeWindows{},
		Attendance:   &fakeAttendance{},
		Exams:        &fakeExams{},
	}, &fakeBackups{}, t.TempDir(), observer, nil)

	_, err := svc.Backup(context.Background())
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, []string{"failed"}, observer.results)
}

func TestReportService(t *testing.T) {
	students := &fakeStudents{}
	st := students.add("Ayse", "Yilmaz", nil)
	appts := &fakeAppointments{}
	appts.seed(st.ID, 7, "2024-03-04T09:00:00")
	exams := &fakeExams{exams: []*model.Exam{{StudentID: st.ID, Name: "Deneme", Score: 80}}}

	svc := NewReportService(students, appts, &fakeAttendance{}, exams, nil)

	pdf, err := svc.StudentReport(context.Background(), st.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = svc.StudentReport(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
